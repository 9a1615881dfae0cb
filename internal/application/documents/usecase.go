package documents

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// Service expone el contrato que consumen los módulos de documentos (ventas,
// compras, devoluciones): cada emisión/recepción/aprobación postea sus
// movimientos a través del Ledger Service. Los documentos son dueños de sus
// propios registros, nunca del stock.
type Service struct {
	txRunner ledger.TxRunner
	ledger   *ledger.Service
}

// NewService construye el integrador de documentos.
func NewService(txRunner ledger.TxRunner, ledgerSvc *ledger.Service) *Service {
	return &Service{txRunner: txRunner, ledger: ledgerSvc}
}

// Line un renglón de documento que afecta stock.
type Line struct {
	ProductID string
	Quantity  int64 // siempre positivo; el signo lo decide la operación
	UnitCost  *decimal.Decimal
}

// postAll postea todos los movimientos de un documento como una sola unidad
// transaccional: la emisión de una factura de tres renglones no puede dejar
// descontados dos.
func (s *Service) postAll(ctx context.Context, inputs []ledger.MovementInput) error {
	for _, in := range inputs {
		if err := s.ledger.ValidateInput(in); err != nil {
			return err
		}
	}
	return s.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockPositionRepository,
	) error {
		for _, in := range inputs {
			if _, err := s.ledger.PostMovementInTx(movRepo, stockRepo, in); err != nil {
				return err
			}
		}
		return nil
	})
}

// IssueSale descuenta stock por la emisión de una factura de venta.
func (s *Service) IssueSale(ctx context.Context, branchID, invoiceID, userID string, lines []Line) error {
	if invoiceID == "" || len(lines) == 0 {
		return domain.ErrInvalidInput
	}
	inputs := make([]ledger.MovementInput, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return domain.ErrInvalidInput
		}
		inputs = append(inputs, ledger.MovementInput{
			ProductID: l.ProductID,
			BranchID:  branchID,
			Cause:     entity.CauseSale,
			Quantity:  -l.Quantity,
			UserID:    userID,
			Ref:       &entity.MovementRef{Type: entity.RefInvoice, ID: invoiceID},
		})
	}
	return s.postAll(ctx, inputs)
}

// VoidSale revierte los descuentos de una factura anulada: mismo tipo SALE con
// delta positivo, referenciando la factura original.
func (s *Service) VoidSale(ctx context.Context, branchID, invoiceID, userID string, lines []Line) error {
	if invoiceID == "" || len(lines) == 0 {
		return domain.ErrInvalidInput
	}
	inputs := make([]ledger.MovementInput, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return domain.ErrInvalidInput
		}
		inputs = append(inputs, ledger.MovementInput{
			ProductID: l.ProductID,
			BranchID:  branchID,
			Cause:     entity.CauseSale,
			Quantity:  l.Quantity,
			UserID:    userID,
			Ref:       &entity.MovementRef{Type: entity.RefInvoice, ID: invoiceID},
			Note:      "Anulación de factura",
		})
	}
	return s.postAll(ctx, inputs)
}

// ReceivePurchase ingresa stock por la recepción de una orden de compra.
// El costo unitario de cada renglón es obligatorio.
func (s *Service) ReceivePurchase(ctx context.Context, branchID, orderID, userID string, lines []Line) error {
	if orderID == "" || len(lines) == 0 {
		return domain.ErrInvalidInput
	}
	inputs := make([]ledger.MovementInput, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 || l.UnitCost == nil || l.UnitCost.IsNegative() {
			return domain.ErrInvalidInput
		}
		inputs = append(inputs, ledger.MovementInput{
			ProductID: l.ProductID,
			BranchID:  branchID,
			Cause:     entity.CausePurchase,
			Quantity:  l.Quantity,
			UserID:    userID,
			UnitCost:  l.UnitCost,
			Ref:       &entity.MovementRef{Type: entity.RefPurchaseOrder, ID: orderID},
		})
	}
	return s.postAll(ctx, inputs)
}

// ApproveReturn reingresa stock por una devolución que pasó inspección.
func (s *Service) ApproveReturn(ctx context.Context, branchID, returnID, userID string, lines []Line) error {
	if returnID == "" || len(lines) == 0 {
		return domain.ErrInvalidInput
	}
	inputs := make([]ledger.MovementInput, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return domain.ErrInvalidInput
		}
		inputs = append(inputs, ledger.MovementInput{
			ProductID: l.ProductID,
			BranchID:  branchID,
			Cause:     entity.CauseReturn,
			Quantity:  l.Quantity,
			UserID:    userID,
			Ref:       &entity.MovementRef{Type: entity.RefReturn, ID: returnID},
		})
	}
	return s.postAll(ctx, inputs)
}

// Adjust registra una corrección manual de stock. La nota es obligatoria:
// todo ajuste debe poder explicarse después desde el log.
func (s *Service) Adjust(ctx context.Context, branchID, productID string, delta int64, note, userID string) (*entity.MovementEntry, error) {
	if note == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.ledger.PostMovement(ctx, ledger.MovementInput{
		ProductID: productID,
		BranchID:  branchID,
		Cause:     entity.CauseAdjustment,
		Quantity:  delta,
		UserID:    userID,
		Note:      note,
	})
}
