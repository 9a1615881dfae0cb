package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// Engine orquesta el ciclo de vida de una transferencia entre sucursales:
// Requested -> Approved -> InTransit -> Completed, con cancelación posible solo
// antes de debitar el origen. Los dos puntos que mueven stock físico (débito en
// origen, crédito en destino) postean movimientos a través del Ledger Service
// dentro de la misma transacción que avanza el estado.
type Engine struct {
	txRunner     TxRunner
	ledger       *ledger.Service
	transferRepo repository.TransferRepository
	branchRepo   repository.BranchRepository
	productRepo  repository.ProductRepository
	stockRepo    repository.StockPositionRepository
}

// NewEngine construye el motor de transferencias.
func NewEngine(
	txRunner TxRunner,
	ledgerSvc *ledger.Service,
	transferRepo repository.TransferRepository,
	branchRepo repository.BranchRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockPositionRepository,
) *Engine {
	return &Engine{
		txRunner:     txRunner,
		ledger:       ledgerSvc,
		transferRepo: transferRepo,
		branchRepo:   branchRepo,
		productRepo:  productRepo,
		stockRepo:    stockRepo,
	}
}

// LineInput un renglón solicitado.
type LineInput struct {
	ProductID string
	Quantity  int64
}

// CreateInput entrada para crear una transferencia.
type CreateInput struct {
	OriginID      string
	DestinationID string
	RequestedBy   string
	Notes         string
	Lines         []LineInput
}

// Create valida sucursales, productos y cobertura de stock en origen (solo
// lectura, sin mover nada) y crea la transferencia en estado REQUESTED.
func (e *Engine) Create(ctx context.Context, input CreateInput) (*entity.Transfer, []*entity.TransferLine, error) {
	if input.OriginID == "" || input.DestinationID == "" || input.RequestedBy == "" || len(input.Lines) == 0 {
		return nil, nil, domain.ErrInvalidInput
	}
	if input.OriginID == input.DestinationID {
		return nil, nil, domain.ErrInvalidInput
	}
	for _, br := range []string{input.OriginID, input.DestinationID} {
		branch, err := e.branchRepo.GetByID(br)
		if err != nil {
			return nil, nil, err
		}
		if branch == nil || !branch.Active {
			return nil, nil, domain.ErrUnknownBranch
		}
	}

	now := time.Now()
	t := &entity.Transfer{
		ID:            uuid.New().String(),
		OriginID:      input.OriginID,
		DestinationID: input.DestinationID,
		RequestedAt:   now,
		Status:        entity.TransferRequested,
		RequestedBy:   input.RequestedBy,
		Notes:         input.Notes,
	}

	lines := make([]*entity.TransferLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		if in.Quantity <= 0 {
			return nil, nil, domain.ErrInvalidInput
		}
		product, err := e.productRepo.GetByID(in.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if product == nil || !product.Active {
			return nil, nil, domain.ErrUnknownProduct
		}
		line := &entity.TransferLine{
			ID:           uuid.New().String(),
			TransferID:   t.ID,
			ProductID:    in.ProductID,
			RequestedQty: in.Quantity,
		}
		// Chequeo de cobertura en origen: solo lectura, sin mover stock.
		position, err := e.stockRepo.Get(in.ProductID, input.OriginID)
		if err != nil {
			return nil, nil, err
		}
		available := int64(0)
		if position != nil {
			available = position.Quantity
		}
		if available < in.Quantity {
			return nil, nil, &domain.InsufficientStockError{
				ProductID: in.ProductID,
				BranchID:  input.OriginID,
				Requested: in.Quantity,
				Available: available,
				LineID:    line.ID,
			}
		}
		lines = append(lines, line)
	}

	if err := e.transferRepo.Create(t, lines); err != nil {
		return nil, nil, err
	}
	return t, lines, nil
}

// Approve re-verifica que el origen siga cubriendo cada línea (el stock pudo
// moverse desde la solicitud), fija autorizador y fecha de ejecución y pasa a
// APPROVED. Falla con InsufficientStock nombrando la primera línea descubierta.
func (e *Engine) Approve(ctx context.Context, transferID, approverID string) (*entity.Transfer, error) {
	if transferID == "" || approverID == "" {
		return nil, domain.ErrInvalidInput
	}
	var result *entity.Transfer
	err := e.txRunner.RunTransfer(ctx, func(
		_ repository.MovementRepository,
		stockRepo repository.StockPositionRepository,
		transferRepo repository.TransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(t.Status, entity.TransferApproved) {
			return &domain.InvalidTransitionError{TransferID: t.ID, From: t.Status, To: entity.TransferApproved}
		}
		lines, err := transferRepo.GetLines(transferID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			position, err := stockRepo.Get(line.ProductID, t.OriginID)
			if err != nil {
				return err
			}
			available := int64(0)
			if position != nil {
				available = position.Quantity
			}
			if available < line.RequestedQty {
				return &domain.InsufficientStockError{
					ProductID: line.ProductID,
					BranchID:  t.OriginID,
					Requested: line.RequestedQty,
					Available: available,
					LineID:    line.ID,
				}
			}
		}
		now := time.Now()
		t.Status = entity.TransferApproved
		t.ApprovedBy = &approverID
		t.ExecutedAt = &now
		if err := transferRepo.UpdateStatus(t); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Dispatch debita el origen: postea por cada línea un movimiento TRANSFER
// negativo igual a lo solicitado, referenciando la transferencia, y pasa a
// IN_TRANSIT. Es el punto de no retorno del lado origen: si cualquier línea
// falla, la transacción completa se revierte y ningún débito queda aplicado.
func (e *Engine) Dispatch(ctx context.Context, transferID, userID string) (*entity.Transfer, error) {
	if transferID == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}
	var result *entity.Transfer
	err := e.txRunner.RunTransfer(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockPositionRepository,
		transferRepo repository.TransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(t.Status, entity.TransferInTransit) {
			return &domain.InvalidTransitionError{TransferID: t.ID, From: t.Status, To: entity.TransferInTransit}
		}
		lines, err := transferRepo.GetLines(transferID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			_, err := e.ledger.PostMovementInTx(movRepo, stockRepo, ledger.MovementInput{
				ProductID: line.ProductID,
				BranchID:  t.OriginID,
				Cause:     entity.CauseTransfer,
				Quantity:  -line.RequestedQty,
				UserID:    userID,
				Ref:       &entity.MovementRef{Type: entity.RefTransfer, ID: t.ID},
				Note:      fmt.Sprintf("Transferencia %s - salida", t.Number),
			})
			if err != nil {
				return err
			}
		}
		t.Status = entity.TransferInTransit
		if err := transferRepo.UpdateStatus(t); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReceiveLine confirma la recepción de una línea en destino. Acepta recepción
// parcial (merma o daño en tránsito) e incluso 0, que resuelve la línea sin
// acreditar nada. Una línea resuelta es inmutable. Cuando la última línea se
// resuelve, la transferencia pasa a COMPLETED.
func (e *Engine) ReceiveLine(ctx context.Context, transferID, lineID string, receivedQty int64, userID string) (*entity.Transfer, error) {
	if transferID == "" || lineID == "" || userID == "" || receivedQty < 0 {
		return nil, domain.ErrInvalidInput
	}
	var result *entity.Transfer
	err := e.txRunner.RunTransfer(ctx, func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockPositionRepository,
		transferRepo repository.TransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if t.Status != entity.TransferInTransit {
			return &domain.InvalidTransitionError{TransferID: t.ID, From: t.Status, To: entity.TransferCompleted}
		}
		line, err := transferRepo.GetLineForUpdate(transferID, lineID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrNotFound
		}
		if line.Resolved() {
			return domain.ErrLineResolved
		}
		if receivedQty > line.RequestedQty {
			return domain.ErrInvalidInput
		}
		if receivedQty > 0 {
			_, err := e.ledger.PostMovementInTx(movRepo, stockRepo, ledger.MovementInput{
				ProductID: line.ProductID,
				BranchID:  t.DestinationID,
				Cause:     entity.CauseTransfer,
				Quantity:  receivedQty,
				UserID:    userID,
				Ref:       &entity.MovementRef{Type: entity.RefTransfer, ID: t.ID},
				Note:      fmt.Sprintf("Transferencia %s - entrada", t.Number),
			})
			if err != nil {
				return err
			}
		}
		if err := transferRepo.SetLineReceived(transferID, lineID, receivedQty); err != nil {
			return err
		}
		pending, err := transferRepo.CountUnresolvedLines(transferID)
		if err != nil {
			return err
		}
		if pending == 0 {
			t.Status = entity.TransferCompleted
			if err := transferRepo.UpdateStatus(t); err != nil {
				return err
			}
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel anula una transferencia que aún no movió stock (REQUESTED o APPROVED).
// Pasado el despacho no hay camino de cancelación: un envío fallido se resuelve
// con recepciones parciales más un ADJUSTMENT manual en destino.
func (e *Engine) Cancel(ctx context.Context, transferID, reason, userID string) (*entity.Transfer, error) {
	if transferID == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}
	var result *entity.Transfer
	err := e.txRunner.RunTransfer(ctx, func(
		_ repository.MovementRepository,
		_ repository.StockPositionRepository,
		transferRepo repository.TransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(t.Status, entity.TransferCancelled) {
			return &domain.InvalidTransitionError{TransferID: t.ID, From: t.Status, To: entity.TransferCancelled}
		}
		t.Status = entity.TransferCancelled
		if reason != "" {
			t.Notes = appendNote(t.Notes, fmt.Sprintf("Cancelada: %s", reason))
		}
		if err := transferRepo.UpdateStatus(t); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get devuelve la transferencia con sus líneas.
func (e *Engine) Get(ctx context.Context, transferID string) (*entity.Transfer, []*entity.TransferLine, error) {
	t, err := e.transferRepo.GetByID(transferID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, domain.ErrNotFound
	}
	lines, err := e.transferRepo.GetLines(transferID)
	if err != nil {
		return nil, nil, err
	}
	return t, lines, nil
}

// List lista transferencias con filtros de estado, sucursal y fechas.
func (e *Engine) List(ctx context.Context, filter repository.TransferFilter) ([]*entity.Transfer, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return e.transferRepo.List(filter)
}

// appendNote agrega una línea fechada a las observaciones, como hace el resto
// del back office con los documentos.
func appendNote(notes, entry string) string {
	stamped := fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), entry)
	if notes == "" {
		return stamped
	}
	return notes + "\n" + stamped
}
