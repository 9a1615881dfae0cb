package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Sucursales-api/internal/domain"
)

// Causas de movimiento de inventario.
const (
	CausePurchase   = "PURCHASE"   // recepción de orden de compra
	CauseSale       = "SALE"       // venta (negativo) o anulación de venta (positivo)
	CauseTransfer   = "TRANSFER"   // traslado entre sucursales (negativo origen, positivo destino)
	CauseAdjustment = "ADJUSTMENT" // ajuste manual, cualquier signo
	CauseReturn     = "RETURN"     // devolución aprobada
)

// Tipos de documento que puede referenciar un movimiento (referencia débil, no FK).
const (
	RefInvoice       = "INVOICE"
	RefPurchaseOrder = "PURCHASE_ORDER"
	RefReturn        = "RETURN"
	RefTransfer      = "TRANSFER"
)

// MovementRef referencia opcional al documento que originó el movimiento.
// Si se indica, deben venir tipo e id; nunca uno solo.
type MovementRef struct {
	Type string
	ID   string
}

// MovementEntry es un asiento inmutable del log de movimientos: todo cambio de
// cantidad en una posición (producto, sucursal) queda explicado por uno de estos.
type MovementEntry struct {
	ID         int64
	ProductID  string
	BranchID   string
	OccurredAt time.Time
	Cause      string
	Quantity   int64 // delta con signo
	UnitCost   *decimal.Decimal
	UserID     string
	Ref        *MovementRef
	Note       string
	CreatedAt  time.Time
}

// ValidCause indica si la causa es una de las cinco enumeradas.
func ValidCause(cause string) bool {
	switch cause {
	case CausePurchase, CauseSale, CauseTransfer, CauseAdjustment, CauseReturn:
		return true
	}
	return false
}

// ValidateCauseSign verifica la coherencia signo/causa de un delta.
// PURCHASE y RETURN solo suman; SALE es negativo en venta y positivo al anular;
// TRANSFER es negativo en el tramo de salida y positivo en el de entrada;
// ADJUSTMENT admite ambos signos. Cero nunca es válido.
func ValidateCauseSign(cause string, quantity int64) error {
	if quantity == 0 {
		return domain.ErrInvalidInput
	}
	if !ValidCause(cause) {
		return domain.ErrInvalidCause
	}
	if (cause == CausePurchase || cause == CauseReturn) && quantity < 0 {
		return domain.ErrInvalidCause
	}
	return nil
}

// ValidateRef verifica que una referencia opcional venga completa.
func ValidateRef(ref *MovementRef) error {
	if ref == nil {
		return nil
	}
	if ref.Type == "" || ref.ID == "" {
		return domain.ErrInvalidInput
	}
	return nil
}
