package entity

import "time"

// StockPosition representa el stock actual de un producto en una sucursal.
// Es la proyección materializada del log de movimientos: la cantidad debe ser
// siempre igual a la suma de los deltas registrados para el par (producto, sucursal).
// Se crea perezosamente con cantidad 0 y nunca se borra, solo se desactiva.
type StockPosition struct {
	ProductID      string
	BranchID       string
	Quantity       int64
	MinStock       int64
	MaxStock       int64
	Location       string
	LastMovementAt *time.Time
	Active         bool
	UpdatedAt      time.Time
}

// NewStockPosition crea la posición vacía por defecto para un par nunca visto.
func NewStockPosition(productID, branchID string) *StockPosition {
	return &StockPosition{
		ProductID: productID,
		BranchID:  branchID,
		Quantity:  0,
		Active:    true,
	}
}

// BelowMinimum indica si la posición está en o por debajo del stock mínimo.
func (p *StockPosition) BelowMinimum() bool {
	return p.Quantity <= p.MinStock
}
