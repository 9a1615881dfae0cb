package repository

import "github.com/jhoicas/Sucursales-api/internal/domain/entity"

// LowStockItem resultado crudo de la consulta de posiciones en o bajo el mínimo.
type LowStockItem struct {
	ProductID   string
	SKU         string
	ProductName string
	BranchID    string
	Quantity    int64
	MinStock    int64
	MaxStock    int64
}

// StockPositionRepository define el puerto para la proyección de stock por
// (producto, sucursal). Toda escritura de cantidad pasa por el Ledger Service;
// el resto de la aplicación solo lee.
type StockPositionRepository interface {
	// Get devuelve la posición, o la posición vacía por defecto si el par nunca se vio.
	Get(productID, branchID string) (*entity.StockPosition, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para serializar los
	// read-modify-write concurrentes sobre el mismo par. Pares distintos no se bloquean.
	GetForUpdate(productID, branchID string) (*entity.StockPosition, error)
	Upsert(position *entity.StockPosition) error
	// InsertIfAbsent materializa la posición solo si el par aún no tiene fila.
	// Si otra transacción la creó entre medio, no pisa la cantidad existente.
	InsertIfAbsent(position *entity.StockPosition) error
	// UpdateThresholds cambia mínimos/máximos/ubicación sin tocar la cantidad.
	UpdateThresholds(productID, branchID string, minStock, maxStock int64, location string) error
	Deactivate(productID, branchID string) error
	ListByBranch(branchID string, limit, offset int) ([]*entity.StockPosition, error)
	// ListBelowMinimum devuelve las posiciones en o bajo stock mínimo (índice
	// secundario de reposición), mayor déficit primero.
	ListBelowMinimum(branchID string, limit, offset int) ([]LowStockItem, error)
}
