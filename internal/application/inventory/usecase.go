package inventory

import (
	"context"

	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// StockQueryUseCase consultas de solo lectura sobre posiciones de stock y
// mantenimiento de umbrales. No toca cantidades: eso es exclusivo del ledger.
type StockQueryUseCase struct {
	stockRepo  repository.StockPositionRepository
	branchRepo repository.BranchRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(stockRepo repository.StockPositionRepository, branchRepo repository.BranchRepository) *StockQueryUseCase {
	return &StockQueryUseCase{stockRepo: stockRepo, branchRepo: branchRepo}
}

// ListByBranch lista las posiciones de una sucursal.
func (uc *StockQueryUseCase) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.StockPosition, error) {
	if branchID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}
	return uc.stockRepo.ListByBranch(branchID, limit, offset)
}

// LowStock devuelve las posiciones en o bajo stock mínimo, mayor déficit
// primero. Lo consume el reporte de reposición.
func (uc *StockQueryUseCase) LowStock(ctx context.Context, branchID string, limit, offset int) ([]repository.LowStockItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.stockRepo.ListBelowMinimum(branchID, limit, offset)
}

// UpdateThresholds cambia mínimo, máximo y ubicación de una posición.
func (uc *StockQueryUseCase) UpdateThresholds(ctx context.Context, productID, branchID string, minStock, maxStock int64, location string) error {
	if productID == "" || branchID == "" {
		return domain.ErrInvalidInput
	}
	if minStock < 0 || maxStock < minStock {
		return domain.ErrInvalidInput
	}
	return uc.stockRepo.UpdateThresholds(productID, branchID, minStock, maxStock, location)
}

// Deactivate da de baja lógica una posición (nunca se borra).
func (uc *StockQueryUseCase) Deactivate(ctx context.Context, productID, branchID string) error {
	if productID == "" || branchID == "" {
		return domain.ErrInvalidInput
	}
	return uc.stockRepo.Deactivate(productID, branchID)
}
