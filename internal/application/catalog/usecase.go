package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Sucursales-api/internal/domain"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// BranchUseCase registro de sucursales (colaborador externo del ledger: el
// ledger solo valida existencia contra este registro).
type BranchUseCase struct {
	branchRepo repository.BranchRepository
}

// NewBranchUseCase construye el caso de uso de sucursales.
func NewBranchUseCase(branchRepo repository.BranchRepository) *BranchUseCase {
	return &BranchUseCase{branchRepo: branchRepo}
}

// Create registra una sucursal nueva.
func (uc *BranchUseCase) Create(ctx context.Context, name, address, city, phone string) (*entity.Branch, error) {
	if name == "" || address == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	branch := &entity.Branch{
		ID:        uuid.New().String(),
		Name:      name,
		Address:   address,
		City:      city,
		Phone:     phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.branchRepo.Create(branch); err != nil {
		return nil, err
	}
	return branch, nil
}

// GetByID devuelve una sucursal.
func (uc *BranchUseCase) GetByID(ctx context.Context, id string) (*entity.Branch, error) {
	branch, err := uc.branchRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}
	return branch, nil
}

// List lista sucursales.
func (uc *BranchUseCase) List(ctx context.Context, limit, offset int) ([]*entity.Branch, error) {
	if limit <= 0 {
		limit = 20
	}
	return uc.branchRepo.List(limit, offset)
}

// ProductUseCase registro básico de productos del catálogo.
type ProductUseCase struct {
	productRepo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso de productos.
func NewProductUseCase(productRepo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{productRepo: productRepo}
}

// Create registra un producto. SKU único.
func (uc *ProductUseCase) Create(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if product.SKU == "" || product.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.productRepo.GetBySKU(product.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	product.ID = uuid.New().String()
	product.Active = true
	product.CreatedAt = now
	product.UpdatedAt = now
	if err := uc.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetByID devuelve un producto.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// List lista productos, con búsqueda opcional por nombre/SKU/código de barras.
func (uc *ProductUseCase) List(ctx context.Context, search string, limit, offset int) ([]*entity.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	return uc.productRepo.List(search, limit, offset)
}
