package repository

import "github.com/jhoicas/Sucursales-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para el catálogo de productos (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	List(search string, limit, offset int) ([]*entity.Product, error)
}
