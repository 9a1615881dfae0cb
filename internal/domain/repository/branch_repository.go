package repository

import "github.com/jhoicas/Sucursales-api/internal/domain/entity"

// BranchRepository define el puerto de persistencia para Sucursales (DIP).
type BranchRepository interface {
	Create(branch *entity.Branch) error
	GetByID(id string) (*entity.Branch, error)
	Update(branch *entity.Branch) error
	List(limit, offset int) ([]*entity.Branch, error)
}
