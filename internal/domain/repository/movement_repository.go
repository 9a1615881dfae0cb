package repository

import (
	"time"

	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
)

// MovementFilter filtros para listar movimientos de una posición.
type MovementFilter struct {
	ProductID string
	BranchID  string
	From      *time.Time
	To        *time.Time
	Cause     string // vacío = todas las causas
	Limit     int
	Offset    int
}

// MovementRepository define el puerto de persistencia del log de movimientos.
// El log es append-only: no existen Update ni Delete.
type MovementRepository interface {
	// Create inserta el asiento y completa movement.ID con el id autoincremental.
	Create(movement *entity.MovementEntry) error
	GetByID(id int64) (*entity.MovementEntry, error)
	// List devuelve los movimientos del par (producto, sucursal), más recientes primero.
	List(filter MovementFilter) ([]*entity.MovementEntry, error)
	// SumDeltas suma todos los deltas del par; usado por la ley de recomputación.
	SumDeltas(productID, branchID string) (int64, error)
}
