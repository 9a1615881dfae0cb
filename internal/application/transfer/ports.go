package transfer

import (
	"context"

	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios que necesita una transición de transferencia. Los asientos de
// todas las líneas de una transición y el cambio de estado son una sola unidad:
// un débito parcial sobre algunas líneas no es un resultado válido.
type TxRunner interface {
	RunTransfer(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockPositionRepository,
		transferRepo repository.TransferRepository,
	) error) error
}
