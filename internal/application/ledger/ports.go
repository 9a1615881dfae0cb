package ledger

import (
	"context"

	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es lo que garantiza que la actualización de la
// posición y el asiento del log sean una sola unidad atómica: o ambos persisten
// o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockPositionRepository,
	) error) error
}
