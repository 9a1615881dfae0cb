package repository

import (
	"time"

	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
)

// TransferFilter filtros para listar transferencias.
type TransferFilter struct {
	Status        string
	OriginID      string
	DestinationID string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// TransferRepository define el puerto de persistencia de transferencias y sus líneas.
// Las transferencias nunca se borran: solo avanzan de estado.
type TransferRepository interface {
	// Create persiste la transferencia con sus líneas y completa Number e IDs.
	Create(transfer *entity.Transfer, lines []*entity.TransferLine) error
	GetByID(id string) (*entity.Transfer, error)
	// GetForUpdate bloquea la fila de la transferencia para serializar transiciones.
	GetForUpdate(id string) (*entity.Transfer, error)
	GetLines(transferID string) ([]*entity.TransferLine, error)
	GetLineForUpdate(transferID, lineID string) (*entity.TransferLine, error)
	// UpdateStatus persiste estado, autorizador, fecha de ejecución y notas.
	UpdateStatus(transfer *entity.Transfer) error
	// SetLineReceived fija la cantidad recibida de una línea aún no resuelta.
	SetLineReceived(transferID, lineID string, receivedQty int64) error
	CountUnresolvedLines(transferID string) (int, error)
	List(filter TransferFilter) ([]*entity.Transfer, error)
}
