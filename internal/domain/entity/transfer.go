package entity

import "time"

// Estados de una transferencia entre sucursales.
const (
	TransferRequested = "REQUESTED"  // creada, sin stock movido
	TransferApproved  = "APPROVED"   // autorizada, sin stock movido
	TransferInTransit = "IN_TRANSIT" // origen debitado, punto de no retorno
	TransferCompleted = "COMPLETED"  // todas las líneas resueltas en destino
	TransferCancelled = "CANCELLED"  // cancelada antes del despacho
)

// Transfer representa un traslado de mercadería entre dos sucursales.
// Solo muta a través de las transiciones enumeradas; nunca se borra.
type Transfer struct {
	ID            string
	Number        string
	OriginID      string
	DestinationID string
	RequestedAt   time.Time
	ExecutedAt    *time.Time
	Status        string
	RequestedBy   string
	ApprovedBy    *string
	Notes         string
}

// TransferLine es un renglón de la transferencia: qué producto y cuánto.
// ReceivedQty queda nulo hasta que destino confirma; una vez fijado es inmutable
// y nunca puede superar la cantidad solicitada (recepción parcial permitida).
type TransferLine struct {
	ID           string
	TransferID   string
	ProductID    string
	RequestedQty int64
	ReceivedQty  *int64
}

// Resolved indica si la línea ya fue confirmada por destino (incluso con 0 recibido).
func (l *TransferLine) Resolved() bool { return l.ReceivedQty != nil }

// Shortfall devuelve el faltante de la línea (solicitado - recibido), 0 si no resuelta.
func (l *TransferLine) Shortfall() int64 {
	if l.ReceivedQty == nil {
		return 0
	}
	return l.RequestedQty - *l.ReceivedQty
}

// transferTransitions enumera las transiciones permitidas. Cualquier movimiento
// no listado se rechaza: no existe camino de vuelta una vez debitado el origen.
var transferTransitions = map[string][]string{
	TransferRequested: {TransferApproved, TransferCancelled},
	TransferApproved:  {TransferInTransit, TransferCancelled},
	TransferInTransit: {TransferCompleted},
	TransferCompleted: {},
	TransferCancelled: {},
}

// CanTransition indica si el cambio de estado from -> to está enumerado.
func CanTransition(from, to string) bool {
	for _, next := range transferTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
