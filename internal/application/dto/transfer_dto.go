package dto

import (
	"time"

	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
)

// CreateTransferLineRequest renglón solicitado al crear una transferencia.
type CreateTransferLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	OriginID      string                      `json:"origin_branch_id"`
	DestinationID string                      `json:"destination_branch_id"`
	Notes         string                      `json:"notes,omitempty"`
	Lines         []CreateTransferLineRequest `json:"lines"`
}

// ReceiveLineRequest body para confirmar recepción de una línea.
type ReceiveLineRequest struct {
	ReceivedQty int64 `json:"received_qty"`
}

// CancelTransferRequest body para cancelar una transferencia.
type CancelTransferRequest struct {
	Reason string `json:"reason,omitempty"`
}

// TransferLineResponse renglón con reconciliación solicitado vs. recibido.
type TransferLineResponse struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	RequestedQty int64  `json:"requested_qty"`
	ReceivedQty  *int64 `json:"received_qty,omitempty"`
	Shortfall    int64  `json:"shortfall"`
	Resolved     bool   `json:"resolved"`
}

// TransferResponse transferencia con o sin líneas.
type TransferResponse struct {
	ID            string                 `json:"id"`
	Number        string                 `json:"number"`
	OriginID      string                 `json:"origin_branch_id"`
	DestinationID string                 `json:"destination_branch_id"`
	RequestedAt   time.Time              `json:"requested_at"`
	ExecutedAt    *time.Time             `json:"executed_at,omitempty"`
	Status        string                 `json:"status"`
	RequestedBy   string                 `json:"requested_by"`
	ApprovedBy    *string                `json:"approved_by,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	Lines         []TransferLineResponse `json:"lines,omitempty"`
}

// ToTransferResponse mapea la transferencia (y opcionalmente sus líneas) al DTO.
func ToTransferResponse(t *entity.Transfer, lines []*entity.TransferLine) TransferResponse {
	out := TransferResponse{
		ID:            t.ID,
		Number:        t.Number,
		OriginID:      t.OriginID,
		DestinationID: t.DestinationID,
		RequestedAt:   t.RequestedAt,
		ExecutedAt:    t.ExecutedAt,
		Status:        t.Status,
		RequestedBy:   t.RequestedBy,
		ApprovedBy:    t.ApprovedBy,
		Notes:         t.Notes,
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, TransferLineResponse{
			ID:           l.ID,
			ProductID:    l.ProductID,
			RequestedQty: l.RequestedQty,
			ReceivedQty:  l.ReceivedQty,
			Shortfall:    l.Shortfall(),
			Resolved:     l.Resolved(),
		})
	}
	return out
}
