package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
)

// MovementRefDTO referencia opcional al documento origen.
type MovementRefDTO struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// PostMovementRequest body para POST /api/ledger/movements (ajustes y posteos manuales).
type PostMovementRequest struct {
	ProductID string           `json:"product_id"`
	BranchID  string           `json:"branch_id"`
	Cause     string           `json:"cause"`
	Quantity  int64            `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Ref       *MovementRefDTO  `json:"ref,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// MovementResponse un asiento del log.
type MovementResponse struct {
	ID         int64            `json:"id"`
	ProductID  string           `json:"product_id"`
	BranchID   string           `json:"branch_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Cause      string           `json:"cause"`
	Quantity   int64            `json:"quantity"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	UserID     string           `json:"user_id"`
	Ref        *MovementRefDTO  `json:"ref,omitempty"`
	Note       string           `json:"note,omitempty"`
}

// ToMovementResponse mapea la entidad al DTO.
func ToMovementResponse(m *entity.MovementEntry) MovementResponse {
	out := MovementResponse{
		ID:         m.ID,
		ProductID:  m.ProductID,
		BranchID:   m.BranchID,
		OccurredAt: m.OccurredAt,
		Cause:      m.Cause,
		Quantity:   m.Quantity,
		UnitCost:   m.UnitCost,
		UserID:     m.UserID,
		Note:       m.Note,
	}
	if m.Ref != nil {
		out.Ref = &MovementRefDTO{Type: m.Ref.Type, ID: m.Ref.ID}
	}
	return out
}

// StockPositionResponse posición actual de un par (producto, sucursal).
type StockPositionResponse struct {
	ProductID      string     `json:"product_id"`
	BranchID       string     `json:"branch_id"`
	Quantity       int64      `json:"quantity"`
	MinStock       int64      `json:"min_stock"`
	MaxStock       int64      `json:"max_stock"`
	Location       string     `json:"location,omitempty"`
	LastMovementAt *time.Time `json:"last_movement_at,omitempty"`
	Active         bool       `json:"active"`
	Level          string     `json:"level"` // Bajo | Normal | Alto
}

// ToStockPositionResponse mapea la entidad al DTO.
func ToStockPositionResponse(p *entity.StockPosition) StockPositionResponse {
	level := "Normal"
	if p.BelowMinimum() {
		level = "Bajo"
	} else if p.MaxStock > 0 && p.Quantity >= p.MaxStock {
		level = "Alto"
	}
	return StockPositionResponse{
		ProductID:      p.ProductID,
		BranchID:       p.BranchID,
		Quantity:       p.Quantity,
		MinStock:       p.MinStock,
		MaxStock:       p.MaxStock,
		Location:       p.Location,
		LastMovementAt: p.LastMovementAt,
		Active:         p.Active,
		Level:          level,
	}
}

// UpdateThresholdsRequest body para PATCH de umbrales de una posición.
type UpdateThresholdsRequest struct {
	MinStock int64  `json:"min_stock"`
	MaxStock int64  `json:"max_stock"`
	Location string `json:"location,omitempty"`
}

// LowStockItemDTO posición en o bajo stock mínimo (reporte de reposición).
type LowStockItemDTO struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	BranchID    string `json:"branch_id"`
	Quantity    int64  `json:"quantity"`
	MinStock    int64  `json:"min_stock"`
	MaxStock    int64  `json:"max_stock"`
	Deficit     int64  `json:"deficit"`
}
