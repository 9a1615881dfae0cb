package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo (colaborador externo del ledger:
// aquí solo se valida su existencia y se lee el costo de referencia).
type Product struct {
	ID        string
	SKU       string
	Barcode   string
	Name      string
	Cost      decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
