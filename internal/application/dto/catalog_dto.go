package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
)

// CreateBranchRequest body para registrar una sucursal.
type CreateBranchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// CreateProductRequest body para registrar un producto.
type CreateProductRequest struct {
	SKU     string          `json:"sku"`
	Barcode string          `json:"barcode,omitempty"`
	Name    string          `json:"name"`
	Cost    decimal.Decimal `json:"cost"`
}

// BranchResponse datos públicos de una sucursal.
type BranchResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Active  bool   `json:"active"`
}

// ToBranchResponse mapea la entidad al DTO.
func ToBranchResponse(b *entity.Branch) BranchResponse {
	return BranchResponse{
		ID:      b.ID,
		Name:    b.Name,
		Address: b.Address,
		City:    b.City,
		Phone:   b.Phone,
		Active:  b.Active,
	}
}

// ProductResponse datos públicos de un producto.
type ProductResponse struct {
	ID      string          `json:"id"`
	SKU     string          `json:"sku"`
	Barcode string          `json:"barcode,omitempty"`
	Name    string          `json:"name"`
	Cost    decimal.Decimal `json:"cost"`
	Active  bool            `json:"active"`
}

// ToProductResponse mapea la entidad al DTO.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:      p.ID,
		SKU:     p.SKU,
		Barcode: p.Barcode,
		Name:    p.Name,
		Cost:    p.Cost,
		Active:  p.Active,
	}
}
