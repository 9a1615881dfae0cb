package dto

import "github.com/shopspring/decimal"

// DocumentLineRequest renglón de documento que afecta stock.
type DocumentLineRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// SaleMovementRequest body para emisión o anulación de venta.
type SaleMovementRequest struct {
	BranchID  string                `json:"branch_id"`
	InvoiceID string                `json:"invoice_id"`
	Lines     []DocumentLineRequest `json:"lines"`
}

// PurchaseReceiptRequest body para recepción de orden de compra.
type PurchaseReceiptRequest struct {
	BranchID string                `json:"branch_id"`
	OrderID  string                `json:"order_id"`
	Lines    []DocumentLineRequest `json:"lines"`
}

// ReturnApprovalRequest body para aprobación de devolución.
type ReturnApprovalRequest struct {
	BranchID string                `json:"branch_id"`
	ReturnID string                `json:"return_id"`
	Lines    []DocumentLineRequest `json:"lines"`
}

// AdjustmentRequest body para corrección manual. La nota es obligatoria.
type AdjustmentRequest struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"` // delta con signo
	Note      string `json:"note"`
}
