package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Sucursales-api/internal/application/dto"
	"github.com/jhoicas/Sucursales-api/internal/application/inventory"
)

// StockHandler maneja consultas de inventario por sucursal y umbrales (protegido).
type StockHandler struct {
	uc *inventory.StockQueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockQueryUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// ListByBranch godoc
// @Summary      Inventario de una sucursal
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id  path   string  true   "ID de la sucursal"
// @Param        limit      query  int     false  "Máximo de filas"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.StockPositionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{branch_id} [get]
func (h *StockHandler) ListByBranch(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	positions, err := h.uc.ListByBranch(c.Context(), c.Params("branch_id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockPositionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, dto.ToStockPositionResponse(p))
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Posiciones en o bajo stock mínimo
// @Description  Reporte de reposición ordenado por déficit. branch_id vacío cubre todas las sucursales.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "ID de la sucursal"
// @Param        limit      query  int     false  "Máximo de filas"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.LowStockItemDTO
// @Router       /api/stock/low [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	items, err := h.uc.LowStock(c.Context(), c.Query("branch_id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LowStockItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.LowStockItemDTO{
			ProductID:   it.ProductID,
			SKU:         it.SKU,
			ProductName: it.ProductName,
			BranchID:    it.BranchID,
			Quantity:    it.Quantity,
			MinStock:    it.MinStock,
			MaxStock:    it.MaxStock,
			Deficit:     it.MinStock - it.Quantity,
		})
	}
	return c.JSON(out)
}

// UpdateThresholds godoc
// @Summary      Actualizar umbrales de una posición
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branch_id   path  string  true  "ID de la sucursal"
// @Param        product_id  path  string  true  "ID del producto"
// @Param        body  body  dto.UpdateThresholdsRequest  true  "Umbrales"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{branch_id}/{product_id}/thresholds [patch]
func (h *StockHandler) UpdateThresholds(c *fiber.Ctx) error {
	var in dto.UpdateThresholdsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.uc.UpdateThresholds(c.Context(), c.Params("product_id"), c.Params("branch_id"), in.MinStock, in.MaxStock, in.Location)
	if err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Deactivate godoc
// @Summary      Desactivar una posición de stock
// @Tags         stock
// @Security     Bearer
// @Param        branch_id   path  string  true  "ID de la sucursal"
// @Param        product_id  path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{branch_id}/{product_id} [delete]
func (h *StockHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.uc.Deactivate(c.Context(), c.Params("product_id"), c.Params("branch_id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
