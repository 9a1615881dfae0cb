package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Sucursales-api/internal/application/dto"
	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/domain/entity"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// LedgerHandler maneja las peticiones HTTP del log de movimientos (protegido).
type LedgerHandler struct {
	svc *ledger.Service
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(svc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

// PostMovement godoc
// @Summary      Registrar un movimiento de inventario
// @Description  Postea un asiento con causa y delta firmado; actualiza la posición de stock de forma atómica.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [post]
func (h *LedgerHandler) PostMovement(c *fiber.Ctx) error {
	var in dto.PostMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := ledger.MovementInput{
		ProductID: in.ProductID,
		BranchID:  in.BranchID,
		Cause:     in.Cause,
		Quantity:  in.Quantity,
		UserID:    GetUserID(c),
		UnitCost:  in.UnitCost,
		Note:      in.Note,
	}
	if in.Ref != nil {
		input.Ref = &entity.MovementRef{Type: in.Ref.Type, ID: in.Ref.ID}
	}
	entry, err := h.svc.PostMovement(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(entry))
}

// GetStock godoc
// @Summary      Consultar posición de stock
// @Description  Devuelve la posición (producto, sucursal). Si el par nunca tuvo movimientos devuelve cantidad cero.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Param        branch_id   path  string  true  "ID de la sucursal"
// @Success      200  {object}  dto.StockPositionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/stock/{branch_id}/{product_id} [get]
func (h *LedgerHandler) GetStock(c *fiber.Ctx) error {
	branchID := c.Params("branch_id")
	productID := c.Params("product_id")
	position, err := h.svc.GetStock(c.Context(), productID, branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToStockPositionResponse(position))
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Description  Historial filtrable por producto, sucursal, causa y rango de fechas (más reciente primero).
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "ID del producto"
// @Param        branch_id   query  string  false  "ID de la sucursal"
// @Param        cause       query  string  false  "PURCHASE|SALE|TRANSFER|ADJUSTMENT|RETURN"
// @Param        from        query  string  false  "RFC3339"
// @Param        to          query  string  false  "RFC3339"
// @Param        limit       query  int     false  "Máximo de filas"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		BranchID:  c.Query("branch_id"),
		Cause:     c.Query("cause"),
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
		}
		filter.To = &t
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))

	entries, err := h.svc.ListMovements(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ToMovementResponse(e))
	}
	return c.JSON(out)
}
