package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Sucursales-api/internal/application/dto"
	"github.com/jhoicas/Sucursales-api/internal/application/transfer"
	"github.com/jhoicas/Sucursales-api/internal/domain/repository"
)

// TransferHandler maneja el ciclo de vida de transferencias entre sucursales (protegido).
type TransferHandler struct {
	engine *transfer.Engine
}

// NewTransferHandler construye el handler.
func NewTransferHandler(engine *transfer.Engine) *TransferHandler {
	return &TransferHandler{engine: engine}
}

// Create godoc
// @Summary      Solicitar una transferencia
// @Description  Crea la transferencia en estado REQUESTED validando cobertura de stock en origen.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "Transferencia"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := transfer.CreateInput{
		OriginID:      in.OriginID,
		DestinationID: in.DestinationID,
		RequestedBy:   GetUserID(c),
		Notes:         in.Notes,
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, transfer.LineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	t, lines, err := h.engine.Create(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferResponse(t, lines))
}

// Get godoc
// @Summary      Obtener una transferencia con sus líneas
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	t, lines, err := h.engine.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t, lines))
}

// List godoc
// @Summary      Listar transferencias
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "REQUESTED|APPROVED|IN_TRANSIT|COMPLETED|CANCELLED"
// @Param        origin       query  string  false  "Sucursal de origen"
// @Param        destination  query  string  false  "Sucursal de destino"
// @Param        from         query  string  false  "RFC3339"
// @Param        to           query  string  false  "RFC3339"
// @Param        limit        query  int     false  "Máximo de filas"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	filter := repository.TransferFilter{
		Status:        c.Query("status"),
		OriginID:      c.Query("origin"),
		DestinationID: c.Query("destination"),
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

	transfers, err := h.engine.List(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, dto.ToTransferResponse(t, nil))
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar una transferencia
// @Description  REQUESTED -> APPROVED. Revalida la cobertura de stock en origen.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	t, err := h.engine.Approve(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t, nil))
}

// Dispatch godoc
// @Summary      Despachar una transferencia
// @Description  APPROVED -> IN_TRANSIT. Descuenta el stock de origen por cada línea en una sola transacción.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/dispatch [post]
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	t, err := h.engine.Dispatch(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t, nil))
}

// ReceiveLine godoc
// @Summary      Confirmar recepción de una línea
// @Description  Acredita la cantidad recibida en destino. Al resolverse la última línea la transferencia pasa a COMPLETED.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string  true  "ID de la transferencia"
// @Param        line_id  path  string  true  "ID de la línea"
// @Param        body     body  dto.ReceiveLineRequest  true  "Cantidad recibida"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/lines/{line_id}/receive [post]
func (h *TransferHandler) ReceiveLine(c *fiber.Ctx) error {
	var in dto.ReceiveLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	t, err := h.engine.ReceiveLine(c.Context(), c.Params("id"), c.Params("line_id"), in.ReceivedQty, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t, nil))
}

// Cancel godoc
// @Summary      Cancelar una transferencia
// @Description  Solo desde REQUESTED o APPROVED. Una vez despachada no hay marcha atrás.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la transferencia"
// @Param        body  body  dto.CancelTransferRequest  false  "Motivo"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelTransferRequest
	// El body es opcional: sin motivo también se puede cancelar.
	_ = c.BodyParser(&in)
	t, err := h.engine.Cancel(c.Context(), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t, nil))
}
