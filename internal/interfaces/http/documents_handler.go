package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Sucursales-api/internal/application/documents"
	"github.com/jhoicas/Sucursales-api/internal/application/dto"
)

// DocumentsHandler expone los movimientos derivados de documentos comerciales:
// ventas, anulaciones, compras, devoluciones y ajustes (protegido).
type DocumentsHandler struct {
	svc *documents.Service
}

// NewDocumentsHandler construye el handler.
func NewDocumentsHandler(svc *documents.Service) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

func toDocumentLines(in []dto.DocumentLineRequest) []documents.Line {
	out := make([]documents.Line, 0, len(in))
	for _, l := range in {
		out = append(out, documents.Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	return out
}

// IssueSale godoc
// @Summary      Emitir venta
// @Description  Descuenta el stock de todos los renglones de la factura en una sola transacción.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleMovementRequest  true  "Venta"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/sales [post]
func (h *DocumentsHandler) IssueSale(c *fiber.Ctx) error {
	var in dto.SaleMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.svc.IssueSale(c.Context(), in.BranchID, in.InvoiceID, GetUserID(c), toDocumentLines(in.Lines)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VoidSale godoc
// @Summary      Anular venta
// @Description  Reintegra el stock descontado por la factura anulada.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleMovementRequest  true  "Venta anulada"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents/sales/void [post]
func (h *DocumentsHandler) VoidSale(c *fiber.Ctx) error {
	var in dto.SaleMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.svc.VoidSale(c.Context(), in.BranchID, in.InvoiceID, GetUserID(c), toDocumentLines(in.Lines)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReceivePurchase godoc
// @Summary      Recibir orden de compra
// @Description  Acredita el stock recibido; cada renglón exige costo unitario.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PurchaseReceiptRequest  true  "Recepción"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents/purchases [post]
func (h *DocumentsHandler) ReceivePurchase(c *fiber.Ctx) error {
	var in dto.PurchaseReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.svc.ReceivePurchase(c.Context(), in.BranchID, in.OrderID, GetUserID(c), toDocumentLines(in.Lines)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ApproveReturn godoc
// @Summary      Aprobar devolución de cliente
// @Description  Reintegra al stock la mercadería devuelta.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnApprovalRequest  true  "Devolución"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents/returns [post]
func (h *DocumentsHandler) ApproveReturn(c *fiber.Ctx) error {
	var in dto.ReturnApprovalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.svc.ApproveReturn(c.Context(), in.BranchID, in.ReturnID, GetUserID(c), toDocumentLines(in.Lines)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Adjust godoc
// @Summary      Ajuste manual de inventario
// @Description  Corrección con delta firmado. La nota es obligatoria.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "Ajuste"
// @Success      201  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/adjustments [post]
func (h *DocumentsHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.svc.Adjust(c.Context(), in.BranchID, in.ProductID, in.Quantity, in.Note, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(entry))
}
