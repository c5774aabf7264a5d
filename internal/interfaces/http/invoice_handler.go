package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	"github.com/jhoicas/zatca-einvoice/internal/application/invoicing"
)

// InvoiceHandler maneja las peticiones HTTP de facturación ZATCA (protegido).
type InvoiceHandler struct {
	svc *invoicing.Service
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(svc *invoicing.Service) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

// Create godoc
// @Summary      Generar factura simplificada
// @Description  Calcula totales, sella, genera el QR y encadena el hash. Si no se envía supplier se usa el vendedor configurado.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.GenerateInvoiceRequest  true  "Vendedor, cliente y líneas"
// @Success      201   {object}  entity.Invoice
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.GenerateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "items es requerido"})
	}
	inv, err := h.svc.Generate(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// GetByID godoc
// @Summary      Obtener factura por ID
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura (INV-000001)"
// @Success      200  {object}  entity.Invoice
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	inv, err := h.svc.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inv)
}

// PDF godoc
// @Summary      Descargar PDF de la factura
// @Description  PDF A4 con QR TLV y el UBL firmado embebido como adjunto.
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	ctx := c.UserContext()
	inv, err := h.svc.GetInvoice(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.GeneratePDF(ctx, inv)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+inv.ID+`.pdf"`)
	return c.Send(out)
}

// Validation godoc
// @Summary      Validar cumplimiento ZATCA
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {object}  entity.ValidationResult
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/validation [get]
func (h *InvoiceHandler) Validation(c *fiber.Ctx) error {
	ctx := c.UserContext()
	inv, err := h.svc.GetInvoice(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(h.svc.Validate(ctx, inv))
}

// Report godoc
// @Summary      Encolar reporte (B2C)
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      202  {object}  dto.QueuedInvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/report [post]
func (h *InvoiceHandler) Report(c *fiber.Ctx) error {
	inv, item, err := h.svc.ReportByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.QueuedInvoiceResponse{Invoice: inv, QueueItemID: item.ID})
}

// Clear godoc
// @Summary      Encolar autorización (B2B)
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      202  {object}  dto.QueuedInvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/clear [post]
func (h *InvoiceHandler) Clear(c *fiber.Ctx) error {
	inv, item, err := h.svc.ClearByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.QueuedInvoiceResponse{Invoice: inv, QueueItemID: item.ID})
}
