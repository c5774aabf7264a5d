package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	"github.com/jhoicas/zatca-einvoice/internal/application/invoicing"
	"github.com/jhoicas/zatca-einvoice/internal/application/offline"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// QueueHandler expone la cola offline.
type QueueHandler struct {
	queue *offline.Queue
	svc   *invoicing.Service
}

// NewQueueHandler construye el handler.
func NewQueueHandler(queue *offline.Queue, svc *invoicing.Service) *QueueHandler {
	return &QueueHandler{queue: queue, svc: svc}
}

// Stats godoc
// @Summary      Estadísticas de la cola offline
// @Tags         queue
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entity.QueueStats
// @Router       /api/queue/stats [get]
func (h *QueueHandler) Stats(c *fiber.Ctx) error {
	st, err := h.svc.QueueStats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(st)
}

// Overdue godoc
// @Summary      Ítems atrasados (más de 24 h sin completar)
// @Tags         queue
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  entity.QueueItem
// @Router       /api/queue/overdue [get]
func (h *QueueHandler) Overdue(c *fiber.Ctx) error {
	items, err := h.svc.OverdueInvoices(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []*entity.QueueItem{}
	}
	return c.JSON(items)
}

// List godoc
// @Summary      Listar la cola offline
// @Tags         queue
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "Tamaño de página (máx. 100)"
// @Param        offset  query     int  false  "Desplazamiento"
// @Success      200     {object}  dto.QueueListResponse
// @Router       /api/queue [get]
func (h *QueueHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "limit/offset inválidos"})
	}
	page.DefaultPage()
	all, err := h.queue.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	start := min(page.Offset, len(all))
	end := min(start+page.Limit, len(all))
	return c.JSON(dto.QueueListResponse{
		Items: all[start:end],
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(all)},
	})
}

// Retry godoc
// @Summary      Reintentar un ítem fallido
// @Description  Devuelve a pending un ítem failed o uno que quedó en processing más allá del umbral de interrupción.
// @Tags         queue
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ítem"
// @Success      200  {object}  entity.QueueItem
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/queue/{id}/retry [post]
func (h *QueueHandler) Retry(c *fiber.Ctx) error {
	item, err := h.queue.Retry(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(item)
}
