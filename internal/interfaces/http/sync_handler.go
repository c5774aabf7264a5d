package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	appsync "github.com/jhoicas/zatca-einvoice/internal/application/sync"
	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// streamTimeout acota una corrida lanzada desde /api/sync/stream.
const streamTimeout = 10 * time.Minute

// SyncHandler dispara corridas de sincronización y expone su estado.
type SyncHandler struct {
	scheduler *appsync.Scheduler
}

// NewSyncHandler construye el handler.
func NewSyncHandler(scheduler *appsync.Scheduler) *SyncHandler {
	return &SyncHandler{scheduler: scheduler}
}

// Run godoc
// @Summary      Sincronizar la cola offline
// @Description  Corrida síncrona. 409 si ya hay una en curso, 503 si el almacén remoto no responde.
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SyncRequest  false  "Opciones de la corrida"
// @Success      200   {object}  entity.SyncResult
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/sync [post]
func (h *SyncHandler) Run(c *fiber.Ctx) error {
	opts := h.scheduler.Options()
	if len(c.Body()) > 0 {
		var in dto.SyncRequest
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
		if in.BatchSize < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "batchSize no puede ser negativo"})
		}
		if in.BatchSize > 0 {
			opts.BatchSize = in.BatchSize
		}
	}
	res, err := h.scheduler.RunOnce(c.UserContext(), opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Status godoc
// @Summary      Estado del planificador de sincronización
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entity.SyncStatus
// @Router       /api/sync/status [get]
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.scheduler.Status())
}

// Stream godoc
// @Summary      Sincronizar con progreso en vivo (SSE)
// @Description  Emite un evento "progress" por lote y cierra con "result" o "error".
// @Tags         sync
// @Security     Bearer
// @Produce      text/event-stream
// @Success      200  {string}  string
// @Router       /api/sync/stream [get]
func (h *SyncHandler) Stream(c *fiber.Ctx) error {
	opts := h.scheduler.Options()
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// El stream vive fuera del ciclo de la petición: el ctx de Fiber ya no es válido aquí.
		ctx, cancel := context.WithTimeout(context.Background(), streamTimeout)
		defer cancel()

		progress := make(chan entity.SyncProgress, 1)
		opts.Progress = progress
		done := make(chan syncOutcome, 1)
		go func() {
			res, err := h.scheduler.RunOnce(ctx, opts)
			done <- syncOutcome{res: res, err: err}
		}()

		for {
			select {
			case p := <-progress:
				if err := writeEvent(w, "progress", p); err != nil {
					// cliente desconectado
					cancel()
				}
			case out := <-done:
				for drained := false; !drained; {
					select {
					case p := <-progress:
						_ = writeEvent(w, "progress", p)
					default:
						drained = true
					}
				}
				if out.err != nil && out.res == nil {
					_ = writeEvent(w, "error", dto.ErrorResponse{Code: errorCode(out.err), Message: out.err.Error()})
					return
				}
				_ = writeEvent(w, "result", out.res)
				return
			}
		}
	}))
	return nil
}

type syncOutcome struct {
	res *entity.SyncResult
	err error
}

func writeEvent(w *bufio.Writer, event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
		return err
	}
	return w.Flush()
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		return "SYNC_IN_PROGRESS"
	case errors.Is(err, domain.ErrOffline):
		return "OFFLINE"
	}
	return "INTERNAL"
}
