package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/zatca-einvoice/internal/application/invoicing"
	"github.com/jhoicas/zatca-einvoice/internal/application/offline"
	appsync "github.com/jhoicas/zatca-einvoice/internal/application/sync"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Invoicing *invoicing.Service
	Queue     *offline.Queue
	Scheduler *appsync.Scheduler // nil = sin almacén remoto; las rutas /sync no se registran
	JWTSecret string
	Logger    zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", RequestLogger(deps.Logger))

	// Todas las rutas requieren Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleFacturador, entity.RoleAuditor)
	writers := RequireRole(entity.RoleAdmin, entity.RoleFacturador)
	admin := RequireRole(entity.RoleAdmin)

	// Invoices
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoicing)
	invoices.Post("/", writers, invoiceHandler.Create)
	invoices.Get("/:id", anyRole, invoiceHandler.GetByID)
	invoices.Get("/:id/pdf", anyRole, invoiceHandler.PDF)
	invoices.Get("/:id/validation", anyRole, invoiceHandler.Validation)
	invoices.Post("/:id/report", writers, invoiceHandler.Report)
	invoices.Post("/:id/clear", writers, invoiceHandler.Clear)

	// Offline queue
	queue := protected.Group("/queue")
	queueHandler := NewQueueHandler(deps.Queue, deps.Invoicing)
	queue.Get("/", anyRole, queueHandler.List)
	queue.Get("/stats", anyRole, queueHandler.Stats)
	queue.Get("/overdue", anyRole, queueHandler.Overdue)
	queue.Post("/:id/retry", admin, queueHandler.Retry)

	// Sync
	if deps.Scheduler != nil {
		syncGroup := protected.Group("/sync")
		syncHandler := NewSyncHandler(deps.Scheduler)
		syncGroup.Post("/", admin, syncHandler.Run)
		syncGroup.Get("/status", anyRole, syncHandler.Status)
		syncGroup.Get("/stream", admin, syncHandler.Stream)
	}
}

// RequestLogger registra cada petición con método, ruta, status y duración.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError || err != nil {
			ev = log.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http")
		return err
	}
}
