package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	_ "github.com/jhoicas/zatca-einvoice/docs"
	"github.com/jhoicas/zatca-einvoice/internal/bootstrap"
	httpRouter "github.com/jhoicas/zatca-einvoice/internal/interfaces/http"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
)

// @title                       ZATCA e-Invoice API
// @version                     1.0
// @description                 API de facturación electrónica ZATCA (Fase 2): emisión, sellado, QR, cola offline y sincronización.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Escriba "Bearer" seguido de un espacio y el token JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("zatca_env", cfg.ZATCA.Environment).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap.New(ctx, cfg, log, afero.NewOsFs())
	if err != nil {
		log.Fatal().Err(err).Msg("inicialización")
	}
	defer a.Close()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute, // /api/sync es síncrono
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ZATCA e-Invoice API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		st := a.Invoicing.ChainState()
		return c.JSON(fiber.Map{
			"status":         "ok",
			"service":        cfg.App.Name,
			"invoiceCounter": st.InvoiceCounter,
			"syncEnabled":    a.Scheduler != nil,
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Invoicing: a.Invoicing,
		Queue:     a.Queue,
		Scheduler: a.Scheduler,
		JWTSecret: cfg.JWT.Secret,
		Logger:    log.WithComponent("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	if a.Scheduler != nil && cfg.Sync.Enabled {
		g.Go(func() error { return a.Scheduler.Run(gctx) })
	}
	if days := cfg.Sync.RetentionDays; days > 0 {
		g.Go(func() error {
			// Limpieza diaria de ítems completados.
			t := time.NewTicker(24 * time.Hour)
			defer t.Stop()
			for {
				if n, err := a.Queue.Cleanup(gctx, days); err != nil {
					log.Warn().Err(err).Msg("limpieza de la cola")
				} else if n > 0 {
					log.Info().Int("removed", n).Msg("cola: ítems completados eliminados")
				}
				select {
				case <-gctx.Done():
					return nil
				case <-t.C:
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("servidor finalizado con error")
	}
	log.Info().Msg("aplicación detenida")
}
