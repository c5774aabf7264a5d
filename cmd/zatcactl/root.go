package main

import (
	"context"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-einvoice/internal/bootstrap"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
)

var version = "1.0.0"

// cli guarda el estado compartido por los subcomandos. cfg y log se cargan en el pre-run salvo
// que vengan inyectados; app se arma a demanda.
type cli struct {
	fs      afero.Fs
	cfg     *config.Config
	log     *logger.Logger
	app     *bootstrap.App
	verbose bool
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zatcactl",
		Short: "Operación de la facturación electrónica ZATCA",
		Long: `zatcactl opera el servicio de facturación ZATCA desde la terminal:
sincroniza la cola offline, inspecciona y exporta sus ítems, verifica la
cadena de hashes de las facturas emitidas y emite tokens de acceso a la API.

La configuración se lee de las mismas variables de entorno (o .env) que el servidor.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg == nil {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				c.cfg = cfg
			}
			if c.log == nil {
				level := c.cfg.App.LogLevel
				if c.verbose {
					level = "debug"
				}
				c.log = logger.New(logger.Config{Env: "development", Level: level, Output: os.Stderr})
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "logs de depuración")

	root.AddCommand(c.syncCmd(), c.queueCmd(), c.chainCmd(), c.tokenCmd())
	return root
}

// application arma los servicios la primera vez que un subcomando los necesita.
func (c *cli) application(ctx context.Context) (*bootstrap.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := bootstrap.New(ctx, c.cfg, c.log, c.fs)
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}
