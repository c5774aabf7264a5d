package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

func (c *cli) syncCmd() *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sincroniza la cola offline con el almacén remoto",
		Long: `Entrega los ítems pending y failed (sin intentos agotados) al almacén remoto y,
fuera del ambiente dev, a la plataforma Fatoora. Ctrl+C detiene la corrida entre lotes.`,
		Example: `  zatcactl sync
  zatcactl sync --batch-size 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runSync(ctx, cmd, batchSize)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "ítems por lote (0 = SYNC_BATCH_SIZE)")
	return cmd
}

func (c *cli) runSync(ctx context.Context, cmd *cobra.Command, batchSize int) error {
	if batchSize < 0 {
		return errors.New("--batch-size no puede ser negativo")
	}
	app, err := c.application(ctx)
	if err != nil {
		return err
	}
	if app.Engine == nil {
		return errors.New("sincronización deshabilitada: configure DATABASE_URL o DB_HOST")
	}

	opts := app.SyncOptions()
	if batchSize > 0 {
		opts.BatchSize = batchSize
	}
	progress := make(chan entity.SyncProgress)
	opts.Progress = progress

	done := make(chan struct{})
	go func() {
		defer close(done)
		var bar *progressbar.ProgressBar
		for p := range progress {
			if bar == nil {
				bar = progressbar.NewOptions(p.Total,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("Sincronizando"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetTheme(progressbar.Theme{
						Saucer:        "=",
						SaucerHead:    ">",
						SaucerPadding: " ",
						BarStart:      "[",
						BarEnd:        "]",
					}),
				)
			}
			_ = bar.Set(p.Processed)
		}
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())
		}
	}()

	res, err := app.Engine.Sync(ctx, opts)
	close(progress)
	<-done

	if res != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sincronizadas: %d  fallidas: %d  conflictos: %d\n",
			res.SyncedCount, res.FailedCount, len(res.Conflicts))
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  error: %s\n", e)
		}
		for _, cf := range res.Conflicts {
			fmt.Fprintf(out, "  conflicto: %s (ítem %s): remoto modificado %s\n",
				cf.InvoiceID, cf.ItemID, cf.RemoteUpdatedAt.Format("2006-01-02 15:04:05"))
		}
	}
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%d ítems no se pudieron entregar", res.FailedCount)
	}
	return nil
}
