package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/export"
)

// Formatos de exportación.
const (
	formatJSON = "json"
	formatXLSX = "xlsx"
)

func (c *cli) queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspección y mantenimiento de la cola offline",
	}
	cmd.AddCommand(c.queueStatsCmd(), c.queueListCmd(), c.queueRetryCmd(), c.queueCleanupCmd(),
		c.queueExportCmd(), c.queueImportCmd())
	return cmd
}

func (c *cli) queueStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Conteos por estado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			st, err := app.Queue.Stats(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "total\t%d\n", st.Total)
			fmt.Fprintf(w, "pending\t%d\n", st.Pending)
			fmt.Fprintf(w, "processing\t%d\n", st.Processing)
			fmt.Fprintf(w, "completed\t%d\n", st.Completed)
			fmt.Fprintf(w, "failed\t%d\n", st.Failed)
			return w.Flush()
		},
	}
}

func (c *cli) queueListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista los ítems de la cola",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			items, err := app.Queue.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFACTURA\tOPERACIÓN\tESTADO\tINTENTOS\tCREADO\tERROR")
			for _, it := range items {
				if status != "" && it.Status != status {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n", it.ID, it.Invoice.ID, it.Operation, it.Status,
					it.Attempts, it.CreatedAt.UTC().Format("2006-01-02 15:04"), it.Error)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filtra por estado (pending|processing|completed|failed)")
	return cmd
}

func (c *cli) queueRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Devuelve un ítem failed (o processing interrumpido) a pending con los intentos en cero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			it, err := app.Queue.Retry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", it.ID, it.Status)
			return nil
		},
	}
}

func (c *cli) queueCleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Elimina ítems completados más antiguos que --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = c.cfg.Sync.RetentionDays
			}
			n, err := app.Queue.Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "eliminados: %d\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "antigüedad mínima en días (por defecto QUEUE_RETENTION_DAYS)")
	return cmd
}

func (c *cli) queueExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporta la cola completa a JSON o xlsx",
		Example: `  zatcactl queue export --output queue.json
  zatcactl queue export --format xlsx --output queue.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatJSON && format != formatXLSX {
				return fmt.Errorf("formato desconocido %q (usar json|xlsx)", format)
			}
			if format == formatXLSX && output == "-" {
				return errors.New("xlsx requiere --output con una ruta de archivo")
			}
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := c.fs.Create(output)
				if err != nil {
					return fmt.Errorf("crear %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			var n int
			if format == formatJSON {
				n, err = app.Queue.Export(cmd.Context(), w)
			} else {
				var items []*entity.QueueItem
				if items, err = app.Queue.List(cmd.Context()); err == nil {
					n = len(items)
					err = export.WriteQueueXLSX(w, items)
				}
			}
			if err != nil {
				return err
			}
			if output != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "exportados: %d → %s\n", n, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatJSON, "json | xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "archivo de salida (- = stdout, solo json)")
	return cmd
}

func (c *cli) queueImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <archivo.json>",
		Short: "Importa ítems exportados; los IDs existentes se omiten",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			f, err := c.fs.Open(args[0])
			if err != nil {
				return fmt.Errorf("abrir %s: %w", args[0], err)
			}
			defer f.Close()
			imported, skipped, err := app.Queue.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "importados: %d  omitidos: %d\n", imported, skipped)
			return nil
		},
	}
}
