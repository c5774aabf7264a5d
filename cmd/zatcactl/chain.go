package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) chainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Cadena de hashes de las facturas emitidas",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Recalcula la cadena desde el hash génesis",
		Long: `Ordena las facturas guardadas por contador y comprueba que cada PIH sea el hash
de la anterior. Sale con error en el primer eslabón roto.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.application(cmd.Context())
			if err != nil {
				return err
			}
			n, err := app.Invoicing.VerifyChain(cmd.Context())
			if err != nil {
				return err
			}
			st := app.Invoicing.ChainState()
			fmt.Fprintf(cmd.OutOrStdout(), "cadena íntegra: %d facturas (contador %d)\n", n, st.InvoiceCounter)
			return nil
		},
	})
	return cmd
}
