package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/jwt"
)

func (c *cli) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Tokens de acceso a la API",
	}
	var (
		userID  string
		role    string
		minutes int
	)
	issue := &cobra.Command{
		Use:     "issue",
		Short:   "Emite un Bearer token firmado con JWT_SECRET",
		Example: `  zatcactl token issue --user ops@empresa.sa --role admin --minutes 120`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user es obligatorio")
			}
			if !entity.ValidRole(role) {
				return fmt.Errorf("rol desconocido %q (usar %s|%s|%s)", role,
					entity.RoleAdmin, entity.RoleFacturador, entity.RoleAuditor)
			}
			if minutes <= 0 {
				minutes = c.cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(c.cfg.JWT.Secret, userID, role, c.cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	issue.Flags().StringVar(&userID, "user", "", "identificador del usuario")
	issue.Flags().StringVar(&role, "role", entity.RoleAuditor, "admin | facturador | auditor")
	issue.Flags().IntVar(&minutes, "minutes", 0, "vigencia en minutos (0 = JWT_EXPIRATION_MINUTES)")
	cmd.AddCommand(issue)
	return cmd
}
