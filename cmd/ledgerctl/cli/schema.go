package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

func newSchemaCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the store schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Create the ledger tables when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := db.ApplySchema(cmd.Context(), svc.Store.Executor()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements\n", len(db.SchemaStatements()))
			return nil
		},
	})
	return cmd
}
