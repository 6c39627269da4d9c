package cli

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/seed"
)

func newSeedCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the store with sample data",
	}
	cmd.AddCommand(newSeedChartCommand(e), newSeedUserCommand(e), newSeedJournalCommand(e))
	return cmd
}

func newSeedChartCommand(e *env) *cobra.Command {
	var name, file string
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Create an entity with its master accounts and chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				chart seed.Chart
				err   error
			)
			if file == "" {
				chart, err = seed.DemoChart(ledger.DefaultMasterAccounts)
			} else {
				chart, err = seed.LoadChartFile(file, ledger.DefaultMasterAccounts)
			}
			if err != nil {
				return err
			}
			svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			entity, err := seed.NewSeeder(svc.Insert, nil, e.logger).SeedChart(cmd.Context(), name, chart)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), entity)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "entity-name", "", "entity name (required)")
	_ = cmd.MarkFlagRequired("entity-name")
	cmd.Flags().StringVar(&file, "file", "", "chart YAML file (default: bundled demo chart)")
	return cmd
}

func newSeedUserCommand(e *env) *cobra.Command {
	user := seed.DefaultDevUser("")
	var entities []string
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Create a development user and grant entity access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, 0, len(entities))
			for _, raw := range entities {
				id, err := parseID("entity", raw)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			id, err := seed.NewSeeder(svc.Insert, nil, e.logger).SeedUser(cmd.Context(), user, svc.RBAC, ids...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&user.FirstName, "first-name", user.FirstName, "first name")
	cmd.Flags().StringVar(&user.LastName, "last-name", user.LastName, "last name")
	cmd.Flags().StringVar(&user.Email, "email", user.Email, "login email")
	cmd.Flags().StringVar(&user.Password, "password", "", "password (required)")
	cmd.Flags().IntVar(&user.Level, "level", user.Level, "access level")
	cmd.Flags().StringSliceVar(&entities, "entity", nil, "entity id to grant, repeatable")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSeedJournalCommand(e *env) *cobra.Command {
	var entityRaw, userRaw string
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Post the demo journal against the demo chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := parseID("entity", entityRaw)
			if err != nil {
				return err
			}
			user, err := parseID("user", userRaw)
			if err != nil {
				return err
			}
			svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			ids, err := seed.PostEntries(cmd.Context(), svc.Engine, entity, user, seed.DemoJournal)
			if len(ids) > 0 {
				if ierr := svc.Balances.Invalidate(cmd.Context(), entity); ierr != nil {
					e.logger.Warn("invalidate balances", slog.Any("error", ierr))
				}
			}
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&entityRaw, "entity", "", "entity id (required)")
	cmd.Flags().StringVar(&userRaw, "user", "", "posting user id (required)")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
