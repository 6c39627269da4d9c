// Package cli implements the ledgerctl commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/app"
)

// env carries the lazily opened process state shared by subcommands.
type env struct {
	envFile  string
	cfg      *app.Config
	logger   *slog.Logger
	services *app.Services
}

func (e *env) config() (*app.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	var files []string
	if e.envFile != "" {
		files = append(files, e.envFile)
	}
	cfg, err := app.LoadConfig(files...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	e.cfg = cfg
	e.logger = app.NewLogger(cfg)
	return cfg, nil
}

func (e *env) open(ctx context.Context) (*app.Services, error) {
	if e.services != nil {
		return e.services, nil
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	svc, err := app.OpenServices(ctx, cfg, e.logger, nil)
	if err != nil {
		return nil, err
	}
	e.services = svc
	return svc, nil
}

func (e *env) close() error {
	if e.services == nil {
		return nil
	}
	err := e.services.Close()
	e.services = nil
	return err
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	e := &env{}
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate a double-entry ledger store",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&e.envFile, "env-file", "", "dotenv file read before the environment (default .env)")

	rootCmd.AddCommand(
		newSchemaCommand(e),
		newSeedCommand(e),
		newTreeCommand(e),
		newBalancesCommand(e),
		newPostCommand(e),
		newJobsCommand(e),
	)
	return rootCmd
}

func parseID(flag, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return id, nil
}
