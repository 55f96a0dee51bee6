// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/ledger/cmd/app/commands"
	"github.com/allisson/ledger/internal/app"
	"github.com/allisson/ledger/internal/config"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Ledger service with transparent field encryption",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					container := app.NewContainer(cfg)
					return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
				},
			},
			{
				Name:  "generate-field-key",
				Usage: "Generate a new field encryption key",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunGenerateFieldKey(os.Stdout)
				},
			},
			{
				Name:  "rotate-field-key",
				Usage: "Re-encrypt stored field values under a new encryption key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "old-key",
						Usage: "Current key as 64 hex characters (defaults to FIELD_ENCRYPTION_KEY)",
					},
					&cli.StringFlag{
						Name:     "new-key",
						Required: true,
						Usage:    "Replacement key as 64 hex characters",
					},
					&cli.IntFlag{
						Name:    "batch-size",
						Aliases: []string{"b"},
						Value:   100,
						Usage:   "Number of records to rotate per batch",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					container := app.NewContainer(cfg)
					logger := container.Logger()
					defer func() { _ = container.Shutdown(ctx) }()

					rawStore, err := container.RawStore()
					if err != nil {
						return err
					}

					txManager, err := container.TxManager()
					if err != nil {
						return err
					}

					rotator, err := container.Rotator()
					if err != nil {
						return err
					}

					fieldConfig, err := container.FieldConfig()
					if err != nil {
						return err
					}

					oldKey := cmd.String("old-key")
					if oldKey == "" {
						oldKey = cfg.FieldEncryptionKey
					}

					return commands.RunRotateFieldKey(
						ctx,
						rawStore,
						txManager,
						rotator,
						fieldConfig,
						logger,
						oldKey,
						cmd.String("new-key"),
						int(cmd.Int("batch-size")),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
