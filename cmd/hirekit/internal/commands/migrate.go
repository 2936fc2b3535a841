package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/logger"
	"github.com/hirekit/hirekit/internal/store/postgres"
)

type MigrateCmd struct {
	Config string `help:"Path to YAML config file" default:"hirekit.yml"`
}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	cfg, err := loadConfig(m.Config)
	if err != nil {
		return err
	}

	// Migrations run explicitly here, not via the pool's auto-migrate.
	cfg.Database.AutoMigrate = false

	pool, err := postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Migrations complete")

	return nil
}
