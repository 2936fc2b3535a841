package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/logger"
	"github.com/hirekit/hirekit/internal/service"
	"github.com/hirekit/hirekit/internal/store/postgres"
	"github.com/hirekit/hirekit/internal/telemetry"
)

// BackfillCmd re-derives the canonical status of every candidate entity in
// an organization from its application stages. One-time repair pass for data
// written before status derivation existed; safe to re-run, only rows whose
// status actually changes are touched.
type BackfillCmd struct {
	Config string `help:"Path to YAML config file" default:"hirekit.yml"`
	OrgID  string `help:"Organization to backfill" required:""`
}

func (b *BackfillCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	orgID, err := uuid.Parse(b.OrgID)
	if err != nil {
		return fmt.Errorf("invalid org id: %w", err)
	}

	cfg, err := loadConfig(b.Config)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Init(ctx, "hirekit-backfill", globals.Version)
	if err != nil {
		log.Warn().Err(err).Msg("Telemetry disabled")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Telemetry shutdown failed")
			}
		}()
	}

	pool, err := postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	svc := service.New(service.Stores{
		Entities:     postgres.NewEntityStore(pool),
		Applications: postgres.NewApplicationStore(pool),
		Transfers:    postgres.NewTransferStore(pool),
		Shares:       postgres.NewShareStore(pool),
		Users:        postgres.NewUserStore(pool),
	}, nil, cfg.ServiceConfig())

	examined, updated, err := svc.Backfill(ctx, orgID)
	if err != nil {
		return fmt.Errorf("backfill failed after %d entities: %w", examined, err)
	}

	fmt.Printf("Backfill complete: %d entities examined, %d updated\n", examined, updated)

	return nil
}
