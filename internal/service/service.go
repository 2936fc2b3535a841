// Package service orchestrates the consistency core: stage changes with
// conflict retry, ownership transfers, sharing grants and visibility-filtered
// reads. Storage does the atomic work; this layer sequences it, retries
// optimistic-lock losers and publishes events after commits.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/models"
	"github.com/hirekit/hirekit/internal/notify"
	"github.com/hirekit/hirekit/internal/store"
	"github.com/hirekit/hirekit/internal/telemetry"
	"github.com/hirekit/hirekit/internal/visibility"
)

const (
	// DefaultTransferCancelWindow is how long an initiated transfer can be
	// rolled back before it is implicitly finalized.
	DefaultTransferCancelWindow = time.Hour

	// DefaultStageChangeMaxTries bounds the retry loop for stage changes
	// that lose an optimistic-lock race.
	DefaultStageChangeMaxTries = 4
)

// Config holds tunables for the service layer.
type Config struct {
	TransferCancelWindow time.Duration
	StageChangeMaxTries  uint
}

// ApplyDefaults sets default values for unset fields
func (c *Config) ApplyDefaults() {
	if c.TransferCancelWindow <= 0 {
		c.TransferCancelWindow = DefaultTransferCancelWindow
	}
	if c.StageChangeMaxTries == 0 {
		c.StageChangeMaxTries = DefaultStageChangeMaxTries
	}
}

// Stores bundles the storage interfaces the service depends on. Both the
// postgres and memory implementations satisfy it.
type Stores struct {
	Entities     store.EntityStore
	Applications store.ApplicationStore
	Transfers    store.TransferStore
	Shares       store.ShareStore
	Users        store.UserStore
}

// Service wires the stores, the event broadcaster and the config together.
type Service struct {
	stores Stores
	events *notify.Broadcaster
	cfg    Config
}

// New creates a Service. A nil broadcaster disables event publication.
func New(stores Stores, events *notify.Broadcaster, cfg Config) *Service {
	cfg.ApplyDefaults()

	return &Service{
		stores: stores,
		events: events,
		cfg:    cfg,
	}
}

func (s *Service) publish(event notify.Event) {
	if s.events == nil {
		return
	}

	s.events.Publish(event)
}

// CreateEntity stores a new entity.
func (s *Service) CreateEntity(ctx context.Context, entity *models.Entity) error {
	return s.stores.Entities.Create(ctx, entity)
}

// GetEntity retrieves an entity by ID.
func (s *Service) GetEntity(ctx context.Context, entityID uuid.UUID) (*models.Entity, error) {
	return s.stores.Entities.Get(ctx, entityID)
}

// UpdateEntity persists entity edits if the stored version still matches
// expectedVersion. A conflict is surfaced to the caller, who must re-read
// and decide; blind retry here would silently drop the other writer's edit.
func (s *Service) UpdateEntity(ctx context.Context, entity *models.Entity, expectedVersion int64) error {
	err := s.stores.Entities.Update(ctx, entity, expectedVersion)
	if errors.Is(err, store.ErrVersionConflict) {
		telemetry.GetMetrics().VersionConflictsTotal.Add(ctx, 1)
	}

	return err
}

// CreateApplication inserts a new vacancy application and returns the owning
// entity with its status recomputed in the same transaction.
func (s *Service) CreateApplication(ctx context.Context, app *models.VacancyApplication, actorID uuid.UUID) (*models.Entity, error) {
	before, err := s.stores.Entities.Get(ctx, app.EntityID)
	if err != nil {
		return nil, err
	}

	entity, err := s.stores.Applications.Create(ctx, app)
	if err != nil {
		return nil, err
	}

	s.notifyStatusChanged(before, entity, actorID)

	return entity, nil
}

// ChangeStage moves an application to a new stage. The stage write and the
// entity status recompute commit in one storage transaction; when that
// transaction loses an optimistic-lock race the whole operation is retried
// against fresh state with exponential backoff.
func (s *Service) ChangeStage(ctx context.Context, applicationID uuid.UUID, stage models.Stage, actorID uuid.UUID) (*models.Entity, error) {
	started := time.Now()

	app, err := s.stores.Applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	before, err := s.stores.Entities.Get(ctx, app.EntityID)
	if err != nil {
		return nil, err
	}

	operation := func() (*models.Entity, error) {
		entity, err := s.stores.Applications.ChangeStage(ctx, applicationID, stage)
		if err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				telemetry.GetMetrics().VersionConflictsTotal.Add(ctx, 1)
				telemetry.GetMetrics().StageChangeRetries.Add(ctx, 1)
				log.Debug().
					Str("application_id", applicationID.String()).
					Str("stage", string(stage)).
					Msg("Stage change lost a version race, retrying")
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return entity, nil
	}

	entity, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(s.cfg.StageChangeMaxTries),
	)
	if err != nil {
		return nil, err
	}

	telemetry.GetMetrics().StageChangesTotal.Add(ctx, 1)
	telemetry.GetMetrics().StageChangeDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	s.notifyStatusChanged(before, entity, actorID)

	return entity, nil
}

// DeleteApplication soft-deletes an application; the owning entity's status
// is recomputed from the remaining stages in the same transaction.
func (s *Service) DeleteApplication(ctx context.Context, applicationID uuid.UUID, actorID uuid.UUID) (*models.Entity, error) {
	app, err := s.stores.Applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	before, err := s.stores.Entities.Get(ctx, app.EntityID)
	if err != nil {
		return nil, err
	}

	entity, err := s.stores.Applications.Delete(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	s.notifyStatusChanged(before, entity, actorID)

	return entity, nil
}

func (s *Service) notifyStatusChanged(before, after *models.Entity, actorID uuid.UUID) {
	telemetry.GetMetrics().StatusRecomputesTotal.Add(context.Background(), 1)

	if before == nil || after == nil || before.Status == after.Status {
		return
	}

	telemetry.GetMetrics().StatusChangesTotal.Add(context.Background(), 1)

	log.Info().
		Str("entity_id", after.EntityID.String()).
		Str("old_status", string(before.Status)).
		Str("new_status", string(after.Status)).
		Msg("Entity status changed")

	s.publish(notify.Event{
		Type:     notify.EventStatusChanged,
		EntityID: after.EntityID,
		ActorID:  actorID,
		Status:   after.Status,
	})
}

// InitiateTransfer hands the entity's ownership to toUserID, opening the
// configured cancellation window.
func (s *Service) InitiateTransfer(ctx context.Context, entityID, toUserID uuid.UUID) (*models.EntityTransfer, error) {
	transfer, err := s.stores.Transfers.Initiate(ctx, entityID, toUserID, s.cfg.TransferCancelWindow)
	if err != nil {
		return nil, err
	}

	telemetry.GetMetrics().TransfersInitiatedTotal.Add(ctx, 1)

	log.Info().
		Str("transfer_id", transfer.TransferID.String()).
		Str("entity_id", entityID.String()).
		Str("to_user_id", toUserID.String()).
		Time("cancel_deadline", transfer.CancelDeadline).
		Msg("Entity transfer initiated")

	s.publish(notify.Event{
		Type:       notify.EventTransferInitiated,
		EntityID:   entityID,
		ActorID:    transfer.FromUserID,
		TransferID: transfer.TransferID,
	})

	return transfer, nil
}

// CancelTransfer rolls a pending transfer back inside its window, restoring
// the ownership fields from the frozen snapshot. Content edits made after
// the transfer survive the rollback.
func (s *Service) CancelTransfer(ctx context.Context, transferID uuid.UUID) (*models.Entity, error) {
	entity, err := s.stores.Transfers.Cancel(ctx, transferID)
	if err != nil {
		if errors.Is(err, store.ErrTransferWindowExpired) || errors.Is(err, store.ErrTransferClosed) {
			telemetry.GetMetrics().TransfersRejectedTotal.Add(ctx, 1)
		}
		return nil, err
	}

	telemetry.GetMetrics().TransfersCancelledTotal.Add(ctx, 1)

	log.Info().
		Str("transfer_id", transferID.String()).
		Str("entity_id", entity.EntityID.String()).
		Msg("Entity transfer cancelled, ownership restored")

	s.publish(notify.Event{
		Type:       notify.EventTransferCancelled,
		EntityID:   entity.EntityID,
		TransferID: transferID,
	})

	return entity, nil
}

// GrantAccess creates a sharing grant.
func (s *Service) GrantAccess(ctx context.Context, share *models.SharedAccess) error {
	if err := s.stores.Shares.Grant(ctx, share); err != nil {
		return err
	}

	telemetry.GetMetrics().SharesGrantedTotal.Add(ctx, 1)

	s.publish(notify.Event{
		Type:    notify.EventShareGranted,
		ActorID: share.SharedByID,
		ShareID: share.ShareID,
	})

	return nil
}

// RevokeAccess removes one sharer's grant. Grants by other sharers on the
// same resource and recipient stay in force.
func (s *Service) RevokeAccess(ctx context.Context, resourceType models.ResourceType, resourceID, sharedByID, sharedWithID uuid.UUID) error {
	if err := s.stores.Shares.Revoke(ctx, resourceType, resourceID, sharedByID, sharedWithID); err != nil {
		return err
	}

	telemetry.GetMetrics().SharesRevokedTotal.Add(ctx, 1)

	s.publish(notify.Event{
		Type:    notify.EventShareRevoked,
		ActorID: sharedByID,
	})

	return nil
}

// VisibleEntities lists entities the viewer may see. Superadmin isolation is
// applied at the query level: the resolver builds the set of creator IDs
// whose content is hidden from this viewer, and the store excludes those
// rows before pagination.
func (s *Service) VisibleEntities(ctx context.Context, viewerID uuid.UUID, opts store.ListEntitiesOptions) ([]*models.Entity, error) {
	viewerUser, err := s.stores.Users.Get(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	superadmins, err := s.stores.Users.ListSuperadmins(ctx)
	if err != nil {
		return nil, err
	}

	creators := make([]visibility.Actor, 0, len(superadmins))
	for _, u := range superadmins {
		creators = append(creators, visibility.ActorFor(u))
	}

	isolated := visibility.IsolatedCreatorIDs(visibility.ActorFor(viewerUser), creators)

	opts.ExcludeCreatedBy = opts.ExcludeCreatedBy[:0]
	for id := range isolated {
		opts.ExcludeCreatedBy = append(opts.ExcludeCreatedBy, id)
	}

	return s.stores.Entities.List(ctx, opts)
}

// CanView reports whether the viewer may see a single entity under the
// superadmin isolation rules. Role hierarchy and sharing grants gate access
// upstream of this check.
func (s *Service) CanView(ctx context.Context, viewerID, entityID uuid.UUID) (bool, error) {
	entity, err := s.stores.Entities.Get(ctx, entityID)
	if err != nil {
		return false, err
	}

	viewerUser, err := s.stores.Users.Get(ctx, viewerID)
	if err != nil {
		return false, err
	}

	creatorUser, err := s.stores.Users.Get(ctx, entity.CreatedBy)
	if err != nil {
		// A creator no longer on record can't be a superadmin identity we
		// need to isolate.
		if errors.Is(err, store.ErrUserNotFound) {
			return true, nil
		}
		return false, err
	}

	return visibility.Visible(visibility.ActorFor(viewerUser), visibility.ActorFor(creatorUser)), nil
}

// Backfill walks every candidate entity in the org and re-derives its status
// from its current applications, persisting only the rows whose status
// actually changed. Returns how many entities were examined and updated.
func (s *Service) Backfill(ctx context.Context, orgID uuid.UUID) (examined, updated int, err error) {
	entities, err := s.stores.Entities.List(ctx, store.ListEntitiesOptions{
		OrgID: orgID,
		Kind:  models.EntityKindCandidate,
		Limit: -1,
	})
	if err != nil {
		return 0, 0, err
	}

	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			return examined, updated, err
		}

		examined++

		_, changed, err := s.stores.Applications.RecomputeStatus(ctx, entity.EntityID)
		if err != nil {
			log.Warn().Err(err).
				Str("entity_id", entity.EntityID.String()).
				Msg("Backfill recompute failed, skipping entity")
			continue
		}

		telemetry.GetMetrics().StatusRecomputesTotal.Add(ctx, 1)

		if changed {
			updated++
			telemetry.GetMetrics().StatusChangesTotal.Add(ctx, 1)
		}
	}

	log.Info().
		Str("org_id", orgID.String()).
		Int("examined", examined).
		Int("updated", updated).
		Msg("Status backfill complete")

	return examined, updated, nil
}
