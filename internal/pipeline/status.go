// Package pipeline derives an entity's canonical status from the stages of
// its vacancy applications.
//
// Application stage is the sole writable source of truth: status is a pure
// reduction over the current stage set and never writes back into any
// application. Keeping the derivation one-directional is what prevents a
// stage change on one application from flipping a candidate's other
// applications in lockstep.
package pipeline

import (
	"github.com/rs/zerolog/log"

	"github.com/hirekit/hirekit/internal/models"
)

// stagePriority orders the non-terminal pipeline stages. Terminal stages
// (rejected/withdrawn) carry no weight; offer and hired dominate outright
// and are handled before priorities are consulted.
var stagePriority = map[models.Stage]int{
	models.StageApplied:     1,
	models.StageScreening:   2,
	models.StagePhoneScreen: 3,
	models.StageInterview:   4,
	models.StageAssessment:  5,
	models.StageRejected:    0,
	models.StageWithdrawn:   0,
}

// stageStatus maps a winning stage to the entity status it implies.
var stageStatus = map[models.Stage]models.Status{
	models.StageApplied:     models.StatusNew,
	models.StageScreening:   models.StatusScreening,
	models.StagePhoneScreen: models.StatusPractice,
	models.StageInterview:   models.StatusTechPractice,
	models.StageAssessment:  models.StatusIsInterview,
	models.StageOffer:       models.StatusOffer,
	models.StageHired:       models.StatusHired,
}

// DeriveStatus reduces the stage set of an entity's non-deleted applications
// to its canonical status. It returns the derived status and true when the
// stage set produced a result, or the current status and false when it did
// not (no applications, or nothing mappable).
//
// Rules, in order:
//  1. any hired stage wins outright (a hire in one vacancy marks the
//     candidate hired organization-wide)
//  2. else any offer stage wins
//  3. else the non-terminal stage with the highest priority wins; when
//     several applications share the top priority any one of them is taken,
//     which is indistinguishable since status is a function of stage value
//  4. if every application is rejected or withdrawn, status is rejected
//
// Unknown stage values are skipped with a warning rather than failing the
// surrounding stage-change transaction; if nothing mappable remains the
// prior status is kept.
func DeriveStatus(current models.Status, stages []models.Stage) (models.Status, bool) {
	if len(stages) == 0 {
		return current, false
	}

	best := models.Stage("")
	bestPriority := -1
	sawTerminal := false
	sawKnown := false

	for _, stage := range stages {
		switch stage {
		case models.StageHired:
			return models.StatusHired, true
		case models.StageOffer:
			// Keep scanning: a later hired stage still dominates.
			if best != models.StageOffer {
				best = models.StageOffer
				bestPriority = len(stagePriority) + 1
			}
			sawKnown = true
			continue
		}

		prio, ok := stagePriority[stage]
		if !ok {
			log.Warn().Str("stage", string(stage)).Msg("Unknown application stage, skipping")
			continue
		}
		sawKnown = true

		if stage.IsTerminal() {
			sawTerminal = true
			continue
		}

		if prio > bestPriority {
			best = stage
			bestPriority = prio
		}
	}

	if !sawKnown {
		// Every stage value was unmappable. Leave the prior status alone;
		// a derivation fault must never block the stage-change write.
		return current, false
	}

	if best == "" {
		if sawTerminal {
			return models.StatusRejected, true
		}
		return current, false
	}

	status, ok := stageStatus[best]
	if !ok {
		log.Warn().Str("stage", string(best)).Msg("No status mapping for stage, keeping prior status")
		return current, false
	}

	return status, true
}

// ActiveStages extracts the stage values of the non-deleted applications in
// the given set, the input DeriveStatus expects.
func ActiveStages(apps []*models.VacancyApplication) []models.Stage {
	stages := make([]models.Stage, 0, len(apps))
	for _, app := range apps {
		if app.IsDeleted() {
			continue
		}
		stages = append(stages, app.Stage)
	}
	return stages
}
