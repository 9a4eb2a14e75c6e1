package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/reconcile"
	"github.com/yungbote/matchweek-backend/internal/repos"
	"github.com/yungbote/matchweek-backend/internal/survey"
	"github.com/yungbote/matchweek-backend/internal/traits"
	"github.com/yungbote/matchweek-backend/internal/types"
)

// ReconciliationService carries user answers onto the active survey revision
// and keeps derived trait profiles in sync with complete response sets.
type ReconciliationService interface {
	ActiveRevision(ctx context.Context, slug string) (reconcile.Revision, *types.SurveyDefinition, error)
	ReconcileUser(ctx context.Context, userID uuid.UUID, slug string) (*types.SurveyReconciliationState, error)
	ReconcileAllUsers(ctx context.Context, slug string) (int, error)
	ApplyAnswerPatch(ctx context.Context, userID uuid.UUID, slug string, patch map[string]any) (*types.SurveyReconciliationState, error)
	RecomputeTraits(ctx context.Context, tx *gorm.DB, userID uuid.UUID, rev reconcile.Revision, answers map[string]any) error
}

type reconciliationService struct {
	db          *gorm.DB
	log         *logger.Logger
	defRepo     repos.SurveyDefinitionRepo
	sessionRepo repos.SurveySessionRepo
	reconRepo   repos.ReconciliationStateRepo
	traitsRepo  repos.UserTraitsRepo
}

func NewReconciliationService(
	db *gorm.DB,
	log *logger.Logger,
	defRepo repos.SurveyDefinitionRepo,
	sessionRepo repos.SurveySessionRepo,
	reconRepo repos.ReconciliationStateRepo,
	traitsRepo repos.UserTraitsRepo,
) ReconciliationService {
	serviceLog := log.With("service", "ReconciliationService")
	return &reconciliationService{
		db:          db,
		log:         serviceLog,
		defRepo:     defRepo,
		sessionRepo: sessionRepo,
		reconRepo:   reconRepo,
		traitsRepo:  traitsRepo,
	}
}

func (rs *reconciliationService) ActiveRevision(ctx context.Context, slug string) (reconcile.Revision, *types.SurveyDefinition, error) {
	row, err := rs.defRepo.GetActiveBySlug(ctx, nil, slug)
	if err != nil {
		return reconcile.Revision{}, nil, fmt.Errorf("no active definition for %q: %w", slug, err)
	}
	def, err := survey.ParseDefinition(row.Definition)
	if err != nil {
		return reconcile.Revision{}, nil, fmt.Errorf("stored definition for %q is unparseable: %w", slug, err)
	}
	return reconcile.NewRevision(def), row, nil
}

func (rs *reconciliationService) revisionHistory(ctx context.Context, slug string) ([]reconcile.Revision, error) {
	rows, err := rs.defRepo.ListBySlug(ctx, nil, slug)
	if err != nil {
		return nil, err
	}
	revisions := make([]reconcile.Revision, 0, len(rows))
	for _, row := range rows {
		def, err := survey.ParseDefinition(row.Definition)
		if err != nil {
			rs.log.Warn("skipping unparseable stored definition", "slug", slug, "version", row.Version, "error", err)
			continue
		}
		revisions = append(revisions, reconcile.NewRevision(def))
	}
	return revisions, nil
}

// priorResponse assembles the richest known answer set for a user: an
// existing reconciliation row (which includes later patches) wins over the
// raw session it was seeded from.
func (rs *reconciliationService) priorResponse(ctx context.Context, userID uuid.UUID, slug string) (*reconcile.PriorResponse, error) {
	if state, err := rs.reconRepo.GetLatestByUserSlug(ctx, nil, userID, slug); err == nil {
		var answers map[string]any
		if err := json.Unmarshal(state.AnswersCurrent, &answers); err != nil {
			return nil, fmt.Errorf("corrupt reconciliation answers for user: %w", err)
		}
		return &reconcile.PriorResponse{
			Answers:       answers,
			SurveyHash:    state.CurrentSurveyHash,
			SurveyVersion: state.SourceSurveyVersion,
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session, err := rs.sessionRepo.GetLatestByUserSlug(ctx, nil, userID, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var answers map[string]any
	if err := json.Unmarshal(session.Answers, &answers); err != nil {
		return nil, fmt.Errorf("corrupt session answers: %w", err)
	}
	return &reconcile.PriorResponse{
		Answers:       answers,
		SurveyHash:    session.SurveyHash,
		SurveyVersion: session.SurveyVersion,
	}, nil
}

func (rs *reconciliationService) ReconcileUser(ctx context.Context, userID uuid.UUID, slug string) (*types.SurveyReconciliationState, error) {
	current, _, err := rs.ActiveRevision(ctx, slug)
	if err != nil {
		return nil, err
	}
	history, err := rs.revisionHistory(ctx, slug)
	if err != nil {
		return nil, err
	}
	prior, err := rs.priorResponse(ctx, userID, slug)
	if err != nil {
		return nil, err
	}

	state := reconcile.Reconcile(current, prior, history)

	var row *types.SurveyReconciliationState
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err = rs.persistState(ctx, tx, userID, current, state)
		if err != nil {
			return err
		}
		if !state.NeedsRetake {
			return rs.RecomputeTraits(ctx, tx, userID, current, state.Answers)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (rs *reconciliationService) ReconcileAllUsers(ctx context.Context, slug string) (int, error) {
	var userIDs []uuid.UUID
	if err := rs.db.WithContext(ctx).
		Model(&types.SurveySession{}).
		Distinct("user_id").
		Where("survey_slug = ?", slug).
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("Failed to list users with sessions: %w", err)
	}

	count := 0
	for _, userID := range userIDs {
		if _, err := rs.ReconcileUser(ctx, userID, slug); err != nil {
			rs.log.Error("reconciliation failed for user", "user_id", userID.String(), "error", err)
			continue
		}
		count++
	}
	rs.log.Info("bulk reconciliation complete", "slug", slug, "reconciled", count, "total", len(userIDs))
	return count, nil
}

// ApplyAnswerPatch merges incremental answers into the user's current
// reconciliation row, creating one first if the user has none yet.
func (rs *reconciliationService) ApplyAnswerPatch(ctx context.Context, userID uuid.UUID, slug string, patch map[string]any) (*types.SurveyReconciliationState, error) {
	current, _, err := rs.ActiveRevision(ctx, slug)
	if err != nil {
		return nil, err
	}

	existing, err := rs.reconRepo.GetByUserSlugHash(ctx, nil, userID, slug, current.Fingerprint.Hash)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if _, err := rs.ReconcileUser(ctx, userID, slug); err != nil {
			return nil, err
		}
		existing, err = rs.reconRepo.GetByUserSlugHash(ctx, nil, userID, slug, current.Fingerprint.Hash)
	}
	if err != nil {
		return nil, err
	}

	var answers map[string]any
	if err := json.Unmarshal(existing.AnswersCurrent, &answers); err != nil {
		return nil, fmt.Errorf("corrupt reconciliation answers: %w", err)
	}
	var report reconcile.Report
	_ = json.Unmarshal(existing.MigrationReport, &report)

	state := reconcile.ApplyPatch(reconcile.State{
		SurveySlug:    slug,
		CurrentHash:   existing.CurrentSurveyHash,
		SourceHash:    existing.SourceSurveyHash,
		SourceVersion: existing.SourceSurveyVersion,
		Answers:       answers,
		Report:        report,
	}, patch, current)

	var row *types.SurveyReconciliationState
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err = rs.persistState(ctx, tx, userID, current, state)
		if err != nil {
			return err
		}
		if !state.NeedsRetake {
			return rs.RecomputeTraits(ctx, tx, userID, current, state.Answers)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (rs *reconciliationService) persistState(ctx context.Context, tx *gorm.DB, userID uuid.UUID, current reconcile.Revision, state reconcile.State) (*types.SurveyReconciliationState, error) {
	answersJSON, err := json.Marshal(state.Answers)
	if err != nil {
		return nil, fmt.Errorf("Failed to marshal answers: %w", err)
	}
	missingJSON, err := json.Marshal(state.Missing)
	if err != nil {
		return nil, fmt.Errorf("Failed to marshal missing set: %w", err)
	}
	reportJSON, err := json.Marshal(state.Report)
	if err != nil {
		return nil, fmt.Errorf("Failed to marshal migration report: %w", err)
	}

	row := &types.SurveyReconciliationState{
		UserID:              userID,
		SurveySlug:          state.SurveySlug,
		CurrentSurveyHash:   state.CurrentHash,
		SourceSurveyHash:    state.SourceHash,
		SourceSurveyVersion: state.SourceVersion,
		AnswersCurrent:      datatypes.JSON(answersJSON),
		MissingQuestionIDs:  datatypes.JSON(missingJSON),
		NeedsRetake:         state.NeedsRetake,
		MigrationReport:     datatypes.JSON(reportJSON),
	}
	if _, err := rs.reconRepo.Upsert(ctx, tx, row); err != nil {
		return nil, fmt.Errorf("Failed to upsert reconciliation state: %w", err)
	}
	if err := rs.reconRepo.DeleteStale(ctx, tx, userID, state.SurveySlug, state.CurrentHash); err != nil {
		return nil, fmt.Errorf("Failed to prune stale reconciliation rows: %w", err)
	}
	return row, nil
}

// RecomputeTraits derives and stores the trait profile for a complete answer
// set. It is a no-op when the stored profile was already computed against the
// same revision hash.
func (rs *reconciliationService) RecomputeTraits(ctx context.Context, tx *gorm.DB, userID uuid.UUID, rev reconcile.Revision, answers map[string]any) error {
	if existing, err := rs.traitsRepo.GetByUserID(ctx, tx, userID); err == nil {
		if existing.ComputedForSurveyHash == rev.Fingerprint.Hash {
			return nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	profile, err := traits.Compute(rev.Definition, answers)
	if err != nil {
		var missing *traits.MissingRequiredAnswersError
		if errors.As(err, &missing) {
			rs.log.Warn("trait computation skipped, answers incomplete", "user_id", userID.String(), "missing", len(missing.Codes))
			return nil
		}
		return fmt.Errorf("Failed to compute traits: %w", err)
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("Failed to marshal trait profile: %w", err)
	}
	row := &types.UserTraits{
		UserID:                userID,
		TraitsVersion:         profile.SchemaVersion(),
		Profile:               datatypes.JSON(profileJSON),
		ComputedForSurveyHash: rev.Fingerprint.Hash,
		ComputedAt:            time.Now().UTC(),
	}
	if _, err := rs.traitsRepo.Upsert(ctx, tx, row); err != nil {
		return fmt.Errorf("Failed to upsert user traits: %w", err)
	}
	return nil
}
