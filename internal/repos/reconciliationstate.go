package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type ReconciliationStateRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, state *types.SurveyReconciliationState) (*types.SurveyReconciliationState, error)
	GetByUserSlugHash(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug, currentHash string) (*types.SurveyReconciliationState, error)
	GetLatestByUserSlug(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug string) (*types.SurveyReconciliationState, error)
	ListBySlugHash(ctx context.Context, tx *gorm.DB, slug, currentHash string, userIDs []uuid.UUID) ([]*types.SurveyReconciliationState, error)
	DeleteStale(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug, keepHash string) error
}

type reconciliationStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReconciliationStateRepo(db *gorm.DB, baseLog *logger.Logger) ReconciliationStateRepo {
	repoLog := baseLog.With("repo", "ReconciliationStateRepo")
	return &reconciliationStateRepo{db: db, log: repoLog}
}

// Upsert inserts or overwrites the row keyed by (user, slug, current hash),
// which makes reconciliation idempotent for an unchanged definition.
func (rsr *reconciliationStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *types.SurveyReconciliationState) (*types.SurveyReconciliationState, error) {
	transaction := tx
	if transaction == nil {
		transaction = rsr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "survey_slug"},
				{Name: "current_survey_hash"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"source_survey_hash",
				"source_survey_version",
				"answers_current",
				"missing_question_ids",
				"needs_retake",
				"migration_report",
				"updated_at",
			}),
		}).
		Create(state).Error; err != nil {
		return nil, err
	}
	return state, nil
}

func (rsr *reconciliationStateRepo) GetByUserSlugHash(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug, currentHash string) (*types.SurveyReconciliationState, error) {
	transaction := tx
	if transaction == nil {
		transaction = rsr.db
	}

	var result types.SurveyReconciliationState

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND survey_slug = ? AND current_survey_hash = ?", userID, slug, currentHash).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (rsr *reconciliationStateRepo) GetLatestByUserSlug(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug string) (*types.SurveyReconciliationState, error) {
	transaction := tx
	if transaction == nil {
		transaction = rsr.db
	}

	var result types.SurveyReconciliationState

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND survey_slug = ?", userID, slug).
		Order("updated_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (rsr *reconciliationStateRepo) ListBySlugHash(ctx context.Context, tx *gorm.DB, slug, currentHash string, userIDs []uuid.UUID) ([]*types.SurveyReconciliationState, error) {
	transaction := tx
	if transaction == nil {
		transaction = rsr.db
	}

	var results []*types.SurveyReconciliationState

	query := transaction.WithContext(ctx).
		Where("survey_slug = ? AND current_survey_hash = ?", slug, currentHash)
	if len(userIDs) > 0 {
		query = query.Where("user_id IN ?", userIDs)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteStale drops reconciliation rows for older revisions of the slug once
// the user has a row against keepHash.
func (rsr *reconciliationStateRepo) DeleteStale(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug, keepHash string) error {
	transaction := tx
	if transaction == nil {
		transaction = rsr.db
	}

	return transaction.WithContext(ctx).
		Where("user_id = ? AND survey_slug = ? AND current_survey_hash <> ?", userID, slug, keepHash).
		Delete(&types.SurveyReconciliationState{}).Error
}
