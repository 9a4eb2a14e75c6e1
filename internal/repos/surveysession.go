package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type SurveySessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.SurveySession) (*types.SurveySession, error)
	GetLatestByUserSlug(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug string) (*types.SurveySession, error)
	ListLatestBySlug(ctx context.Context, tx *gorm.DB, slug string, userIDs []uuid.UUID) ([]*types.SurveySession, error)
}

type surveySessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSurveySessionRepo(db *gorm.DB, baseLog *logger.Logger) SurveySessionRepo {
	repoLog := baseLog.With("repo", "SurveySessionRepo")
	return &surveySessionRepo{db: db, log: repoLog}
}

func (ssr *surveySessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.SurveySession) (*types.SurveySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = ssr.db
	}

	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (ssr *surveySessionRepo) GetLatestByUserSlug(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug string) (*types.SurveySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = ssr.db
	}

	var result types.SurveySession

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND survey_slug = ?", userID, slug).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// ListLatestBySlug returns the newest session per user in userIDs for the
// slug, using a window over created_at.
func (ssr *surveySessionRepo) ListLatestBySlug(ctx context.Context, tx *gorm.DB, slug string, userIDs []uuid.UUID) ([]*types.SurveySession, error) {
	transaction := tx
	if transaction == nil {
		transaction = ssr.db
	}

	var results []*types.SurveySession

	if len(userIDs) == 0 {
		return results, nil
	}

	sub := transaction.WithContext(ctx).
		Model(&types.SurveySession{}).
		Select("DISTINCT ON (user_id) id").
		Where("survey_slug = ? AND user_id IN ?", slug, userIDs).
		Order("user_id, created_at DESC")

	if err := transaction.WithContext(ctx).
		Where("id IN (?)", sub).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
