package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type SurveyDefinitionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, def *types.SurveyDefinition) (*types.SurveyDefinition, error)
	GetActiveBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.SurveyDefinition, error)
	GetByHash(ctx context.Context, tx *gorm.DB, surveyHash string) (*types.SurveyDefinition, error)
	GetBySlugVersion(ctx context.Context, tx *gorm.DB, slug string, version int) (*types.SurveyDefinition, error)
	ListBySlug(ctx context.Context, tx *gorm.DB, slug string) ([]*types.SurveyDefinition, error)
	HashExists(ctx context.Context, tx *gorm.DB, surveyHash string) (bool, error)
	Activate(ctx context.Context, tx *gorm.DB, slug, surveyHash string) error
}

type surveyDefinitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSurveyDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) SurveyDefinitionRepo {
	repoLog := baseLog.With("repo", "SurveyDefinitionRepo")
	return &surveyDefinitionRepo{db: db, log: repoLog}
}

func (sdr *surveyDefinitionRepo) Create(ctx context.Context, tx *gorm.DB, def *types.SurveyDefinition) (*types.SurveyDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = sdr.db
	}

	if err := transaction.WithContext(ctx).Create(def).Error; err != nil {
		return nil, err
	}
	return def, nil
}

func (sdr *surveyDefinitionRepo) GetActiveBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.SurveyDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = sdr.db
	}

	var result types.SurveyDefinition

	if err := transaction.WithContext(ctx).
		Where("slug = ? AND active = ?", slug, true).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sdr *surveyDefinitionRepo) GetByHash(ctx context.Context, tx *gorm.DB, surveyHash string) (*types.SurveyDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = sdr.db
	}

	var result types.SurveyDefinition

	if err := transaction.WithContext(ctx).
		Where("survey_hash = ?", surveyHash).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sdr *surveyDefinitionRepo) GetBySlugVersion(ctx context.Context, tx *gorm.DB, slug string, version int) (*types.SurveyDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = sdr.db
	}

	var result types.SurveyDefinition

	if err := transaction.WithContext(ctx).
		Where("slug = ? AND version = ?", slug, version).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sdr *surveyDefinitionRepo) ListBySlug(ctx context.Context, tx *gorm.DB, slug string) ([]*types.SurveyDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = sdr.db
	}

	var results []*types.SurveyDefinition

	if err := transaction.WithContext(ctx).
		Where("slug = ?", slug).
		Order("version ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sdr *surveyDefinitionRepo) HashExists(ctx context.Context, tx *gorm.DB, surveyHash string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = sdr.db
	}

	var count int64

	if err := transaction.WithContext(ctx).
		Model(&types.SurveyDefinition{}).
		Where("survey_hash = ?", surveyHash).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Activate marks the revision identified by surveyHash as the single active
// revision for the slug. Run inside a transaction when paired with Create.
func (sdr *surveyDefinitionRepo) Activate(ctx context.Context, tx *gorm.DB, slug, surveyHash string) error {
	transaction := tx
	if transaction == nil {
		transaction = sdr.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.SurveyDefinition{}).
		Where("slug = ? AND active = ?", slug, true).
		Update("active", false).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Model(&types.SurveyDefinition{}).
		Where("slug = ? AND survey_hash = ?", slug, surveyHash).
		Update("active", true).Error
}
