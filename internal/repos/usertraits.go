package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type UserTraitsRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, traits *types.UserTraits) (*types.UserTraits, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserTraits, error)
	ListByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserTraits, error)
}

type userTraitsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTraitsRepo(db *gorm.DB, baseLog *logger.Logger) UserTraitsRepo {
	repoLog := baseLog.With("repo", "UserTraitsRepo")
	return &userTraitsRepo{db: db, log: repoLog}
}

func (utr *userTraitsRepo) Upsert(ctx context.Context, tx *gorm.DB, traits *types.UserTraits) (*types.UserTraits, error) {
	transaction := tx
	if transaction == nil {
		transaction = utr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"traits_version",
				"profile",
				"computed_for_survey_hash",
				"computed_at",
				"updated_at",
			}),
		}).
		Create(traits).Error; err != nil {
		return nil, err
	}
	return traits, nil
}

func (utr *userTraitsRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserTraits, error) {
	transaction := tx
	if transaction == nil {
		transaction = utr.db
	}

	var result types.UserTraits

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (utr *userTraitsRepo) ListByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserTraits, error) {
	transaction := tx
	if transaction == nil {
		transaction = utr.db
	}

	var results []*types.UserTraits

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
