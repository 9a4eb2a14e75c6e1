package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type UserBlockRepo interface {
	Create(ctx context.Context, tx *gorm.DB, block *types.UserBlock) (*types.UserBlock, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.UserBlock, error)
	ExistsBetween(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (bool, error)
}

type userBlockRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserBlockRepo(db *gorm.DB, baseLog *logger.Logger) UserBlockRepo {
	repoLog := baseLog.With("repo", "UserBlockRepo")
	return &userBlockRepo{db: db, log: repoLog}
}

func (ubr *userBlockRepo) Create(ctx context.Context, tx *gorm.DB, block *types.UserBlock) (*types.UserBlock, error) {
	transaction := tx
	if transaction == nil {
		transaction = ubr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(block).Error; err != nil {
		return nil, err
	}
	return block, nil
}

func (ubr *userBlockRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.UserBlock, error) {
	transaction := tx
	if transaction == nil {
		transaction = ubr.db
	}

	var results []*types.UserBlock

	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ubr *userBlockRepo) ExistsBetween(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ubr.db
	}

	var count int64

	if err := transaction.WithContext(ctx).
		Model(&types.UserBlock{}).
		Where("(blocker_user_id = ? AND blocked_user_id = ?) OR (blocker_user_id = ? AND blocked_user_id = ?)", a, b, b, a).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
