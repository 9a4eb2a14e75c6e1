package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type MatchRunLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.MatchRunLog) (*types.MatchRunLog, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	GetLatestByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) (*types.MatchRunLog, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.MatchRunLog, error)
	DeleteByWeekExcept(ctx context.Context, tx *gorm.DB, weekStart time.Time, keepID uuid.UUID) error
}

type matchRunLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMatchRunLogRepo(db *gorm.DB, baseLog *logger.Logger) MatchRunLogRepo {
	repoLog := baseLog.With("repo", "MatchRunLogRepo")
	return &matchRunLogRepo{db: db, log: repoLog}
}

func (mrr *matchRunLogRepo) Create(ctx context.Context, tx *gorm.DB, run *types.MatchRunLog) (*types.MatchRunLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = mrr.db
	}

	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (mrr *matchRunLogRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = mrr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.MatchRunLog{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (mrr *matchRunLogRepo) GetLatestByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) (*types.MatchRunLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = mrr.db
	}

	var result types.MatchRunLog

	if err := transaction.WithContext(ctx).
		Where("week_start = ?", weekStart).
		Order("started_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteByWeekExcept clears a week's run logs while keeping the run that is
// replacing them.
func (mrr *matchRunLogRepo) DeleteByWeekExcept(ctx context.Context, tx *gorm.DB, weekStart time.Time, keepID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = mrr.db
	}

	return transaction.WithContext(ctx).
		Where("week_start = ? AND id <> ?", weekStart, keepID).
		Delete(&types.MatchRunLog{}).Error
}

func (mrr *matchRunLogRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.MatchRunLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = mrr.db
	}

	var results []*types.MatchRunLog

	if limit <= 0 {
		limit = 20
	}
	if err := transaction.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
