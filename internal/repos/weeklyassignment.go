package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type WeeklyAssignmentRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*types.WeeklyAssignment) ([]*types.WeeklyAssignment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WeeklyAssignment, error)
	GetByUserWeek(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weekStart time.Time) (*types.WeeklyAssignment, error)
	GetPartnerRow(ctx context.Context, tx *gorm.DB, assignment *types.WeeklyAssignment) (*types.WeeklyAssignment, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.WeeklyAssignment, error)
	ListByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) ([]*types.WeeklyAssignment, error)
	ListMatchedPairsSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*types.WeeklyAssignment, error)
	UpdateStatusCAS(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatuses []string, updates map[string]any) (int64, error)
	DeleteByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) error
}

type weeklyAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeeklyAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) WeeklyAssignmentRepo {
	repoLog := baseLog.With("repo", "WeeklyAssignmentRepo")
	return &weeklyAssignmentRepo{db: db, log: repoLog}
}

func (war *weeklyAssignmentRepo) CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*types.WeeklyAssignment) ([]*types.WeeklyAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	if len(assignments) == 0 {
		return []*types.WeeklyAssignment{}, nil
	}

	if err := transaction.WithContext(ctx).CreateInBatches(&assignments, 500).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (war *weeklyAssignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WeeklyAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	var result types.WeeklyAssignment

	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (war *weeklyAssignmentRepo) GetByUserWeek(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weekStart time.Time) (*types.WeeklyAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	var result types.WeeklyAssignment

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPartnerRow returns the mirrored row of a matched assignment.
func (war *weeklyAssignmentRepo) GetPartnerRow(ctx context.Context, tx *gorm.DB, assignment *types.WeeklyAssignment) (*types.WeeklyAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	if assignment.MatchedUserID == nil {
		return nil, gorm.ErrRecordNotFound
	}

	var result types.WeeklyAssignment

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND matched_user_id = ? AND week_start = ?",
			*assignment.MatchedUserID, assignment.UserID, assignment.WeekStart).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (war *weeklyAssignmentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.WeeklyAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	var results []*types.WeeklyAssignment

	query := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("week_start DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (war *weeklyAssignmentRepo) ListByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) ([]*types.WeeklyAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	var results []*types.WeeklyAssignment

	if err := transaction.WithContext(ctx).
		Where("week_start = ?", weekStart).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (war *weeklyAssignmentRepo) ListMatchedPairsSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*types.WeeklyAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	var results []*types.WeeklyAssignment

	if err := transaction.WithContext(ctx).
		Where("matched_user_id IS NOT NULL AND week_start >= ?", since).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatusCAS applies updates only while the row is still in one of
// fromStatuses. The returned rows-affected count is 0 when another writer got
// there first.
func (war *weeklyAssignmentRepo) UpdateStatusCAS(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatuses []string, updates map[string]any) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.WeeklyAssignment{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (war *weeklyAssignmentRepo) DeleteByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = war.db
	}

	return transaction.WithContext(ctx).
		Where("week_start = ?", weekStart).
		Delete(&types.WeeklyAssignment{}).Error
}
