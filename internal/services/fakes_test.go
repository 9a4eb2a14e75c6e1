package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/reconcile"
	"github.com/yungbote/matchweek-backend/internal/types"
)

// Function-field fakes for the repo interfaces. Unset fields return zero
// values, so each test only wires the calls its path actually makes.

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

type fakeUserRepo struct {
	CreateFn      func(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDsFn    func(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmailFn  func(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	EmailExistsFn func(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	ListActiveFn  func(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.User, error)
	SetActiveFn   func(ctx context.Context, tx *gorm.DB, userID uuid.UUID, active bool) error
	SetPausedFn   func(ctx context.Context, tx *gorm.DB, userID uuid.UUID, paused bool) error
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, tx, users)
	}
	return users, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	if f.GetByIDsFn != nil {
		return f.GetByIDsFn(ctx, tx, userIDs)
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	if f.GetByEmailFn != nil {
		return f.GetByEmailFn(ctx, tx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	if f.EmailExistsFn != nil {
		return f.EmailExistsFn(ctx, tx, email)
	}
	return false, nil
}

func (f *fakeUserRepo) ListActive(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.User, error) {
	if f.ListActiveFn != nil {
		return f.ListActiveFn(ctx, tx, tenantID)
	}
	return nil, nil
}

func (f *fakeUserRepo) SetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, active bool) error {
	if f.SetActiveFn != nil {
		return f.SetActiveFn(ctx, tx, userID, active)
	}
	return nil
}

func (f *fakeUserRepo) SetPaused(ctx context.Context, tx *gorm.DB, userID uuid.UUID, paused bool) error {
	if f.SetPausedFn != nil {
		return f.SetPausedFn(ctx, tx, userID, paused)
	}
	return nil
}

type fakeAssignmentRepo struct {
	CreateBatchFn           func(ctx context.Context, tx *gorm.DB, assignments []*types.WeeklyAssignment) ([]*types.WeeklyAssignment, error)
	GetByIDFn               func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WeeklyAssignment, error)
	GetByUserWeekFn         func(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weekStart time.Time) (*types.WeeklyAssignment, error)
	GetPartnerRowFn         func(ctx context.Context, tx *gorm.DB, assignment *types.WeeklyAssignment) (*types.WeeklyAssignment, error)
	ListByUserFn            func(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.WeeklyAssignment, error)
	ListByWeekFn            func(ctx context.Context, tx *gorm.DB, weekStart time.Time) ([]*types.WeeklyAssignment, error)
	ListMatchedPairsSinceFn func(ctx context.Context, tx *gorm.DB, since time.Time) ([]*types.WeeklyAssignment, error)
	UpdateStatusCASFn       func(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatuses []string, updates map[string]any) (int64, error)
	DeleteByWeekFn          func(ctx context.Context, tx *gorm.DB, weekStart time.Time) error
}

func (f *fakeAssignmentRepo) CreateBatch(ctx context.Context, tx *gorm.DB, assignments []*types.WeeklyAssignment) ([]*types.WeeklyAssignment, error) {
	if f.CreateBatchFn != nil {
		return f.CreateBatchFn(ctx, tx, assignments)
	}
	return assignments, nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WeeklyAssignment, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, tx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) GetByUserWeek(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weekStart time.Time) (*types.WeeklyAssignment, error) {
	if f.GetByUserWeekFn != nil {
		return f.GetByUserWeekFn(ctx, tx, userID, weekStart)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) GetPartnerRow(ctx context.Context, tx *gorm.DB, assignment *types.WeeklyAssignment) (*types.WeeklyAssignment, error) {
	if f.GetPartnerRowFn != nil {
		return f.GetPartnerRowFn(ctx, tx, assignment)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.WeeklyAssignment, error) {
	if f.ListByUserFn != nil {
		return f.ListByUserFn(ctx, tx, userID, limit)
	}
	return nil, nil
}

func (f *fakeAssignmentRepo) ListByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) ([]*types.WeeklyAssignment, error) {
	if f.ListByWeekFn != nil {
		return f.ListByWeekFn(ctx, tx, weekStart)
	}
	return nil, nil
}

func (f *fakeAssignmentRepo) ListMatchedPairsSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*types.WeeklyAssignment, error) {
	if f.ListMatchedPairsSinceFn != nil {
		return f.ListMatchedPairsSinceFn(ctx, tx, since)
	}
	return nil, nil
}

func (f *fakeAssignmentRepo) UpdateStatusCAS(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatuses []string, updates map[string]any) (int64, error) {
	if f.UpdateStatusCASFn != nil {
		return f.UpdateStatusCASFn(ctx, tx, id, fromStatuses, updates)
	}
	return 1, nil
}

func (f *fakeAssignmentRepo) DeleteByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) error {
	if f.DeleteByWeekFn != nil {
		return f.DeleteByWeekFn(ctx, tx, weekStart)
	}
	return nil
}

type fakeRunLogRepo struct {
	CreateFn             func(ctx context.Context, tx *gorm.DB, run *types.MatchRunLog) (*types.MatchRunLog, error)
	UpdateFn             func(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	GetLatestByWeekFn    func(ctx context.Context, tx *gorm.DB, weekStart time.Time) (*types.MatchRunLog, error)
	ListRecentFn         func(ctx context.Context, tx *gorm.DB, limit int) ([]*types.MatchRunLog, error)
	DeleteByWeekExceptFn func(ctx context.Context, tx *gorm.DB, weekStart time.Time, keepID uuid.UUID) error
}

func (f *fakeRunLogRepo) Create(ctx context.Context, tx *gorm.DB, run *types.MatchRunLog) (*types.MatchRunLog, error) {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, tx, run)
	}
	return run, nil
}

func (f *fakeRunLogRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, tx, id, updates)
	}
	return nil
}

func (f *fakeRunLogRepo) GetLatestByWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time) (*types.MatchRunLog, error) {
	if f.GetLatestByWeekFn != nil {
		return f.GetLatestByWeekFn(ctx, tx, weekStart)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunLogRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.MatchRunLog, error) {
	if f.ListRecentFn != nil {
		return f.ListRecentFn(ctx, tx, limit)
	}
	return nil, nil
}

func (f *fakeRunLogRepo) DeleteByWeekExcept(ctx context.Context, tx *gorm.DB, weekStart time.Time, keepID uuid.UUID) error {
	if f.DeleteByWeekExceptFn != nil {
		return f.DeleteByWeekExceptFn(ctx, tx, weekStart, keepID)
	}
	return nil
}

type fakeReconStateRepo struct {
	UpsertFn              func(ctx context.Context, tx *gorm.DB, state *types.SurveyReconciliationState) (*types.SurveyReconciliationState, error)
	GetByUserSlugHashFn   func(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug, currentHash string) (*types.SurveyReconciliationState, error)
	GetLatestByUserSlugFn func(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug string) (*types.SurveyReconciliationState, error)
	ListBySlugHashFn      func(ctx context.Context, tx *gorm.DB, slug, currentHash string, userIDs []uuid.UUID) ([]*types.SurveyReconciliationState, error)
	DeleteStaleFn         func(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug, keepHash string) error
}

func (f *fakeReconStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *types.SurveyReconciliationState) (*types.SurveyReconciliationState, error) {
	if f.UpsertFn != nil {
		return f.UpsertFn(ctx, tx, state)
	}
	return state, nil
}

func (f *fakeReconStateRepo) GetByUserSlugHash(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug, currentHash string) (*types.SurveyReconciliationState, error) {
	if f.GetByUserSlugHashFn != nil {
		return f.GetByUserSlugHashFn(ctx, tx, userID, slug, currentHash)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReconStateRepo) GetLatestByUserSlug(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug string) (*types.SurveyReconciliationState, error) {
	if f.GetLatestByUserSlugFn != nil {
		return f.GetLatestByUserSlugFn(ctx, tx, userID, slug)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReconStateRepo) ListBySlugHash(ctx context.Context, tx *gorm.DB, slug, currentHash string, userIDs []uuid.UUID) ([]*types.SurveyReconciliationState, error) {
	if f.ListBySlugHashFn != nil {
		return f.ListBySlugHashFn(ctx, tx, slug, currentHash, userIDs)
	}
	return nil, nil
}

func (f *fakeReconStateRepo) DeleteStale(ctx context.Context, tx *gorm.DB, userID uuid.UUID, slug, keepHash string) error {
	if f.DeleteStaleFn != nil {
		return f.DeleteStaleFn(ctx, tx, userID, slug, keepHash)
	}
	return nil
}

type fakeTraitsRepo struct {
	UpsertFn        func(ctx context.Context, tx *gorm.DB, row *types.UserTraits) (*types.UserTraits, error)
	GetByUserIDFn   func(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserTraits, error)
	ListByUserIDsFn func(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserTraits, error)
}

func (f *fakeTraitsRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.UserTraits) (*types.UserTraits, error) {
	if f.UpsertFn != nil {
		return f.UpsertFn(ctx, tx, row)
	}
	return row, nil
}

func (f *fakeTraitsRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserTraits, error) {
	if f.GetByUserIDFn != nil {
		return f.GetByUserIDFn(ctx, tx, userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTraitsRepo) ListByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserTraits, error) {
	if f.ListByUserIDsFn != nil {
		return f.ListByUserIDsFn(ctx, tx, userIDs)
	}
	return nil, nil
}

type fakeBlockRepo struct {
	CreateFn        func(ctx context.Context, tx *gorm.DB, block *types.UserBlock) (*types.UserBlock, error)
	ListAllFn       func(ctx context.Context, tx *gorm.DB) ([]*types.UserBlock, error)
	ExistsBetweenFn func(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (bool, error)
}

func (f *fakeBlockRepo) Create(ctx context.Context, tx *gorm.DB, block *types.UserBlock) (*types.UserBlock, error) {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, tx, block)
	}
	return block, nil
}

func (f *fakeBlockRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.UserBlock, error) {
	if f.ListAllFn != nil {
		return f.ListAllFn(ctx, tx)
	}
	return nil, nil
}

func (f *fakeBlockRepo) ExistsBetween(ctx context.Context, tx *gorm.DB, a, b uuid.UUID) (bool, error) {
	if f.ExistsBetweenFn != nil {
		return f.ExistsBetweenFn(ctx, tx, a, b)
	}
	return false, nil
}

type fakeReconciliationService struct {
	ActiveRevisionFn    func(ctx context.Context, slug string) (reconcile.Revision, *types.SurveyDefinition, error)
	ReconcileUserFn     func(ctx context.Context, userID uuid.UUID, slug string) (*types.SurveyReconciliationState, error)
	ReconcileAllUsersFn func(ctx context.Context, slug string) (int, error)
	ApplyAnswerPatchFn  func(ctx context.Context, userID uuid.UUID, slug string, patch map[string]any) (*types.SurveyReconciliationState, error)
	RecomputeTraitsFn   func(ctx context.Context, tx *gorm.DB, userID uuid.UUID, rev reconcile.Revision, answers map[string]any) error
}

func (f *fakeReconciliationService) ActiveRevision(ctx context.Context, slug string) (reconcile.Revision, *types.SurveyDefinition, error) {
	if f.ActiveRevisionFn != nil {
		return f.ActiveRevisionFn(ctx, slug)
	}
	return reconcile.Revision{}, nil, gorm.ErrRecordNotFound
}

func (f *fakeReconciliationService) ReconcileUser(ctx context.Context, userID uuid.UUID, slug string) (*types.SurveyReconciliationState, error) {
	if f.ReconcileUserFn != nil {
		return f.ReconcileUserFn(ctx, userID, slug)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReconciliationService) ReconcileAllUsers(ctx context.Context, slug string) (int, error) {
	if f.ReconcileAllUsersFn != nil {
		return f.ReconcileAllUsersFn(ctx, slug)
	}
	return 0, nil
}

func (f *fakeReconciliationService) ApplyAnswerPatch(ctx context.Context, userID uuid.UUID, slug string, patch map[string]any) (*types.SurveyReconciliationState, error) {
	if f.ApplyAnswerPatchFn != nil {
		return f.ApplyAnswerPatchFn(ctx, userID, slug, patch)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReconciliationService) RecomputeTraits(ctx context.Context, tx *gorm.DB, userID uuid.UUID, rev reconcile.Revision, answers map[string]any) error {
	if f.RecomputeTraitsFn != nil {
		return f.RecomputeTraitsFn(ctx, tx, userID, rev, answers)
	}
	return nil
}
