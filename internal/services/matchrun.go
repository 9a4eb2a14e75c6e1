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
	"github.com/yungbote/matchweek-backend/internal/matching"
	"github.com/yungbote/matchweek-backend/internal/repos"
	"github.com/yungbote/matchweek-backend/internal/traits"
	"github.com/yungbote/matchweek-backend/internal/types"
)

const (
	runStatusRunning   = "running"
	runStatusSucceeded = "succeeded"
	runStatusFailed    = "failed"
)

// MatchRunService executes the weekly matching batch: eligibility, candidate
// generation, stable matching, and all-or-nothing persistence of the week's
// assignments.
type MatchRunService interface {
	RunWeek(ctx context.Context, weekStart time.Time, forced bool) (*types.MatchRunLog, error)
	WeekStart(now time.Time) time.Time
}

type matchRunService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	traitsRepo     repos.UserTraitsRepo
	reconRepo      repos.ReconciliationStateRepo
	assignmentRepo repos.WeeklyAssignmentRepo
	runLogRepo     repos.MatchRunLogRepo
	blockRepo      repos.UserBlockRepo
	recon          ReconciliationService
	cfg            matching.Config
	timezone       string
}

func NewMatchRunService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	traitsRepo repos.UserTraitsRepo,
	reconRepo repos.ReconciliationStateRepo,
	assignmentRepo repos.WeeklyAssignmentRepo,
	runLogRepo repos.MatchRunLogRepo,
	blockRepo repos.UserBlockRepo,
	recon ReconciliationService,
	cfg matching.Config,
	timezone string,
) MatchRunService {
	serviceLog := log.With("service", "MatchRunService")
	return &matchRunService{
		db:             db,
		log:            serviceLog,
		userRepo:       userRepo,
		traitsRepo:     traitsRepo,
		reconRepo:      reconRepo,
		assignmentRepo: assignmentRepo,
		runLogRepo:     runLogRepo,
		blockRepo:      blockRepo,
		recon:          recon,
		cfg:            cfg,
		timezone:       timezone,
	}
}

func (ms *matchRunService) WeekStart(now time.Time) time.Time {
	return matching.WeekStart(now, ms.timezone)
}

func (ms *matchRunService) RunWeek(ctx context.Context, weekStart time.Time, forced bool) (*types.MatchRunLog, error) {
	existing, err := ms.assignmentRepo.ListByWeek(ctx, nil, weekStart)
	if err != nil {
		return nil, fmt.Errorf("Failed to check existing assignments: %w", err)
	}
	if len(existing) > 0 && !forced {
		return nil, fmt.Errorf("assignments already exist for week %s; pass forced to re-run", weekStart.Format("2006-01-02"))
	}

	cfgJSON, _ := json.Marshal(ms.cfg)
	runLog := &types.MatchRunLog{
		WeekStart: weekStart,
		Status:    runStatusRunning,
		Forced:    forced,
		Config:    datatypes.JSON(cfgJSON),
		StartedAt: time.Now().UTC(),
	}
	if _, err := ms.runLogRepo.Create(ctx, nil, runLog); err != nil {
		return nil, fmt.Errorf("Failed to create run log: %w", err)
	}

	pool, err := ms.eligiblePool(ctx)
	if err != nil {
		ms.failRun(ctx, runLog.ID, err)
		return nil, err
	}

	recent, err := ms.recentPairs(ctx, weekStart)
	if err != nil {
		ms.failRun(ctx, runLog.ID, err)
		return nil, err
	}
	blocked, err := ms.blockedPairs(ctx)
	if err != nil {
		ms.failRun(ctx, runLog.ID, err)
		return nil, err
	}

	candidates := matching.BuildCandidatePairs(pool, ms.cfg, recent, blocked)
	assignments := matching.StableMatch(pool, candidates, matching.StableMatchOptions{
		MinScore:  ms.cfg.MinScore,
		TopK:      ms.cfg.TopK,
		Mode:      ms.cfg.Mode,
		WeekStart: weekStart,
	})
	unmatched := matching.UnmatchedUsers(pool, assignments)

	expiryHours := ms.cfg.ExpiryHours
	if expiryHours <= 0 {
		expiryHours = 72
	}
	expiresAt := weekStart.Add(time.Duration(expiryHours) * time.Hour)
	rows := make([]*types.WeeklyAssignment, 0, len(assignments)*2+len(unmatched))
	for _, a := range assignments {
		breakdownJSON, err := json.Marshal(a.Breakdown)
		if err != nil {
			ms.failRun(ctx, runLog.ID, err)
			return nil, fmt.Errorf("Failed to marshal score breakdown: %w", err)
		}
		u, v := a.UserID, a.MatchedUserID
		for _, pair := range [][2]uuid.UUID{{u, v}, {v, u}} {
			matched := pair[1]
			rows = append(rows, &types.WeeklyAssignment{
				UserID:         pair[0],
				MatchedUserID:  &matched,
				WeekStart:      weekStart,
				Status:         string(matching.StatusProposed),
				ScoreTotal:     a.ScoreTotal,
				ScoreBreakdown: datatypes.JSON(breakdownJSON),
				ExpiresAt:      expiresAt,
			})
		}
	}
	for _, userID := range unmatched {
		rows = append(rows, &types.WeeklyAssignment{
			UserID:    userID,
			WeekStart: weekStart,
			Status:    string(matching.StatusNoMatch),
			Reason:    matching.ReasonNoCandidate,
			ExpiresAt: expiresAt,
		})
	}

	if err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ms.persistWeek(ctx, tx, weekStart, forced, runLog.ID, rows)
	}); err != nil {
		ms.failRun(ctx, runLog.ID, err)
		return nil, err
	}

	finishedAt := time.Now().UTC()
	updates := map[string]any{
		"status":          runStatusSucceeded,
		"eligible_users":  len(pool),
		"candidate_pairs": len(candidates),
		"matched_pairs":   len(assignments),
		"unmatched":       len(unmatched),
		"finished_at":     finishedAt,
	}
	if err := ms.runLogRepo.Update(ctx, nil, runLog.ID, updates); err != nil {
		ms.log.Error("Failed to finalize run log", "error", err)
	}
	runLog.Status = runStatusSucceeded
	runLog.EligibleUsers = len(pool)
	runLog.CandidatePairs = len(candidates)
	runLog.MatchedPairs = len(assignments)
	runLog.Unmatched = len(unmatched)
	runLog.FinishedAt = &finishedAt

	ms.log.Info("weekly match run complete",
		"week_start", weekStart.Format("2006-01-02"),
		"eligible", len(pool),
		"pairs", len(assignments),
		"unmatched", len(unmatched),
		"forced", forced)
	return runLog, nil
}

// persistWeek writes a week's assignment rows. A forced re-run first clears
// the previous assignments and superseded run logs so the week reads as if it
// had only ever run once.
func (ms *matchRunService) persistWeek(ctx context.Context, tx *gorm.DB, weekStart time.Time, forced bool, runID uuid.UUID, rows []*types.WeeklyAssignment) error {
	if forced {
		if err := ms.assignmentRepo.DeleteByWeek(ctx, tx, weekStart); err != nil {
			return fmt.Errorf("Failed to clear previous assignments: %w", err)
		}
		if err := ms.runLogRepo.DeleteByWeekExcept(ctx, tx, weekStart, runID); err != nil {
			return fmt.Errorf("Failed to clear previous run logs: %w", err)
		}
	}
	if _, err := ms.assignmentRepo.CreateBatch(ctx, tx, rows); err != nil {
		return fmt.Errorf("Failed to store assignments: %w", err)
	}
	return nil
}

// eligiblePool loads active, unpaused users whose reconciliation row is
// complete against the active revision and whose trait profile was computed
// from it.
func (ms *matchRunService) eligiblePool(ctx context.Context) ([]matching.PoolUser, error) {
	current, _, err := ms.recon.ActiveRevision(ctx, traits.CurrentSurveySlug)
	if err != nil {
		return nil, err
	}
	activeHash := current.Fingerprint.Hash

	users, err := ms.userRepo.ListActive(ctx, nil, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to list active users: %w", err)
	}
	userByID := make(map[uuid.UUID]*types.User, len(users))
	userIDs := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		userByID[u.ID] = u
		userIDs = append(userIDs, u.ID)
	}

	states, err := ms.reconRepo.ListBySlugHash(ctx, nil, traits.CurrentSurveySlug, activeHash, userIDs)
	if err != nil {
		return nil, fmt.Errorf("Failed to list reconciliation states: %w", err)
	}
	complete := map[uuid.UUID]struct{}{}
	for _, st := range states {
		if !st.NeedsRetake {
			complete[st.UserID] = struct{}{}
		}
	}

	traitRows, err := ms.traitsRepo.ListByUserIDs(ctx, nil, userIDs)
	if err != nil {
		return nil, fmt.Errorf("Failed to list user traits: %w", err)
	}

	pool := make([]matching.PoolUser, 0, len(traitRows))
	for _, row := range traitRows {
		if _, ok := complete[row.UserID]; !ok {
			continue
		}
		if row.ComputedForSurveyHash != activeHash {
			continue
		}
		user, ok := userByID[row.UserID]
		if !ok || user.Paused {
			continue
		}
		profile, err := traits.Decode(row.Profile)
		if err != nil {
			ms.log.Warn("skipping user with undecodable profile", "user_id", row.UserID.String(), "error", err)
			continue
		}
		var seeking []string
		if len(user.SeekingGenders) > 0 {
			_ = json.Unmarshal(user.SeekingGenders, &seeking)
		}
		pool = append(pool, matching.PoolUser{
			UserID:         row.UserID,
			Profile:        profile,
			GenderIdentity: user.GenderIdentity,
			SeekingGenders: seeking,
		})
	}
	return pool, nil
}

func (ms *matchRunService) recentPairs(ctx context.Context, weekStart time.Time) (matching.PairSet, error) {
	since := weekStart.AddDate(0, 0, -7*ms.cfg.LookbackWeeks)
	rows, err := ms.assignmentRepo.ListMatchedPairsSince(ctx, nil, since)
	if err != nil {
		return nil, fmt.Errorf("Failed to load recent pairs: %w", err)
	}
	set := matching.PairSet{}
	for _, row := range rows {
		if row.MatchedUserID == nil || row.WeekStart.Equal(weekStart) {
			continue
		}
		set.Add(row.UserID, *row.MatchedUserID)
	}
	return set, nil
}

func (ms *matchRunService) blockedPairs(ctx context.Context) (matching.PairSet, error) {
	rows, err := ms.blockRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to load blocks: %w", err)
	}
	set := matching.PairSet{}
	for _, row := range rows {
		set.Add(row.BlockerUserID, row.BlockedUserID)
	}
	return set, nil
}

func (ms *matchRunService) failRun(ctx context.Context, runID uuid.UUID, cause error) {
	finishedAt := time.Now().UTC()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := ms.runLogRepo.Update(ctx, nil, runID, map[string]any{
		"status":      runStatusFailed,
		"error":       msg,
		"finished_at": finishedAt,
	}); err != nil && !errors.Is(err, context.Canceled) {
		ms.log.Error("Failed to mark run failed", "error", err)
	}
}
