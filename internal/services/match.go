package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/matching"
	"github.com/yungbote/matchweek-backend/internal/repos"
	"github.com/yungbote/matchweek-backend/internal/types"
)

var (
	ErrNoAssignment      = errors.New("no assignment for this week")
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrConflict          = errors.New("assignment changed concurrently, retry")
)

// MatchView is the client-facing shape of a weekly assignment.
type MatchView struct {
	AssignmentID  uuid.UUID  `json:"assignment_id"`
	WeekStart     time.Time  `json:"week_start"`
	Status        string     `json:"status"`
	MatchedUserID *uuid.UUID `json:"matched_user_id,omitempty"`
	ScoreTotal    float64    `json:"score_total,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	PartnerStatus string     `json:"partner_status,omitempty"`
	Mutual        bool       `json:"mutual"`
}

// MatchService serves the per-user view of the week's assignment and applies
// lifecycle actions with optimistic concurrency.
type MatchService interface {
	GetCurrent(ctx context.Context, userID uuid.UUID, now time.Time) (*MatchView, error)
	Act(ctx context.Context, userID uuid.UUID, action matching.Action, now time.Time) (*MatchView, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.WeeklyAssignment, error)
	ExpireWeek(ctx context.Context, weekStart time.Time, now time.Time) (int, error)
	SetPaused(ctx context.Context, userID uuid.UUID, paused bool) error
}

type matchService struct {
	db             *gorm.DB
	log            *logger.Logger
	assignmentRepo repos.WeeklyAssignmentRepo
	blockRepo      repos.UserBlockRepo
	userRepo       repos.UserRepo
	timezone       string
}

func NewMatchService(
	db *gorm.DB,
	log *logger.Logger,
	assignmentRepo repos.WeeklyAssignmentRepo,
	blockRepo repos.UserBlockRepo,
	userRepo repos.UserRepo,
	timezone string,
) MatchService {
	serviceLog := log.With("service", "MatchService")
	return &matchService{
		db:             db,
		log:            serviceLog,
		assignmentRepo: assignmentRepo,
		blockRepo:      blockRepo,
		userRepo:       userRepo,
		timezone:       timezone,
	}
}

func (ms *matchService) GetCurrent(ctx context.Context, userID uuid.UUID, now time.Time) (*MatchView, error) {
	weekStart := matching.WeekStart(now, ms.timezone)
	row, err := ms.assignmentRepo.GetByUserWeek(ctx, nil, userID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAssignment
		}
		return nil, err
	}

	// Lazy expiry: a stale proposed/revealed row flips on read.
	current := matching.Status(row.Status)
	if expired := matching.Transition(current, matching.ActionExpire, now, row.ExpiresAt); expired == matching.StatusExpired && current != matching.StatusExpired {
		if !now.Before(row.ExpiresAt) {
			row, err = ms.applyAction(ctx, row, matching.ActionExpire, now)
			if err != nil {
				return nil, err
			}
		}
	}
	return ms.view(ctx, row)
}

func (ms *matchService) Act(ctx context.Context, userID uuid.UUID, action matching.Action, now time.Time) (*MatchView, error) {
	weekStart := matching.WeekStart(now, ms.timezone)
	row, err := ms.assignmentRepo.GetByUserWeek(ctx, nil, userID, weekStart)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAssignment
		}
		return nil, err
	}

	row, err = ms.applyAction(ctx, row, action, now)
	if err != nil {
		return nil, err
	}
	return ms.view(ctx, row)
}

// applyAction runs the pure transition, then persists with a CAS on the old
// status. Declines and expiries propagate to the partner row; block is
// asymmetric and only rewrites the acting user's row.
func (ms *matchService) applyAction(ctx context.Context, row *types.WeeklyAssignment, action matching.Action, now time.Time) (*types.WeeklyAssignment, error) {
	current := matching.Status(row.Status)
	next := matching.Transition(current, action, now, row.ExpiresAt)
	if next == current {
		switch action {
		case matching.ActionAccept, matching.ActionDecline:
			if (action == matching.ActionAccept && current == matching.StatusAccepted) ||
				(action == matching.ActionDecline && current == matching.StatusDeclined) {
				return row, nil
			}
			return nil, ErrInvalidTransition
		case matching.ActionView:
			if current == matching.StatusRevealed {
				return row, nil
			}
			return nil, ErrInvalidTransition
		case matching.ActionExpire:
			return row, nil
		default:
			return nil, ErrInvalidTransition
		}
	}

	nowUTC := now.UTC()
	updates := map[string]any{"status": string(next), "updated_at": nowUTC}
	switch next {
	case matching.StatusRevealed:
		updates["revealed_at"] = nowUTC
	case matching.StatusAccepted, matching.StatusDeclined, matching.StatusBlocked:
		updates["responded_at"] = nowUTC
	}

	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := ms.assignmentRepo.UpdateStatusCAS(ctx, tx, row.ID, []string{string(current)}, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrConflict
		}

		switch {
		case next == matching.StatusDeclined || next == matching.StatusExpired:
			if err := ms.propagateToPartner(ctx, tx, row, next, nowUTC); err != nil {
				return err
			}
		case next == matching.StatusBlocked && row.MatchedUserID != nil:
			if _, err := ms.blockRepo.Create(ctx, tx, &types.UserBlock{
				BlockerUserID: row.UserID,
				BlockedUserID: *row.MatchedUserID,
			}); err != nil {
				return fmt.Errorf("Failed to record block: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := ms.assignmentRepo.GetByID(ctx, nil, row.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// propagateToPartner mirrors a pair-ending status onto the other row unless
// that row is already terminal.
func (ms *matchService) propagateToPartner(ctx context.Context, tx *gorm.DB, row *types.WeeklyAssignment, next matching.Status, now time.Time) error {
	partner, err := ms.assignmentRepo.GetPartnerRow(ctx, tx, row)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if matching.Terminal(matching.Status(partner.Status)) || partner.Status == string(next) {
		return nil
	}
	from := []string{
		string(matching.StatusProposed),
		string(matching.StatusRevealed),
		string(matching.StatusAccepted),
		string(matching.StatusDeclined),
	}
	_, err = ms.assignmentRepo.UpdateStatusCAS(ctx, tx, partner.ID, from, map[string]any{
		"status":     string(next),
		"updated_at": now,
	})
	return err
}

func (ms *matchService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.WeeklyAssignment, error) {
	return ms.assignmentRepo.ListByUser(ctx, nil, userID, limit)
}

// ExpireWeek sweeps a whole week, flipping every stale proposed or revealed
// row. Used by the admin trigger after the response window closes.
func (ms *matchService) ExpireWeek(ctx context.Context, weekStart time.Time, now time.Time) (int, error) {
	rows, err := ms.assignmentRepo.ListByWeek(ctx, nil, weekStart)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		current := matching.Status(row.Status)
		if matching.Transition(current, matching.ActionExpire, now, row.ExpiresAt) != matching.StatusExpired || current == matching.StatusExpired {
			continue
		}
		if !now.Before(row.ExpiresAt) {
			if _, err := ms.applyAction(ctx, row, matching.ActionExpire, now); err != nil {
				if errors.Is(err, ErrConflict) {
					continue
				}
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// SetPaused toggles participation in future runs. A paused user keeps their
// account and this week's assignment; they just stop entering new pools.
func (ms *matchService) SetPaused(ctx context.Context, userID uuid.UUID, paused bool) error {
	if err := ms.userRepo.SetPaused(ctx, nil, userID, paused); err != nil {
		return fmt.Errorf("Failed to update pause state: %w", err)
	}
	ms.log.Info("pause state changed", "user_id", userID, "paused", paused)
	return nil
}

func (ms *matchService) view(ctx context.Context, row *types.WeeklyAssignment) (*MatchView, error) {
	mv := &MatchView{
		AssignmentID:  row.ID,
		WeekStart:     row.WeekStart,
		Status:        row.Status,
		MatchedUserID: row.MatchedUserID,
		ScoreTotal:    row.ScoreTotal,
		Reason:        row.Reason,
		ExpiresAt:     row.ExpiresAt,
	}
	if row.MatchedUserID != nil {
		if partner, err := ms.assignmentRepo.GetPartnerRow(ctx, nil, row); err == nil {
			// A block stays private to the blocker; the other side just
			// sees no partner status.
			if partner.Status != string(matching.StatusBlocked) {
				mv.PartnerStatus = partner.Status
				mv.Mutual = row.Status == string(matching.StatusAccepted) && partner.Status == string(matching.StatusAccepted)
			}
		}
	}
	return mv, nil
}
