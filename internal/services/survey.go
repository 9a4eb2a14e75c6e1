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
	"github.com/yungbote/matchweek-backend/internal/reconcile"
	"github.com/yungbote/matchweek-backend/internal/repos"
	"github.com/yungbote/matchweek-backend/internal/survey"
	"github.com/yungbote/matchweek-backend/internal/types"
)

// SurveyStatus is what the client renders for "where am I with the survey".
type SurveyStatus struct {
	SurveySlug            string   `json:"survey_slug"`
	SurveyVersion         int      `json:"survey_version"`
	SurveyHash            string   `json:"survey_hash"`
	NeedsRetake           bool     `json:"needs_retake"`
	MissingQuestionIDs    []string `json:"missing_question_ids"`
	CompletionPct         float64  `json:"completion_pct"`
	CarriedForwardCount   int      `json:"carried_forward_count"`
	ChangedSemanticsCount int      `json:"changed_semantics_count"`
}

type SurveyService interface {
	PublishDefinition(ctx context.Context, raw []byte, activate bool) (*types.SurveyDefinition, error)
	GetActiveDefinition(ctx context.Context, slug string) (*types.SurveyDefinition, error)
	SubmitSession(ctx context.Context, userID uuid.UUID, slug string, answers map[string]any) (*types.SurveySession, error)
	GetUserStatus(ctx context.Context, userID uuid.UUID, slug string) (*SurveyStatus, error)
}

type surveyService struct {
	db          *gorm.DB
	log         *logger.Logger
	defRepo     repos.SurveyDefinitionRepo
	sessionRepo repos.SurveySessionRepo
	reconRepo   repos.ReconciliationStateRepo
	recon       ReconciliationService
}

func NewSurveyService(
	db *gorm.DB,
	log *logger.Logger,
	defRepo repos.SurveyDefinitionRepo,
	sessionRepo repos.SurveySessionRepo,
	reconRepo repos.ReconciliationStateRepo,
	recon ReconciliationService,
) SurveyService {
	serviceLog := log.With("service", "SurveyService")
	return &surveyService{
		db:          db,
		log:         serviceLog,
		defRepo:     defRepo,
		sessionRepo: sessionRepo,
		reconRepo:   reconRepo,
		recon:       recon,
	}
}

// PublishDefinition validates and stores a definition revision. Publishing
// the same content twice is a no-op; activation flips the single active
// revision for the slug.
func (ss *surveyService) PublishDefinition(ctx context.Context, raw []byte, activate bool) (*types.SurveyDefinition, error) {
	def, err := survey.ParseDefinition(raw)
	if err != nil {
		return nil, err
	}
	if err := survey.Validate(def); err != nil {
		return nil, err
	}
	fp := survey.ComputeFingerprint(def)

	existing, err := ss.defRepo.GetByHash(ctx, nil, fp.Hash)
	if err == nil {
		if activate && !existing.Active {
			if err := ss.defRepo.Activate(ctx, nil, fp.Slug, fp.Hash); err != nil {
				return nil, fmt.Errorf("Failed to activate definition: %w", err)
			}
			existing.Active = true
		}
		ss.log.Info("definition already published", "slug", fp.Slug, "version", fp.Version, "hash", fp.Hash)
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row := &types.SurveyDefinition{
		Slug:       fp.Slug,
		Version:    fp.Version,
		SurveyHash: fp.Hash,
		Definition: datatypes.JSON(raw),
	}
	if err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.defRepo.Create(ctx, tx, row); err != nil {
			return fmt.Errorf("Failed to store definition: %w", err)
		}
		if activate {
			if err := ss.defRepo.Activate(ctx, tx, fp.Slug, fp.Hash); err != nil {
				return fmt.Errorf("Failed to activate definition: %w", err)
			}
			row.Active = true
		}
		return nil
	}); err != nil {
		return nil, err
	}
	ss.log.Info("definition published", "slug", fp.Slug, "version", fp.Version, "hash", fp.Hash, "active", row.Active)
	return row, nil
}

func (ss *surveyService) GetActiveDefinition(ctx context.Context, slug string) (*types.SurveyDefinition, error) {
	return ss.defRepo.GetActiveBySlug(ctx, nil, slug)
}

// SubmitSession records a raw response set against the active revision and
// immediately reconciles the user onto it.
func (ss *surveyService) SubmitSession(ctx context.Context, userID uuid.UUID, slug string, answers map[string]any) (*types.SurveySession, error) {
	current, row, err := ss.recon.ActiveRevision(ctx, slug)
	if err != nil {
		return nil, err
	}

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("Failed to marshal answers: %w", err)
	}
	now := time.Now().UTC()
	session := &types.SurveySession{
		UserID:        userID,
		SurveySlug:    slug,
		SurveyVersion: row.Version,
		SurveyHash:    current.Fingerprint.Hash,
		Answers:       datatypes.JSON(answersJSON),
	}
	if len(survey.MissingRequired(current.Definition, answers)) == 0 {
		session.CompletedAt = &now
	}
	if _, err := ss.sessionRepo.Create(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("Failed to store session: %w", err)
	}

	if _, err := ss.recon.ReconcileUser(ctx, userID, slug); err != nil {
		return nil, err
	}
	return session, nil
}

func (ss *surveyService) GetUserStatus(ctx context.Context, userID uuid.UUID, slug string) (*SurveyStatus, error) {
	current, row, err := ss.recon.ActiveRevision(ctx, slug)
	if err != nil {
		return nil, err
	}

	state, err := ss.reconRepo.GetByUserSlugHash(ctx, nil, userID, slug, current.Fingerprint.Hash)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if _, rErr := ss.recon.ReconcileUser(ctx, userID, slug); rErr != nil {
			return nil, rErr
		}
		state, err = ss.reconRepo.GetByUserSlugHash(ctx, nil, userID, slug, current.Fingerprint.Hash)
	}
	if err != nil {
		return nil, err
	}

	var answers map[string]any
	if err := json.Unmarshal(state.AnswersCurrent, &answers); err != nil {
		return nil, fmt.Errorf("corrupt reconciliation answers: %w", err)
	}
	var missing []string
	_ = json.Unmarshal(state.MissingQuestionIDs, &missing)
	var report reconcile.Report
	_ = json.Unmarshal(state.MigrationReport, &report)

	return &SurveyStatus{
		SurveySlug:            slug,
		SurveyVersion:         row.Version,
		SurveyHash:            current.Fingerprint.Hash,
		NeedsRetake:           state.NeedsRetake,
		MissingQuestionIDs:    missing,
		CompletionPct:         reconcile.CompletionPct(reconcile.State{Answers: answers}, current),
		CarriedForwardCount:   len(report.CarriedForward),
		ChangedSemanticsCount: len(report.ChangedSemantics),
	}, nil
}
