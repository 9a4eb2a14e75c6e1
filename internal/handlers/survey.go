package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/requestdata"
	"github.com/yungbote/matchweek-backend/internal/services"
	"github.com/yungbote/matchweek-backend/internal/survey"
	"github.com/yungbote/matchweek-backend/internal/traits"
)

type SurveyHandler struct {
	surveyService services.SurveyService
	reconService  services.ReconciliationService
}

func NewSurveyHandler(surveyService services.SurveyService, reconService services.ReconciliationService) *SurveyHandler {
	return &SurveyHandler{surveyService: surveyService, reconService: reconService}
}

func surveySlug(c *gin.Context) string {
	if slug := c.Param("slug"); slug != "" {
		return slug
	}
	return traits.CurrentSurveySlug
}

// GetActive returns the active definition for the slug.
func (sh *SurveyHandler) GetActive(c *gin.Context) {
	row, err := sh.surveyService.GetActiveDefinition(c.Request.Context(), surveySlug(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "survey_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "survey_lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"slug":        row.Slug,
		"version":     row.Version,
		"survey_hash": row.SurveyHash,
		"definition":  json.RawMessage(row.Definition),
	})
}

// Submit records a full response set for the authenticated user.
func (sh *SurveyHandler) Submit(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Answers map[string]any `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Answers == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := sh.surveyService.SubmitSession(c.Request.Context(), rd.UserID, surveySlug(c), req.Answers)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "survey_submit_failed", err)
		return
	}
	RespondOK(c, gin.H{"session_id": session.ID, "survey_hash": session.SurveyHash})
}

// Patch merges a partial answer set into the user's reconciled state, used
// to fill the gaps a definition change opened.
func (sh *SurveyHandler) Patch(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Answers map[string]any `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Answers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	state, err := sh.reconService.ApplyAnswerPatch(c.Request.Context(), rd.UserID, surveySlug(c), req.Answers)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "survey_patch_failed", err)
		return
	}
	RespondOK(c, state)
}

// Status reports completion and carry-forward state for the active revision.
func (sh *SurveyHandler) Status(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	status, err := sh.surveyService.GetUserStatus(c.Request.Context(), rd.UserID, surveySlug(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "survey_status_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "survey_status_failed", err)
		return
	}
	RespondOK(c, status)
}

// PublishDefinition validates and stores a new revision (admin).
func (sh *SurveyHandler) PublishDefinition(c *gin.Context) {
	var req struct {
		Definition json.RawMessage `json:"definition"`
		Activate   bool            `json:"activate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Definition) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	row, err := sh.surveyService.PublishDefinition(c.Request.Context(), req.Definition, req.Activate)
	if err != nil {
		var vErr *survey.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid survey definition", "issues": vErr.Issues})
			return
		}
		RespondError(c, http.StatusBadRequest, "survey_publish_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"slug":        row.Slug,
		"version":     row.Version,
		"survey_hash": row.SurveyHash,
		"active":      row.Active,
	})
}

// Reconcile triggers bulk reconciliation for a slug (admin).
func (sh *SurveyHandler) Reconcile(c *gin.Context) {
	count, err := sh.reconService.ReconcileAllUsers(c.Request.Context(), surveySlug(c))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "reconcile_failed", err)
		return
	}
	RespondOK(c, gin.H{"reconciled": count})
}
