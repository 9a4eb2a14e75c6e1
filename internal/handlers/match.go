package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchweek-backend/internal/matching"
	"github.com/yungbote/matchweek-backend/internal/requestdata"
	"github.com/yungbote/matchweek-backend/internal/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (mh *MatchHandler) GetCurrent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	view, err := mh.matchService.GetCurrent(c.Request.Context(), rd.UserID, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrNoAssignment) {
			RespondError(c, http.StatusNotFound, "no_assignment", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "match_lookup_failed", err)
		return
	}
	RespondOK(c, view)
}

func (mh *MatchHandler) View(c *gin.Context)    { mh.act(c, matching.ActionView) }
func (mh *MatchHandler) Accept(c *gin.Context)  { mh.act(c, matching.ActionAccept) }
func (mh *MatchHandler) Decline(c *gin.Context) { mh.act(c, matching.ActionDecline) }
func (mh *MatchHandler) Block(c *gin.Context)   { mh.act(c, matching.ActionBlock) }

func (mh *MatchHandler) act(c *gin.Context, action matching.Action) {
	rd := requestdata.GetRequestData(c.Request.Context())
	view, err := mh.matchService.Act(c.Request.Context(), rd.UserID, action, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoAssignment):
			RespondError(c, http.StatusNotFound, "no_assignment", err)
		case errors.Is(err, services.ErrInvalidTransition):
			RespondError(c, http.StatusConflict, "invalid_transition", err)
		case errors.Is(err, services.ErrConflict):
			RespondError(c, http.StatusConflict, "concurrent_update", err)
		default:
			RespondError(c, http.StatusInternalServerError, "match_action_failed", err)
		}
		return
	}
	RespondOK(c, view)
}

func (mh *MatchHandler) SetPaused(c *gin.Context) {
	var input struct {
		Paused *bool `json:"paused" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := mh.matchService.SetPaused(c.Request.Context(), rd.UserID, *input.Paused); err != nil {
		RespondError(c, http.StatusInternalServerError, "pause_update_failed", err)
		return
	}
	RespondOK(c, gin.H{"paused": *input.Paused})
}

func (mh *MatchHandler) History(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	rows, err := mh.matchService.History(c.Request.Context(), rd.UserID, 26)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "match_history_failed", err)
		return
	}
	RespondOK(c, gin.H{"assignments": rows})
}
