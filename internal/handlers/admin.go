package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/matchweek-backend/internal/services"
)

type AdminHandler struct {
	matchRunService services.MatchRunService
	matchService    services.MatchService
}

func NewAdminHandler(matchRunService services.MatchRunService, matchService services.MatchService) *AdminHandler {
	return &AdminHandler{matchRunService: matchRunService, matchService: matchService}
}

// RunMatching executes the weekly batch. week defaults to the current week;
// forced re-runs replace the week's assignments wholesale.
func (ah *AdminHandler) RunMatching(c *gin.Context) {
	var req struct {
		Week   string `json:"week"`
		Forced bool   `json:"forced"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	weekStart := ah.matchRunService.WeekStart(time.Now())
	if req.Week != "" {
		parsed, err := time.Parse("2006-01-02", req.Week)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "week must be YYYY-MM-DD"})
			return
		}
		weekStart = ah.matchRunService.WeekStart(parsed.Add(12 * time.Hour))
	}

	runLog, err := ah.matchRunService.RunWeek(c.Request.Context(), weekStart, req.Forced)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "match_run_failed", err)
		return
	}
	RespondOK(c, runLog)
}

// ExpireWeek sweeps stale assignments after the response window closes.
func (ah *AdminHandler) ExpireWeek(c *gin.Context) {
	var req struct {
		Week string `json:"week"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	now := time.Now()
	weekStart := ah.matchRunService.WeekStart(now)
	if req.Week != "" {
		parsed, err := time.Parse("2006-01-02", req.Week)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "week must be YYYY-MM-DD"})
			return
		}
		weekStart = ah.matchRunService.WeekStart(parsed.Add(12 * time.Hour))
	}

	count, err := ah.matchService.ExpireWeek(c.Request.Context(), weekStart, now)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "expire_failed", err)
		return
	}
	RespondOK(c, gin.H{"expired": count})
}
