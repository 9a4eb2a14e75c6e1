package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check reports liveness plus database reachability so the load balancer can
// pull an instance whose postgres connection died.
func (h *HealthHandler) Check(c *gin.Context) {
	out := gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			out["status"] = "degraded"
			out["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, out)
			return
		}
		out["database"] = "ok"
	}
	c.JSON(http.StatusOK, out)
}
