package livehttp

import (
	"context"
	"net/http"

	"signalrelay/internal/logger"
	"signalrelay/internal/position"

	"github.com/gin-gonic/gin"
)

// StatusProvider is implemented by the trading app; the router stays free of
// business wiring.
type StatusProvider interface {
	Position(ctx context.Context) (*position.Record, error)
	LedgerCounts(ctx context.Context) (map[string]int, error)
}

// Router exposes the live status endpoints.
type Router struct {
	status StatusProvider
}

func NewRouter(status StatusProvider) *Router {
	return &Router{status: status}
}

// Register mounts the /api/live routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/position", r.handlePosition)
	group.GET("/ledger", r.handleLedger)
}

func (r *Router) handlePosition(c *gin.Context) {
	rec, err := r.status.Position(c.Request.Context())
	if err != nil {
		logger.Errorf("[api] live position failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusOK, gin.H{"open": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": true, "position": rec})
}

func (r *Router) handleLedger(c *gin.Context) {
	counts, err := r.status.LedgerCounts(c.Request.Context())
	if err != nil {
		logger.Errorf("[api] live ledger failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}
