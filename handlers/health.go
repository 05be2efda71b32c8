package handlers

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Health implements GET /health: a trivial liveness probe reporting
// whether the subscriber's run flag is still set.
func Health(runFlag *atomic.Bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "ethlog",
			"running": runFlag.Load(),
		})
	}
}
