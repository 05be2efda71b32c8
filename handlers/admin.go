package handlers

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"ethlog/subscriber"
)

// AdminStatus implements GET /api/v1/admin/status, a JWT-protected
// diagnostic surface (see middleware.JWTAuthMiddleware) reporting the
// Subscriber's current lifecycle state and the last persisted event
// id. It is read-only and does not extend the public Read API
// Contract, which remains unauthenticated.
func AdminStatus(handle *subscriber.Handle, lastPersistedID *atomic.Uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := "unknown"
		if handle != nil {
			state = handle.State().String()
		}
		c.JSON(http.StatusOK, gin.H{
			"subscriber_state":  state,
			"last_persisted_id": lastPersistedID.Load(),
		})
	}
}
