// Package routes wires gin's router: CORS, the public Read API
// Contract, the health probe, and the JWT-protected admin group.
package routes

import (
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ethlog/handlers"
	"ethlog/middleware"
	"ethlog/store"
	"ethlog/subscriber"
)

// SetupRouter builds the gin engine for the service.
func SetupRouter(st *store.Store, handle *subscriber.Handle, runFlag *atomic.Bool, lastPersistedID *atomic.Uint64, jwtSecret string) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.GET("/health", handlers.Health(runFlag))

	api := r.Group("/api/v1")
	{
		api.GET("/logs", handlers.Logs(st))
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(jwtSecret))
	{
		admin.GET("/status", handlers.AdminStatus(handle, lastPersistedID))
	}

	return r
}
