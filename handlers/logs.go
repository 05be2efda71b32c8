// Package handlers implements the Read API Contract's HTTP handler
// plus the ambient health and admin diagnostics endpoints.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ethlog/ethmodel"
)

const (
	defaultMax = 10
	maxMax     = 100
)

// Fetcher is the Event Store read dependency, satisfied by *store.Store.
type Fetcher interface {
	Fetch(filter *ethmodel.EventTypeTag, fromID uint64, limit uint32) ([]ethmodel.EventRecord, error)
}

// Logs implements GET /api/v1/logs?event_type=&from_id=&max=.
func Logs(fetcher Fetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter *ethmodel.EventTypeTag
		if raw := c.Query("event_type"); raw != "" {
			if !ethmodel.ValidEventTypeTag(raw) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event_type: " + raw})
				return
			}
			tag := ethmodel.EventTypeTag(raw)
			filter = &tag
		}

		fromID := parseUint(c.Query("from_id"), 0)
		max := parseUint(c.Query("max"), defaultMax)
		if max > maxMax {
			max = maxMax
		}

		records, err := fetcher.Fetch(filter, fromID, uint32(max))
		if err != nil {
			log.Error().Err(err).Msg("handlers: failed to fetch logs")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
			return
		}
		if records == nil {
			records = []ethmodel.EventRecord{}
		}

		c.JSON(http.StatusOK, records)
	}
}

func parseUint(raw string, defaultValue uint64) uint64 {
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return defaultValue
	}
	return v
}
