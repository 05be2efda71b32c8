package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethlog/ethmodel"
)

type fakeFetcher struct {
	records []ethmodel.EventRecord
	err     error

	gotFilter *ethmodel.EventTypeTag
	gotFromID uint64
	gotLimit  uint32
}

func (f *fakeFetcher) Fetch(filter *ethmodel.EventTypeTag, fromID uint64, limit uint32) ([]ethmodel.EventRecord, error) {
	f.gotFilter = filter
	f.gotFromID = fromID
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestRouter(fetcher Fetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/logs", Logs(fetcher))
	return r
}

func TestLogs_DefaultsTo10FromZero(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestRouter(fetcher)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, fetcher.gotFilter)
	assert.Equal(t, uint64(0), fetcher.gotFromID)
	assert.Equal(t, uint32(10), fetcher.gotLimit)
}

func TestLogs_ClampsMaxAt100(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestRouter(fetcher)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?max=101", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint32(100), fetcher.gotLimit)
}

func TestLogs_FiltersByEventType(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestRouter(fetcher)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?from_id=1234&max=55&event_type=Transfer", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fetcher.gotFilter)
	assert.Equal(t, ethmodel.EventTypeTransfer, *fetcher.gotFilter)
	assert.Equal(t, uint64(1234), fetcher.gotFromID)
	assert.Equal(t, uint32(55), fetcher.gotLimit)
}

func TestLogs_UnknownEventTypeIs400(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestRouter(fetcher)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?event_type=Mint", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogs_StoreFailureIs500(t *testing.T) {
	fetcher := &fakeFetcher{err: assert.AnError}
	r := newTestRouter(fetcher)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
