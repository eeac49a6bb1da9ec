package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/libraryhub/internal/entities"
)

func TestCirculationCounters(t *testing.T) {
	c := New()

	records := []entities.BorrowRecord{{ID: "rec-1"}, {ID: "rec-2"}}
	c.Issued(records)
	c.Returned(records[:1])
	c.Renewed(records[1])
	c.Purged(records[:1])

	assert.Equal(t, 2.0, testutil.ToFloat64(c.issued))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.returned))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.renewed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.purged))
}

func TestAvailabilityGauge(t *testing.T) {
	c := New()

	c.Seed([]entities.Book{{ID: "b-1", Available: 3}, {ID: "b-2", Available: 1}})
	c.BookChanged(entities.Book{ID: "b-1", Available: 2})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.available.WithLabelValues("b-1")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.available))

	c.Forget("b-2")
	assert.Equal(t, 1, testutil.CollectAndCount(c.available))
}

func TestTaskFinished(t *testing.T) {
	c := New()

	c.TaskFinished("resync_inventory", nil)
	c.TaskFinished("resync_inventory", errors.New("boom"))
	c.TaskFinished("resync_inventory", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.tasks.WithLabelValues("resync_inventory", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasks.WithLabelValues("resync_inventory", "failed")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := New()

	router := gin.New()
	router.Use(c.Middleware())
	router.GET("/api/books/:id", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	router.GET("/metrics", gin.WrapH(c.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/b-1", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/books/:id", "204")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "library_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
