package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddlewareCountsRoute(t *testing.T) {
	e := echo.New()
	e.Use(HTTPMetricsMiddleware())
	e.GET("/api/chats/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/chats/:id", "204"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chats/abc", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/chats/:id", "204")))
}

func TestObservePush(t *testing.T) {
	before := testutil.ToFloat64(pushDeliveriesTotal.WithLabelValues("failure"))
	ObservePush(2, 3)
	assert.Equal(t, before+3, testutil.ToFloat64(pushDeliveriesTotal.WithLabelValues("failure")))
}
