package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	}, mw...)
	return e
}

func doRequest(e *echo.Echo, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIdentity(t *testing.T) {
	e := newTestServer(Identity())

	rec := doRequest(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(e, "  user-1 ")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestRateLimiterIsPerIdentity(t *testing.T) {
	e := newTestServer(Identity(), RateLimiter(2, time.Minute))

	assert.Equal(t, http.StatusOK, doRequest(e, "alice").Code)
	assert.Equal(t, http.StatusOK, doRequest(e, "alice").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "alice").Code)

	assert.Equal(t, http.StatusOK, doRequest(e, "bob").Code)
}

func TestRateLimiterWindowResets(t *testing.T) {
	e := newTestServer(RateLimiter(1, 20*time.Millisecond))

	assert.Equal(t, http.StatusOK, doRequest(e, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(e, "").Code)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doRequest(e, "").Code)
}

func TestRequestLoggerKeepsErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
