package gin_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infragin "github.com/hayan-web/health-auto-blog-sub000/infrastructure/gin"
	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
)

func init() {
	ginpkg.SetMode(ginpkg.TestMode)
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	router := infragin.NewRouter(logger.NewNop())
	router.GET("/test", func(c *ginpkg.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	id := w.Header().Get(infragin.RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestRequestIDMiddleware_PreservesExistingID(t *testing.T) {
	t.Parallel()

	const inbound = "trace-from-upstream"
	router := infragin.NewRouter(logger.NewNop())

	var seen string
	router.GET("/test", func(c *ginpkg.Context) {
		seen = c.GetString(infragin.RequestIDKey)
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, inbound)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, inbound, w.Header().Get(infragin.RequestIDHeader))
	assert.Equal(t, inbound, seen)
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	router := infragin.NewRouter(logger.NewNop())
	router.GET("/boom", func(*ginpkg.Context) { panic("boom") })

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	cfg := infragin.Config{Port: 8080}
	cfg.SetDefaults()
	assert.Equal(t, infragin.DefaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, infragin.DefaultReadTimeout, cfg.ReadTimeout)
}
