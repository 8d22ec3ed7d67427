// Package api serves a read-only JSON view of the state document.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/hayan-web/health-auto-blog-sub000/infrastructure/errors"
	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
	"github.com/hayan-web/health-auto-blog-sub000/internal/telemetry"
)

// Handler answers every request from a fresh load of the state file and
// never writes it.
type Handler struct {
	statePath string
	guard     *budget.Guard
	metrics   *telemetry.Metrics
	log       logger.Logger
	now       func() time.Time
}

// NewHandler creates a handler. now defaults to time.Now.
func NewHandler(statePath string, guard *budget.Guard, metrics *telemetry.Metrics, log logger.Logger, now func() time.Time) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Handler{statePath: statePath, guard: guard, metrics: metrics, log: log, now: now}
}

// SetupRoutes registers the endpoints on router.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(h.metrics.GinMiddleware())

	router.GET("/health", h.Health)
	if h.metrics != nil {
		router.GET("/metrics", h.Metrics)
	}

	v1 := router.Group("/api/v1")
	v1.GET("/stats/:namespace", h.Stats)
	v1.GET("/cooldowns", h.Cooldowns)
	v1.GET("/blacklist", h.Blacklist)
	v1.GET("/budget", h.Budget)
}

func (h *Handler) load(c *gin.Context) (*state.Document, bool) {
	doc, err := state.Load(h.statePath)
	if err != nil {
		h.fail(c, infraerrors.Internal("state unavailable", err))
		return nil, false
	}
	return doc, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(infraerrors.StatusCode(err), gin.H{"error": infraerrors.PublicMessage(err)})
}

// Health reports whether the state file can be read.
func (h *Handler) Health(c *gin.Context) {
	if _, err := state.Load(h.statePath); err != nil {
		h.log.Warn("Health check failed", logger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "state unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": h.now().UTC().Format(time.RFC3339)})
}

// Stats returns one namespace. Topic-scoped namespaces accept ?topic= to
// narrow the result to one topic.
func (h *Handler) Stats(c *gin.Context) {
	ns, err := state.ParseNamespace(c.Param("namespace"))
	if err != nil {
		h.fail(c, infraerrors.BadRequest("unknown namespace", err))
		return
	}

	doc, ok := h.load(c)
	if !ok {
		return
	}

	if !ns.Scoped() {
		table, _ := doc.Flat(ns)
		c.JSON(http.StatusOK, gin.H{"namespace": ns, "records": table})
		return
	}

	scoped, _ := doc.Scoped(ns)
	if topic := c.Query("topic"); topic != "" {
		records := scoped.Lookup(topic)
		if records == nil {
			records = stats.Table{}
		}
		c.JSON(http.StatusOK, gin.H{"namespace": ns, "topic": topic, "records": records})
		return
	}
	c.JSON(http.StatusOK, gin.H{"namespace": ns, "topics": scoped})
}

// Cooldowns lists every stored cooldown with its strike count.
func (h *Handler) Cooldowns(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	now := h.now()
	active := doc.Cooldowns.ActiveCount(now)
	h.metrics.SetBlockedEntities(active)
	c.JSON(http.StatusOK, gin.H{"active": active, "entries": doc.Cooldowns.Entries(now)})
}

// Blacklist lists blacklisted keywords and the audit log.
func (h *Handler) Blacklist(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": doc.Blacklist.List(h.now()), "log": doc.Blacklist.Log})
}

// Budget returns today's guard status.
func (h *Handler) Budget(c *gin.Context) {
	doc, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.guard.Status(doc.Budget, h.now()))
}

// Metrics refreshes the blocked-entities gauge and serves the registry.
func (h *Handler) Metrics(c *gin.Context) {
	if doc, err := state.Load(h.statePath); err == nil {
		h.metrics.SetBlockedEntities(doc.Cooldowns.ActiveCount(h.now()))
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
