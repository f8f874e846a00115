package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"jobmate/digest-service/internal/config"
	"jobmate/digest-service/internal/model"
	"jobmate/digest-service/internal/pipeline"
	"jobmate/digest-service/internal/store"
)

// Runner executes one digest cycle for a profile.
type Runner interface {
	Run(ctx context.Context, p config.Profile) (model.Digest, error)
}

// Handler serves the HTTP API.
type Handler struct {
	profiles   []config.Profile
	digests    store.DigestStore
	runner     Runner
	runCtx     context.Context // parent of manually triggered runs
	reportsDir string
	log        *slog.Logger
	runs       sync.WaitGroup // manually triggered runs in flight
}

// NewHandler creates a Handler. Runs triggered over HTTP outlive the request
// and are cancelled with runCtx.
func NewHandler(runCtx context.Context, profiles []config.Profile, digests store.DigestStore, runner Runner, reportsDir string, log *slog.Logger) *Handler {
	return &Handler{
		profiles:   profiles,
		digests:    digests,
		runner:     runner,
		runCtx:     runCtx,
		reportsDir: reportsDir,
		log:        log.With("component", "api"),
	}
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// profile resolves the ?profile= parameter. It may be omitted when exactly
// one profile is configured.
func (h *Handler) profile(c *gin.Context) (config.Profile, bool) {
	id := c.Query("profile")
	if id == "" {
		if len(h.profiles) == 1 {
			return h.profiles[0], true
		}
		errorJSON(c, http.StatusBadRequest, "missing 'profile' parameter")
		return config.Profile{}, false
	}
	p, ok := config.FindProfile(h.profiles, id)
	if !ok {
		errorJSON(c, http.StatusNotFound, "unknown profile "+strconv.Quote(id))
		return config.Profile{}, false
	}
	return p, true
}

func (h *Handler) digestError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	h.log.Error("digest lookup failed", "err", err)
	errorJSON(c, http.StatusInternalServerError, "internal error")
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "digest-service",
		"profiles": len(h.profiles),
	})
}

// ListProfiles handles GET /api/profiles.
func (h *Handler) ListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": h.profiles})
}

// LatestDigest handles GET /api/digests/latest?profile=.
func (h *Handler) LatestDigest(c *gin.Context) {
	p, ok := h.profile(c)
	if !ok {
		return
	}
	d, err := h.digests.LatestDigest(c.Request.Context(), p.ID)
	if err != nil {
		h.digestError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// LatestTop handles GET /api/digests/latest/top?profile=&n=. It returns the
// n most recently posted jobs of the latest digest; n defaults to the
// profile's top_n.
func (h *Handler) LatestTop(c *gin.Context) {
	p, ok := h.profile(c)
	if !ok {
		return
	}
	n := p.Criteria.WithDefaults().TopN
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			errorJSON(c, http.StatusBadRequest, "'n' must be a positive integer")
			return
		}
		n = v
	}

	d, err := h.digests.LatestDigest(c.Request.Context(), p.ID)
	if err != nil {
		h.digestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"digestId": d.ID,
		"profile":  p.ID,
		"total":    len(d.Jobs),
		"jobs":     pipeline.TopByRecency(d.Jobs, n),
	})
}

// GetDigest handles GET /api/digests/:id.
func (h *Handler) GetDigest(c *gin.Context) {
	d, err := h.digests.GetDigest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.digestError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// TriggerRun handles POST /api/runs?profile=. The run continues in the
// background; poll /api/digests/latest for the result.
func (h *Handler) TriggerRun(c *gin.Context) {
	p, ok := h.profile(c)
	if !ok {
		return
	}

	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		if _, err := h.runner.Run(h.runCtx, p); err != nil {
			h.log.Error("manual run failed", "profile", p.ID, "err", err)
		}
	}()

	h.log.Info("manual run started", "profile", p.ID)
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "profile": p.ID})
}

// Wait blocks until every manually triggered run has returned.
func (h *Handler) Wait() {
	h.runs.Wait()
}
