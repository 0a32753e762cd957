package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deskwise/deskwise/internal/generation"
	"github.com/deskwise/deskwise/internal/runtime"
	"github.com/deskwise/deskwise/internal/store"
)

// KBHandler serves knowledge-base CRUD plus the AI generation trigger and
// its status stream.
type KBHandler struct {
	Store    *store.Store
	Orch     *generation.Orchestrator
	Registry generation.Registry

	// StatusInterval is the cadence of status snapshots on the stream.
	StatusInterval time.Duration
	Logger         *log.Logger
}

func (h *KBHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.POST("", h.create)
	g.GET("/:kb_id", h.get)
	g.POST("/:kb_id/ai-generate", h.generate)
	g.GET("/:kb_id/ai-generate/status", h.status)
}

func (h *KBHandler) create(c echo.Context) error {
	var req CreateKnowledgeBaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	ctx := c.Request().Context()
	userID, _ := c.Get("user_id").(string)
	orgID, err := h.Store.GetOrganizationIDByUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	id, err := h.Store.CreateKnowledgeBase(ctx, orgID, req.Name, req.Description, req.RefreshCron)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, KnowledgeBaseResponse{
		ID: id, Name: req.Name, Description: req.Description, RefreshCron: req.RefreshCron,
	})
}

func (h *KBHandler) get(c echo.Context) error {
	kb, err := h.Store.GetKnowledgeBaseByID(c.Request().Context(), c.Param("kb_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "knowledge base not found")
	}
	resp := KnowledgeBaseResponse{
		ID: kb.ID, Name: kb.Name, Description: kb.Description, RefreshCron: kb.RefreshCron,
	}
	if kb.LastGeneratedAt.Valid {
		resp.LastGeneratedAt = kb.LastGeneratedAt.Time.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}

// generate accepts the job and returns immediately; progress is observable
// only through the status stream.
func (h *KBHandler) generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Get("user_id").(string)
	id, err := h.Orch.StartGeneration(c.Request().Context(), generation.Request{
		UserID:            userID,
		KnowledgeBaseID:   c.Param("kb_id"),
		BrandVoiceExample: req.BrandVoiceExample,
		AdditionalNotes:   req.AdditionalNotes,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusAccepted, GenerateResponse{GenerationID: id, Status: "started"})
}

// status streams job snapshots as server-sent events. Auth runs in the group
// middleware, so an invalid token is rejected before any job lookup. The
// stream opens with the job's current status, or a synthetic "connected"
// event when none is recorded yet, then reports the job state every
// interval until a terminal status or client disconnect. A job
// that vanished from the registry is reported as completed, since terminal
// entries are cleaned up after a grace period.
func (h *KBHandler) status(c echo.Context) error {
	generationID := strings.TrimSpace(c.QueryParam("generationId"))
	if generationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "generationId is required")
	}
	ctx := c.Request().Context()
	job, err := h.Registry.Get(ctx, generationID)
	if err != nil {
		if errors.Is(err, generation.ErrJobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown generation id")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	send := func(event string, payload StatusEvent) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := resp.Write([]byte("event: " + event + "\n")); err != nil {
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	toEvent := func(job generation.Job) (StatusEvent, bool) {
		ev := StatusEvent{Status: string(job.Status), Message: job.Message}
		if job.Status == generation.StatusError {
			ev.Error = job.Message
		}
		terminal := job.Status == generation.StatusCompleted || job.Status == generation.StatusError
		return ev, terminal
	}

	// First frame: the current status, or a synthetic connected event when
	// the job has no recorded status yet.
	if job.Status == "" {
		if err := send("connected", StatusEvent{Status: "connected"}); err != nil {
			return nil
		}
	} else {
		ev, terminal := toEvent(job)
		if err := send("status", ev); err != nil {
			return nil
		}
		if terminal {
			return nil
		}
	}

	snapshot := func() (StatusEvent, bool) {
		job, err := h.Registry.Get(ctx, generationID)
		if errors.Is(err, generation.ErrJobNotFound) {
			return StatusEvent{Status: string(generation.StatusCompleted)}, true
		}
		if err != nil {
			h.logger().Printf("status stream %s: %v", generationID, err)
			return StatusEvent{}, false
		}
		return toEvent(job)
	}

	interval := h.StatusInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ev, terminal := snapshot()
			if ev.Status == "" {
				continue
			}
			if err := send("status", ev); err != nil {
				return nil
			}
			if terminal {
				return nil
			}
		}
	}
}

func (h *KBHandler) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.New(log.Writer(), "[KB] ", log.LstdFlags)
}
