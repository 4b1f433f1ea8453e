// Package handler exposes the compliance coordinator over JSON HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"eldcore/internal/hos/coordinator"
	"eldcore/internal/hos/models"
	dErrors "eldcore/pkg/domain-errors"
	"eldcore/pkg/platform/httputil"
	"eldcore/pkg/platform/middleware/request"
	"eldcore/pkg/requestcontext"
)

const defaultRequestTimeout = 30 * time.Second

// Service defines the coordinator operations served over HTTP.
type Service interface {
	SubmitEvent(ctx context.Context, ev models.DutyStatusEvent) (coordinator.Outcome, error)
	GetCurrentStatus(ctx context.Context, driverID models.DriverID) (models.StatusProjection, error)
	EvaluateAt(ctx context.Context, driverID models.DriverID, at time.Time) (models.StatusProjection, error)
	ListViolations(ctx context.Context, driverID models.DriverID, since time.Time) ([]models.Violation, error)
	ListEvents(ctx context.Context, driverID models.DriverID, start, end time.Time) ([]models.DutyStatusEvent, error)
	Invalidate(ctx context.Context, driverID models.DriverID) error
}

// Handler handles the driver compliance endpoints.
type Handler struct {
	logger  *slog.Logger
	hos     Service
	timeout time.Duration
}

type Option func(*Handler)

// WithRequestTimeout bounds each request. Non-positive values keep the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New creates a new compliance Handler.
func New(hos Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:  logger,
		hos:     hos,
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the driver routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	driverRouter := chi.NewRouter()
	driverRouter.Use(middleware.Recoverer)
	driverRouter.Use(request.Middleware)
	driverRouter.Use(middleware.Timeout(h.timeout))
	driverRouter.Post("/drivers/{driverID}/events", h.handleSubmitEvent)
	driverRouter.Get("/drivers/{driverID}/events", h.handleListEvents)
	driverRouter.Get("/drivers/{driverID}/status", h.handleGetStatus)
	driverRouter.Get("/drivers/{driverID}/violations", h.handleListViolations)
	driverRouter.Delete("/drivers/{driverID}/cache", h.handleInvalidate)

	r.Mount("/", driverRouter)
}

// handleSubmitEvent appends one duty-status event or correction to the driver's log.
func (h *Handler) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeJSON[SubmitEventRequest](w, r, h.logger)
	if !ok {
		return
	}
	ev, err := req.toEvent(driverID)
	if err != nil {
		h.fail(ctx, w, "invalid duty status event", err)
		return
	}

	outcome, err := h.hos.SubmitEvent(ctx, ev)
	if err != nil {
		h.fail(ctx, w, "failed to submit event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSubmitEventResponse(outcome))
}

// handleGetStatus serves the live projection, or a point-in-time evaluation when ?at= is set.
func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}

	var (
		proj models.StatusProjection
		err  error
	)
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, perr := parseTime("at", raw)
		if perr != nil {
			h.fail(ctx, w, "invalid status query", perr)
			return
		}
		proj, err = h.hos.EvaluateAt(ctx, driverID, at)
	} else {
		proj, err = h.hos.GetCurrentStatus(ctx, driverID)
	}
	if err != nil {
		h.fail(ctx, w, "failed to read status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(proj))
}

func (h *Handler) handleListViolations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := parseTime("since", raw)
		if err != nil {
			h.fail(ctx, w, "invalid violations query", err)
			return
		}
		since = t
	}

	vs, err := h.hos.ListViolations(ctx, driverID, since)
	if err != nil {
		h.fail(ctx, w, "failed to list violations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ViolationsResponse{Violations: nonNil(vs)})
}

// handleListEvents lists the log entries timestamped within [start, end], newest first.
func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}

	start, err := requiredTime(r, "start")
	if err != nil {
		h.fail(ctx, w, "invalid events query", err)
		return
	}
	end, err := requiredTime(r, "end")
	if err != nil {
		h.fail(ctx, w, "invalid events query", err)
		return
	}
	if start.After(end) {
		h.fail(ctx, w, "invalid events query", dErrors.New(dErrors.CodeInvalidInput, "start must not be after end"))
		return
	}

	evs, err := h.hos.ListEvents(ctx, driverID, start, end)
	if err != nil {
		h.fail(ctx, w, "failed to list events", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EventsResponse{Events: nonNil(evs)})
}

// handleInvalidate evicts the cached projection; the next read rebuilds it from the log.
func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	driverID, ok := h.driverID(w, r)
	if !ok {
		return
	}
	if err := h.hos.Invalidate(ctx, driverID); err != nil {
		h.fail(ctx, w, "failed to invalidate status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) driverID(w http.ResponseWriter, r *http.Request) (models.DriverID, bool) {
	id, err := models.ParseDriverID(chi.URLParam(r, "driverID"))
	if err != nil {
		h.fail(r.Context(), w, "invalid driver id", err)
		return "", false
	}
	return id, true
}

// fail logs at warn for caller mistakes and at error for everything else, then writes the envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.IsValidation(err) {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
	} else {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"code", string(dErrors.CodeOf(err)),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func parseTime(param, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be an RFC 3339 timestamp", param)
	}
	return t.UTC(), nil
}

func requiredTime(r *http.Request, param string) (time.Time, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", param)
	}
	return parseTime(param, raw)
}
