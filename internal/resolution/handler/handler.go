package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
	"idgraph/pkg/platform/httputil"
	"idgraph/pkg/requestcontext"
)

// Service defines the resolution operations exposed over HTTP.
type Service interface {
	Resolve(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID, raw []byte) (*models.Result, error)
	GetVisitor(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID) (*models.Visitor, error)
	GetResolutionHistory(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID, limit int) ([]models.ProvenanceEntry, error)
	Override(ctx context.Context, req models.OverrideRequest) (*models.Result, error)
}

// Handler wires resolution endpoints to the resolver.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the tenant-scoped routes. Authentication middleware must
// run first so the caller's tenant is on the context.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Post("/events/{eventID}:resolve", h.HandleResolve)
		r.Get("/visitors/{visitorID}", h.HandleGetVisitor)
		r.Get("/visitors/{visitorID}/history", h.HandleHistory)
		r.Post("/visitors/{visitorID}/override", h.HandleOverride)
	})
}

// HandleResolve handles POST /v1/tenants/{tenantID}/events/{eventID}:resolve.
// The request body is the raw tracking event.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	eventID, err := id.ParseSourceEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	raw, err := httputil.ReadBody(w, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Resolve(ctx, tenantID, eventID, raw)
	if err != nil {
		h.logFailure(ctx, "resolve failed", err,
			"request_id", requestID,
			"tenant_id", tenantID.String(),
			"source_event_id", eventID.String(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event resolved",
		"request_id", requestID,
		"tenant_id", tenantID.String(),
		"source_event_id", eventID.String(),
		"visitor_id", result.Visitor.ID.String(),
		"outcome", string(result.Entry.Outcome),
		"duplicate", result.Duplicate,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleGetVisitor handles GET /v1/tenants/{tenantID}/visitors/{visitorID}.
func (h *Handler) HandleGetVisitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, visitorID, ok := h.visitor(w, r)
	if !ok {
		return
	}

	v, err := h.service.GetVisitor(ctx, tenantID, visitorID)
	if err != nil {
		h.logFailure(ctx, "get visitor failed", err,
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID.String(),
			"visitor_id", visitorID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVisitor(v))
}

// HandleHistory handles GET /v1/tenants/{tenantID}/visitors/{visitorID}/history?limit=N.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, visitorID, ok := h.visitor(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.service.GetResolutionHistory(ctx, tenantID, visitorID, limit)
	if err != nil {
		h.logFailure(ctx, "get history failed", err,
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID.String(),
			"visitor_id", visitorID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{VisitorID: visitorID, Entries: entries})
}

// HandleOverride handles POST /v1/tenants/{tenantID}/visitors/{visitorID}/override.
// The token subject is recorded as the acting operator.
func (h *Handler) HandleOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	tenantID, visitorID, ok := h.visitor(w, r)
	if !ok {
		return
	}
	actor := requestcontext.Subject(ctx)
	if actor == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "operator identity required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[OverrideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Override(ctx, req.ToModel(tenantID, visitorID, actor))
	if err != nil {
		h.logFailure(ctx, "override failed", err,
			"request_id", requestID,
			"tenant_id", tenantID.String(),
			"visitor_id", visitorID.String(),
			"actor", actor,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "visitor overridden",
		"request_id", requestID,
		"tenant_id", tenantID.String(),
		"visitor_id", visitorID.String(),
		"actor", actor,
		"duplicate", result.Duplicate,
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// tenant parses the path tenant and checks it against the authenticated one.
func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.TenantID{}, false
	}
	if authed := requestcontext.TenantID(r.Context()); authed != tenantID {
		h.logger.WarnContext(r.Context(), "tenant mismatch",
			"request_id", requestcontext.RequestID(r.Context()),
			"path_tenant_id", tenantID.String(),
			"token_tenant_id", authed.String(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeTenantMismatch, "token is not valid for this tenant"))
		return id.TenantID{}, false
	}
	return tenantID, true
}

func (h *Handler) visitor(w http.ResponseWriter, r *http.Request) (id.TenantID, id.VisitorID, bool) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return id.TenantID{}, id.VisitorID{}, false
	}
	visitorID, err := id.ParseVisitorID(chi.URLParam(r, "visitorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.TenantID{}, id.VisitorID{}, false
	}
	return tenantID, visitorID, true
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err, "retryable", dErrors.IsRetryable(err))
	if httputil.StatusFor(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, args...)
		return
	}
	h.logger.ErrorContext(ctx, msg, args...)
}
