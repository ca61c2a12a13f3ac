// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/service"
)

// HTTPObserver records one served request. *metrics.Collector satisfies it.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure the router.
type Options struct {
	Services *service.Services
	Auth     *auth.Service
	Cache    *cache.Cache
	Store    Pinger
	Logger   zerolog.Logger

	// Metrics is optional. MetricsHandler is mounted at MetricsPath when
	// both are set.
	Metrics        HTTPObserver
	MetricsPath    string
	MetricsHandler http.Handler

	CookieName   string
	SecureCookie bool
	CORSOrigin   string
}

// Handler holds all HTTP handlers for the back-office API.
type Handler struct {
	svc   *service.Services
	auth  *auth.Service
	mw    *auth.Middleware
	cache *cache.Cache
	store Pinger
	opts  Options
}

// New constructs a Handler.
func New(opts Options) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = "coursedesk_session"
	}
	return &Handler{
		svc:   opts.Services,
		auth:  opts.Auth,
		mw:    auth.NewMiddleware(opts.Auth, opts.CookieName, writeError),
		cache: opts.Cache,
		store: opts.Store,
		opts:  opts,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the JSON error envelope. Upstream failures are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUpstream {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, statusFor(kind), model.ErrorResponse{Error: apperr.Detail(err), Kind: kind.String()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid(err, "invalid request body")
	}
	return nil
}

// emptyIfNil keeps listings rendering as [] rather than null.
func emptyIfNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func queryInt(r *http.Request, key string, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return n
	}
	return fallback
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check: store unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
