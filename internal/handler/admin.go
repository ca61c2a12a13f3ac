package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
)

// ─── Sessions ─────────────────────────────────────────────────────────────────

// Login handles POST /auth/login
// Issues an HttpOnly session cookie and echoes the user.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sess)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), h.mw.Token(r)); err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User         *model.User       `json:"user"`
	Capabilities []auth.Capability `json:"capabilities"`
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{User: u, Capabilities: auth.Capabilities(u.Role)})
}

// CreateUser handles POST /api/admin/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.auth.CreateUser(r.Context(), model.NewUserRequest{
		Name: body.Name, Email: body.Email, Password: body.Password, Role: body.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// ─── Reports ──────────────────────────────────────────────────────────────────

// Dashboard handles GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Reports.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Finance handles GET /api/finance
func (h *Handler) Finance(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reports.Finance(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	report.RevenueByCourse = emptyIfNil(report.RevenueByCourse)
	report.Courses = emptyIfNil(report.Courses)
	writeJSON(w, http.StatusOK, report)
}

// ─── Settings ─────────────────────────────────────────────────────────────────

func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.Settings.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if all == nil {
		all = map[string]string{}
	}
	writeJSON(w, http.StatusOK, all)
}

// SetSetting handles PUT /api/settings/{key}
func (h *Handler) SetSetting(w http.ResponseWriter, r *http.Request) {
	var req model.SettingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key := chi.URLParam(r, "key")
	if err := h.svc.Settings.Set(r.Context(), key, req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Setting{Key: key, Value: req.Value})
}

// ─── Cache ────────────────────────────────────────────────────────────────────

// CacheStats handles GET /api/admin/cache
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, r, apperr.NotFound(nil, "cache disabled"))
		return
	}
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

// ClearCache handles DELETE /api/admin/cache
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		h.cache.Clear()
		zerolog.Ctx(r.Context()).Info().Msg("cache cleared")
	}
	w.WriteHeader(http.StatusNoContent)
}
