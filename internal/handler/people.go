package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// ─── Participants ─────────────────────────────────────────────────────────────

// ListParticipants handles GET /api/participants?search=&page=
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Participants.List(r.Context(), r.URL.Query().Get("search"), queryInt(r, "page", 1))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateParticipant handles POST /api/participants
func (h *Handler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req model.ParticipantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Participants.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetParticipant handles GET /api/participants/{id}
func (h *Handler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Participants.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p.Enrollments = emptyIfNil(p.Enrollments)
	writeJSON(w, http.StatusOK, p)
}

// DeleteParticipant handles DELETE /api/participants/{id}
// Removes the participant's attendance, payments and enrollments; their
// appointments are kept with the participant cleared.
func (h *Handler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Participants.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Payments ─────────────────────────────────────────────────────────────────

// ListPayments handles GET /api/payments?course_id=&participant_id=&status=
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.PaymentFilter{CourseID: q.Get("course_id"), ParticipantID: q.Get("participant_id")}
	if s := q.Get("status"); s != "" {
		status, err := model.ParsePaymentStatus(s)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Status = status
	}

	out, err := h.svc.Payments.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(out))
}

// RecordPayment handles POST /api/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Payments.Record(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetPayment handles GET /api/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Payments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// TransitionPayment handles PATCH /api/payments/{id}/status
// Refunds need payments.refund; every other transition needs
// payments.manage.
func (h *Handler) TransitionPayment(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	to, err := model.ParsePaymentStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	need := auth.PaymentsManage
	if to == model.PaymentRefunded {
		need = auth.PaymentsRefund
	}
	if u, ok := auth.UserFromContext(r.Context()); !ok || !auth.HasCapability(u.Role, need) {
		writeError(w, r, apperr.Forbidden(auth.ErrMissingCapability, "%s required", need))
		return
	}

	p, err := h.svc.Payments.Transition(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePayment handles DELETE /api/payments/{id}
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Payments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
