package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
)

// ─── Rooms ────────────────────────────────────────────────────────────────────

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.svc.Catalog.ListRooms(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(rooms))
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req model.RoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.svc.Catalog.CreateRoom(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// DeleteRoom handles DELETE /api/rooms/{id}
// Returns 409 while a course still uses the room.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteRoom(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Facilitators ─────────────────────────────────────────────────────────────

func (h *Handler) ListFacilitators(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.Catalog.ListFacilitators(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(all))
}

func (h *Handler) CreateFacilitator(w http.ResponseWriter, r *http.Request) {
	var req model.FacilitatorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.svc.Catalog.CreateFacilitator(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) DeleteFacilitator(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteFacilitator(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Appointments ─────────────────────────────────────────────────────────────

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.Schedule.ListAppointments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(all))
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req model.AppointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.svc.Schedule.CreateAppointment(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Schedule.DeleteAppointment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
