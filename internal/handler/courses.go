package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// ─── Courses ──────────────────────────────────────────────────────────────────

// ListCourses handles GET /api/courses
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.svc.Courses.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(courses))
}

// CreateCourse handles POST /api/courses
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req model.CourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	course, err := h.svc.Courses.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

// GetCourse handles GET /api/courses/{id}
// Returns the course with its live seat numbers.
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.svc.Courses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// UpdateCourse handles PUT /api/courses/{id}
func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req model.CourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	course, err := h.svc.Courses.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// DeleteCourse handles DELETE /api/courses/{id}
// Removes the course together with its lists, payments and enrollments.
func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Courses.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecomputeCourse handles POST /api/courses/{id}/recompute
func (h *Handler) RecomputeCourse(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Enrollments.RecomputeCourseFull(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ─── Enrollments ──────────────────────────────────────────────────────────────

// ListEnrollments handles GET /api/enrollments?course_id=&participant_id=&status=
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.EnrollmentFilter{CourseID: q.Get("course_id"), ParticipantID: q.Get("participant_id")}
	if s := q.Get("status"); s != "" {
		status, err := model.ParseEnrollmentStatus(s)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Status = status
	}

	out, err := h.svc.Enrollments.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(out))
}

// Enroll handles POST /api/enrollments
// Returns 409 when the course is full or the participant is already enrolled.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req model.EnrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Enrollments.Enroll(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Unenroll handles POST /api/enrollments/unenroll
func (h *Handler) Unenroll(w http.ResponseWriter, r *http.Request) {
	var req model.UnenrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Enrollments.Unenroll(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateEnrollmentStatus handles PATCH /api/enrollments/{id}/status
func (h *Handler) UpdateEnrollmentStatus(w http.ResponseWriter, r *http.Request) {
	var req model.EnrollmentStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.svc.Enrollments.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ─── Attendance ───────────────────────────────────────────────────────────────

// ListAttendanceLists handles GET /api/courses/{id}/attendance
func (h *Handler) ListAttendanceLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.svc.Schedule.Lists(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(lists))
}

// CreateAttendanceList handles POST /api/courses/{id}/attendance
func (h *Handler) CreateAttendanceList(w http.ResponseWriter, r *http.Request) {
	var req model.AttendanceListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var createdBy string
	if u, ok := auth.UserFromContext(r.Context()); ok {
		createdBy = u.ID
	}
	l, err := h.svc.Schedule.CreateList(r.Context(), chi.URLParam(r, "id"), createdBy, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// MarkAttendance handles POST /api/attendance/{listID}/marks
func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req model.MarkAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.svc.Schedule.Mark(r.Context(), chi.URLParam(r, "listID"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// AttendanceStats handles GET /api/courses/{id}/attendance/stats
func (h *Handler) AttendanceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Schedule.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(stats))
}
