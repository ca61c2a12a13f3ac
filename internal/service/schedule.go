package service

import (
	"context"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// ScheduleService manages appointments and class attendance.
type ScheduleService struct {
	base
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(d Deps) *ScheduleService {
	return &ScheduleService{base: newBase(d)}
}

// ─── Appointments ────────────────────────────────────────────────────────────

func (s *ScheduleService) CreateAppointment(ctx context.Context, req model.AppointmentRequest) (*model.Appointment, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, invalid("appointment name is required")
	}
	if req.StartsAt.IsZero() {
		return nil, invalid("starts_at is required")
	}

	now := s.timestamp()
	a := &model.Appointment{
		ID:            newID(),
		Name:          req.Name,
		Email:         strings.TrimSpace(strings.ToLower(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		Reason:        strings.TrimSpace(req.Reason),
		StartsAt:      req.StartsAt.UTC(),
		FacilitatorID: req.FacilitatorID,
		RoomID:        req.RoomID,
		ParticipantID: req.ParticipantID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		if pkgerrors.Is(err, repository.ErrReferenced) {
			return nil, apperr.Invalid(ErrInvalidInput, "appointment references an unknown participant, room or facilitator")
		}
		return nil, pkgerrors.Wrap(err, "insert appointment")
	}
	return a, nil
}

func (s *ScheduleService) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	out, err := s.store.ListAppointments(ctx)
	return out, pkgerrors.Wrap(err, "list appointments")
}

func (s *ScheduleService) DeleteAppointment(ctx context.Context, id string) error {
	return deleteOrConflict(s.store.DeleteAppointment(ctx, id), ErrAppointmentNotFound, "appointment", id)
}

// ─── Attendance ──────────────────────────────────────────────────────────────

// CreateList opens an attendance list for one meeting of a course.
func (s *ScheduleService) CreateList(ctx context.Context, courseID, createdBy string, req model.AttendanceListRequest) (*model.AttendanceList, error) {
	if req.Date.IsZero() {
		return nil, invalid("date is required")
	}

	l := &model.AttendanceList{
		ID:        newID(),
		CourseID:  courseID,
		Date:      req.Date.UTC(),
		Notes:     strings.TrimSpace(req.Notes),
		CreatedBy: createdBy,
		CreatedAt: s.timestamp(),
	}
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetCourse(ctx, courseID); err != nil {
			return lookup(err, ErrCourseNotFound, "course", courseID)
		}
		return pkgerrors.Wrap(q.CreateAttendanceList(ctx, l), "insert attendance list")
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ScheduleService) Lists(ctx context.Context, courseID string) ([]model.AttendanceList, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, lookup(err, ErrCourseNotFound, "course", courseID)
	}
	out, err := s.store.ListAttendanceLists(ctx, courseID)
	return out, pkgerrors.Wrap(err, "list attendance lists")
}

// Mark records a participant's attendance on a list. Only participants
// actively enrolled in the list's course can be marked; marking again
// replaces the earlier mark.
func (s *ScheduleService) Mark(ctx context.Context, listID string, req model.MarkAttendanceRequest) (out *model.AttendanceRecord, err error) {
	status, err := model.ParseAttendanceStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if req.ParticipantID == "" {
		return nil, invalid("participant_id is required")
	}

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		l, err := q.GetAttendanceList(ctx, listID)
		if err != nil {
			return lookup(err, ErrListNotFound, "attendance list", listID)
		}
		active, err := q.ListEnrollments(ctx, repository.EnrollmentFilter{
			CourseID: l.CourseID, ParticipantID: req.ParticipantID, Status: model.EnrollmentActive,
		})
		if err != nil {
			return pkgerrors.Wrap(err, "check enrollment")
		}
		if len(active) == 0 {
			return apperr.Invalid(ErrNotEnrolled, "participant %s in course %s", req.ParticipantID, l.CourseID)
		}

		r := &model.AttendanceRecord{
			ID:            newID(),
			ListID:        listID,
			ParticipantID: req.ParticipantID,
			Status:        status,
			Notes:         strings.TrimSpace(req.Notes),
			MarkedAt:      s.timestamp(),
		}
		if err := q.UpsertAttendanceRecord(ctx, r); err != nil {
			return pkgerrors.Wrap(err, "mark attendance")
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats summarises attendance for each participant actively enrolled in
// the course. Rate counts late arrivals as attended.
func (s *ScheduleService) Stats(ctx context.Context, courseID string) ([]model.AttendanceStats, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, lookup(err, ErrCourseNotFound, "course", courseID)
	}
	lists, err := s.store.ListAttendanceLists(ctx, courseID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list attendance lists")
	}
	records, err := s.store.ListAttendanceRecords(ctx, courseID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list attendance records")
	}
	enrolled, err := s.store.ListEnrollments(ctx, repository.EnrollmentFilter{CourseID: courseID, Status: model.EnrollmentActive})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list enrollments")
	}

	byParticipant := make(map[string]*model.AttendanceStats, len(enrolled))
	out := make([]model.AttendanceStats, 0, len(enrolled))
	for _, e := range enrolled {
		out = append(out, model.AttendanceStats{
			ParticipantID:   e.ParticipantID,
			ParticipantName: e.ParticipantName,
			TotalClasses:    len(lists),
		})
	}
	for i := range out {
		byParticipant[out[i].ParticipantID] = &out[i]
	}

	for _, r := range records {
		st, ok := byParticipant[r.ParticipantID]
		if !ok {
			continue
		}
		switch r.Status {
		case model.AttendancePresent:
			st.Present++
		case model.AttendanceLate:
			st.Late++
		case model.AttendanceAbsent:
			st.Absent++
		case model.AttendanceExcused:
			st.Excused++
		}
	}
	for i := range out {
		if out[i].TotalClasses > 0 {
			out[i].Rate = float64(out[i].Present+out[i].Late) / float64(out[i].TotalClasses) * 100
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantName < out[j].ParticipantName })
	return out, nil
}
