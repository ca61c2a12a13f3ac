package service

import (
	"context"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// ParticipantsPerPage is the directory page size.
const ParticipantsPerPage = 10

// ParticipantService manages the participant directory.
type ParticipantService struct {
	base
}

// NewParticipantService constructs a ParticipantService.
func NewParticipantService(d Deps) *ParticipantService {
	return &ParticipantService{base: newBase(d)}
}

// Create stores a participant. Name and phone are required.
func (s *ParticipantService) Create(ctx context.Context, req model.ParticipantRequest) (*model.Participant, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return nil, invalid("name and phone are required")
	}

	p := &model.Participant{
		ID:        newID(),
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   strings.TrimSpace(req.Address),
		Role:      strings.TrimSpace(req.Role),
		Birthdate: req.Birthdate,
		CreatedAt: s.timestamp(),
	}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, pkgerrors.Wrap(err, "insert participant")
	}

	s.invalidate([]string{keyDashboard}, patternParticipants)
	return p, nil
}

// List returns one page of participants whose name, phone or address
// contains search. Pages are numbered from 1.
func (s *ParticipantService) List(ctx context.Context, search string, page int) (*model.ParticipantPage, error) {
	if page < 1 {
		page = 1
	}
	search = strings.TrimSpace(search)

	items, total, err := s.store.ListParticipants(ctx, repository.ParticipantFilter{
		Search: search,
		Limit:  ParticipantsPerPage,
		Offset: (page - 1) * ParticipantsPerPage,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list participants")
	}
	if items == nil {
		items = []model.Participant{}
	}

	return &model.ParticipantPage{
		Participants: items,
		Search:       search,
		Pagination: model.Pagination{
			CurrentPage:  page,
			TotalPages:   (total + ParticipantsPerPage - 1) / ParticipantsPerPage,
			TotalItems:   total,
			ItemsPerPage: ParticipantsPerPage,
		},
	}, nil
}

// Get returns a participant with every enrollment.
func (s *ParticipantService) Get(ctx context.Context, id string) (*model.ParticipantDetail, error) {
	p, err := s.store.GetParticipant(ctx, id)
	if err != nil {
		return nil, lookup(err, ErrParticipantNotFound, "participant", id)
	}
	enrollments, err := s.store.ListEnrollments(ctx, repository.EnrollmentFilter{ParticipantID: id})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list participant enrollments")
	}
	if enrollments == nil {
		enrollments = []model.EnrollmentView{}
	}
	return &model.ParticipantDetail{Participant: *p, Enrollments: enrollments}, nil
}

// participantCascade removes what references a participant, in the order
// the schema's RESTRICT references require. Appointments survive with the
// reference cleared.
var participantCascade = []cascadeStep{
	{"attendance records", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return q.DeleteAttendanceRecordsByParticipant(ctx, id)
	}},
	{"appointments", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return q.ClearAppointmentParticipant(ctx, id)
	}},
	{"payments", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return q.DeletePaymentsByParticipant(ctx, id)
	}},
	{"enrollments", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return q.DeleteEnrollmentsByParticipant(ctx, id)
	}},
	{"participant", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return 1, q.DeleteParticipant(ctx, id)
	}},
}

// Delete removes a participant with everything that references it, then
// recomputes the full flag of every course they were actively enrolled in.
func (s *ParticipantService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.start(ctx, "participant.delete")
	defer func() { s.finish(span, "cascade_delete_participant", err) }()

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.GetParticipant(ctx, id); err != nil {
			return lookup(err, ErrParticipantNotFound, "participant", id)
		}
		enrollments, err := q.ListEnrollments(ctx, repository.EnrollmentFilter{ParticipantID: id, Status: model.EnrollmentActive})
		if err != nil {
			return pkgerrors.Wrap(err, "list participant enrollments")
		}

		// Lock affected courses before deleting so concurrent enrolls see
		// the final count.
		courses := make([]*model.Course, 0, len(enrollments))
		seen := map[string]bool{}
		for _, e := range enrollments {
			if seen[e.CourseID] {
				continue
			}
			seen[e.CourseID] = true
			c, err := q.LockCourse(ctx, e.CourseID)
			if err != nil {
				return lookup(err, ErrCourseNotFound, "course", e.CourseID)
			}
			courses = append(courses, c)
		}

		if err := runCascade(ctx, q, id, participantCascade); err != nil {
			return err
		}
		for _, c := range courses {
			if _, err := s.recomputeFull(ctx, q, c); err != nil {
				return pkgerrors.Wrapf(err, "recompute course %s", c.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate([]string{keyDashboard}, patternParticipants, patternEnrollments, patternCourses, patternFinance)
	return nil
}
