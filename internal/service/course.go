package service

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// CourseService manages the course catalog.
type CourseService struct {
	base
}

// NewCourseService constructs a CourseService.
func NewCourseService(d Deps) *CourseService {
	return &CourseService{base: newBase(d)}
}

func validateCourse(req *model.CourseRequest) (model.Weekday, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "", invalid("course name is required")
	}
	if req.Price < 0 {
		return "", apperr.Invalid(ErrNegativeAmount, "price %.2f", req.Price)
	}
	if req.Capacity <= 0 {
		return "", invalid("capacity must be a positive integer")
	}
	if req.DurationMinutes <= 0 {
		return "", invalid("duration must be a positive number of minutes")
	}
	return model.ParseWeekday(req.Weekday)
}

// checkRefs verifies the optional room and facilitator exist.
func checkRefs(ctx context.Context, q repository.Queries, roomID, facilitatorID *string) error {
	if roomID != nil {
		n, err := q.ListRooms(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "list rooms")
		}
		if !containsID(n, *roomID, func(r model.Room) string { return r.ID }) {
			return apperr.NotFound(ErrRoomNotFound, "room %s", *roomID)
		}
	}
	if facilitatorID != nil {
		all, err := q.ListFacilitators(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "list facilitators")
		}
		if !containsID(all, *facilitatorID, func(f model.Facilitator) string { return f.ID }) {
			return apperr.NotFound(ErrFacilitatorNotFound, "facilitator %s", *facilitatorID)
		}
	}
	return nil
}

func containsID[T any](all []T, id string, idOf func(T) string) bool {
	for _, v := range all {
		if idOf(v) == id {
			return true
		}
	}
	return false
}

// Create validates req and stores a new course.
func (s *CourseService) Create(ctx context.Context, req model.CourseRequest) (*model.Course, error) {
	weekday, err := validateCourse(&req)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	c := &model.Course{
		ID:              newID(),
		Name:            req.Name,
		Description:     strings.TrimSpace(req.Description),
		Price:           req.Price,
		Capacity:        req.Capacity,
		DurationMinutes: req.DurationMinutes,
		Weekday:         weekday,
		StartDate:       req.StartDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RoomID:          req.RoomID,
		FacilitatorID:   req.FacilitatorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		if err := checkRefs(ctx, q, c.RoomID, c.FacilitatorID); err != nil {
			return err
		}
		return pkgerrors.Wrap(q.CreateCourse(ctx, c), "insert course")
	})
	if err != nil {
		return nil, err
	}

	s.invalidate([]string{keyDashboard}, patternCourses, patternFinance)
	return c, nil
}

// List returns every course, newest first.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return cache.Get(ctx, s.cache, keyCoursesList, 0, func(ctx context.Context) ([]model.Course, error) {
		out, err := s.store.ListCourses(ctx)
		return out, pkgerrors.Wrap(err, "list courses")
	})
}

// Get returns a course with its live seat numbers.
func (s *CourseService) Get(ctx context.Context, id string) (*model.CourseDetail, error) {
	c, err := s.store.GetCourse(ctx, id)
	if err != nil {
		return nil, lookup(err, ErrCourseNotFound, "course", id)
	}
	active, err := s.store.CountActiveEnrollments(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "count active enrollments")
	}
	return &model.CourseDetail{Course: *c, ActiveEnrollments: active, AvailableSpots: c.Remaining(active)}, nil
}

// Update replaces a course's editable fields. A capacity change
// recomputes the full flag in the same unit of work.
func (s *CourseService) Update(ctx context.Context, id string, req model.CourseRequest) (out *model.Course, err error) {
	weekday, err := validateCourse(&req)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		c, err := q.LockCourse(ctx, id)
		if err != nil {
			return lookup(err, ErrCourseNotFound, "course", id)
		}
		if err := checkRefs(ctx, q, req.RoomID, req.FacilitatorID); err != nil {
			return err
		}

		capacityChanged := c.Capacity != req.Capacity
		c.Name = req.Name
		c.Description = strings.TrimSpace(req.Description)
		c.Price = req.Price
		c.Capacity = req.Capacity
		c.DurationMinutes = req.DurationMinutes
		c.Weekday = weekday
		c.StartDate = req.StartDate
		c.StartTime = req.StartTime
		c.EndTime = req.EndTime
		c.RoomID = req.RoomID
		c.FacilitatorID = req.FacilitatorID
		c.UpdatedAt = s.timestamp()
		if err := q.UpdateCourse(ctx, c); err != nil {
			return pkgerrors.Wrap(err, "update course")
		}

		if capacityChanged {
			if _, err := s.recomputeFull(ctx, q, c); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enrollmentsChanged()
	return out, nil
}

// courseCascade is the order in which a course's dependents are removed.
var courseCascade = []cascadeStep{
	{"attendance records", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return q.DeleteAttendanceRecordsByCourse(ctx, id)
	}},
	{"attendance lists", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return q.DeleteAttendanceListsByCourse(ctx, id)
	}},
	{"payments", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return q.DeletePaymentsByCourse(ctx, id)
	}},
	{"enrollments", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return q.DeleteEnrollmentsByCourse(ctx, id)
	}},
	{"course", func(ctx context.Context, q repository.Queries, id string) (int64, error) {
		return 1, q.DeleteCourse(ctx, id)
	}},
}

// Delete removes a course and everything that references it.
func (s *CourseService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.start(ctx, "course.delete")
	defer func() { s.finish(span, "delete_course", err) }()

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.LockCourse(ctx, id); err != nil {
			return lookup(err, ErrCourseNotFound, "course", id)
		}
		return runCascade(ctx, q, id, courseCascade)
	})
	if err != nil {
		return err
	}

	s.invalidate([]string{keyDashboard}, patternCourses, patternEnrollments, patternFinance)
	return nil
}

// cascadeStep deletes one kind of dependent row and reports how many.
type cascadeStep struct {
	name string
	run  func(ctx context.Context, q repository.Queries, id string) (int64, error)
}

func runCascade(ctx context.Context, q repository.Queries, id string, steps []cascadeStep) error {
	log := zerolog.Ctx(ctx)
	for _, step := range steps {
		n, err := step.run(ctx, q, id)
		if err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return pkgerrors.Wrapf(err, "cascade %s: rows still referenced", step.name)
			}
			return pkgerrors.Wrapf(err, "cascade %s", step.name)
		}
		log.Debug().Str("step", step.name).Int64("rows", n).Str("id", id).Msg("cascade step")
	}
	return nil
}
