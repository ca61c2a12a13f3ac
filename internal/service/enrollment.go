package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	pkgerrors "github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// EnrollmentService keeps enrollments and course seat flags consistent.
type EnrollmentService struct {
	base
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(d Deps) *EnrollmentService {
	return &EnrollmentService{base: newBase(d)}
}

// Enroll creates an active enrollment.
//
// It fails with ErrCourseFull when the course is flagged full or turns out
// to be at capacity already; in the latter case the flag is persisted
// before the error is returned. ErrAlreadyEnrolled means the pair already
// has an active enrollment.
func (s *EnrollmentService) Enroll(ctx context.Context, req model.EnrollRequest) (res *model.EnrollResult, err error) {
	ctx, span := s.start(ctx, "enrollment.enroll")
	defer func() { s.finish(span, "enroll", err) }()

	if req.ParticipantID == "" || req.CourseID == "" {
		return nil, invalid("participant_id and course_id are required")
	}
	if req.Amount != nil && *req.Amount < 0 {
		return nil, apperr.Invalid(ErrNegativeAmount, "amount %.2f", *req.Amount)
	}

	var atCapacity bool
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		course, err := q.LockCourse(ctx, req.CourseID)
		if err != nil {
			return lookup(err, ErrCourseNotFound, "course", req.CourseID)
		}
		if _, err := q.GetParticipant(ctx, req.ParticipantID); err != nil {
			return lookup(err, ErrParticipantNotFound, "participant", req.ParticipantID)
		}
		if course.IsFull {
			return apperr.Conflict(ErrCourseFull, "course %q", course.Name)
		}

		existing, err := q.ListEnrollments(ctx, repository.EnrollmentFilter{
			CourseID: course.ID, ParticipantID: req.ParticipantID, Status: model.EnrollmentActive,
		})
		if err != nil {
			return pkgerrors.Wrap(err, "check existing enrollment")
		}
		if len(existing) > 0 {
			return apperr.Conflict(ErrAlreadyEnrolled, "participant %s in course %q", req.ParticipantID, course.Name)
		}

		active, err := q.CountActiveEnrollments(ctx, course.ID)
		if err != nil {
			return pkgerrors.Wrap(err, "count active enrollments")
		}
		if course.FullAt(active) {
			// The stored flag was stale. Commit the correction, then refuse.
			if _, err := s.recomputeFull(ctx, q, course); err != nil {
				return err
			}
			atCapacity = true
			return nil
		}

		amount := course.Price
		if req.Amount != nil {
			amount = *req.Amount
		}
		e := &model.Enrollment{
			ID:            newID(),
			CourseID:      course.ID,
			ParticipantID: req.ParticipantID,
			Status:        model.EnrollmentActive,
			Amount:        amount,
			Notes:         req.Notes,
			EnrolledAt:    s.timestamp(),
		}
		if err := q.CreateEnrollment(ctx, e); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Conflict(ErrAlreadyEnrolled, "participant %s in course %q", req.ParticipantID, course.Name)
			}
			return pkgerrors.Wrap(err, "insert enrollment")
		}

		active, err = s.recomputeFull(ctx, q, course)
		if err != nil {
			return err
		}
		res = &model.EnrollResult{
			Enrollment:     *e,
			CoursePrice:    course.Price,
			AvailableSpots: course.Remaining(active),
			TotalCapacity:  course.Capacity,
			CourseIsFull:   course.IsFull,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enrollmentsChanged()
	if atCapacity {
		return nil, apperr.Conflict(ErrCourseFull, "course %s", req.CourseID)
	}

	zerolog.Ctx(ctx).Info().
		Str("course_id", req.CourseID).
		Str("participant_id", req.ParticipantID).
		Bool("course_full", res.CourseIsFull).
		Msg("participant enrolled")
	return res, nil
}

// Unenroll ends the pair's active enrollment, cancelling it or, with
// Purge, deleting it. The course's full flag is recomputed afterwards.
func (s *EnrollmentService) Unenroll(ctx context.Context, req model.UnenrollRequest) (err error) {
	ctx, span := s.start(ctx, "enrollment.unenroll")
	defer func() { s.finish(span, "unenroll", err) }()

	if req.ParticipantID == "" || req.CourseID == "" {
		return invalid("participant_id and course_id are required")
	}

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		course, err := q.LockCourse(ctx, req.CourseID)
		if err != nil {
			return lookup(err, ErrCourseNotFound, "course", req.CourseID)
		}

		existing, err := q.ListEnrollments(ctx, repository.EnrollmentFilter{
			CourseID: course.ID, ParticipantID: req.ParticipantID, Status: model.EnrollmentActive,
		})
		if err != nil {
			return pkgerrors.Wrap(err, "find enrollment")
		}
		if len(existing) == 0 {
			return apperr.NotFound(ErrNotEnrolled, "participant %s in course %q", req.ParticipantID, course.Name)
		}

		for _, v := range existing {
			e := v.Enrollment
			if req.Purge {
				err = q.DeleteEnrollment(ctx, e.ID)
			} else {
				now := s.timestamp()
				e.Status = model.EnrollmentCancelled
				e.CancelledAt = &now
				err = q.UpdateEnrollment(ctx, &e)
			}
			if err != nil {
				return pkgerrors.Wrapf(err, "end enrollment %s", e.ID)
			}
		}

		_, err = s.recomputeFull(ctx, q, course)
		return err
	})
	if err != nil {
		return err
	}

	s.enrollmentsChanged()
	return nil
}

// UpdateStatus moves an enrollment to status. Cancelling stamps
// CancelledAt; reactivating requires a free seat and no other active
// enrollment for the pair.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, req model.EnrollmentStatusRequest) (out *model.Enrollment, err error) {
	ctx, span := s.start(ctx, "enrollment.update_status")
	defer func() { s.finish(span, "update_enrollment_status", err) }()

	status, err := model.ParseEnrollmentStatus(req.Status)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q repository.Queries) error {
		e, err := q.GetEnrollment(ctx, id)
		if err != nil {
			return lookup(err, ErrEnrollmentNotFound, "enrollment", id)
		}
		course, err := q.LockCourse(ctx, e.CourseID)
		if err != nil {
			return lookup(err, ErrCourseNotFound, "course", e.CourseID)
		}

		if status == model.EnrollmentActive && e.Status != model.EnrollmentActive {
			active, err := q.CountActiveEnrollments(ctx, course.ID)
			if err != nil {
				return pkgerrors.Wrap(err, "count active enrollments")
			}
			if course.FullAt(active) {
				return apperr.Conflict(ErrCourseFull, "course %q", course.Name)
			}
		}

		e.Status = status
		if status == model.EnrollmentCancelled {
			now := s.timestamp()
			e.CancelledAt = &now
		}
		if err := q.UpdateEnrollment(ctx, e); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Conflict(ErrAlreadyEnrolled, "participant %s in course %q", e.ParticipantID, course.Name)
			}
			return pkgerrors.Wrap(err, "update enrollment")
		}

		if _, err := s.recomputeFull(ctx, q, course); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enrollmentsChanged()
	return out, nil
}

// RecomputeCourseFull sets the course's full flag from its active count.
func (s *EnrollmentService) RecomputeCourseFull(ctx context.Context, courseID string) (detail *model.CourseDetail, err error) {
	ctx, span := s.start(ctx, "enrollment.recompute")
	defer func() { s.finish(span, "recompute_course_full", err) }()

	var before bool
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		course, err := q.LockCourse(ctx, courseID)
		if err != nil {
			return lookup(err, ErrCourseNotFound, "course", courseID)
		}
		before = course.IsFull
		active, err := s.recomputeFull(ctx, q, course)
		if err != nil {
			return err
		}
		detail = &model.CourseDetail{Course: *course, ActiveEnrollments: active, AvailableSpots: course.Remaining(active)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if before != detail.IsFull {
		s.enrollmentsChanged()
	}
	return detail, nil
}

// RecomputeAll runs RecomputeCourseFull over every course and returns how
// many flags changed.
func (s *EnrollmentService) RecomputeAll(ctx context.Context) (int, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "list courses")
	}

	changed := 0
	for _, c := range courses {
		d, err := s.RecomputeCourseFull(ctx, c.ID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				continue // deleted meanwhile
			}
			return changed, err
		}
		if d.IsFull != c.IsFull {
			changed++
			zerolog.Ctx(ctx).Info().Str("course_id", c.ID).Bool("is_full", d.IsFull).Msg("course full flag corrected")
		}
	}
	return changed, nil
}

// List returns enrollments matching f, joined with display names.
func (s *EnrollmentService) List(ctx context.Context, f repository.EnrollmentFilter) ([]model.EnrollmentView, error) {
	key := fmt.Sprintf("%s:course=%s:participant=%s:status=%s", keyEnrollmentsList, f.CourseID, f.ParticipantID, f.Status)
	return cache.Get(ctx, s.cache, key, 0, func(ctx context.Context) ([]model.EnrollmentView, error) {
		out, err := s.store.ListEnrollments(ctx, f)
		return out, pkgerrors.Wrap(err, "list enrollments")
	})
}
