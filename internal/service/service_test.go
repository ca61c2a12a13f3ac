package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

type fixture struct {
	ctx          context.Context
	store        *repository.MemoryStore
	cache        *cache.Cache
	courses      *CourseService
	participants *ParticipantService
	enrollments  *EnrollmentService
	payments     *PaymentService
	catalog      *CatalogService
	schedule     *ScheduleService
	settings     *SettingsService
	reports      *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	c := cache.New(cache.Options{Logger: zerolog.Nop()})
	s := New(Deps{Store: store, Cache: c})
	return &fixture{
		ctx:          context.Background(),
		store:        store,
		cache:        c,
		courses:      s.Courses,
		participants: s.Participants,
		enrollments:  s.Enrollments,
		payments:     s.Payments,
		catalog:      s.Catalog,
		schedule:     s.Schedule,
		settings:     s.Settings,
		reports:      s.Reports,
	}
}

func (f *fixture) course(t *testing.T, capacity int, price float64) *model.Course {
	t.Helper()
	c, err := f.courses.Create(f.ctx, model.CourseRequest{
		Name: fmt.Sprintf("Course %d/%.0f", capacity, price), Price: price, Capacity: capacity, DurationMinutes: 60,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) participant(t *testing.T, name string) *model.Participant {
	t.Helper()
	p, err := f.participants.Create(f.ctx, model.ParticipantRequest{Name: name, Phone: "555-0100"})
	require.NoError(t, err)
	return p
}

func (f *fixture) enroll(participantID, courseID string) (*model.EnrollResult, error) {
	return f.enrollments.Enroll(f.ctx, model.EnrollRequest{ParticipantID: participantID, CourseID: courseID})
}

func (f *fixture) reload(t *testing.T, courseID string) *model.Course {
	t.Helper()
	c, err := f.store.GetCourse(f.ctx, courseID)
	require.NoError(t, err)
	return c
}

func (f *fixture) activeFor(t *testing.T, participantID, courseID string) []model.EnrollmentView {
	t.Helper()
	out, err := f.store.ListEnrollments(f.ctx, repository.EnrollmentFilter{
		CourseID: courseID, ParticipantID: participantID,
	})
	require.NoError(t, err)
	return out
}

func assertKind(t *testing.T, err error, kind apperr.Kind, sentinel error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
	if sentinel != nil {
		assert.ErrorIs(t, err, sentinel)
	}
}

// ─── Enroll / Unenroll ───────────────────────────────────────────────────────

func TestEnrollFillsCourseAtCapacity(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 2, 150)
	a, b, c := f.participant(t, "A"), f.participant(t, "B"), f.participant(t, "C")

	res, err := f.enroll(a.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, res.CourseIsFull)
	assert.Equal(t, 1, res.AvailableSpots)
	assert.Equal(t, 150.0, res.Enrollment.Amount, "amount defaults to the course price")

	res, err = f.enroll(b.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, res.CourseIsFull)
	assert.Zero(t, res.AvailableSpots)
	assert.True(t, f.reload(t, course.ID).IsFull)

	_, err = f.enroll(c.ID, course.ID)
	assertKind(t, err, apperr.KindConflict, ErrCourseFull)
}

func TestEnrollRejectsDuplicateActive(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 100)
	a := f.participant(t, "A")

	_, err := f.enroll(a.ID, course.ID)
	require.NoError(t, err)
	_, err = f.enroll(a.ID, course.ID)
	assertKind(t, err, apperr.KindConflict, ErrAlreadyEnrolled)

	assert.Len(t, f.activeFor(t, a.ID, course.ID), 1)
}

func TestEnrollHonoursExplicitAmount(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 100)
	a := f.participant(t, "A")
	amount := 40.0

	res, err := f.enrollments.Enroll(f.ctx, model.EnrollRequest{ParticipantID: a.ID, CourseID: course.ID, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 40.0, res.Enrollment.Amount)
}

func TestEnrollMissingReferences(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 100)
	a := f.participant(t, "A")

	_, err := f.enroll(a.ID, "missing")
	assertKind(t, err, apperr.KindNotFound, ErrCourseNotFound)

	_, err = f.enroll("missing", course.ID)
	assertKind(t, err, apperr.KindNotFound, ErrParticipantNotFound)

	_, err = f.enroll("", course.ID)
	assertKind(t, err, apperr.KindInvalidArgument, ErrInvalidInput)
}

func TestEnrollPersistsStaleFullFlagBeforeRefusing(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 1, 100)
	a, b := f.participant(t, "A"), f.participant(t, "B")

	// An enrollment written behind the service's back leaves the flag stale.
	require.NoError(t, f.store.CreateEnrollment(f.ctx, &model.Enrollment{
		ID: "raw", CourseID: course.ID, ParticipantID: a.ID, Status: model.EnrollmentActive,
	}))
	require.False(t, f.reload(t, course.ID).IsFull)

	_, err := f.enroll(b.ID, course.ID)
	assertKind(t, err, apperr.KindConflict, ErrCourseFull)
	assert.True(t, f.reload(t, course.ID).IsFull)
	assert.Empty(t, f.activeFor(t, b.ID, course.ID))
}

func TestUnenrollRecomputesFullFlag(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 2, 100)
	a, b := f.participant(t, "A"), f.participant(t, "B")
	_, err := f.enroll(a.ID, course.ID)
	require.NoError(t, err)
	_, err = f.enroll(b.ID, course.ID)
	require.NoError(t, err)
	require.True(t, f.reload(t, course.ID).IsFull)

	require.NoError(t, f.enrollments.Unenroll(f.ctx, model.UnenrollRequest{ParticipantID: a.ID, CourseID: course.ID}))
	assert.False(t, f.reload(t, course.ID).IsFull)

	views := f.activeFor(t, a.ID, course.ID)
	require.Len(t, views, 1)
	assert.Equal(t, model.EnrollmentCancelled, views[0].Status)
	assert.NotNil(t, views[0].CancelledAt)

	err = f.enrollments.Unenroll(f.ctx, model.UnenrollRequest{ParticipantID: a.ID, CourseID: course.ID})
	assertKind(t, err, apperr.KindNotFound, ErrNotEnrolled)
}

func TestUnenrollKeepsFlagWhenStillOverCapacity(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 2, 100)
	ps := []*model.Participant{f.participant(t, "A"), f.participant(t, "B"), f.participant(t, "C")}
	for i, p := range ps {
		require.NoError(t, f.store.CreateEnrollment(f.ctx, &model.Enrollment{
			ID: fmt.Sprintf("e%d", i), CourseID: course.ID, ParticipantID: p.ID, Status: model.EnrollmentActive,
		}))
	}

	require.NoError(t, f.enrollments.Unenroll(f.ctx, model.UnenrollRequest{ParticipantID: ps[0].ID, CourseID: course.ID}))
	assert.True(t, f.reload(t, course.ID).IsFull, "two active of capacity two is still full")
}

func TestUnenrollPurgeDeletesRow(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 2, 100)
	a := f.participant(t, "A")
	_, err := f.enroll(a.ID, course.ID)
	require.NoError(t, err)

	require.NoError(t, f.enrollments.Unenroll(f.ctx, model.UnenrollRequest{ParticipantID: a.ID, CourseID: course.ID, Purge: true}))
	assert.Empty(t, f.activeFor(t, a.ID, course.ID))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 1, 100)
	a, b := f.participant(t, "A"), f.participant(t, "B")
	res, err := f.enroll(a.ID, course.ID)
	require.NoError(t, err)
	require.True(t, f.reload(t, course.ID).IsFull)

	e, err := f.enrollments.UpdateStatus(f.ctx, res.Enrollment.ID, model.EnrollmentStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.NotNil(t, e.CancelledAt)
	assert.False(t, f.reload(t, course.ID).IsFull)

	_, err = f.enroll(b.ID, course.ID)
	require.NoError(t, err)

	_, err = f.enrollments.UpdateStatus(f.ctx, res.Enrollment.ID, model.EnrollmentStatusRequest{Status: "active"})
	assertKind(t, err, apperr.KindConflict, ErrCourseFull)

	_, err = f.enrollments.UpdateStatus(f.ctx, res.Enrollment.ID, model.EnrollmentStatusRequest{Status: "bogus"})
	assertKind(t, err, apperr.KindInvalidArgument, model.ErrUnknownValue)

	_, err = f.enrollments.UpdateStatus(f.ctx, "missing", model.EnrollmentStatusRequest{Status: "completed"})
	assertKind(t, err, apperr.KindNotFound, ErrEnrollmentNotFound)
}

func TestRecomputeRestoresInvariant(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))

	var courses []*model.Course
	for i := 1; i <= 4; i++ {
		courses = append(courses, f.course(t, i, 10))
	}
	var people []*model.Participant
	for i := 0; i < 8; i++ {
		people = append(people, f.participant(t, fmt.Sprintf("P%d", i)))
	}

	for i := 0; i < 200; i++ {
		c := courses[rng.Intn(len(courses))]
		p := people[rng.Intn(len(people))]
		switch rng.Intn(4) {
		case 0, 1:
			_, _ = f.enroll(p.ID, c.ID)
		case 2:
			_ = f.enrollments.Unenroll(f.ctx, model.UnenrollRequest{ParticipantID: p.ID, CourseID: c.ID})
		case 3:
			// Bypass the service to desynchronise the flag.
			_ = f.store.SetCourseFull(f.ctx, c.ID, rng.Intn(2) == 0)
		}
	}

	_, err := f.enrollments.RecomputeAll(f.ctx)
	require.NoError(t, err)

	for _, c := range courses {
		got := f.reload(t, c.ID)
		n, err := f.store.CountActiveEnrollments(f.ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, n >= got.Capacity, got.IsFull, "course capacity %d active %d", got.Capacity, n)
	}
}

func TestRecomputeCourseFullReportsSeats(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 3, 10)
	a := f.participant(t, "A")
	_, err := f.enroll(a.ID, course.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetCourseFull(f.ctx, course.ID, true))

	d, err := f.enrollments.RecomputeCourseFull(f.ctx, course.ID)
	require.NoError(t, err)
	assert.False(t, d.IsFull)
	assert.Equal(t, 1, d.ActiveEnrollments)
	assert.Equal(t, 2, d.AvailableSpots)

	_, err = f.enrollments.RecomputeCourseFull(f.ctx, "missing")
	assertKind(t, err, apperr.KindNotFound, ErrCourseNotFound)
}

// ─── Payments ────────────────────────────────────────────────────────────────

func TestPixPaymentEnrollsOnPaid(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 100)
	p := f.participant(t, "P")
	amount := 100.0

	pay, err := f.payments.Record(f.ctx, model.PaymentRequest{
		ParticipantID: p.ID, CourseID: course.ID, Amount: &amount, Discount: 20, Method: "pix",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, pay.Status)
	assert.Equal(t, 80.0, pay.FinalAmount)
	assert.Nil(t, pay.PaidAt)
	assert.Empty(t, f.activeFor(t, p.ID, course.ID))

	pay, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "paid", TransactionID: "tx-1"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, pay.Status)
	assert.NotNil(t, pay.PaidAt)
	assert.Equal(t, "tx-1", pay.TransactionID)

	views := f.activeFor(t, p.ID, course.ID)
	require.Len(t, views, 1)
	assert.Equal(t, model.EnrollmentActive, views[0].Status)
	assert.Equal(t, 80.0, views[0].Amount)
	assert.Contains(t, views[0].Notes, pay.ID)
	require.NotNil(t, pay.EnrollmentID)
	assert.Equal(t, views[0].ID, *pay.EnrollmentID)
}

func TestFreePaymentIsPaidAndEnrolls(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 60)
	p := f.participant(t, "P")

	pay, err := f.payments.Record(f.ctx, model.PaymentRequest{
		ParticipantID: p.ID, CourseID: course.ID, Discount: 60, Method: "free",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, pay.Status)
	assert.NotNil(t, pay.PaidAt)
	assert.Zero(t, pay.FinalAmount)

	views := f.activeFor(t, p.ID, course.ID)
	require.Len(t, views, 1)
	assert.Zero(t, views[0].Amount)
}

func TestFreePaymentReusesExistingEnrollment(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 60)
	p := f.participant(t, "P")
	res, err := f.enroll(p.ID, course.ID)
	require.NoError(t, err)

	pay, err := f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID, Method: "free"})
	require.NoError(t, err)

	assert.Len(t, f.activeFor(t, p.ID, course.ID), 1)
	require.NotNil(t, pay.EnrollmentID)
	assert.Equal(t, res.Enrollment.ID, *pay.EnrollmentID)
}

func TestPaidTwiceCreatesOneEnrollment(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 100)
	p := f.participant(t, "P")

	pay, err := f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID, Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, pay.Amount, "amount defaults to the course price")

	_, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "paid"})
	require.NoError(t, err)
	_, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "paid"})
	require.NoError(t, err)

	assert.Len(t, f.activeFor(t, p.ID, course.ID), 1)
}

func TestRecordPaymentRejections(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 100)
	p := f.participant(t, "P")

	_, err := f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID, Discount: 150})
	assertKind(t, err, apperr.KindInvalidArgument, ErrNegativeAmount)

	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID, Discount: -1})
	assertKind(t, err, apperr.KindInvalidArgument, ErrNegativeAmount)

	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID, Method: "barter"})
	assertKind(t, err, apperr.KindInvalidArgument, model.ErrUnknownValue)

	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: "missing"})
	assertKind(t, err, apperr.KindNotFound, ErrCourseNotFound)

	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID})
	require.NoError(t, err)
	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID})
	assertKind(t, err, apperr.KindConflict, ErrDuplicatePending)
}

func TestTransitionRules(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 100)
	p := f.participant(t, "P")

	pay, err := f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID})
	require.NoError(t, err)

	pay, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "cancelled", Notes: "changed mind"})
	require.NoError(t, err)
	assert.NotNil(t, pay.CancelledAt)
	assert.Equal(t, "changed mind", pay.Notes)

	_, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "paid"})
	assertKind(t, err, apperr.KindInvalidArgument, ErrInvalidTransition)
	assert.Empty(t, f.activeFor(t, p.ID, course.ID))

	_, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "pending"})
	assertKind(t, err, apperr.KindInvalidArgument, ErrInvalidTransition)

	pay, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "refunded"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, pay.Status)

	_, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "settled"})
	assertKind(t, err, apperr.KindInvalidArgument, ErrInvalidTransition)

	_, err = f.payments.Transition(f.ctx, "missing", model.PaymentStatusRequest{Status: "paid"})
	assertKind(t, err, apperr.KindNotFound, ErrPaymentNotFound)
}

func TestPaidPaymentOverCapacityStillEnrolls(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 1, 100)
	a, b := f.participant(t, "A"), f.participant(t, "B")
	_, err := f.enroll(a.ID, course.ID)
	require.NoError(t, err)

	pay, err := f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: b.ID, CourseID: course.ID})
	require.NoError(t, err)
	_, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "paid"})
	require.NoError(t, err)

	assert.Len(t, f.activeFor(t, b.ID, course.ID), 1)
	assert.True(t, f.reload(t, course.ID).IsFull)
}

// ─── Cascades ────────────────────────────────────────────────────────────────

func TestDeleteParticipantCascades(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 1, 100)
	other := f.course(t, 3, 100)
	p := f.participant(t, "Leaving")
	stays := f.participant(t, "Staying")

	_, err := f.enroll(p.ID, course.ID)
	require.NoError(t, err)
	_, err = f.enroll(stays.ID, other.ID)
	require.NoError(t, err)
	require.True(t, f.reload(t, course.ID).IsFull)

	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID})
	require.NoError(t, err)

	list, err := f.schedule.CreateList(f.ctx, course.ID, "admin", model.AttendanceListRequest{Date: time.Now()})
	require.NoError(t, err)
	_, err = f.schedule.Mark(f.ctx, list.ID, model.MarkAttendanceRequest{ParticipantID: p.ID})
	require.NoError(t, err)

	appt, err := f.schedule.CreateAppointment(f.ctx, model.AppointmentRequest{
		Name: "Intro call", StartsAt: time.Now().Add(time.Hour), ParticipantID: &p.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.participants.Delete(f.ctx, p.ID))

	_, err = f.participants.Get(f.ctx, p.ID)
	assertKind(t, err, apperr.KindNotFound, ErrParticipantNotFound)
	assert.False(t, f.reload(t, course.ID).IsFull)

	payments, err := f.store.ListPayments(f.ctx, repository.PaymentFilter{ParticipantID: p.ID})
	require.NoError(t, err)
	assert.Empty(t, payments)

	records, err := f.store.ListAttendanceRecords(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	appts, err := f.schedule.ListAppointments(f.ctx)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, appt.ID, appts[0].ID)
	assert.Nil(t, appts[0].ParticipantID)

	assert.Len(t, f.activeFor(t, stays.ID, other.ID), 1)

	err = f.participants.Delete(f.ctx, p.ID)
	assertKind(t, err, apperr.KindNotFound, ErrParticipantNotFound)
}

func TestDeleteCourseCascades(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 3, 100)
	p := f.participant(t, "P")
	_, err := f.enroll(p.ID, course.ID)
	require.NoError(t, err)
	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID})
	require.NoError(t, err)
	list, err := f.schedule.CreateList(f.ctx, course.ID, "admin", model.AttendanceListRequest{Date: time.Now()})
	require.NoError(t, err)
	_, err = f.schedule.Mark(f.ctx, list.ID, model.MarkAttendanceRequest{ParticipantID: p.ID, Status: "late"})
	require.NoError(t, err)

	require.NoError(t, f.courses.Delete(f.ctx, course.ID))

	_, err = f.courses.Get(f.ctx, course.ID)
	assertKind(t, err, apperr.KindNotFound, ErrCourseNotFound)
	assert.Empty(t, f.activeFor(t, p.ID, course.ID))

	// The participant survives.
	_, err = f.participants.Get(f.ctx, p.ID)
	require.NoError(t, err)
}

// ─── Courses & catalog ───────────────────────────────────────────────────────

func TestCourseValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		req  model.CourseRequest
	}{
		{"no name", model.CourseRequest{Capacity: 1, DurationMinutes: 1}},
		{"negative price", model.CourseRequest{Name: "x", Price: -1, Capacity: 1, DurationMinutes: 1}},
		{"zero capacity", model.CourseRequest{Name: "x", DurationMinutes: 1}},
		{"zero duration", model.CourseRequest{Name: "x", Capacity: 1}},
		{"bad weekday", model.CourseRequest{Name: "x", Capacity: 1, DurationMinutes: 1, Weekday: "someday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.courses.Create(f.ctx, tt.req)
			assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err), "error: %v", err)
		})
	}

	room := "nope"
	_, err := f.courses.Create(f.ctx, model.CourseRequest{Name: "x", Capacity: 1, DurationMinutes: 1, RoomID: &room})
	assertKind(t, err, apperr.KindNotFound, ErrRoomNotFound)
}

func TestCapacityChangeRecomputesFull(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 2, 100)
	a := f.participant(t, "A")
	_, err := f.enroll(a.ID, course.ID)
	require.NoError(t, err)

	updated, err := f.courses.Update(f.ctx, course.ID, model.CourseRequest{
		Name: course.Name, Price: 100, Capacity: 1, DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsFull)

	updated, err = f.courses.Update(f.ctx, course.ID, model.CourseRequest{
		Name: course.Name, Price: 100, Capacity: 4, DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsFull)

	detail, err := f.courses.Get(f.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.AvailableSpots)
}

func TestCourseListIsCachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	f.course(t, 1, 10)

	list, err := f.courses.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Writes that skip the service are not seen until the key is dropped.
	now := time.Now()
	require.NoError(t, f.store.CreateCourse(f.ctx, &model.Course{ID: "raw", Name: "raw", Capacity: 1, CreatedAt: now, UpdatedAt: now}))
	list, err = f.courses.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	f.course(t, 2, 10)
	list, err = f.courses.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRoomAndFacilitatorDeleteBlockedWhileUsed(t *testing.T) {
	f := newFixture(t)
	room, err := f.catalog.CreateRoom(f.ctx, model.RoomRequest{Name: "Studio", Number: 1})
	require.NoError(t, err)
	fac, err := f.catalog.CreateFacilitator(f.ctx, model.FacilitatorRequest{Name: "Bia", Phone: "1"})
	require.NoError(t, err)

	course, err := f.courses.Create(f.ctx, model.CourseRequest{
		Name: "Pilates", Capacity: 4, DurationMinutes: 50, RoomID: &room.ID, FacilitatorID: &fac.ID,
	})
	require.NoError(t, err)

	assertKind(t, f.catalog.DeleteRoom(f.ctx, room.ID), apperr.KindConflict, ErrInUse)
	assertKind(t, f.catalog.DeleteFacilitator(f.ctx, fac.ID), apperr.KindConflict, ErrInUse)

	require.NoError(t, f.courses.Delete(f.ctx, course.ID))
	require.NoError(t, f.catalog.DeleteRoom(f.ctx, room.ID))
	require.NoError(t, f.catalog.DeleteFacilitator(f.ctx, fac.ID))
	assertKind(t, f.catalog.DeleteRoom(f.ctx, room.ID), apperr.KindNotFound, ErrRoomNotFound)
}

// ─── Participants ────────────────────────────────────────────────────────────

func TestParticipantPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 23; i++ {
		f.participant(t, fmt.Sprintf("Person %02d", i))
	}

	page, err := f.participants.List(f.ctx, "", 3)
	require.NoError(t, err)
	assert.Len(t, page.Participants, 3)
	assert.Equal(t, model.Pagination{CurrentPage: 3, TotalPages: 3, TotalItems: 23, ItemsPerPage: 10}, page.Pagination)

	page, err = f.participants.List(f.ctx, "person 1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 10, page.Pagination.TotalItems)

	_, err = f.participants.Create(f.ctx, model.ParticipantRequest{Name: "No phone"})
	assertKind(t, err, apperr.KindInvalidArgument, ErrInvalidInput)
}

// ─── Attendance ──────────────────────────────────────────────────────────────

func TestAttendanceStats(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, 5, 10)
	a, b, outsider := f.participant(t, "Ana"), f.participant(t, "Bruno"), f.participant(t, "Caio")
	for _, p := range []*model.Participant{a, b} {
		_, err := f.enroll(p.ID, course.ID)
		require.NoError(t, err)
	}

	marks := [][2]string{{"present", "absent"}, {"late", "excused"}, {"present", "present"}, {"absent", "present"}}
	for i, m := range marks {
		l, err := f.schedule.CreateList(f.ctx, course.ID, "admin", model.AttendanceListRequest{Date: time.Now().AddDate(0, 0, i)})
		require.NoError(t, err)
		_, err = f.schedule.Mark(f.ctx, l.ID, model.MarkAttendanceRequest{ParticipantID: a.ID, Status: m[0]})
		require.NoError(t, err)
		_, err = f.schedule.Mark(f.ctx, l.ID, model.MarkAttendanceRequest{ParticipantID: b.ID, Status: m[1]})
		require.NoError(t, err)

		_, err = f.schedule.Mark(f.ctx, l.ID, model.MarkAttendanceRequest{ParticipantID: outsider.ID})
		assertKind(t, err, apperr.KindInvalidArgument, ErrNotEnrolled)
	}

	stats, err := f.schedule.Stats(f.ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "Ana", stats[0].ParticipantName)
	assert.Equal(t, 4, stats[0].TotalClasses)
	assert.Equal(t, 2, stats[0].Present)
	assert.Equal(t, 1, stats[0].Late)
	assert.Equal(t, 1, stats[0].Absent)
	assert.InDelta(t, 75.0, stats[0].Rate, 0.001)

	assert.Equal(t, 2, stats[1].Present)
	assert.Equal(t, 1, stats[1].Excused)
	assert.InDelta(t, 50.0, stats[1].Rate, 0.001)

	_, err = f.schedule.CreateList(f.ctx, "missing", "admin", model.AttendanceListRequest{Date: time.Now()})
	assertKind(t, err, apperr.KindNotFound, ErrCourseNotFound)
}

// ─── Settings & reports ──────────────────────────────────────────────────────

func TestSettingsRoundTrip(t *testing.T) {
	f := newFixture(t)

	all, err := f.settings.All(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, f.settings.Set(f.ctx, "center_name", model.SettingRequest{Value: "Casa"}))
	all, err = f.settings.All(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"center_name": "Casa"}, all)

	assertKind(t, f.settings.Set(f.ctx, " ", model.SettingRequest{}), apperr.KindInvalidArgument, ErrInvalidInput)
}

func TestDashboardAndFinance(t *testing.T) {
	f := newFixture(t)
	yoga := f.course(t, 1, 100)
	dance := f.course(t, 5, 50)
	a, b, c := f.participant(t, "A"), f.participant(t, "B"), f.participant(t, "C")

	// A pays yoga in full, B dances for free, C is enrolled in dance with no payment.
	pay, err := f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: a.ID, CourseID: yoga.ID, Method: "pix"})
	require.NoError(t, err)
	_, err = f.payments.Transition(f.ctx, pay.ID, model.PaymentStatusRequest{Status: "paid"})
	require.NoError(t, err)
	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: b.ID, CourseID: dance.ID, Discount: 50, Method: "free"})
	require.NoError(t, err)
	_, err = f.enroll(c.ID, dance.ID)
	require.NoError(t, err)
	_, err = f.payments.Record(f.ctx, model.PaymentRequest{ParticipantID: c.ID, CourseID: yoga.ID, Discount: 10})
	require.NoError(t, err)

	stats, err := f.reports.Dashboard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DashboardStats{
		Courses: 2, FullCourses: 1, Participants: 3, ActiveEnrollments: 3, PendingPayments: 1, Revenue: 100,
	}, stats)

	report, err := f.reports.Finance(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.Totals.Revenue)
	assert.Equal(t, 90.0, report.Totals.Pending)
	assert.Equal(t, 1, report.Totals.FreeCount)
	require.Len(t, report.RevenueByCourse, 2)
	assert.Equal(t, yoga.ID, report.RevenueByCourse[0].CourseID)

	byID := map[string]model.CourseFinance{}
	for _, cf := range report.Courses {
		byID[cf.CourseID] = cf
	}
	assert.Equal(t, 1, byID[yoga.ID].Paying)
	assert.Equal(t, 100.0, byID[yoga.ID].Revenue)
	assert.Equal(t, 2, byID[dance.ID].Enrollments)
	assert.Equal(t, 1, byID[dance.ID].NonPaying)
	assert.Equal(t, 1, byID[dance.ID].WithoutPayment)

	// Cached until a write invalidates it.
	require.NoError(t, f.store.SetCourseFull(f.ctx, dance.ID, true))
	stats, err = f.reports.Dashboard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FullCourses)

	_, err = f.enrollments.RecomputeCourseFull(f.ctx, dance.ID)
	require.NoError(t, err)
	stats, err = f.reports.Dashboard(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FullCourses)
}

func TestUpstreamErrorsAreUnclassified(t *testing.T) {
	err := lookup(errors.New("connection reset"), ErrCourseNotFound, "course", "x")
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.NotErrorIs(t, err, ErrCourseNotFound)
}
