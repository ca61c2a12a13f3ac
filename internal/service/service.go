// Package service implements the course center's business rules on top of
// the repository layer: enrollment and payment reconciliation, cascade
// deletes, and the cached read models behind the dashboard and reports.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
	"github.com/Shivanand-hulikatti/coursedesk/internal/tracing"
)

// Domain failures. Each is returned wrapped in an *apperr.Error carrying
// its kind, so callers may match either.
var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrFacilitatorNotFound = errors.New("facilitator not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrListNotFound        = errors.New("attendance list not found")

	ErrCourseFull       = errors.New("course is full")
	ErrAlreadyEnrolled  = errors.New("already enrolled")
	ErrNotEnrolled      = errors.New("not enrolled")
	ErrDuplicatePending = errors.New("a pending payment already exists")
	ErrInUse            = errors.New("still in use")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrInvalidInput      = errors.New("invalid input")
)

// Cache keys and invalidation patterns.
const (
	keyCoursesList     = "courses:list"
	keyEnrollmentsList = "enrollments:list"
	keySettings        = "settings:all"
	keyDashboard       = "painel:stats"
	keyFinance         = "finance:report"

	patternCourses      = "courses"
	patternEnrollments  = "enrollments"
	patternParticipants = "participants"
	patternFinance      = "finance"
	patternSettings     = "settings"
)

// Recorder receives reconciliation outcomes. *metrics.Collector satisfies it.
type Recorder interface {
	Reconciled(op, outcome string)
	CourseFilled()
}

type noopRecorder struct{}

func (noopRecorder) Reconciled(string, string) {}
func (noopRecorder) CourseFilled()             {}

// Deps are the collaborators every service shares.
type Deps struct {
	Store   repository.Store
	Cache   *cache.Cache
	Metrics Recorder
	// Now is the wall clock; tests may pin it.
	Now func() time.Time
}

// Services bundles every use case over one set of Deps.
type Services struct {
	Courses      *CourseService
	Participants *ParticipantService
	Enrollments  *EnrollmentService
	Payments     *PaymentService
	Catalog      *CatalogService
	Schedule     *ScheduleService
	Settings     *SettingsService
	Reports      *ReportService
}

// New builds all services sharing d. A nil d.Cache gets one shared cache
// rather than one per service.
func New(d Deps) *Services {
	if d.Cache == nil {
		d.Cache = cache.New(cache.Options{})
	}
	return &Services{
		Courses:      NewCourseService(d),
		Participants: NewParticipantService(d),
		Enrollments:  NewEnrollmentService(d),
		Payments:     NewPaymentService(d),
		Catalog:      NewCatalogService(d),
		Schedule:     NewScheduleService(d),
		Settings:     NewSettingsService(d),
		Reports:      NewReportService(d),
	}
}

type base struct {
	store   repository.Store
	cache   *cache.Cache
	metrics Recorder
	now     func() time.Time
	tracer  trace.Tracer
}

func newBase(d Deps) base {
	b := base{store: d.Store, cache: d.Cache, metrics: d.Metrics, now: d.Now, tracer: tracing.Tracer("service")}
	if b.metrics == nil {
		b.metrics = noopRecorder{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.cache == nil {
		b.cache = cache.New(cache.Options{})
	}
	return b
}

func (b *base) timestamp() time.Time {
	return b.now().UTC()
}

func newID() string {
	return uuid.New().String()
}

// start opens a span; finish closes it and records the outcome.
func (b *base) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, op)
}

func (b *base) finish(span trace.Span, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	b.metrics.Reconciled(op, outcome)
	span.End()
}

// invalidate drops exact keys and every key containing one of patterns.
func (b *base) invalidate(keys []string, patterns ...string) {
	for _, k := range keys {
		b.cache.Invalidate(k)
	}
	for _, p := range patterns {
		b.cache.InvalidatePattern(p)
	}
}

// enrollmentsChanged is the invalidation set for any write touching
// enrollments or course seats.
func (b *base) enrollmentsChanged() {
	b.invalidate([]string{keyDashboard}, patternEnrollments, patternCourses, patternFinance)
}

func (b *base) paymentsChanged() {
	b.invalidate([]string{keyDashboard}, patternFinance, patternEnrollments, patternCourses)
}

// lookup classifies a repository read failure. A missing row becomes a
// NotFound carrying sentinel; anything else is an upstream failure.
func lookup(err error, sentinel error, what, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(sentinel, "%s %s", what, id)
	}
	return pkgerrors.Wrapf(err, "load %s %s", what, id)
}

// recomputeFull sets course.IsFull from the active enrollment count and
// returns the count. Callers run it inside the unit of work that changed
// the count.
func (b *base) recomputeFull(ctx context.Context, q repository.Queries, course *model.Course) (int, error) {
	active, err := q.CountActiveEnrollments(ctx, course.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "count active enrollments")
	}
	full := course.FullAt(active)
	if full != course.IsFull {
		if err := q.SetCourseFull(ctx, course.ID, full); err != nil {
			return 0, pkgerrors.Wrap(err, "set course full")
		}
		if full {
			b.metrics.CourseFilled()
		}
		course.IsFull = full
	}
	return active, nil
}

func invalid(format string, args ...any) error {
	return apperr.Invalid(ErrInvalidInput, format, args...)
}
