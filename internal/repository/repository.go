// Package repository implements persistence for the course center.
// Store is the unit-of-work boundary the service layer runs its
// reconciliation rules inside; PostgresStore uses pgx directly (no ORM) and
// MemoryStore keeps everything in process for tests and local runs.
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write violates a uniqueness rule.
var ErrDuplicate = errors.New("duplicate")

// ErrReferenced is returned when a delete would orphan rows that still
// reference the target.
var ErrReferenced = errors.New("still referenced")

// ParticipantFilter narrows the participant directory.
type ParticipantFilter struct {
	Search string
	Limit  int
	Offset int
}

// EnrollmentFilter narrows enrollment listings. Zero fields match anything.
type EnrollmentFilter struct {
	CourseID      string
	ParticipantID string
	Status        model.EnrollmentStatus
}

// PaymentFilter narrows payment listings. Zero fields match anything.
type PaymentFilter struct {
	CourseID      string
	ParticipantID string
	Status        model.PaymentStatus
}

// Queries is every read and write the services need. Implementations are
// either bound to a pool or to an open transaction.
type Queries interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	// LockCourse reads a course and holds it against concurrent
	// reconciliation until the surrounding unit of work ends.
	LockCourse(ctx context.Context, id string) (*model.Course, error)
	ListCourses(ctx context.Context) ([]model.Course, error)
	UpdateCourse(ctx context.Context, c *model.Course) error
	SetCourseFull(ctx context.Context, id string, full bool) error
	DeleteCourse(ctx context.Context, id string) error
	CountCoursesByRoom(ctx context.Context, roomID string) (int, error)
	CountCoursesByFacilitator(ctx context.Context, facilitatorID string) (int, error)

	CreateParticipant(ctx context.Context, p *model.Participant) error
	GetParticipant(ctx context.Context, id string) (*model.Participant, error)
	ListParticipants(ctx context.Context, f ParticipantFilter) ([]model.Participant, int, error)
	DeleteParticipant(ctx context.Context, id string) error

	CreateEnrollment(ctx context.Context, e *model.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error)
	ListEnrollments(ctx context.Context, f EnrollmentFilter) ([]model.EnrollmentView, error)
	CountActiveEnrollments(ctx context.Context, courseID string) (int, error)
	UpdateEnrollment(ctx context.Context, e *model.Enrollment) error
	DeleteEnrollment(ctx context.Context, id string) error
	DeleteEnrollmentsByParticipant(ctx context.Context, participantID string) (int64, error)
	DeleteEnrollmentsByCourse(ctx context.Context, courseID string) (int64, error)

	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ListPayments(ctx context.Context, f PaymentFilter) ([]model.Payment, error)
	UpdatePayment(ctx context.Context, p *model.Payment) error
	DeletePayment(ctx context.Context, id string) error
	DeletePaymentsByParticipant(ctx context.Context, participantID string) (int64, error)
	DeletePaymentsByCourse(ctx context.Context, courseID string) (int64, error)

	CreateRoom(ctx context.Context, r *model.Room) error
	ListRooms(ctx context.Context) ([]model.Room, error)
	DeleteRoom(ctx context.Context, id string) error

	CreateFacilitator(ctx context.Context, f *model.Facilitator) error
	ListFacilitators(ctx context.Context) ([]model.Facilitator, error)
	DeleteFacilitator(ctx context.Context, id string) error

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	ClearAppointmentParticipant(ctx context.Context, participantID string) (int64, error)

	CreateAttendanceList(ctx context.Context, l *model.AttendanceList) error
	GetAttendanceList(ctx context.Context, id string) (*model.AttendanceList, error)
	ListAttendanceLists(ctx context.Context, courseID string) ([]model.AttendanceList, error)
	UpsertAttendanceRecord(ctx context.Context, r *model.AttendanceRecord) error
	ListAttendanceRecords(ctx context.Context, courseID string) ([]model.AttendanceRecord, error)
	DeleteAttendanceRecordsByParticipant(ctx context.Context, participantID string) (int64, error)
	DeleteAttendanceRecordsByCourse(ctx context.Context, courseID string) (int64, error)
	DeleteAttendanceListsByCourse(ctx context.Context, courseID string) (int64, error)

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	ListSettings(ctx context.Context) ([]model.Setting, error)
	SetSetting(ctx context.Context, s model.Setting) error
}

// Store is a Queries bound to the pool plus a unit of work. InTx commits
// when fn returns nil and rolls back otherwise.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
	Close()
}
