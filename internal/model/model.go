// Package model defines the core domain types for the course center back office.
package model

import "time"

// Course is a scheduled offering with a fixed number of seats.
// IsFull is a stored flag kept equal to (active enrollments >= Capacity)
// by the enrollment service.
type Course struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	Capacity        int        `json:"capacity"`
	IsFull          bool       `json:"is_full"`
	DurationMinutes int        `json:"duration_minutes"`
	Weekday         Weekday    `json:"weekday,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	StartTime       string     `json:"start_time,omitempty"`
	EndTime         string     `json:"end_time,omitempty"`
	RoomID          *string    `json:"room_id,omitempty"`
	FacilitatorID   *string    `json:"facilitator_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Remaining returns the number of seats left given the active enrollment count.
func (c *Course) Remaining(active int) int {
	if n := c.Capacity - active; n > 0 {
		return n
	}
	return 0
}

// FullAt reports whether active enrollments exhaust the course.
func (c *Course) FullAt(active int) bool {
	return active >= c.Capacity
}

// Participant is a person who takes courses.
type Participant struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address,omitempty"`
	Role      string     `json:"role,omitempty"`
	Birthdate *time.Time `json:"birthdate,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Enrollment ties a participant to a course. At most one active enrollment
// exists per (participant, course) pair.
type Enrollment struct {
	ID            string           `json:"id"`
	CourseID      string           `json:"course_id"`
	ParticipantID string           `json:"participant_id"`
	Status        EnrollmentStatus `json:"status"`
	Amount        float64          `json:"amount"`
	Notes         string           `json:"notes,omitempty"`
	EnrolledAt    time.Time        `json:"enrolled_at"`
	CancelledAt   *time.Time       `json:"cancelled_at,omitempty"`
}

// EnrollmentView is an enrollment joined with the names shown in listings.
type EnrollmentView struct {
	Enrollment
	CourseName       string `json:"course_name"`
	ParticipantName  string `json:"participant_name"`
	ParticipantPhone string `json:"participant_phone"`
}

// Payment records money owed or received for a course.
// FinalAmount is always Amount - Discount and never negative.
type Payment struct {
	ID            string        `json:"id"`
	ParticipantID string        `json:"participant_id"`
	CourseID      string        `json:"course_id"`
	EnrollmentID  *string       `json:"enrollment_id,omitempty"`
	Amount        float64       `json:"amount"`
	Discount      float64       `json:"discount"`
	FinalAmount   float64       `json:"final_amount"`
	Status        PaymentStatus `json:"status"`
	Method        PaymentMethod `json:"method,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
}

// Room is a physical space courses and appointments take place in.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Number      int       `json:"number"`
	Description string    `json:"description,omitempty"`
	Capacity    *int      `json:"capacity,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Facilitator teaches courses.
type Facilitator struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Appointment is a one-off meeting. Its references are optional and are
// cleared, not cascaded, when the referenced participant is deleted.
type Appointment struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	FacilitatorID *string   `json:"facilitator_id,omitempty"`
	RoomID        *string   `json:"room_id,omitempty"`
	ParticipantID *string   `json:"participant_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AttendanceList is one class meeting of a course.
type AttendanceList struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceRecord is a participant's mark on an attendance list.
type AttendanceRecord struct {
	ID            string           `json:"id"`
	ListID        string           `json:"list_id"`
	ParticipantID string           `json:"participant_id"`
	Status        AttendanceStatus `json:"status"`
	Notes         string           `json:"notes,omitempty"`
	MarkedAt      time.Time        `json:"marked_at"`
}

// User is a back-office account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Setting is a key/value system setting.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
