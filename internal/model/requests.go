package model

import "time"

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	Capacity        int        `json:"capacity"`
	DurationMinutes int        `json:"duration_minutes"`
	Weekday         string     `json:"weekday"`
	StartDate       *time.Time `json:"start_date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	RoomID          *string    `json:"room_id"`
	FacilitatorID   *string    `json:"facilitator_id"`
}

// ParticipantRequest is the payload for creating a participant.
type ParticipantRequest struct {
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	Role      string     `json:"role"`
	Birthdate *time.Time `json:"birthdate"`
}

// EnrollRequest enrolls a participant. Amount defaults to the course price.
type EnrollRequest struct {
	ParticipantID string   `json:"participant_id"`
	CourseID      string   `json:"course_id"`
	Amount        *float64 `json:"amount"`
	Notes         string   `json:"notes"`
}

// UnenrollRequest ends an active enrollment. Purge deletes the row instead
// of stamping it cancelled.
type UnenrollRequest struct {
	ParticipantID string `json:"participant_id"`
	CourseID      string `json:"course_id"`
	Purge         bool   `json:"purge"`
}

// EnrollmentStatusRequest changes the status of an enrollment by id.
type EnrollmentStatusRequest struct {
	Status string `json:"status"`
}

// PaymentRequest records a payment. Amount defaults to the course price.
type PaymentRequest struct {
	ParticipantID string   `json:"participant_id"`
	CourseID      string   `json:"course_id"`
	Amount        *float64 `json:"amount"`
	Discount      float64  `json:"discount"`
	Method        string   `json:"method"`
	Notes         string   `json:"notes"`
}

// PaymentStatusRequest transitions a payment.
type PaymentStatusRequest struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Notes         string `json:"notes"`
}

// RoomRequest is the payload for creating a room.
type RoomRequest struct {
	Name        string `json:"name"`
	Number      int    `json:"number"`
	Description string `json:"description"`
	Capacity    *int   `json:"capacity"`
}

// FacilitatorRequest is the payload for creating a facilitator.
type FacilitatorRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// AppointmentRequest is the payload for creating an appointment.
type AppointmentRequest struct {
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Reason        string    `json:"reason"`
	StartsAt      time.Time `json:"starts_at"`
	FacilitatorID *string   `json:"facilitator_id"`
	RoomID        *string   `json:"room_id"`
	ParticipantID *string   `json:"participant_id"`
}

// AttendanceListRequest opens an attendance list for a course meeting.
type AttendanceListRequest struct {
	Date  time.Time `json:"date"`
	Notes string    `json:"notes"`
}

// MarkAttendanceRequest marks one participant on a list.
type MarkAttendanceRequest struct {
	ParticipantID string `json:"participant_id"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
}

// SettingRequest sets one system setting.
type SettingRequest struct {
	Value string `json:"value"`
}

// LoginRequest carries credentials for a session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewUserRequest creates a back-office account.
type NewUserRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
}
