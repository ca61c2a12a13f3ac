package model

import (
	"errors"
	"strings"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
)

// ErrUnknownValue is returned when a string does not name a member of one of
// the enumerated types below.
var ErrUnknownValue = errors.New("unknown value")

// EnrollmentStatus is the lifecycle state of an enrollment. Only active
// enrollments count toward course capacity.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentDropped   EnrollmentStatus = "dropped"
	EnrollmentPending   EnrollmentStatus = "pending"
)

// ParseEnrollmentStatus validates s at the boundary.
func ParseEnrollmentStatus(s string) (EnrollmentStatus, error) {
	switch v := EnrollmentStatus(strings.TrimSpace(s)); v {
	case EnrollmentActive, EnrollmentCompleted, EnrollmentCancelled, EnrollmentDropped, EnrollmentPending:
		return v, nil
	}
	return "", apperr.Invalid(ErrUnknownValue, "enrollment status %q", s)
}

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

// ParsePaymentStatus validates s at the boundary.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch v := PaymentStatus(strings.TrimSpace(s)); v {
	case PaymentPending, PaymentPaid, PaymentCancelled, PaymentRefunded:
		return v, nil
	}
	return "", apperr.Invalid(ErrUnknownValue, "payment status %q", s)
}

// PaymentMethod records how a payment was settled. The zero value means no
// method was given. MethodFree marks courtesy enrollments that are paid on
// creation.
type PaymentMethod string

const (
	MethodNone         PaymentMethod = ""
	MethodPix          PaymentMethod = "pix"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodBoleto       PaymentMethod = "boleto"
	MethodCash         PaymentMethod = "cash"
	MethodFree         PaymentMethod = "free"
)

// ParsePaymentMethod validates s at the boundary. An empty string is
// accepted and yields MethodNone.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch v := PaymentMethod(strings.TrimSpace(s)); v {
	case MethodNone, MethodPix, MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodBoleto, MethodCash, MethodFree:
		return v, nil
	}
	return "", apperr.Invalid(ErrUnknownValue, "payment method %q", s)
}

// AttendanceStatus is the mark a participant receives on an attendance list.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// ParseAttendanceStatus validates s; empty defaults to present.
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch v := AttendanceStatus(strings.TrimSpace(s)); v {
	case "":
		return AttendancePresent, nil
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return v, nil
	}
	return "", apperr.Invalid(ErrUnknownValue, "attendance status %q", s)
}

// Role is the authorization role of a back-office user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
	RoleGuest   Role = "guest"
)

// ParseRole validates s; empty defaults to user.
func ParseRole(s string) (Role, error) {
	switch v := Role(strings.TrimSpace(strings.ToLower(s))); v {
	case "":
		return RoleUser, nil
	case RoleAdmin, RoleManager, RoleUser, RoleGuest:
		return v, nil
	}
	return "", apperr.Invalid(ErrUnknownValue, "role %q", s)
}

// Weekday is the day a course meets on. Empty means unscheduled.
type Weekday string

var weekdays = map[Weekday]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// ParseWeekday validates s; empty is allowed.
func ParseWeekday(s string) (Weekday, error) {
	v := Weekday(strings.TrimSpace(strings.ToLower(s)))
	if v == "" || weekdays[v] {
		return v, nil
	}
	return "", apperr.Invalid(ErrUnknownValue, "weekday %q", s)
}
