package auth

import (
	"errors"
	"sort"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
)

// Capability is a named permission granted to one or more roles.
type Capability string

const (
	CoursesView              Capability = "courses.view"
	CoursesCreate            Capability = "courses.create"
	CoursesUpdate            Capability = "courses.update"
	CoursesDelete            Capability = "courses.delete"
	CoursesEnroll            Capability = "courses.enroll"
	CoursesManageEnrollments Capability = "courses.manage_enrollments"

	RoomsView   Capability = "rooms.view"
	RoomsManage Capability = "rooms.manage"

	ParticipantsView   Capability = "participants.view"
	ParticipantsManage Capability = "participants.manage"

	PaymentsView   Capability = "payments.view"
	PaymentsManage Capability = "payments.manage"
	PaymentsRefund Capability = "payments.refund"

	AttendanceManage   Capability = "attendance.manage"
	AppointmentsManage Capability = "appointments.manage"
	ReportsView        Capability = "reports.view"

	UsersView   Capability = "users.view"
	UsersCreate Capability = "users.create"

	SystemSettings Capability = "system.settings"
	SystemCache    Capability = "system.cache"
)

// ErrUnknownCapability is returned by ParseCapability.
var ErrUnknownCapability = errors.New("unknown capability")

var roleCapabilities = map[model.Role][]Capability{
	model.RoleAdmin: {
		CoursesView, CoursesCreate, CoursesUpdate, CoursesDelete, CoursesEnroll, CoursesManageEnrollments,
		RoomsView, RoomsManage,
		ParticipantsView, ParticipantsManage,
		PaymentsView, PaymentsManage, PaymentsRefund,
		AttendanceManage, AppointmentsManage, ReportsView,
		UsersView, UsersCreate,
		SystemSettings, SystemCache,
	},
	// Managers run the center day to day but cannot refund, create
	// accounts or touch system settings.
	model.RoleManager: {
		CoursesView, CoursesCreate, CoursesUpdate, CoursesDelete, CoursesManageEnrollments,
		RoomsView, RoomsManage,
		ParticipantsView, ParticipantsManage,
		PaymentsView, PaymentsManage,
		AttendanceManage, AppointmentsManage, ReportsView,
		UsersView,
	},
	model.RoleUser: {
		CoursesView, CoursesEnroll,
		RoomsView,
	},
	model.RoleGuest: {
		CoursesView,
		RoomsView,
	},
}

var known = func() map[Capability]bool {
	m := map[Capability]bool{}
	for _, caps := range roleCapabilities {
		for _, c := range caps {
			m[c] = true
		}
	}
	return m
}()

// ParseCapability validates s against the capability table.
func ParseCapability(s string) (Capability, error) {
	if c := Capability(s); known[c] {
		return c, nil
	}
	return "", apperr.Invalid(ErrUnknownCapability, "capability %q", s)
}

// Capabilities returns the role's capabilities in sorted order.
func Capabilities(role model.Role) []Capability {
	out := append([]Capability(nil), roleCapabilities[role]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasCapability reports whether role grants c.
func HasCapability(role model.Role, c Capability) bool {
	for _, have := range roleCapabilities[role] {
		if have == c {
			return true
		}
	}
	return false
}

// HasAll reports whether role grants every capability in caps.
func HasAll(role model.Role, caps ...Capability) bool {
	for _, c := range caps {
		if !HasCapability(role, c) {
			return false
		}
	}
	return true
}

// HasAny reports whether role grants at least one capability in caps.
func HasAny(role model.Role, caps ...Capability) bool {
	for _, c := range caps {
		if HasCapability(role, c) {
			return true
		}
	}
	return false
}
