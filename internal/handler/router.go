package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
)

// Router builds the chi router with the global middleware stack and every
// API route behind authentication and its capability check.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(h.opts.Logger))
	if h.opts.Metrics != nil {
		r.Use(Instrument(h.opts.Metrics))
	}
	r.Use(CORS(h.opts.CORSOrigin))

	r.Get("/health", h.HealthCheck)
	if h.opts.MetricsHandler != nil && h.opts.MetricsPath != "" {
		r.Handle(h.opts.MetricsPath, h.opts.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(h.mw.Authenticate).Get("/me", h.Me)
	})

	can := h.mw.RequireCapability

	r.Route("/api", func(r chi.Router) {
		r.Use(h.mw.Authenticate)

		r.Route("/courses", func(r chi.Router) {
			r.With(can(auth.CoursesView)).Get("/", h.ListCourses)
			r.With(can(auth.CoursesCreate)).Post("/", h.CreateCourse)
			r.With(can(auth.CoursesView)).Get("/{id}", h.GetCourse)
			r.With(can(auth.CoursesUpdate)).Put("/{id}", h.UpdateCourse)
			r.With(can(auth.CoursesDelete)).Delete("/{id}", h.DeleteCourse)
			r.With(can(auth.CoursesManageEnrollments)).Post("/{id}/recompute", h.RecomputeCourse)

			r.With(can(auth.AttendanceManage)).Get("/{id}/attendance", h.ListAttendanceLists)
			r.With(can(auth.AttendanceManage)).Post("/{id}/attendance", h.CreateAttendanceList)
			r.With(can(auth.AttendanceManage, auth.ReportsView)).Get("/{id}/attendance/stats", h.AttendanceStats)
		})

		r.Route("/enrollments", func(r chi.Router) {
			r.With(can(auth.CoursesManageEnrollments)).Get("/", h.ListEnrollments)
			r.With(can(auth.CoursesEnroll, auth.CoursesManageEnrollments)).Post("/", h.Enroll)
			r.With(can(auth.CoursesManageEnrollments)).Post("/unenroll", h.Unenroll)
			r.With(can(auth.CoursesManageEnrollments)).Patch("/{id}/status", h.UpdateEnrollmentStatus)
		})

		r.Route("/participants", func(r chi.Router) {
			r.With(can(auth.ParticipantsView)).Get("/", h.ListParticipants)
			r.With(can(auth.ParticipantsManage)).Post("/", h.CreateParticipant)
			r.With(can(auth.ParticipantsView)).Get("/{id}", h.GetParticipant)
			r.With(can(auth.ParticipantsManage)).Delete("/{id}", h.DeleteParticipant)
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(can(auth.PaymentsView)).Get("/", h.ListPayments)
			r.With(can(auth.PaymentsManage)).Post("/", h.RecordPayment)
			r.With(can(auth.PaymentsView)).Get("/{id}", h.GetPayment)
			r.With(can(auth.PaymentsManage, auth.PaymentsRefund)).Patch("/{id}/status", h.TransitionPayment)
			r.With(can(auth.PaymentsManage)).Delete("/{id}", h.DeletePayment)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.With(can(auth.RoomsView)).Get("/", h.ListRooms)
			r.With(can(auth.RoomsManage)).Post("/", h.CreateRoom)
			r.With(can(auth.RoomsManage)).Delete("/{id}", h.DeleteRoom)
		})

		r.Route("/facilitators", func(r chi.Router) {
			r.With(can(auth.CoursesView)).Get("/", h.ListFacilitators)
			r.With(can(auth.CoursesUpdate)).Post("/", h.CreateFacilitator)
			r.With(can(auth.CoursesUpdate)).Delete("/{id}", h.DeleteFacilitator)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Use(can(auth.AppointmentsManage))
			r.Get("/", h.ListAppointments)
			r.Post("/", h.CreateAppointment)
			r.Delete("/{id}", h.DeleteAppointment)
		})

		r.With(can(auth.AttendanceManage)).Post("/attendance/{listID}/marks", h.MarkAttendance)

		r.With(can(auth.ReportsView)).Get("/dashboard", h.Dashboard)
		r.With(can(auth.ReportsView)).Get("/finance", h.Finance)

		r.Route("/settings", func(r chi.Router) {
			r.Use(can(auth.SystemSettings))
			r.Get("/", h.ListSettings)
			r.Put("/{key}", h.SetSetting)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(can(auth.SystemCache)).Get("/cache", h.CacheStats)
			r.With(can(auth.SystemCache)).Delete("/cache", h.ClearCache)
			r.With(can(auth.UsersCreate)).Post("/users", h.CreateUser)
		})
	})

	return r
}
