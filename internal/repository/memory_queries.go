package repository

import (
	"context"

	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
)

// Outside InTx every MemoryStore call takes the lock for just that call.

func (s *MemoryStore) CreateCourse(ctx context.Context, c *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateCourse(ctx, c)
}

func (s *MemoryStore) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetCourse(ctx, id)
}

func (s *MemoryStore) LockCourse(ctx context.Context, id string) (*model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.LockCourse(ctx, id)
}

func (s *MemoryStore) ListCourses(ctx context.Context) ([]model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListCourses(ctx)
}

func (s *MemoryStore) UpdateCourse(ctx context.Context, c *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateCourse(ctx, c)
}

func (s *MemoryStore) SetCourseFull(ctx context.Context, id string, full bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.SetCourseFull(ctx, id, full)
}

func (s *MemoryStore) DeleteCourse(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteCourse(ctx, id)
}

func (s *MemoryStore) CountCoursesByRoom(ctx context.Context, roomID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CountCoursesByRoom(ctx, roomID)
}

func (s *MemoryStore) CountCoursesByFacilitator(ctx context.Context, facilitatorID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CountCoursesByFacilitator(ctx, facilitatorID)
}

func (s *MemoryStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateParticipant(ctx, p)
}

func (s *MemoryStore) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetParticipant(ctx, id)
}

func (s *MemoryStore) ListParticipants(ctx context.Context, f ParticipantFilter) ([]model.Participant, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListParticipants(ctx, f)
}

func (s *MemoryStore) DeleteParticipant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteParticipant(ctx, id)
}

func (s *MemoryStore) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateEnrollment(ctx, e)
}

func (s *MemoryStore) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetEnrollment(ctx, id)
}

func (s *MemoryStore) ListEnrollments(ctx context.Context, f EnrollmentFilter) ([]model.EnrollmentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListEnrollments(ctx, f)
}

func (s *MemoryStore) CountActiveEnrollments(ctx context.Context, courseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CountActiveEnrollments(ctx, courseID)
}

func (s *MemoryStore) UpdateEnrollment(ctx context.Context, e *model.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateEnrollment(ctx, e)
}

func (s *MemoryStore) DeleteEnrollment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteEnrollment(ctx, id)
}

func (s *MemoryStore) DeleteEnrollmentsByParticipant(ctx context.Context, participantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteEnrollmentsByParticipant(ctx, participantID)
}

func (s *MemoryStore) DeleteEnrollmentsByCourse(ctx context.Context, courseID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteEnrollmentsByCourse(ctx, courseID)
}

func (s *MemoryStore) CreatePayment(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreatePayment(ctx, p)
}

func (s *MemoryStore) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetPayment(ctx, id)
}

func (s *MemoryStore) ListPayments(ctx context.Context, f PaymentFilter) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListPayments(ctx, f)
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdatePayment(ctx, p)
}

func (s *MemoryStore) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeletePayment(ctx, id)
}

func (s *MemoryStore) DeletePaymentsByParticipant(ctx context.Context, participantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeletePaymentsByParticipant(ctx, participantID)
}

func (s *MemoryStore) DeletePaymentsByCourse(ctx context.Context, courseID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeletePaymentsByCourse(ctx, courseID)
}

func (s *MemoryStore) CreateRoom(ctx context.Context, r *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateRoom(ctx, r)
}

func (s *MemoryStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListRooms(ctx)
}

func (s *MemoryStore) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteRoom(ctx, id)
}

func (s *MemoryStore) CreateFacilitator(ctx context.Context, f *model.Facilitator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateFacilitator(ctx, f)
}

func (s *MemoryStore) ListFacilitators(ctx context.Context) ([]model.Facilitator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListFacilitators(ctx)
}

func (s *MemoryStore) DeleteFacilitator(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteFacilitator(ctx, id)
}

func (s *MemoryStore) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateAppointment(ctx, a)
}

func (s *MemoryStore) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListAppointments(ctx)
}

func (s *MemoryStore) DeleteAppointment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteAppointment(ctx, id)
}

func (s *MemoryStore) ClearAppointmentParticipant(ctx context.Context, participantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ClearAppointmentParticipant(ctx, participantID)
}

func (s *MemoryStore) CreateAttendanceList(ctx context.Context, l *model.AttendanceList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateAttendanceList(ctx, l)
}

func (s *MemoryStore) GetAttendanceList(ctx context.Context, id string) (*model.AttendanceList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetAttendanceList(ctx, id)
}

func (s *MemoryStore) ListAttendanceLists(ctx context.Context, courseID string) ([]model.AttendanceList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListAttendanceLists(ctx, courseID)
}

func (s *MemoryStore) UpsertAttendanceRecord(ctx context.Context, r *model.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpsertAttendanceRecord(ctx, r)
}

func (s *MemoryStore) ListAttendanceRecords(ctx context.Context, courseID string) ([]model.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListAttendanceRecords(ctx, courseID)
}

func (s *MemoryStore) DeleteAttendanceRecordsByParticipant(ctx context.Context, participantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteAttendanceRecordsByParticipant(ctx, participantID)
}

func (s *MemoryStore) DeleteAttendanceRecordsByCourse(ctx context.Context, courseID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteAttendanceRecordsByCourse(ctx, courseID)
}

func (s *MemoryStore) DeleteAttendanceListsByCourse(ctx context.Context, courseID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteAttendanceListsByCourse(ctx, courseID)
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateUser(ctx, u)
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetUser(ctx, id)
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetUserByEmail(ctx, email)
}

func (s *MemoryStore) ListSettings(ctx context.Context) ([]model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListSettings(ctx)
}

func (s *MemoryStore) SetSetting(ctx context.Context, setting model.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.SetSetting(ctx, setting)
}
