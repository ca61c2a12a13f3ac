package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store. Units of work are serialised by a
// single mutex and rolled back by restoring a snapshot, so it gives the
// same all-or-nothing behaviour as a transaction. Deletes enforce the same
// RESTRICT references as the SQL schema.
type MemoryStore struct {
	mu sync.Mutex
	st *memState
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: newMemState()}
}

// InTx runs fn with exclusive access; any error restores the state that
// existed before fn started.
func (s *MemoryStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(s.st); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

type memState struct {
	courses      map[string]model.Course
	participants map[string]model.Participant
	enrollments  map[string]model.Enrollment
	payments     map[string]model.Payment
	rooms        map[string]model.Room
	facilitators map[string]model.Facilitator
	appointments map[string]model.Appointment
	lists        map[string]model.AttendanceList
	records      map[string]model.AttendanceRecord
	users        map[string]model.User
	settings     map[string]string
}

func newMemState() *memState {
	return &memState{
		courses:      map[string]model.Course{},
		participants: map[string]model.Participant{},
		enrollments:  map[string]model.Enrollment{},
		payments:     map[string]model.Payment{},
		rooms:        map[string]model.Room{},
		facilitators: map[string]model.Facilitator{},
		appointments: map[string]model.Appointment{},
		lists:        map[string]model.AttendanceList{},
		records:      map[string]model.AttendanceRecord{},
		users:        map[string]model.User{},
		settings:     map[string]string{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *memState) clone() *memState {
	return &memState{
		courses:      cloneMap(m.courses),
		participants: cloneMap(m.participants),
		enrollments:  cloneMap(m.enrollments),
		payments:     cloneMap(m.payments),
		rooms:        cloneMap(m.rooms),
		facilitators: cloneMap(m.facilitators),
		appointments: cloneMap(m.appointments),
		lists:        cloneMap(m.lists),
		records:      cloneMap(m.records),
		users:        cloneMap(m.users),
		settings:     cloneMap(m.settings),
	}
}

func values[V any](m map[string]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// ─── Courses ─────────────────────────────────────────────────────────────────

func (m *memState) CreateCourse(_ context.Context, c *model.Course) error {
	if _, ok := m.courses[c.ID]; ok {
		return ErrDuplicate
	}
	if c.RoomID != nil {
		if _, ok := m.rooms[*c.RoomID]; !ok {
			return ErrReferenced
		}
	}
	if c.FacilitatorID != nil {
		if _, ok := m.facilitators[*c.FacilitatorID]; !ok {
			return ErrReferenced
		}
	}
	m.courses[c.ID] = *c
	return nil
}

func (m *memState) GetCourse(_ context.Context, id string) (*model.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memState) LockCourse(ctx context.Context, id string) (*model.Course, error) {
	return m.GetCourse(ctx, id)
}

func (m *memState) ListCourses(context.Context) ([]model.Course, error) {
	out := values(m.courses)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memState) UpdateCourse(_ context.Context, c *model.Course) error {
	if _, ok := m.courses[c.ID]; !ok {
		return ErrNotFound
	}
	m.courses[c.ID] = *c
	return nil
}

func (m *memState) SetCourseFull(_ context.Context, id string, full bool) error {
	c, ok := m.courses[id]
	if !ok {
		return ErrNotFound
	}
	c.IsFull = full
	m.courses[id] = c
	return nil
}

func (m *memState) DeleteCourse(_ context.Context, id string) error {
	if _, ok := m.courses[id]; !ok {
		return ErrNotFound
	}
	for _, e := range m.enrollments {
		if e.CourseID == id {
			return ErrReferenced
		}
	}
	for _, p := range m.payments {
		if p.CourseID == id {
			return ErrReferenced
		}
	}
	for _, l := range m.lists {
		if l.CourseID == id {
			return ErrReferenced
		}
	}
	delete(m.courses, id)
	return nil
}

func (m *memState) CountCoursesByRoom(_ context.Context, roomID string) (int, error) {
	n := 0
	for _, c := range m.courses {
		if c.RoomID != nil && *c.RoomID == roomID {
			n++
		}
	}
	return n, nil
}

func (m *memState) CountCoursesByFacilitator(_ context.Context, facilitatorID string) (int, error) {
	n := 0
	for _, c := range m.courses {
		if c.FacilitatorID != nil && *c.FacilitatorID == facilitatorID {
			n++
		}
	}
	return n, nil
}

// ─── Participants ────────────────────────────────────────────────────────────

func (m *memState) CreateParticipant(_ context.Context, p *model.Participant) error {
	if _, ok := m.participants[p.ID]; ok {
		return ErrDuplicate
	}
	m.participants[p.ID] = *p
	return nil
}

func (m *memState) GetParticipant(_ context.Context, id string) (*model.Participant, error) {
	p, ok := m.participants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memState) ListParticipants(_ context.Context, f ParticipantFilter) ([]model.Participant, int, error) {
	needle := strings.ToLower(f.Search)
	var matched []model.Participant
	for _, p := range m.participants {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Phone), needle) ||
			strings.Contains(strings.ToLower(p.Address), needle) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if f.Limit <= 0 {
		return matched, total, nil
	}
	if f.Offset >= total {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return matched[f.Offset:end], total, nil
}

func (m *memState) DeleteParticipant(_ context.Context, id string) error {
	if _, ok := m.participants[id]; !ok {
		return ErrNotFound
	}
	for _, e := range m.enrollments {
		if e.ParticipantID == id {
			return ErrReferenced
		}
	}
	for _, p := range m.payments {
		if p.ParticipantID == id {
			return ErrReferenced
		}
	}
	for _, r := range m.records {
		if r.ParticipantID == id {
			return ErrReferenced
		}
	}
	for _, a := range m.appointments {
		if a.ParticipantID != nil && *a.ParticipantID == id {
			return ErrReferenced
		}
	}
	delete(m.participants, id)
	return nil
}

// ─── Enrollments ─────────────────────────────────────────────────────────────

func (m *memState) activePairTaken(e *model.Enrollment) bool {
	if e.Status != model.EnrollmentActive {
		return false
	}
	for _, other := range m.enrollments {
		if other.ID != e.ID && other.Status == model.EnrollmentActive &&
			other.CourseID == e.CourseID && other.ParticipantID == e.ParticipantID {
			return true
		}
	}
	return false
}

func (m *memState) CreateEnrollment(_ context.Context, e *model.Enrollment) error {
	if _, ok := m.enrollments[e.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := m.courses[e.CourseID]; !ok {
		return ErrReferenced
	}
	if _, ok := m.participants[e.ParticipantID]; !ok {
		return ErrReferenced
	}
	if m.activePairTaken(e) {
		return ErrDuplicate
	}
	m.enrollments[e.ID] = *e
	return nil
}

func (m *memState) GetEnrollment(_ context.Context, id string) (*model.Enrollment, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *memState) ListEnrollments(_ context.Context, f EnrollmentFilter) ([]model.EnrollmentView, error) {
	var out []model.EnrollmentView
	for _, e := range m.enrollments {
		if f.CourseID != "" && e.CourseID != f.CourseID {
			continue
		}
		if f.ParticipantID != "" && e.ParticipantID != f.ParticipantID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		v := model.EnrollmentView{Enrollment: e}
		if c, ok := m.courses[e.CourseID]; ok {
			v.CourseName = c.Name
		}
		if p, ok := m.participants[e.ParticipantID]; ok {
			v.ParticipantName = p.Name
			v.ParticipantPhone = p.Phone
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].EnrolledAt.After(out[j].EnrolledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memState) CountActiveEnrollments(_ context.Context, courseID string) (int, error) {
	n := 0
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == model.EnrollmentActive {
			n++
		}
	}
	return n, nil
}

func (m *memState) UpdateEnrollment(_ context.Context, e *model.Enrollment) error {
	if _, ok := m.enrollments[e.ID]; !ok {
		return ErrNotFound
	}
	if m.activePairTaken(e) {
		return ErrDuplicate
	}
	m.enrollments[e.ID] = *e
	return nil
}

func (m *memState) DeleteEnrollment(_ context.Context, id string) error {
	if _, ok := m.enrollments[id]; !ok {
		return ErrNotFound
	}
	delete(m.enrollments, id)
	return nil
}

func (m *memState) DeleteEnrollmentsByParticipant(_ context.Context, participantID string) (int64, error) {
	var n int64
	for id, e := range m.enrollments {
		if e.ParticipantID == participantID {
			delete(m.enrollments, id)
			n++
		}
	}
	return n, nil
}

func (m *memState) DeleteEnrollmentsByCourse(_ context.Context, courseID string) (int64, error) {
	var n int64
	for id, e := range m.enrollments {
		if e.CourseID == courseID {
			delete(m.enrollments, id)
			n++
		}
	}
	return n, nil
}

// ─── Payments ────────────────────────────────────────────────────────────────

func (m *memState) CreatePayment(_ context.Context, p *model.Payment) error {
	if _, ok := m.payments[p.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := m.courses[p.CourseID]; !ok {
		return ErrReferenced
	}
	if _, ok := m.participants[p.ParticipantID]; !ok {
		return ErrReferenced
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *memState) GetPayment(_ context.Context, id string) (*model.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memState) ListPayments(_ context.Context, f PaymentFilter) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.payments {
		if f.CourseID != "" && p.CourseID != f.CourseID {
			continue
		}
		if f.ParticipantID != "" && p.ParticipantID != f.ParticipantID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memState) UpdatePayment(_ context.Context, p *model.Payment) error {
	if _, ok := m.payments[p.ID]; !ok {
		return ErrNotFound
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *memState) DeletePayment(_ context.Context, id string) error {
	if _, ok := m.payments[id]; !ok {
		return ErrNotFound
	}
	delete(m.payments, id)
	return nil
}

func (m *memState) DeletePaymentsByParticipant(_ context.Context, participantID string) (int64, error) {
	var n int64
	for id, p := range m.payments {
		if p.ParticipantID == participantID {
			delete(m.payments, id)
			n++
		}
	}
	return n, nil
}

func (m *memState) DeletePaymentsByCourse(_ context.Context, courseID string) (int64, error) {
	var n int64
	for id, p := range m.payments {
		if p.CourseID == courseID {
			delete(m.payments, id)
			n++
		}
	}
	return n, nil
}

// ─── Rooms & facilitators ────────────────────────────────────────────────────

func (m *memState) CreateRoom(_ context.Context, r *model.Room) error {
	if _, ok := m.rooms[r.ID]; ok {
		return ErrDuplicate
	}
	m.rooms[r.ID] = *r
	return nil
}

func (m *memState) ListRooms(context.Context) ([]model.Room, error) {
	out := values(m.rooms)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memState) DeleteRoom(_ context.Context, id string) error {
	if _, ok := m.rooms[id]; !ok {
		return ErrNotFound
	}
	for _, c := range m.courses {
		if c.RoomID != nil && *c.RoomID == id {
			return ErrReferenced
		}
	}
	for _, a := range m.appointments {
		if a.RoomID != nil && *a.RoomID == id {
			return ErrReferenced
		}
	}
	delete(m.rooms, id)
	return nil
}

func (m *memState) CreateFacilitator(_ context.Context, f *model.Facilitator) error {
	if _, ok := m.facilitators[f.ID]; ok {
		return ErrDuplicate
	}
	m.facilitators[f.ID] = *f
	return nil
}

func (m *memState) ListFacilitators(context.Context) ([]model.Facilitator, error) {
	out := values(m.facilitators)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memState) DeleteFacilitator(_ context.Context, id string) error {
	if _, ok := m.facilitators[id]; !ok {
		return ErrNotFound
	}
	for _, c := range m.courses {
		if c.FacilitatorID != nil && *c.FacilitatorID == id {
			return ErrReferenced
		}
	}
	for _, a := range m.appointments {
		if a.FacilitatorID != nil && *a.FacilitatorID == id {
			return ErrReferenced
		}
	}
	delete(m.facilitators, id)
	return nil
}

// ─── Appointments ────────────────────────────────────────────────────────────

func (m *memState) CreateAppointment(_ context.Context, a *model.Appointment) error {
	if _, ok := m.appointments[a.ID]; ok {
		return ErrDuplicate
	}
	if a.ParticipantID != nil {
		if _, ok := m.participants[*a.ParticipantID]; !ok {
			return ErrReferenced
		}
	}
	if a.RoomID != nil {
		if _, ok := m.rooms[*a.RoomID]; !ok {
			return ErrReferenced
		}
	}
	if a.FacilitatorID != nil {
		if _, ok := m.facilitators[*a.FacilitatorID]; !ok {
			return ErrReferenced
		}
	}
	m.appointments[a.ID] = *a
	return nil
}

func (m *memState) ListAppointments(context.Context) ([]model.Appointment, error) {
	out := values(m.appointments)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memState) DeleteAppointment(_ context.Context, id string) error {
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *memState) ClearAppointmentParticipant(_ context.Context, participantID string) (int64, error) {
	var n int64
	now := time.Now().UTC()
	for id, a := range m.appointments {
		if a.ParticipantID != nil && *a.ParticipantID == participantID {
			a.ParticipantID = nil
			a.UpdatedAt = now
			m.appointments[id] = a
			n++
		}
	}
	return n, nil
}

// ─── Attendance ──────────────────────────────────────────────────────────────

func (m *memState) CreateAttendanceList(_ context.Context, l *model.AttendanceList) error {
	if _, ok := m.lists[l.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := m.courses[l.CourseID]; !ok {
		return ErrReferenced
	}
	m.lists[l.ID] = *l
	return nil
}

func (m *memState) GetAttendanceList(_ context.Context, id string) (*model.AttendanceList, error) {
	l, ok := m.lists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (m *memState) ListAttendanceLists(_ context.Context, courseID string) ([]model.AttendanceList, error) {
	var out []model.AttendanceList
	for _, l := range m.lists {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memState) UpsertAttendanceRecord(_ context.Context, r *model.AttendanceRecord) error {
	if _, ok := m.lists[r.ListID]; !ok {
		return ErrReferenced
	}
	if _, ok := m.participants[r.ParticipantID]; !ok {
		return ErrReferenced
	}
	for id, existing := range m.records {
		if existing.ListID == r.ListID && existing.ParticipantID == r.ParticipantID {
			r.ID = id
			m.records[id] = *r
			return nil
		}
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	m.records[r.ID] = *r
	return nil
}

func (m *memState) ListAttendanceRecords(_ context.Context, courseID string) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, r := range m.records {
		if l, ok := m.lists[r.ListID]; ok && l.CourseID == courseID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memState) DeleteAttendanceRecordsByParticipant(_ context.Context, participantID string) (int64, error) {
	var n int64
	for id, r := range m.records {
		if r.ParticipantID == participantID {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *memState) DeleteAttendanceRecordsByCourse(_ context.Context, courseID string) (int64, error) {
	var n int64
	for id, r := range m.records {
		if l, ok := m.lists[r.ListID]; ok && l.CourseID == courseID {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *memState) DeleteAttendanceListsByCourse(_ context.Context, courseID string) (int64, error) {
	var n int64
	for id, l := range m.lists {
		if l.CourseID != courseID {
			continue
		}
		for _, r := range m.records {
			if r.ListID == id {
				return n, ErrReferenced
			}
		}
		delete(m.lists, id)
		n++
	}
	return n, nil
}

// ─── Users & settings ────────────────────────────────────────────────────────

func (m *memState) CreateUser(_ context.Context, u *model.User) error {
	if _, ok := m.users[u.ID]; ok {
		return ErrDuplicate
	}
	for _, other := range m.users {
		if strings.EqualFold(other.Email, u.Email) {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memState) GetUser(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memState) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memState) ListSettings(context.Context) ([]model.Setting, error) {
	out := make([]model.Setting, 0, len(m.settings))
	for k, v := range m.settings {
		out = append(out, model.Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memState) SetSetting(_ context.Context, s model.Setting) error {
	m.settings[s.Key] = s.Value
	return nil
}
