package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so every query below
// runs unchanged inside or outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ Store = (*PostgresStore)(nil)

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	*pgQueries
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore over an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgQueries: &pgQueries{db: pool}, pool: pool}
}

// InTx runs fn inside a single transaction.
//
// Reconciliation reads current state, decides, then writes. Running the
// whole sequence in one transaction and taking LockCourse (SELECT ... FOR
// UPDATE) on the course row first serialises concurrent enroll/pay calls
// for the same course, so two requests cannot both observe a free seat or
// a missing enrollment.
func (s *PostgresStore) InTx(ctx context.Context, fn func(q Queries) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&pgQueries{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Ping checks the pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

type pgQueries struct {
	db dbtx
}

// translate maps driver errors onto the package sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return errors.Wrapf(ErrDuplicate, "%s: %s", what, pgErr.ConstraintName)
		case "23503":
			return errors.Wrapf(ErrReferenced, "%s: %s", what, pgErr.ConstraintName)
		}
	}
	return errors.Wrap(err, what)
}

func (q *pgQueries) execOne(ctx context.Context, what, sql string, args ...any) error {
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, what)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *pgQueries) execCount(ctx context.Context, what, sql string, args ...any) (int64, error) {
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, translate(err, what)
	}
	return tag.RowsAffected(), nil
}

func (q *pgQueries) count(ctx context.Context, what, sql string, args ...any) (int, error) {
	var n int
	if err := q.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, translate(err, what)
	}
	return n, nil
}

// ─── Courses ─────────────────────────────────────────────────────────────────

const courseColumns = `id, name, description, price, capacity, is_full, duration_minutes,
	weekday, start_date, start_time, end_time, room_id, facilitator_id, created_at, updated_at`

func scanCourse(row rowScanner) (*model.Course, error) {
	var c model.Course
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.Capacity, &c.IsFull, &c.DurationMinutes,
		&c.Weekday, &c.StartDate, &c.StartTime, &c.EndTime, &c.RoomID, &c.FacilitatorID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *pgQueries) CreateCourse(ctx context.Context, c *model.Course) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO courses (`+courseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, c.Name, c.Description, c.Price, c.Capacity, c.IsFull, c.DurationMinutes,
		c.Weekday, c.StartDate, c.StartTime, c.EndTime, c.RoomID, c.FacilitatorID, c.CreatedAt, c.UpdatedAt,
	)
	return translate(err, "insert course")
}

func (q *pgQueries) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	c, err := scanCourse(q.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	return c, translate(err, "get course")
}

func (q *pgQueries) LockCourse(ctx context.Context, id string) (*model.Course, error) {
	c, err := scanCourse(q.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1 FOR UPDATE`, id))
	return c, translate(err, "lock course row")
}

func (q *pgQueries) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := q.db.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate(err, "list courses")
	}
	defer rows.Close()

	var out []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan course")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (q *pgQueries) UpdateCourse(ctx context.Context, c *model.Course) error {
	return q.execOne(ctx, "update course",
		`UPDATE courses SET name = $2, description = $3, price = $4, capacity = $5, is_full = $6,
			duration_minutes = $7, weekday = $8, start_date = $9, start_time = $10, end_time = $11,
			room_id = $12, facilitator_id = $13, updated_at = $14
		 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.Price, c.Capacity, c.IsFull,
		c.DurationMinutes, c.Weekday, c.StartDate, c.StartTime, c.EndTime,
		c.RoomID, c.FacilitatorID, c.UpdatedAt,
	)
}

func (q *pgQueries) SetCourseFull(ctx context.Context, id string, full bool) error {
	return q.execOne(ctx, "set course full", `UPDATE courses SET is_full = $2 WHERE id = $1`, id, full)
}

func (q *pgQueries) DeleteCourse(ctx context.Context, id string) error {
	return q.execOne(ctx, "delete course", `DELETE FROM courses WHERE id = $1`, id)
}

func (q *pgQueries) CountCoursesByRoom(ctx context.Context, roomID string) (int, error) {
	return q.count(ctx, "count courses by room", `SELECT COUNT(*) FROM courses WHERE room_id = $1`, roomID)
}

func (q *pgQueries) CountCoursesByFacilitator(ctx context.Context, facilitatorID string) (int, error) {
	return q.count(ctx, "count courses by facilitator",
		`SELECT COUNT(*) FROM courses WHERE facilitator_id = $1`, facilitatorID)
}

// ─── Participants ────────────────────────────────────────────────────────────

const participantColumns = `id, name, phone, address, role, birthdate, created_at`

func scanParticipant(row rowScanner) (*model.Participant, error) {
	var p model.Participant
	if err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Address, &p.Role, &p.Birthdate, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *pgQueries) CreateParticipant(ctx context.Context, p *model.Participant) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO participants (`+participantColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Phone, p.Address, p.Role, p.Birthdate, p.CreatedAt,
	)
	return translate(err, "insert participant")
}

func (q *pgQueries) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {
	p, err := scanParticipant(q.db.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE id = $1`, id))
	return p, translate(err, "get participant")
}

func (q *pgQueries) ListParticipants(ctx context.Context, f ParticipantFilter) ([]model.Participant, int, error) {
	where := ""
	args := []any{}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = ` WHERE name ILIKE $1 OR phone ILIKE $1 OR address ILIKE $1`
	}

	total, err := q.count(ctx, "count participants", `SELECT COUNT(*) FROM participants`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	sql := `SELECT ` + participantColumns + ` FROM participants` + where + ` ORDER BY name ASC`
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, translate(err, "list participants")
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan participant")
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (q *pgQueries) DeleteParticipant(ctx context.Context, id string) error {
	return q.execOne(ctx, "delete participant", `DELETE FROM participants WHERE id = $1`, id)
}

// ─── Enrollments ─────────────────────────────────────────────────────────────

const enrollmentColumns = `id, course_id, participant_id, status, amount, notes, enrolled_at, cancelled_at`

func scanEnrollment(row rowScanner, extra ...any) (*model.Enrollment, error) {
	var e model.Enrollment
	dest := append([]any{&e.ID, &e.CourseID, &e.ParticipantID, &e.Status, &e.Amount, &e.Notes, &e.EnrolledAt, &e.CancelledAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *pgQueries) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO course_enrollments (`+enrollmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.CourseID, e.ParticipantID, e.Status, e.Amount, e.Notes, e.EnrolledAt, e.CancelledAt,
	)
	return translate(err, "insert enrollment")
}

func (q *pgQueries) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	e, err := scanEnrollment(q.db.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM course_enrollments WHERE id = $1`, id))
	return e, translate(err, "get enrollment")
}

func (q *pgQueries) ListEnrollments(ctx context.Context, f EnrollmentFilter) ([]model.EnrollmentView, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CourseID != "" {
		add("e.course_id = $%d", f.CourseID)
	}
	if f.ParticipantID != "" {
		add("e.participant_id = $%d", f.ParticipantID)
	}
	if f.Status != "" {
		add("e.status = $%d", f.Status)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := q.db.Query(ctx,
		`SELECT e.id, e.course_id, e.participant_id, e.status, e.amount, e.notes, e.enrolled_at, e.cancelled_at,
			COALESCE(c.name, ''), COALESCE(p.name, ''), COALESCE(p.phone, '')
		 FROM course_enrollments e
		 LEFT JOIN courses c ON c.id = e.course_id
		 LEFT JOIN participants p ON p.id = e.participant_id`+where+`
		 ORDER BY e.enrolled_at DESC`,
		args...,
	)
	if err != nil {
		return nil, translate(err, "list enrollments")
	}
	defer rows.Close()

	var out []model.EnrollmentView
	for rows.Next() {
		var v model.EnrollmentView
		e, err := scanEnrollment(rows, &v.CourseName, &v.ParticipantName, &v.ParticipantPhone)
		if err != nil {
			return nil, errors.Wrap(err, "scan enrollment")
		}
		v.Enrollment = *e
		out = append(out, v)
	}
	return out, rows.Err()
}

func (q *pgQueries) CountActiveEnrollments(ctx context.Context, courseID string) (int, error) {
	return q.count(ctx, "count active enrollments",
		`SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1 AND status = 'active'`, courseID)
}

func (q *pgQueries) UpdateEnrollment(ctx context.Context, e *model.Enrollment) error {
	return q.execOne(ctx, "update enrollment",
		`UPDATE course_enrollments SET course_id = $2, participant_id = $3, status = $4, amount = $5,
			notes = $6, cancelled_at = $7
		 WHERE id = $1`,
		e.ID, e.CourseID, e.ParticipantID, e.Status, e.Amount, e.Notes, e.CancelledAt,
	)
}

func (q *pgQueries) DeleteEnrollment(ctx context.Context, id string) error {
	return q.execOne(ctx, "delete enrollment", `DELETE FROM course_enrollments WHERE id = $1`, id)
}

func (q *pgQueries) DeleteEnrollmentsByParticipant(ctx context.Context, participantID string) (int64, error) {
	return q.execCount(ctx, "delete participant enrollments",
		`DELETE FROM course_enrollments WHERE participant_id = $1`, participantID)
}

func (q *pgQueries) DeleteEnrollmentsByCourse(ctx context.Context, courseID string) (int64, error) {
	return q.execCount(ctx, "delete course enrollments",
		`DELETE FROM course_enrollments WHERE course_id = $1`, courseID)
}

// ─── Payments ────────────────────────────────────────────────────────────────

const paymentColumns = `id, participant_id, course_id, enrollment_id, amount, discount, final_amount, status,
	method, transaction_id, notes, created_at, updated_at, paid_at, cancelled_at`

func scanPayment(row rowScanner) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.ParticipantID, &p.CourseID, &p.EnrollmentID, &p.Amount, &p.Discount, &p.FinalAmount,
		&p.Status, &p.Method, &p.TransactionID, &p.Notes, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt, &p.CancelledAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *pgQueries) CreatePayment(ctx context.Context, p *model.Payment) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.ParticipantID, p.CourseID, p.EnrollmentID, p.Amount, p.Discount, p.FinalAmount, p.Status,
		p.Method, p.TransactionID, p.Notes, p.CreatedAt, p.UpdatedAt, p.PaidAt, p.CancelledAt,
	)
	return translate(err, "insert payment")
}

func (q *pgQueries) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	p, err := scanPayment(q.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	return p, translate(err, "get payment")
}

func (q *pgQueries) ListPayments(ctx context.Context, f PaymentFilter) ([]model.Payment, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CourseID != "" {
		add("course_id = $%d", f.CourseID)
	}
	if f.ParticipantID != "" {
		add("participant_id = $%d", f.ParticipantID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := q.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, translate(err, "list payments")
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan payment")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (q *pgQueries) UpdatePayment(ctx context.Context, p *model.Payment) error {
	return q.execOne(ctx, "update payment",
		`UPDATE payments SET enrollment_id = $2, status = $3, method = $4, transaction_id = $5, notes = $6,
			updated_at = $7, paid_at = $8, cancelled_at = $9
		 WHERE id = $1`,
		p.ID, p.EnrollmentID, p.Status, p.Method, p.TransactionID, p.Notes, p.UpdatedAt, p.PaidAt, p.CancelledAt,
	)
}

func (q *pgQueries) DeletePayment(ctx context.Context, id string) error {
	return q.execOne(ctx, "delete payment", `DELETE FROM payments WHERE id = $1`, id)
}

func (q *pgQueries) DeletePaymentsByParticipant(ctx context.Context, participantID string) (int64, error) {
	return q.execCount(ctx, "delete participant payments", `DELETE FROM payments WHERE participant_id = $1`, participantID)
}

func (q *pgQueries) DeletePaymentsByCourse(ctx context.Context, courseID string) (int64, error) {
	return q.execCount(ctx, "delete course payments", `DELETE FROM payments WHERE course_id = $1`, courseID)
}

// ─── Rooms & facilitators ────────────────────────────────────────────────────

func (q *pgQueries) CreateRoom(ctx context.Context, r *model.Room) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO rooms (id, name, number, description, capacity, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.Name, r.Number, r.Description, r.Capacity, r.Active, r.CreatedAt,
	)
	return translate(err, "insert room")
}

func (q *pgQueries) ListRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name, number, description, capacity, active, created_at FROM rooms ORDER BY number ASC`)
	if err != nil {
		return nil, translate(err, "list rooms")
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var r model.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Number, &r.Description, &r.Capacity, &r.Active, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan room")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *pgQueries) DeleteRoom(ctx context.Context, id string) error {
	return q.execOne(ctx, "delete room", `DELETE FROM rooms WHERE id = $1`, id)
}

func (q *pgQueries) CreateFacilitator(ctx context.Context, f *model.Facilitator) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO facilitators (id, name, email, phone, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.Name, f.Email, f.Phone, f.Role, f.CreatedAt,
	)
	return translate(err, "insert facilitator")
}

func (q *pgQueries) ListFacilitators(ctx context.Context) ([]model.Facilitator, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name, email, phone, role, created_at FROM facilitators ORDER BY name ASC`)
	if err != nil {
		return nil, translate(err, "list facilitators")
	}
	defer rows.Close()

	var out []model.Facilitator
	for rows.Next() {
		var f model.Facilitator
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Phone, &f.Role, &f.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan facilitator")
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (q *pgQueries) DeleteFacilitator(ctx context.Context, id string) error {
	return q.execOne(ctx, "delete facilitator", `DELETE FROM facilitators WHERE id = $1`, id)
}

// ─── Appointments ────────────────────────────────────────────────────────────

func (q *pgQueries) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO appointments (id, name, email, phone, reason, starts_at, facilitator_id, room_id,
			participant_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Name, a.Email, a.Phone, a.Reason, a.StartsAt, a.FacilitatorID, a.RoomID,
		a.ParticipantID, a.CreatedAt, a.UpdatedAt,
	)
	return translate(err, "insert appointment")
}

func (q *pgQueries) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name, email, phone, reason, starts_at, facilitator_id, room_id, participant_id, created_at, updated_at
		 FROM appointments ORDER BY starts_at ASC`)
	if err != nil {
		return nil, translate(err, "list appointments")
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.Reason, &a.StartsAt, &a.FacilitatorID,
			&a.RoomID, &a.ParticipantID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan appointment")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *pgQueries) DeleteAppointment(ctx context.Context, id string) error {
	return q.execOne(ctx, "delete appointment", `DELETE FROM appointments WHERE id = $1`, id)
}

func (q *pgQueries) ClearAppointmentParticipant(ctx context.Context, participantID string) (int64, error) {
	return q.execCount(ctx, "detach appointments",
		`UPDATE appointments SET participant_id = NULL, updated_at = NOW() WHERE participant_id = $1`, participantID)
}

// ─── Attendance ──────────────────────────────────────────────────────────────

func (q *pgQueries) CreateAttendanceList(ctx context.Context, l *model.AttendanceList) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO attendance_lists (id, course_id, date, notes, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.CourseID, l.Date, l.Notes, l.CreatedBy, l.CreatedAt,
	)
	return translate(err, "insert attendance list")
}

func (q *pgQueries) GetAttendanceList(ctx context.Context, id string) (*model.AttendanceList, error) {
	var l model.AttendanceList
	err := q.db.QueryRow(ctx,
		`SELECT id, course_id, date, notes, created_by, created_at FROM attendance_lists WHERE id = $1`, id,
	).Scan(&l.ID, &l.CourseID, &l.Date, &l.Notes, &l.CreatedBy, &l.CreatedAt)
	if err != nil {
		return nil, translate(err, "get attendance list")
	}
	return &l, nil
}

func (q *pgQueries) ListAttendanceLists(ctx context.Context, courseID string) ([]model.AttendanceList, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, course_id, date, notes, created_by, created_at
		 FROM attendance_lists WHERE course_id = $1 ORDER BY date ASC`, courseID)
	if err != nil {
		return nil, translate(err, "list attendance lists")
	}
	defer rows.Close()

	var out []model.AttendanceList
	for rows.Next() {
		var l model.AttendanceList
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Date, &l.Notes, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan attendance list")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (q *pgQueries) UpsertAttendanceRecord(ctx context.Context, r *model.AttendanceRecord) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO attendance_records (id, list_id, participant_id, status, notes, marked_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (list_id, participant_id)
		 DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, marked_at = EXCLUDED.marked_at
		 RETURNING id`,
		r.ID, r.ListID, r.ParticipantID, r.Status, r.Notes, r.MarkedAt,
	).Scan(&r.ID)
	return translate(err, "upsert attendance record")
}

func (q *pgQueries) ListAttendanceRecords(ctx context.Context, courseID string) ([]model.AttendanceRecord, error) {
	rows, err := q.db.Query(ctx,
		`SELECT r.id, r.list_id, r.participant_id, r.status, r.notes, r.marked_at
		 FROM attendance_records r
		 JOIN attendance_lists l ON l.id = r.list_id
		 WHERE l.course_id = $1`, courseID)
	if err != nil {
		return nil, translate(err, "list attendance records")
	}
	defer rows.Close()

	var out []model.AttendanceRecord
	for rows.Next() {
		var r model.AttendanceRecord
		if err := rows.Scan(&r.ID, &r.ListID, &r.ParticipantID, &r.Status, &r.Notes, &r.MarkedAt); err != nil {
			return nil, errors.Wrap(err, "scan attendance record")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *pgQueries) DeleteAttendanceRecordsByParticipant(ctx context.Context, participantID string) (int64, error) {
	return q.execCount(ctx, "delete participant attendance",
		`DELETE FROM attendance_records WHERE participant_id = $1`, participantID)
}

func (q *pgQueries) DeleteAttendanceRecordsByCourse(ctx context.Context, courseID string) (int64, error) {
	return q.execCount(ctx, "delete course attendance records",
		`DELETE FROM attendance_records WHERE list_id IN (SELECT id FROM attendance_lists WHERE course_id = $1)`, courseID)
}

func (q *pgQueries) DeleteAttendanceListsByCourse(ctx context.Context, courseID string) (int64, error) {
	return q.execCount(ctx, "delete course attendance lists",
		`DELETE FROM attendance_lists WHERE course_id = $1`, courseID)
}

// ─── Users & settings ────────────────────────────────────────────────────────

func (q *pgQueries) CreateUser(ctx context.Context, u *model.User) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt,
	)
	return translate(err, "insert user")
}

func (q *pgQueries) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	err := q.db.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE `+where+` = $1`, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}

func (q *pgQueries) GetUser(ctx context.Context, id string) (*model.User, error) {
	return q.getUser(ctx, "id", id)
}

func (q *pgQueries) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return q.getUser(ctx, "email", email)
}

func (q *pgQueries) ListSettings(ctx context.Context) ([]model.Setting, error) {
	rows, err := q.db.Query(ctx, `SELECT key, value FROM system_settings ORDER BY key ASC`)
	if err != nil {
		return nil, translate(err, "list settings")
	}
	defer rows.Close()

	var out []model.Setting
	for rows.Next() {
		var s model.Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, errors.Wrap(err, "scan setting")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *pgQueries) SetSetting(ctx context.Context, s model.Setting) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO system_settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		s.Key, s.Value,
	)
	return translate(err, "set setting")
}
