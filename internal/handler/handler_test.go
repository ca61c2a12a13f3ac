package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
	"github.com/Shivanand-hulikatti/coursedesk/internal/cache"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
	"github.com/Shivanand-hulikatti/coursedesk/internal/service"
)

type observed struct {
	method, route string
	status        int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observed
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observed{method, route, status})
}

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	tokens map[string]string
	obs    *recordingObserver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	c := cache.New(cache.Options{Logger: zerolog.Nop()})
	authSvc := auth.NewService(store, auth.NewMemorySessionStore(nil), auth.Options{})
	obs := &recordingObserver{}

	h := New(Options{
		Services:   service.New(service.Deps{Store: store, Cache: c}),
		Auth:       authSvc,
		Cache:      c,
		Store:      store,
		Logger:     zerolog.Nop(),
		Metrics:    obs,
		CookieName: "sid",
		CORSOrigin: "*",
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	ts := &testServer{t: t, srv: srv, tokens: map[string]string{}, obs: obs}
	for _, role := range []string{"admin", "manager", "guest"} {
		_, err := authSvc.CreateUser(context.Background(), model.NewUserRequest{
			Name: role, Email: role + "@example.com", Password: "password-" + role, Role: role,
		})
		require.NoError(t, err)
		ts.tokens[role] = ts.login(role)
	}
	return ts
}

func (ts *testServer) login(role string) string {
	body := `{"email":"` + role + `@example.com","password":"password-` + role + `"}`
	resp, err := http.Post(ts.srv.URL+"/auth/login", "application/json", strings.NewReader(body))
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			assert.True(ts.t, c.HttpOnly)
			return c.Value
		}
	}
	ts.t.Fatalf("no session cookie for %s", role)
	return ""
}

// do sends a request as role ("" for anonymous) and decodes the JSON
// response into out when out is non-nil.
func (ts *testServer) do(role, method, path string, body any, out any) int {
	ts.t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: ts.tokens[role]})
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, ts.do("", http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAuthenticationAndCapabilities(t *testing.T) {
	ts := newTestServer(t)

	var e model.ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, ts.do("", http.MethodGet, "/api/courses", nil, &e))
	assert.Equal(t, "unauthorized", e.Kind)

	assert.Equal(t, http.StatusOK, ts.do("guest", http.MethodGet, "/api/courses", nil, nil))
	assert.Equal(t, http.StatusForbidden, ts.do("guest", http.MethodPost, "/api/courses", model.CourseRequest{Name: "x"}, &e))
	assert.Equal(t, "forbidden", e.Kind)
	assert.Equal(t, http.StatusForbidden, ts.do("manager", http.MethodGet, "/api/settings", nil, nil))

	var me meResponse
	assert.Equal(t, http.StatusOK, ts.do("manager", http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, model.RoleManager, me.User.Role)
	assert.Contains(t, me.Capabilities, auth.PaymentsManage)
	assert.NotContains(t, me.Capabilities, auth.PaymentsRefund)

	assert.Equal(t, http.StatusNoContent, ts.do("guest", http.MethodPost, "/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, ts.do("guest", http.MethodGet, "/api/courses", nil, nil))
}

func TestEnrollmentFlow(t *testing.T) {
	ts := newTestServer(t)

	var course model.Course
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/courses",
		model.CourseRequest{Name: "Yoga", Price: 120, Capacity: 1, DurationMinutes: 60, Weekday: "monday"}, &course))

	var ana, bia model.Participant
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/participants",
		model.ParticipantRequest{Name: "Ana", Phone: "1"}, &ana))
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/participants",
		model.ParticipantRequest{Name: "Bia", Phone: "2"}, &bia))

	var res model.EnrollResult
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/enrollments",
		model.EnrollRequest{ParticipantID: ana.ID, CourseID: course.ID}, &res))
	assert.True(t, res.CourseIsFull)
	assert.Equal(t, 120.0, res.Enrollment.Amount)

	var e model.ErrorResponse
	assert.Equal(t, http.StatusConflict, ts.do("admin", http.MethodPost, "/api/enrollments",
		model.EnrollRequest{ParticipantID: bia.ID, CourseID: course.ID}, &e))
	assert.Equal(t, "conflict", e.Kind)
	assert.Contains(t, e.Error, "course is full")

	var detail model.CourseDetail
	require.Equal(t, http.StatusOK, ts.do("guest", http.MethodGet, "/api/courses/"+course.ID, nil, &detail))
	assert.Equal(t, 1, detail.ActiveEnrollments)
	assert.Zero(t, detail.AvailableSpots)

	assert.Equal(t, http.StatusNoContent, ts.do("manager", http.MethodPost, "/api/enrollments/unenroll",
		model.UnenrollRequest{ParticipantID: ana.ID, CourseID: course.ID}, nil))
	require.Equal(t, http.StatusOK, ts.do("guest", http.MethodGet, "/api/courses/"+course.ID, nil, &detail))
	assert.False(t, detail.IsFull)

	var views []model.EnrollmentView
	require.Equal(t, http.StatusOK, ts.do("manager", http.MethodGet, "/api/enrollments?status=cancelled", nil, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Ana", views[0].ParticipantName)

	assert.Equal(t, http.StatusBadRequest, ts.do("manager", http.MethodGet, "/api/enrollments?status=bogus", nil, nil))
}

func TestPaymentFlowAndRefundCapability(t *testing.T) {
	ts := newTestServer(t)

	var course model.Course
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/courses",
		model.CourseRequest{Name: "Dance", Price: 100, Capacity: 10, DurationMinutes: 45}, &course))
	var p model.Participant
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/participants",
		model.ParticipantRequest{Name: "Caio", Phone: "3"}, &p))

	var pay model.Payment
	require.Equal(t, http.StatusCreated, ts.do("manager", http.MethodPost, "/api/payments",
		model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID, Discount: 20, Method: "pix"}, &pay))
	assert.Equal(t, model.PaymentPending, pay.Status)
	assert.Equal(t, 80.0, pay.FinalAmount)

	var e model.ErrorResponse
	assert.Equal(t, http.StatusConflict, ts.do("manager", http.MethodPost, "/api/payments",
		model.PaymentRequest{ParticipantID: p.ID, CourseID: course.ID}, &e))

	require.Equal(t, http.StatusOK, ts.do("manager", http.MethodPatch, "/api/payments/"+pay.ID+"/status",
		model.PaymentStatusRequest{Status: "paid", TransactionID: "tx-9"}, &pay))
	assert.Equal(t, model.PaymentPaid, pay.Status)
	require.NotNil(t, pay.EnrollmentID)

	var detail model.ParticipantDetail
	require.Equal(t, http.StatusOK, ts.do("manager", http.MethodGet, "/api/participants/"+p.ID, nil, &detail))
	require.Len(t, detail.Enrollments, 1)
	assert.Equal(t, 80.0, detail.Enrollments[0].Amount)

	assert.Equal(t, http.StatusForbidden, ts.do("manager", http.MethodPatch, "/api/payments/"+pay.ID+"/status",
		model.PaymentStatusRequest{Status: "refunded"}, nil))
	for _, padded := range []string{" refunded", "refunded\n", "\trefunded "} {
		assert.Equal(t, http.StatusForbidden, ts.do("manager", http.MethodPatch, "/api/payments/"+pay.ID+"/status",
			model.PaymentStatusRequest{Status: padded}, nil), "status %q", padded)
	}
	assert.Equal(t, http.StatusBadRequest, ts.do("manager", http.MethodPatch, "/api/payments/"+pay.ID+"/status",
		model.PaymentStatusRequest{Status: "REFUNDED"}, &e))
	require.Equal(t, http.StatusOK, ts.do("manager", http.MethodGet, "/api/payments/"+pay.ID, nil, &pay))
	assert.Equal(t, model.PaymentPaid, pay.Status)
	require.Equal(t, http.StatusOK, ts.do("admin", http.MethodPatch, "/api/payments/"+pay.ID+"/status",
		model.PaymentStatusRequest{Status: "refunded"}, &pay))
	assert.Equal(t, model.PaymentRefunded, pay.Status)

	assert.Equal(t, http.StatusBadRequest, ts.do("admin", http.MethodPatch, "/api/payments/"+pay.ID+"/status",
		model.PaymentStatusRequest{Status: "pending"}, &e))
	assert.Equal(t, "invalid_argument", e.Kind)

	assert.Equal(t, http.StatusNotFound, ts.do("admin", http.MethodPatch, "/api/payments/nope/status",
		model.PaymentStatusRequest{Status: "paid"}, nil))

	var report model.FinanceReport
	require.Equal(t, http.StatusOK, ts.do("manager", http.MethodGet, "/api/finance", nil, &report))
	assert.Equal(t, 80.0, report.Totals.Refunded)
	assert.Zero(t, report.Totals.Revenue)
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t)

	var e model.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, ts.do("admin", http.MethodPost, "/api/courses", `{"name":`, &e))
	assert.Equal(t, "invalid_argument", e.Kind)
	assert.Equal(t, http.StatusBadRequest, ts.do("admin", http.MethodPost, "/api/courses", `{"unknown":1}`, nil))
	assert.Equal(t, http.StatusBadRequest, ts.do("admin", http.MethodPost, "/api/courses",
		model.CourseRequest{Name: "No seats", DurationMinutes: 30}, nil))
	assert.Equal(t, http.StatusNotFound, ts.do("admin", http.MethodGet, "/api/courses/missing", nil, &e))
	assert.Equal(t, "not_found", e.Kind)
}

func TestRoomInUse(t *testing.T) {
	ts := newTestServer(t)

	var room model.Room
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/rooms",
		model.RoomRequest{Name: "Studio", Number: 2}, &room))
	var course model.Course
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/courses",
		model.CourseRequest{Name: "Pilates", Capacity: 5, DurationMinutes: 50, RoomID: &room.ID}, &course))

	assert.Equal(t, http.StatusConflict, ts.do("admin", http.MethodDelete, "/api/rooms/"+room.ID, nil, nil))
	assert.Equal(t, http.StatusNoContent, ts.do("admin", http.MethodDelete, "/api/courses/"+course.ID, nil, nil))
	assert.Equal(t, http.StatusNoContent, ts.do("admin", http.MethodDelete, "/api/rooms/"+room.ID, nil, nil))
}

func TestCacheAdminAndSettings(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusOK, ts.do("admin", http.MethodGet, "/api/courses", nil, nil))
	require.Equal(t, http.StatusOK, ts.do("admin", http.MethodGet, "/api/dashboard", nil, nil))

	var stats cache.Stats
	require.Equal(t, http.StatusOK, ts.do("admin", http.MethodGet, "/api/admin/cache", nil, &stats))
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, cache.DefaultMaxEntries, stats.MaxSize)
	keys := []string{stats.Entries[0].Key, stats.Entries[1].Key}
	assert.ElementsMatch(t, []string{"courses:list", "painel:stats"}, keys)

	assert.Equal(t, http.StatusForbidden, ts.do("manager", http.MethodDelete, "/api/admin/cache", nil, nil))
	assert.Equal(t, http.StatusNoContent, ts.do("admin", http.MethodDelete, "/api/admin/cache", nil, nil))
	require.Equal(t, http.StatusOK, ts.do("admin", http.MethodGet, "/api/admin/cache", nil, &stats))
	assert.Zero(t, stats.Size)

	require.Equal(t, http.StatusOK, ts.do("admin", http.MethodPut, "/api/settings/center_name",
		model.SettingRequest{Value: "Casa Aberta"}, nil))
	var all map[string]string
	require.Equal(t, http.StatusOK, ts.do("admin", http.MethodGet, "/api/settings", nil, &all))
	assert.Equal(t, "Casa Aberta", all["center_name"])
}

func TestCreateUserEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var u model.User
	require.Equal(t, http.StatusCreated, ts.do("admin", http.MethodPost, "/api/admin/users",
		map[string]string{"name": "Dora", "email": "dora@example.com", "password": "long-password", "role": "user"}, &u))
	assert.Equal(t, model.RoleUser, u.Role)

	assert.Equal(t, http.StatusConflict, ts.do("admin", http.MethodPost, "/api/admin/users",
		map[string]string{"name": "Dora", "email": "dora@example.com", "password": "long-password"}, nil))
	assert.Equal(t, http.StatusForbidden, ts.do("manager", http.MethodPost, "/api/admin/users",
		map[string]string{"name": "Eve", "email": "eve@example.com", "password": "long-password"}, nil))
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	ts := newTestServer(t)
	ts.do("guest", http.MethodGet, "/api/courses/abc", nil, nil)

	ts.obs.mu.Lock()
	defer ts.obs.mu.Unlock()
	assert.Contains(t, ts.obs.seen, observed{http.MethodGet, "/api/courses/{id}", http.StatusNotFound})
}
