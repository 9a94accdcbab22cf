package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/scan"
	"github.com/spec-kit/complaint-service/internal/service"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[int64]*domain.User
	next int64
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailTaken
		}
	}
	f.next++
	u.ID = f.next
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeComplaints struct {
	mu    sync.Mutex
	items []domain.Complaint
}

func (f *fakeComplaints) Create(_ context.Context, c *domain.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeComplaints) ListByUser(_ context.Context, userID int64) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Complaint{}
	for _, c := range f.items {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComplaints) List(_ context.Context, limit, offset int) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Complaint{}, f.items...), nil
}

type fakeReports struct{ items []domain.ScanReport }

func (f *fakeReports) Create(_ context.Context, r *domain.ScanReport) error {
	f.items = append(f.items, *r)
	return nil
}

func (f *fakeReports) List(_ context.Context, limit, offset int) ([]domain.ScanReport, error) {
	return f.items, nil
}

// fakeScanner flags any content containing "EICAR".
type fakeScanner struct{}

func (fakeScanner) Enabled() bool { return true }

func (fakeScanner) Scan(_ context.Context, content []byte, _ string) (scan.Result, error) {
	digest, _ := scan.Digest(bytes.NewReader(content))
	stats := map[string]int{"malicious": 0, "undetected": 70}
	if bytes.Contains(content, []byte("EICAR")) {
		stats = map[string]int{"malicious": 1, "undetected": 69}
	}
	return scan.Result{Digest: digest, Verdict: scan.EvaluateStats(stats)}, nil
}

type fakeStore struct{ saved map[string][]byte }

func (f *fakeStore) Save(name string, content []byte) (string, error) {
	path := "vetted/" + name
	f.saved[path] = content
	return path, nil
}

func (f *fakeStore) Remove(path string) error {
	delete(f.saved, path)
	return nil
}

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

// eventLog keeps every published event for later inspection, the way a
// queued notification outlives the request that raised it.
type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) record(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) submitted() []events.ComplaintSubmittedPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []events.ComplaintSubmittedPayload
	for _, e := range l.events {
		if p, ok := e.Payload.(events.ComplaintSubmittedPayload); ok {
			out = append(out, p)
		}
	}
	return out
}

type testServer struct {
	app        *fiber.App
	users      *fakeUsers
	complaints *fakeComplaints
	store      *fakeStore
	events     *eventLog
	tokens     *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	users := &fakeUsers{byID: map[int64]*domain.User{}}
	complaints := &fakeComplaints{}
	store := &fakeStore{saved: map[string][]byte{}}
	log := &eventLog{}
	dispatcher := events.NewInMemoryDispatcher(logger)
	dispatcher.Subscribe(events.EventComplaintSubmitted, log.record)

	authSvc := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, users)
	scanSvc := service.NewScanService(fakeScanner{}, &fakeReports{}, metrics, logger)
	complaintSvc := service.NewComplaintService(service.ComplaintDependencies{
		Complaints: complaints,
		Users:      users,
		Scans:      scanSvc,
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("complaint-service", "test", pingOK{}, nil),
		Users:          handlers.NewUsersHandler(authSvc),
		Complaints:     handlers.NewComplaintsHandler(complaintSvc),
		Scans:          handlers.NewScansHandler(scanSvc),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), users),
		Gatherer:       registry,
	})
	return &testServer{app: app, users: users, complaints: complaints, store: store, events: log, tokens: authSvc.TokenManager()}
}

func (s *testServer) seedUser(t *testing.T, role domain.UserRole) (*domain.User, string) {
	t.Helper()
	u := &domain.User{Name: "u", Email: string(role) + "@uni.edu", Role: role}
	require.NoError(t, s.users.Create(context.Background(), u))
	token, _, err := s.tokens.GenerateToken(u.ID, u.Role)
	require.NoError(t, err)
	return u, token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, app *fiber.App, method, path, token, contentType string, body io.Reader) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func complaintForm(t *testing.T, filename string, content []byte) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("subject", "Harassment"))
	require.NoError(t, w.WriteField("description", "Repeated incidents"))
	require.NoError(t, w.WriteField("date", "2024-05-01"))
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	body := `{"name":"Ana","email":"ana@uni.edu","password":"pw","role":"student","studentId":"S1"}`

	status, env := do(t, s.app, "POST", "/auth/register", "", fiber.MIMEApplicationJSON, strings.NewReader(body))
	require.Equal(t, fiber.StatusCreated, status)
	assert.Contains(t, string(env.Data), `"student_id":"S1"`)

	status, env = do(t, s.app, "POST", "/register", "", fiber.MIMEApplicationJSON, strings.NewReader(body))
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = do(t, s.app, "POST", "/login", "", fiber.MIMEApplicationJSON,
		strings.NewReader(`{"email":"ana@uni.edu","password":"pw"}`))
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"token"`)

	status, env = do(t, s.app, "POST", "/auth/login", "", fiber.MIMEApplicationJSON,
		strings.NewReader(`{"email":"ana@uni.edu","password":"bad"}`))
	require.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", env.Error.Message)
}

func TestSubmitComplaintRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	ct, body := complaintForm(t, "", nil)

	status, env := do(t, s.app, "POST", "/api/complaints", "", ct, body)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestSubmitComplaintWorkflow(t *testing.T) {
	s := newTestServer(t)
	user, token := s.seedUser(t, domain.RoleStudent)

	ct, body := complaintForm(t, "", nil)
	status, _ := do(t, s.app, "POST", "/submit-complaint", token, ct, body)
	require.Equal(t, fiber.StatusCreated, status)

	ct, body = complaintForm(t, "evidence.pdf", []byte("%PDF-1.4 clean"))
	status, env := do(t, s.app, "POST", "/api/complaints", token, ct, body)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Contains(t, string(env.Data), `"has_attachment":true`)
	assert.Contains(t, s.store.saved, "vetted/evidence.pdf")

	ct, body = complaintForm(t, "setup.exe", []byte("MZ"))
	status, env = do(t, s.app, "POST", "/api/complaints", token, ct, body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	ct, body = complaintForm(t, "bad.pdf", []byte("%PDF EICAR"))
	status, env = do(t, s.app, "POST", "/api/complaints", token, ct, body)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "MALICIOUS_CONTENT", env.Error.Code)
	assert.EqualValues(t, 1, env.Error.Details["detections"])
	assert.NotContains(t, s.store.saved, "vetted/bad.pdf")

	list, err := s.complaints.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestComplaintListingAuthorization(t *testing.T) {
	s := newTestServer(t)
	student, studentToken := s.seedUser(t, domain.RoleStudent)
	_, adminToken := s.seedUser(t, domain.RoleAdmin)

	status, _ := do(t, s.app, "GET", "/api/complaints", studentToken, "", nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, s.app, "GET", "/api/complaints", adminToken, "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, s.app, "GET", "/user-complaints/999", studentToken, "", nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, s.app, "GET", "/api/complaints/user/"+strconv.FormatInt(student.ID, 10), adminToken, "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, s.app, "GET", "/api/complaints/my-complaints", studentToken, "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestScanEndpoint(t *testing.T) {
	s := newTestServer(t)
	_, token := s.seedUser(t, domain.RoleFaculty)

	ct, body := complaintForm(t, "doc.pdf", []byte("%PDF EICAR"))
	status, env := do(t, s.app, "POST", "/api/scans", token, ct, body)
	require.Equal(t, fiber.StatusOK, status)

	var resp struct {
		IsMalicious bool   `json:"is_malicious"`
		Detections  int    `json:"detections"`
		VTLink      string `json:"vt_link"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.IsMalicious)
	assert.Equal(t, 1, resp.Detections)
	assert.True(t, strings.HasPrefix(resp.VTLink, "https://www.virustotal.com/gui/file/"))
	assert.Empty(t, s.store.saved)

	status, _ = do(t, s.app, "GET", "/api/scans/all", token, "", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestHealthMetricsAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, _ := do(t, s.app, "GET", "/health/ready", "", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env := do(t, s.app, "GET", "/nope", "", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "http_requests_total")
	assert.Contains(t, string(raw), "http_errors_total")
}

func TestURLEncodedComplaintFieldsSurviveLaterRequests(t *testing.T) {
	s := newTestServer(t)
	user, token := s.seedUser(t, domain.RoleStudent)

	subjects := []string{
		strings.Repeat("A", 48),
		strings.Repeat("B", 48),
		strings.Repeat("C", 48),
		strings.Repeat("D", 48),
	}
	for _, subject := range subjects {
		form := url.Values{"subject": {subject}, "description": {"noise after hours"}}
		status, _ := do(t, s.app, "POST", "/api/complaints", token, fiber.MIMEApplicationForm, strings.NewReader(form.Encode()))
		require.Equal(t, fiber.StatusCreated, status)
	}

	published := s.events.submitted()
	require.Len(t, published, len(subjects))
	for i, p := range published {
		assert.Equal(t, subjects[i], p.Subject)
	}

	stored, err := s.complaints.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, stored, len(subjects))
	for i, c := range stored {
		assert.Contains(t, c.Text, subjects[i])
		assert.Contains(t, c.Text, "noise after hours")
	}
}

func TestErrorMetricsUseRouteTemplates(t *testing.T) {
	s := newTestServer(t)
	_, token := s.seedUser(t, domain.RoleStudent)

	for _, path := range []string{"/nope-aaaaaaaa", "/nope-bbbbbbbb", "/nope-cccccccc"} {
		status, env := do(t, s.app, "GET", path, "", "", nil)
		require.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	}
	for _, id := range []int{901, 902} {
		status, _ := do(t, s.app, "GET", fmt.Sprintf("/user-complaints/%d", id), token, "", nil)
		require.Equal(t, fiber.StatusForbidden, status)
	}

	resp, err := s.app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	assert.Contains(t, body, `http_errors_total{code="NOT_FOUND",method="GET",path="unmatched"} 3`)
	assert.Contains(t, body, `http_errors_total{code="FORBIDDEN",method="GET",path="/user-complaints/:id"} 2`)
	assert.NotContains(t, body, "nope-")
	assert.NotContains(t, body, "/user-complaints/90")
}
