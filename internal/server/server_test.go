package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"intraprep/internal/app"
	"intraprep/internal/leetcode"
	"intraprep/internal/store"
	"intraprep/pkg/domain"
)

type fakeMailer struct {
	bodies []string
}

func (m *fakeMailer) Send(_ context.Context, _, _, body string) error {
	m.bodies = append(m.bodies, body)
	return nil
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	if len(m.bodies) == 0 {
		t.Fatalf("no mail sent")
	}
	match := codePattern.FindStringSubmatch(m.bodies[len(m.bodies)-1])
	if match == nil {
		t.Fatalf("no code in mail body")
	}
	return match[1]
}

type fakeGenerator struct {
	reply string
	err   error
}

func (g *fakeGenerator) GenerateText(context.Context, string, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type fakeCoding struct {
	submissions []leetcode.Submission
	exists      bool
}

func (c *fakeCoding) RecentAcceptedSubmissions(context.Context, string, int) ([]leetcode.Submission, error) {
	return c.submissions, nil
}

func (c *fakeCoding) UserExists(context.Context, string) (bool, error) {
	return c.exists, nil
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

type testServer struct {
	*Server
	app    *app.App
	store  *store.MemoryStore
	mailer *fakeMailer
	gen    *fakeGenerator
	coding *fakeCoding
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	mem := store.NewMemoryStore()
	mailer := &fakeMailer{}
	gen := &fakeGenerator{reply: "{}"}
	coding := &fakeCoding{exists: true}
	a, err := app.New(app.Config{
		Store:     mem,
		Sessions:  store.NewMemorySessionStore(),
		Mailer:    mailer,
		Generator: gen,
		Coding:    coding,
		Extract:   func(data []byte) (string, error) { return string(data), nil },
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	cfg.App = a
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testServer{Server: s, app: a, store: mem, mailer: mailer, gen: gen, coding: coding}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// signupAndLogin runs the full signup/verify flow and returns a live token.
func (ts *testServer) signupAndLogin(t *testing.T, email string) (domain.User, string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "Sup3r$ecret-pass", "fullName": "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPost, "/api/auth/verify", "", map[string]string{
		"email": email, "code": ts.mailer.lastCode(t),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	decodeResponse(t, rec, &resp)
	return resp.User, resp.Token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{})
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSignupVerifyLoginOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	user, token := ts.signupAndLogin(t, "web@example.com")
	if user.Email != "web@example.com" || token == "" {
		t.Fatalf("unexpected session: %+v token=%q", user, token)
	}

	rec := ts.do(t, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "web@example.com", "password": "Sup3r$ecret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginBeforeVerificationForbidden(t *testing.T) {
	ts := newTestServer(t, Config{})
	rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "p@example.com", "password": "Sup3r$ecret-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "p@example.com", "password": "Sup3r$ecret-pass",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("login status = %d, want 403", rec.Code)
	}
}

func TestWeakPasswordRejected(t *testing.T) {
	ts := newTestServer(t, Config{})
	rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "weak@example.com", "password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("signup status = %d, want 400", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t, Config{})
	for _, path := range []string{"/api/me", "/api/profile", "/api/usage", "/api/streak", "/api/progress"} {
		rec := ts.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, rec.Code)
		}
	}
	rec := ts.do(t, http.MethodGet, "/api/me", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", rec.Code)
	}
}

func TestAuthEndpointsRateLimited(t *testing.T) {
	ts := newTestServer(t, Config{AuthLimiter: denyAllLimiter{}})
	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "x@example.com", "password": "Sup3r$ecret-pass",
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestProfileUpdateAndConflict(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token1 := ts.signupAndLogin(t, "a@example.com")
	_, token2 := ts.signupAndLogin(t, "b@example.com")

	profile := map[string]any{
		"username": "gopher", "targetRole": "Backend Developer", "skills": []string{"go"},
	}
	rec := ts.do(t, http.MethodPut, "/api/profile", token1, profile)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPut, "/api/profile", token2, profile)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate username status = %d, want 409", rec.Code)
	}
	rec = ts.do(t, http.MethodPut, "/api/profile", token1, map[string]any{"username": "gopher"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid profile status = %d, want 400", rec.Code)
	}
}

func TestQuestionsPublicAndFiltered(t *testing.T) {
	ts := newTestServer(t, Config{})
	rec := ts.do(t, http.MethodGet, "/api/questions?tag=graph", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Questions []domain.Question `json:"questions"`
	}
	decodeResponse(t, rec, &resp)
	if len(resp.Questions) == 0 {
		t.Fatalf("no graph questions returned")
	}
}

func TestVerifySubmissionFlow(t *testing.T) {
	ts := newTestServer(t, Config{})
	user, token := ts.signupAndLogin(t, "solver@example.com")
	ts.coding.submissions = []leetcode.Submission{{ID: "1", TitleSlug: "two-sum"}}

	// Not linked yet.
	rec := ts.do(t, http.MethodPost, "/api/questions/two-sum/verify", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unlinked status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/profile/leetcode", token, map[string]string{"username": "solver"})
	if rec.Code != http.StatusOK {
		t.Fatalf("link status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/questions/two-sum/verify", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
	var progress domain.QuestionProgress
	decodeResponse(t, rec, &progress)
	if progress.UserID != user.ID || progress.Status != "solved" {
		t.Fatalf("unexpected progress: %+v", progress)
	}

	rec = ts.do(t, http.MethodPost, "/api/questions/trapping-rain-water/verify", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unsolved verify status = %d, want 404", rec.Code)
	}
}

func TestSyncUnavailableWithoutQueue(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token := ts.signupAndLogin(t, "s@example.com")
	ts.do(t, http.MethodPost, "/api/profile/leetcode", token, map[string]string{"username": "s"})

	rec := ts.do(t, http.MethodPost, "/api/sync", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("sync status = %d, want 503", rec.Code)
	}
}

const scanReply = `{"overallScore": 77, "sectionScores": {"formatting": 80}, "strengths": ["x"], "weaknesses": ["y"], "improvements": ["z"], "recommendedRoles": ["Backend Developer"]}`

func (ts *testServer) uploadPDF(t *testing.T, path, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "resume.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("Go developer with Redis skills")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func TestScanResumeOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token := ts.signupAndLogin(t, "r@example.com")
	ts.gen.reply = scanReply

	rec := ts.uploadPDF(t, "/api/resume/scan", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("scan status = %d: %s", rec.Code, rec.Body.String())
	}
	var analysis domain.ResumeAnalysis
	decodeResponse(t, rec, &analysis)
	if analysis.OverallScore != 77 {
		t.Fatalf("score = %d, want 77", analysis.OverallScore)
	}

	rec = ts.do(t, http.MethodGet, "/api/resume/analyses", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyses status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), analysis.ID) {
		t.Fatalf("analysis missing from history")
	}
}

func TestScanResumeQuotaReturns429(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token := ts.signupAndLogin(t, "q@example.com")
	ts.gen.reply = scanReply

	for i := 0; i < 3; i++ {
		if rec := ts.uploadPDF(t, "/api/resume/scan", token, nil); rec.Code != http.StatusOK {
			t.Fatalf("scan %d status = %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	rec := ts.uploadPDF(t, "/api/resume/scan", token, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("fourth scan status = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Daily limit reached") {
		t.Fatalf("429 body missing limit message: %s", rec.Body.String())
	}
}

func TestMatchJDRequiresJobDescriptionField(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token := ts.signupAndLogin(t, "m@example.com")

	rec := ts.uploadPDF(t, "/api/resume/match", token, map[string]string{"role": "Backend Developer"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "job description required") {
		t.Fatalf("validation message missing: %s", rec.Body.String())
	}
}

func TestUpstreamFailureStaysOpaque(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token := ts.signupAndLogin(t, "opaque@example.com")
	ts.gen.err = errors.New("connection refused to upstream model host 10.0.3.7")

	rec := ts.uploadPDF(t, "/api/resume/match", token, map[string]string{
		"role": "Backend Developer", "jobDescription": "We need Go.",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "10.0.3.7") || strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("backend detail leaked to client: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "internal error") {
		t.Fatalf("expected generic error body, got: %s", rec.Body.String())
	}

	rec = ts.uploadPDF(t, "/api/resume/scan", token, nil)
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("scan failure leaked or misclassified: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDraftAndReviewOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token := ts.signupAndLogin(t, "d@example.com")

	rec := ts.do(t, http.MethodGet, "/api/resume/draft", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty draft status = %d, want 404", rec.Code)
	}

	rec = ts.do(t, http.MethodPut, "/api/resume/draft", token, map[string]any{
		"title": "Draft", "content": map[string]any{"summary": "Go developer"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save draft status = %d: %s", rec.Code, rec.Body.String())
	}

	ts.gen.reply = scanReply
	rec = ts.do(t, http.MethodPost, "/api/resume/draft/review", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("review status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestQuizFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	if err := ts.app.SeedQuizzes(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, token := ts.signupAndLogin(t, "quiz@example.com")

	rec := ts.do(t, http.MethodPost, "/api/quizzes/backend-fundamentals/results", token, map[string]any{
		"score": 10, "totalQuestions": 15,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodGet, "/api/quizzes", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "backend-fundamentals") {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWaitlistOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token := ts.signupAndLogin(t, "wl@example.com")

	rec := ts.do(t, http.MethodPost, "/api/waitlist", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/api/waitlist", token, nil)
	var resp map[string]bool
	decodeResponse(t, rec, &resp)
	if !resp["onWaitlist"] {
		t.Fatalf("waitlist status not reflected: %s", rec.Body.String())
	}
}

func TestPasswordResetOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.signupAndLogin(t, "reset@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "reset@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"email": "reset@example.com", "code": ts.mailer.lastCode(t), "newPassword": "N3w-Sup3r$ecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "reset@example.com", "password": "N3w-Sup3r$ecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogoutOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	_, token := ts.signupAndLogin(t, "out@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("post-logout me status = %d, want 401", rec.Code)
	}
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, Config{})
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}
}
