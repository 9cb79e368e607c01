package app

import (
	"context"
	"regexp"
	"testing"
	"time"

	"intraprep/internal/leetcode"
	"intraprep/internal/store"
	"intraprep/pkg/domain"
)

// fakeMailer records outgoing mail.
type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatalf("no mail sent")
	}
	match := codePattern.FindStringSubmatch(m.sent[len(m.sent)-1].Body)
	if match == nil {
		t.Fatalf("no code in mail body: %q", m.sent[len(m.sent)-1].Body)
	}
	return match[1]
}

// fakeGenerator returns a fixed reply.
type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (g *fakeGenerator) GenerateText(context.Context, string, string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// fakeCoding serves scripted LeetCode responses.
type fakeCoding struct {
	submissions []leetcode.Submission
	exists      bool
	err         error
}

func (c *fakeCoding) RecentAcceptedSubmissions(context.Context, string, int) ([]leetcode.Submission, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.submissions, nil
}

func (c *fakeCoding) UserExists(context.Context, string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.exists, nil
}

type testApp struct {
	*App
	store     *store.MemoryStore
	mailer    *fakeMailer
	generator *fakeGenerator
	coding    *fakeCoding
	clock     *time.Time
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	mem := store.NewMemoryStore()
	mailer := &fakeMailer{}
	generator := &fakeGenerator{reply: "{}"}
	coding := &fakeCoding{exists: true}
	a, err := New(Config{
		Store:     mem,
		Sessions:  store.NewMemorySessionStore(),
		Mailer:    mailer,
		Generator: generator,
		Coding:    coding,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return clock }
	a.extract = func(data []byte) (string, error) { return string(data), nil }
	return &testApp{App: a, store: mem, mailer: mailer, generator: generator, coding: coding, clock: &clock}
}

func (ta *testApp) advance(d time.Duration) {
	*ta.clock = ta.clock.Add(d)
	ta.App.now = func() time.Time { return *ta.clock }
}

// activeUser registers and activates an account directly in the store.
func (ta *testApp) activeUser(t *testing.T, id, email string) domain.User {
	t.Helper()
	user := domain.User{
		ID:        id,
		Email:     email,
		Status:    domain.StatusActive,
		CreatedAt: ta.App.now(),
		UpdatedAt: ta.App.now(),
	}
	if err := ta.store.SaveUser(user); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return user
}

func (ta *testApp) linkProfile(t *testing.T, userID, leetcodeUsername string) {
	t.Helper()
	if err := ta.store.SaveProfile(domain.Profile{
		UserID:           userID,
		Username:         "u-" + userID,
		TargetRole:       "Backend Developer",
		Skills:           []string{"go"},
		LeetCodeUsername: leetcodeUsername,
	}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
}
