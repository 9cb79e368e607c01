package app

import (
	"context"
	"fmt"
	"time"

	"intraprep/internal/leetcode"
	"intraprep/internal/mail"
	"intraprep/internal/objstore"
	"intraprep/internal/pdfx"
	"intraprep/internal/queue"
	"intraprep/internal/store"
	"intraprep/pkg/ai"
	"intraprep/pkg/domain"
)

// CodingClient queries a coding-practice platform for a user's activity.
type CodingClient interface {
	RecentAcceptedSubmissions(ctx context.Context, username string, limit int) ([]leetcode.Submission, error)
	UserExists(ctx context.Context, username string) (bool, error)
}

// SyncEnqueuer schedules background progress-sync jobs.
type SyncEnqueuer interface {
	Enqueue(ctx context.Context, userID string) (queue.JobStatus, error)
	GetJob(ctx context.Context, jobID string) (queue.JobStatus, bool, error)
}

// Limiter gates repeatable actions such as OTP resends.
type Limiter interface {
	Allow(key string) bool
}

// Config holds dependencies and tuning for the core application.
type Config struct {
	Store     store.Store
	Sessions  store.SessionStore
	Mailer    mail.Mailer
	Generator ai.TextGenerator
	Coding    CodingClient

	// Optional: uploads are skipped when no object store is configured.
	Objects objstore.ObjectStore
	// Optional: sync endpoints report unavailable when nil.
	SyncJobs SyncEnqueuer
	// Optional: no resend cooldown when nil.
	OTPLimiter Limiter
	// Optional: replaces PDF text extraction.
	Extract func([]byte) (string, error)

	// Per-action daily quotas; missing entries default to 3.
	Quotas map[domain.ActionType]int
	// Day boundary for quotas and streaks; defaults to UTC.
	Location *time.Location

	SignupCodeTTL time.Duration
	ResetCodeTTL  time.Duration
}

// App is the core application service wiring storage, AI, email, and the
// coding-platform client together.
type App struct {
	store      store.Store
	sessions   store.SessionStore
	mailer     mail.Mailer
	generator  ai.TextGenerator
	coding     CodingClient
	objects    objstore.ObjectStore
	syncJobs   SyncEnqueuer
	otpLimiter Limiter

	quotas        map[domain.ActionType]int
	loc           *time.Location
	signupCodeTTL time.Duration
	resetCodeTTL  time.Duration

	now     func() time.Time
	extract func([]byte) (string, error)
}

const defaultDailyQuota = 3

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("text generator required")
	}
	if cfg.Coding == nil {
		return nil, fmt.Errorf("coding client required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	quotas := make(map[domain.ActionType]int, 3)
	for _, action := range []domain.ActionType{domain.ActionPDFScan, domain.ActionJDMatch, domain.ActionBuilderAI} {
		quotas[action] = defaultDailyQuota
		if q, ok := cfg.Quotas[action]; ok && q > 0 {
			quotas[action] = q
		}
	}
	signupTTL := cfg.SignupCodeTTL
	if signupTTL <= 0 {
		signupTTL = 10 * time.Minute
	}
	resetTTL := cfg.ResetCodeTTL
	if resetTTL <= 0 {
		resetTTL = 15 * time.Minute
	}
	extract := cfg.Extract
	if extract == nil {
		extract = pdfx.ExtractText
	}
	return &App{
		store:         cfg.Store,
		sessions:      cfg.Sessions,
		mailer:        cfg.Mailer,
		generator:     cfg.Generator,
		coding:        cfg.Coding,
		objects:       cfg.Objects,
		syncJobs:      cfg.SyncJobs,
		otpLimiter:    cfg.OTPLimiter,
		quotas:        quotas,
		loc:           loc,
		signupCodeTTL: signupTTL,
		resetCodeTTL:  resetTTL,
		now:           func() time.Time { return time.Now().UTC() },
		extract:       extract,
	}, nil
}
