package app

import (
	"errors"
	"testing"
	"time"

	"intraprep/pkg/domain"
)

func TestCheckDailyLimitFreshDay(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")

	status, err := ta.CheckDailyLimit(user.ID, domain.ActionPDFScan)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !status.Allowed || status.Used != 0 || status.Limit != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestDailyLimitDeniesFourthUse(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")

	for i := 0; i < 3; i++ {
		if err := ta.IncrementUsage(user.ID, domain.ActionPDFScan); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	status, err := ta.CheckDailyLimit(user.ID, domain.ActionPDFScan)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status.Allowed {
		t.Fatalf("fourth use allowed, want denied")
	}
	if status.Message != "Daily limit reached (3/3). Try again tomorrow!" {
		t.Fatalf("message = %q", status.Message)
	}
	if err := ta.IncrementUsage(user.ID, domain.ActionPDFScan); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("increment past limit: %v, want ErrLimitExceeded", err)
	}
}

func TestDailyLimitRefillsNextDay(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")

	for i := 0; i < 3; i++ {
		if err := ta.IncrementUsage(user.ID, domain.ActionJDMatch); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	ta.advance(24 * time.Hour)

	status, err := ta.CheckDailyLimit(user.ID, domain.ActionJDMatch)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !status.Allowed || status.Used != 0 {
		t.Fatalf("yesterday's usage counted today: %+v", status)
	}
	if err := ta.IncrementUsage(user.ID, domain.ActionJDMatch); err != nil {
		t.Fatalf("increment on new day: %v", err)
	}
}

func TestUsageActionsAreIndependent(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")

	for i := 0; i < 3; i++ {
		if err := ta.IncrementUsage(user.ID, domain.ActionPDFScan); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	status, err := ta.CheckDailyLimit(user.ID, domain.ActionBuilderAI)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !status.Allowed {
		t.Fatalf("builder quota blocked by pdf scans")
	}
}

func TestUsageSummaryCoversAllActions(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")

	if err := ta.IncrementUsage(user.ID, domain.ActionBuilderAI); err != nil {
		t.Fatalf("increment: %v", err)
	}
	summary, err := ta.UsageSummary(user.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("summary entries = %d, want 3", len(summary))
	}
	if summary[domain.ActionBuilderAI].Used != 1 {
		t.Fatalf("builder used = %d, want 1", summary[domain.ActionBuilderAI].Used)
	}
	if summary[domain.ActionPDFScan].Used != 0 {
		t.Fatalf("pdf used = %d, want 0", summary[domain.ActionPDFScan].Used)
	}
}

func TestUnknownActionRejected(t *testing.T) {
	ta := newTestApp(t)
	if _, err := ta.CheckDailyLimit("u1", domain.ActionType("bogus")); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	if err := ta.IncrementUsage("u1", domain.ActionType("bogus")); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
