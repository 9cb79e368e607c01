package store

import (
	"testing"
	"time"

	"intraprep/pkg/domain"
)

func TestIncrementUsageStopsAtLimit(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 3; i++ {
		ok, err := s.IncrementUsage("u1", "2026-03-01", domain.ActionPDFScan, 3)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("increment %d denied, want allowed", i)
		}
	}
	ok, err := s.IncrementUsage("u1", "2026-03-01", domain.ActionPDFScan, 3)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if ok {
		t.Fatalf("fourth increment allowed, want denied")
	}
	usage, found, err := s.GetDailyUsage("u1")
	if err != nil || !found {
		t.Fatalf("get usage: found=%v err=%v", found, err)
	}
	if usage.PDFScanCount != 3 {
		t.Fatalf("pdf scan count = %d, want 3", usage.PDFScanCount)
	}
}

func TestIncrementUsageResetsStaleRow(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 3; i++ {
		if _, err := s.IncrementUsage("u1", "2026-03-01", domain.ActionJDMatch, 3); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	// A row dated yesterday must not count against the new day.
	ok, err := s.IncrementUsage("u1", "2026-03-02", domain.ActionJDMatch, 3)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !ok {
		t.Fatalf("first increment of new day denied")
	}
	usage, _, _ := s.GetDailyUsage("u1")
	if usage.DateTracked != "2026-03-02" {
		t.Fatalf("date = %q, want 2026-03-02", usage.DateTracked)
	}
	if usage.JDMatchCount != 1 {
		t.Fatalf("jd match count = %d, want 1", usage.JDMatchCount)
	}
}

func TestIncrementUsageTracksActionsIndependently(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 3; i++ {
		if _, err := s.IncrementUsage("u1", "2026-03-01", domain.ActionPDFScan, 3); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	ok, err := s.IncrementUsage("u1", "2026-03-01", domain.ActionBuilderAI, 3)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !ok {
		t.Fatalf("builder increment denied after pdf quota spent")
	}
}

func TestUpsertVerificationCodeReplacesPrior(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	first := domain.VerificationCode{
		Email:     "a@b.com",
		Type:      domain.CodeSignup,
		CodeHash:  "hash-1",
		ExpiresAt: now.Add(10 * time.Minute),
		CreatedAt: now,
	}
	if err := s.UpsertVerificationCode(first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := first
	second.CodeHash = "hash-2"
	second.Attempts = 0
	if err := s.UpsertVerificationCode(second); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, found, err := s.GetVerificationCode("a@b.com", domain.CodeSignup)
	if err != nil || !found {
		t.Fatalf("get code: found=%v err=%v", found, err)
	}
	if got.CodeHash != "hash-2" {
		t.Fatalf("code hash = %q, want hash-2", got.CodeHash)
	}

	// Reset codes live independently of signup codes.
	if _, found, _ := s.GetVerificationCode("a@b.com", domain.CodeReset); found {
		t.Fatalf("reset code found, want absent")
	}
}

func TestJoinWaitlistTwiceKeepsFirstEntry(t *testing.T) {
	s := NewMemoryStore()
	first := domain.WaitlistEntry{UserID: "u1", JoinedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	if err := s.JoinWaitlist(first); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := s.JoinWaitlist(domain.WaitlistEntry{UserID: "u1", JoinedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	on, err := s.OnWaitlist("u1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !on {
		t.Fatalf("user not on waitlist")
	}
}
