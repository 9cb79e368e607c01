package app

import (
	"errors"
	"testing"
)

func TestQuizSubmitAndBestScore(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")
	if err := ta.SeedQuizzes(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := ta.SubmitQuizResult(user.ID, "backend-fundamentals", 9, 15, map[string]any{"q1": "a"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := ta.SubmitQuizResult(user.ID, "backend-fundamentals", 12, 15, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	overviews, err := ta.ListQuizzes(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var found bool
	for _, o := range overviews {
		if o.Quiz.ID != "backend-fundamentals" {
			continue
		}
		found = true
		if o.Attempts != 2 {
			t.Fatalf("attempts = %d, want 2", o.Attempts)
		}
		if o.BestScore == nil || *o.BestScore != 12 {
			t.Fatalf("best score = %v, want 12", o.BestScore)
		}
	}
	if !found {
		t.Fatalf("seeded quiz missing from listing")
	}
}

func TestQuizRejectsInvalidScore(t *testing.T) {
	ta := newTestApp(t)
	_, err := ta.SubmitQuizResult("u1", "q", 16, 15, nil)
	var invalid ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("score above total: %v, want ValidationError", err)
	}
	if _, err := ta.SubmitQuizResult("u1", "q", -1, 15, nil); err == nil {
		t.Fatalf("expected error for negative score")
	}
	if _, err := ta.SubmitQuizResult("u1", "q", 1, 0, nil); err == nil {
		t.Fatalf("expected error for zero total")
	}
}

func TestWaitlistJoinIsIdempotent(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")

	if err := ta.JoinWaitlist(user.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := ta.JoinWaitlist(user.ID); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	on, err := ta.OnWaitlist(user.ID)
	if err != nil || !on {
		t.Fatalf("waitlist status: on=%v err=%v", on, err)
	}
}
