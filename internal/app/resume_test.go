package app

import (
	"context"
	"errors"
	"testing"

	"intraprep/pkg/domain"
)

const scanReply = "```json\n" + `{
  "overallScore": 82,
  "sectionScores": {"formatting": 90, "experience": 75, "education": 80, "skills": 85, "projects": 70, "impact": 65},
  "strengths": ["clear layout"],
  "weaknesses": ["weak impact statements"],
  "improvements": ["quantify results"],
  "recommendedRoles": ["Backend Developer", "Platform Engineer"]
}` + "\n```"

const matchReply = `{
  "matchScore": 140,
  "missingKeywords": ["kubernetes", "terraform"],
  "summary": "Solid overlap with gaps in infra tooling.",
  "strengths": ["go experience"],
  "gaps": ["no IaC exposure"],
  "recommendations": ["add infra projects"]
}`

func TestScanResumePersistsAnalysisAndConsumesQuota(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")
	ta.generator.reply = scanReply

	analysis, err := ta.ScanResume(context.Background(), user, []byte("resume text"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if analysis.OverallScore != 82 || analysis.Source != domain.SourcePDFScan {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if analysis.ScanFeedback == nil || len(analysis.ScanFeedback.RecommendedRoles) != 2 {
		t.Fatalf("feedback not parsed: %+v", analysis.ScanFeedback)
	}

	saved, err := ta.ListAnalyses(user.ID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(saved) != 1 || saved[0].ID != analysis.ID {
		t.Fatalf("analysis not persisted: %+v", saved)
	}

	status, err := ta.CheckDailyLimit(user.ID, domain.ActionPDFScan)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status.Used != 1 {
		t.Fatalf("quota used = %d, want 1", status.Used)
	}
}

func TestScanResumeDeniedPastQuota(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")
	ta.generator.reply = scanReply

	for i := 0; i < 3; i++ {
		if _, err := ta.ScanResume(context.Background(), user, []byte("resume")); err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}
	calls := ta.generator.calls
	if _, err := ta.ScanResume(context.Background(), user, []byte("resume")); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("fourth scan: %v, want ErrLimitExceeded", err)
	}
	if ta.generator.calls != calls {
		t.Fatalf("denied scan still called the model")
	}
}

func TestScanResumeAIFailureDoesNotConsumeQuota(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")
	ta.generator.err = errors.New("model unavailable")

	if _, err := ta.ScanResume(context.Background(), user, []byte("resume")); err == nil {
		t.Fatalf("expected scan failure")
	}
	status, err := ta.CheckDailyLimit(user.ID, domain.ActionPDFScan)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status.Used != 0 {
		t.Fatalf("failed scan consumed quota: %+v", status)
	}
}

func TestMatchJDClampsScoreAndStoresKeywords(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")
	ta.generator.reply = matchReply

	analysis, err := ta.MatchJD(context.Background(), user, []byte("resume"), "Backend Developer", "We need Go and Kubernetes.")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if analysis.MatchScore != 100 {
		t.Fatalf("match score = %d, want clamped 100", analysis.MatchScore)
	}
	if analysis.Source != domain.SourceJDMatch || len(analysis.MissingKeywords) != 2 {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if analysis.MatchFeedback == nil || analysis.MatchFeedback.Summary == "" {
		t.Fatalf("match feedback not parsed")
	}
}

func TestMatchJDRequiresJobDescription(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")
	_, err := ta.MatchJD(context.Background(), user, []byte("resume"), "Backend Developer", "  ")
	var invalid ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("empty job description: %v, want ValidationError", err)
	}
}

func TestDraftRoundTripAndReview(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")

	content := map[string]any{"summary": "Go developer", "experience": []any{"intraprep"}}
	if _, err := ta.SaveDraft(user.ID, "My Resume", content); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	draft, err := ta.GetDraft(user.ID)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if draft.Title != "My Resume" {
		t.Fatalf("title = %q", draft.Title)
	}

	ta.generator.reply = scanReply
	analysis, err := ta.ReviewDraft(context.Background(), user)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if analysis.Source != domain.SourceBuilderAI {
		t.Fatalf("source = %q, want builder_ai", analysis.Source)
	}
}

func TestReviewDraftWithoutDraft(t *testing.T) {
	ta := newTestApp(t)
	user := ta.activeUser(t, "u1", "u1@example.com")
	if _, err := ta.ReviewDraft(context.Background(), user); !errors.Is(err, ErrNotFound) {
		t.Fatalf("review without draft: %v, want ErrNotFound", err)
	}
}

func TestDecodeModelJSONRejectsProse(t *testing.T) {
	var out scanResult
	if err := decodeModelJSON("I cannot review this resume.", &out); err == nil {
		t.Fatalf("expected error for response without JSON")
	}
}
