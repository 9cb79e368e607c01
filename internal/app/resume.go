package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"intraprep/internal/util"
	"intraprep/pkg/domain"
)

// LimitMessage is the user-facing text for an exhausted quota.
func (a *App) LimitMessage(action domain.ActionType) string {
	return limitMessage(a.quotas[action])
}

const scanSystemPrompt = `You are an expert technical recruiter and resume reviewer.
Respond with a single JSON object and nothing else.`

const scanUserPromptFmt = `Review the resume below. Score it for a software/tech job market.

Return JSON with exactly these fields:
  "overallScore": integer 0-100,
  "sectionScores": object mapping "formatting", "experience", "education", "skills", "projects", "impact" to integers 0-100,
  "strengths": array of short strings,
  "weaknesses": array of short strings,
  "improvements": array of short actionable strings,
  "recommendedRoles": array of 3-5 job titles this resume fits best.

Resume text:
%s`

const matchSystemPrompt = `You are an ATS (applicant tracking system) simulator and career coach.
Respond with a single JSON object and nothing else.`

const matchUserPromptFmt = `Compare the resume below against the job description for the role of %q.

Return JSON with exactly these fields:
  "matchScore": integer 0-100 for how well the resume matches the job description,
  "missingKeywords": array of keywords present in the job description but absent from the resume,
  "summary": one-paragraph verdict,
  "strengths": array of short strings,
  "gaps": array of short strings,
  "recommendations": array of short actionable strings.

Job description:
%s

Resume text:
%s`

const reviewUserPromptFmt = `Review the structured resume draft below (JSON as edited in a resume builder).
Score and critique it as if it were rendered to a one-page resume.

Return JSON with exactly these fields:
  "overallScore": integer 0-100,
  "sectionScores": object mapping "formatting", "experience", "education", "skills", "projects", "impact" to integers 0-100,
  "strengths": array of short strings,
  "weaknesses": array of short strings,
  "improvements": array of short actionable strings.

Draft:
%s`

type scanResult struct {
	OverallScore     int            `json:"overallScore"`
	SectionScores    map[string]int `json:"sectionScores"`
	Strengths        []string       `json:"strengths"`
	Weaknesses       []string       `json:"weaknesses"`
	Improvements     []string       `json:"improvements"`
	RecommendedRoles []string       `json:"recommendedRoles"`
}

type matchResult struct {
	MatchScore      int      `json:"matchScore"`
	MissingKeywords []string `json:"missingKeywords"`
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

// ScanResume runs the AI resume review on an uploaded PDF and persists the
// analysis. Quota is consumed only after the scan succeeds.
func (a *App) ScanResume(ctx context.Context, user domain.User, data []byte) (domain.ResumeAnalysis, error) {
	status, err := a.CheckDailyLimit(user.ID, domain.ActionPDFScan)
	if err != nil {
		return domain.ResumeAnalysis{}, err
	}
	if !status.Allowed {
		return domain.ResumeAnalysis{}, ErrLimitExceeded
	}

	text, err := a.extract(data)
	if err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("extract resume text: %w", err)
	}

	analysisID := util.NewID()
	fileURL := a.storeUpload(ctx, user.ID, analysisID, data)

	raw, err := a.generator.GenerateText(ctx, scanSystemPrompt, fmt.Sprintf(scanUserPromptFmt, text))
	if err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("resume scan: %w", err)
	}
	var result scanResult
	if err := decodeModelJSON(raw, &result); err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("resume scan: %w", err)
	}

	analysis := domain.ResumeAnalysis{
		ID:            analysisID,
		UserID:        user.ID,
		Source:        domain.SourcePDFScan,
		OverallScore:  clampScore(result.OverallScore),
		SectionScores: clampScores(result.SectionScores),
		ScanFeedback: &domain.ScanFeedback{
			Strengths:        result.Strengths,
			Weaknesses:       result.Weaknesses,
			Improvements:     result.Improvements,
			RecommendedRoles: result.RecommendedRoles,
		},
		FileURL:   fileURL,
		CreatedAt: a.now(),
	}
	if err := a.store.SaveAnalysis(analysis); err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("save analysis: %w", err)
	}
	if err := a.IncrementUsage(user.ID, domain.ActionPDFScan); err != nil {
		return domain.ResumeAnalysis{}, err
	}
	return analysis, nil
}

// MatchJD compares an uploaded resume PDF against a job description.
func (a *App) MatchJD(ctx context.Context, user domain.User, data []byte, role, jobDescription string) (domain.ResumeAnalysis, error) {
	role = strings.TrimSpace(role)
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return domain.ResumeAnalysis{}, invalidInputf("job description required")
	}
	status, err := a.CheckDailyLimit(user.ID, domain.ActionJDMatch)
	if err != nil {
		return domain.ResumeAnalysis{}, err
	}
	if !status.Allowed {
		return domain.ResumeAnalysis{}, ErrLimitExceeded
	}

	text, err := a.extract(data)
	if err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("extract resume text: %w", err)
	}

	analysisID := util.NewID()
	fileURL := a.storeUpload(ctx, user.ID, analysisID, data)

	raw, err := a.generator.GenerateText(ctx, matchSystemPrompt, fmt.Sprintf(matchUserPromptFmt, role, jobDescription, text))
	if err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("jd match: %w", err)
	}
	var result matchResult
	if err := decodeModelJSON(raw, &result); err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("jd match: %w", err)
	}

	analysis := domain.ResumeAnalysis{
		ID:         analysisID,
		UserID:     user.ID,
		Source:     domain.SourceJDMatch,
		MatchScore: clampScore(result.MatchScore),
		MatchFeedback: &domain.MatchFeedback{
			Summary:         result.Summary,
			Strengths:       result.Strengths,
			Gaps:            result.Gaps,
			Recommendations: result.Recommendations,
		},
		MissingKeywords: result.MissingKeywords,
		FileURL:         fileURL,
		CreatedAt:       a.now(),
	}
	if err := a.store.SaveAnalysis(analysis); err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("save analysis: %w", err)
	}
	if err := a.IncrementUsage(user.ID, domain.ActionJDMatch); err != nil {
		return domain.ResumeAnalysis{}, err
	}
	return analysis, nil
}

// SaveDraft upserts the user's single builder draft.
func (a *App) SaveDraft(userID, title string, content map[string]any) (domain.Resume, error) {
	if len(content) == 0 {
		return domain.Resume{}, invalidInputf("draft content required")
	}
	draft := domain.Resume{
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Content:   content,
		UpdatedAt: a.now(),
	}
	if err := a.store.SaveResume(draft); err != nil {
		return domain.Resume{}, fmt.Errorf("save draft: %w", err)
	}
	return draft, nil
}

// GetDraft loads the user's builder draft.
func (a *App) GetDraft(userID string) (domain.Resume, error) {
	draft, found, err := a.store.GetResume(userID)
	if err != nil {
		return domain.Resume{}, fmt.Errorf("fetch draft: %w", err)
	}
	if !found {
		return domain.Resume{}, ErrNotFound
	}
	return draft, nil
}

// ReviewDraft runs the AI review over the stored builder draft.
func (a *App) ReviewDraft(ctx context.Context, user domain.User) (domain.ResumeAnalysis, error) {
	status, err := a.CheckDailyLimit(user.ID, domain.ActionBuilderAI)
	if err != nil {
		return domain.ResumeAnalysis{}, err
	}
	if !status.Allowed {
		return domain.ResumeAnalysis{}, ErrLimitExceeded
	}

	draft, err := a.GetDraft(user.ID)
	if err != nil {
		return domain.ResumeAnalysis{}, err
	}
	encoded, err := json.Marshal(draft.Content)
	if err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("encode draft: %w", err)
	}

	raw, err := a.generator.GenerateText(ctx, scanSystemPrompt, fmt.Sprintf(reviewUserPromptFmt, encoded))
	if err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("draft review: %w", err)
	}
	var result scanResult
	if err := decodeModelJSON(raw, &result); err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("draft review: %w", err)
	}

	analysis := domain.ResumeAnalysis{
		ID:            util.NewID(),
		UserID:        user.ID,
		Source:        domain.SourceBuilderAI,
		OverallScore:  clampScore(result.OverallScore),
		SectionScores: clampScores(result.SectionScores),
		ScanFeedback: &domain.ScanFeedback{
			Strengths:    result.Strengths,
			Weaknesses:   result.Weaknesses,
			Improvements: result.Improvements,
		},
		CreatedAt: a.now(),
	}
	if err := a.store.SaveAnalysis(analysis); err != nil {
		return domain.ResumeAnalysis{}, fmt.Errorf("save analysis: %w", err)
	}
	if err := a.IncrementUsage(user.ID, domain.ActionBuilderAI); err != nil {
		return domain.ResumeAnalysis{}, err
	}
	return analysis, nil
}

// ListAnalyses returns the user's analysis history, newest first.
func (a *App) ListAnalyses(userID string, limit int) ([]domain.ResumeAnalysis, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	analyses, err := a.store.ListAnalyses(userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return analyses, nil
}

// storeUpload saves the original PDF to object storage, best effort: a
// failed upload degrades to an analysis without a file link.
func (a *App) storeUpload(ctx context.Context, userID, analysisID string, data []byte) string {
	if a.objects == nil {
		return ""
	}
	key := fmt.Sprintf("resumes/%s/%s.pdf", userID, analysisID)
	if err := a.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		return ""
	}
	url, err := a.objects.PresignGet(ctx, key, 24*time.Hour)
	if err != nil {
		return ""
	}
	return url
}

// decodeModelJSON parses a JSON object out of an LLM reply, tolerating
// markdown fences and prose around the object.
func decodeModelJSON(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clampScores(scores map[string]int) map[string]int {
	if scores == nil {
		return nil
	}
	res := make(map[string]int, len(scores))
	for k, v := range scores {
		res[k] = clampScore(v)
	}
	return res
}
