package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"intraprep/internal/queue"
	"intraprep/pkg/domain"
)

// questionCatalog is the curated practice playlist. The frontend renders
// the same list; IDs double as LeetCode slugs.
var questionCatalog = []domain.Question{
	{ID: "two-sum", Slug: "two-sum", Title: "Two Sum", Difficulty: "Easy", Tags: []string{"array", "hash-table"}},
	{ID: "valid-parentheses", Slug: "valid-parentheses", Title: "Valid Parentheses", Difficulty: "Easy", Tags: []string{"stack", "string"}},
	{ID: "merge-two-sorted-lists", Slug: "merge-two-sorted-lists", Title: "Merge Two Sorted Lists", Difficulty: "Easy", Tags: []string{"linked-list"}},
	{ID: "best-time-to-buy-and-sell-stock", Slug: "best-time-to-buy-and-sell-stock", Title: "Best Time to Buy and Sell Stock", Difficulty: "Easy", Tags: []string{"array", "dynamic-programming"}},
	{ID: "valid-anagram", Slug: "valid-anagram", Title: "Valid Anagram", Difficulty: "Easy", Tags: []string{"string", "hash-table"}},
	{ID: "binary-search", Slug: "binary-search", Title: "Binary Search", Difficulty: "Easy", Tags: []string{"binary-search"}},
	{ID: "linked-list-cycle", Slug: "linked-list-cycle", Title: "Linked List Cycle", Difficulty: "Easy", Tags: []string{"linked-list", "two-pointers"}},
	{ID: "maximum-subarray", Slug: "maximum-subarray", Title: "Maximum Subarray", Difficulty: "Medium", Tags: []string{"array", "dynamic-programming"}},
	{ID: "3sum", Slug: "3sum", Title: "3Sum", Difficulty: "Medium", Tags: []string{"array", "two-pointers"}},
	{ID: "longest-substring-without-repeating-characters", Slug: "longest-substring-without-repeating-characters", Title: "Longest Substring Without Repeating Characters", Difficulty: "Medium", Tags: []string{"string", "sliding-window"}},
	{ID: "coin-change", Slug: "coin-change", Title: "Coin Change", Difficulty: "Medium", Tags: []string{"dynamic-programming"}},
	{ID: "number-of-islands", Slug: "number-of-islands", Title: "Number of Islands", Difficulty: "Medium", Tags: []string{"graph", "bfs", "dfs"}},
	{ID: "course-schedule", Slug: "course-schedule", Title: "Course Schedule", Difficulty: "Medium", Tags: []string{"graph", "topological-sort"}},
	{ID: "product-of-array-except-self", Slug: "product-of-array-except-self", Title: "Product of Array Except Self", Difficulty: "Medium", Tags: []string{"array", "prefix-sum"}},
	{ID: "merge-k-sorted-lists", Slug: "merge-k-sorted-lists", Title: "Merge k Sorted Lists", Difficulty: "Hard", Tags: []string{"linked-list", "heap"}},
	{ID: "trapping-rain-water", Slug: "trapping-rain-water", Title: "Trapping Rain Water", Difficulty: "Hard", Tags: []string{"array", "two-pointers"}},
}

// ProgressEntry joins a catalog question with the caller's solve state and
// revision bucket.
type ProgressEntry struct {
	Question domain.Question        `json:"question"`
	Solved   bool                   `json:"solved"`
	SolvedAt *time.Time             `json:"solvedAt,omitempty"`
	Revision *domain.RevisionStatus `json:"revision,omitempty"`
}

// Questions returns the curated catalog, optionally filtered by tag.
func (a *App) Questions(tag string) []domain.Question {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return questionCatalog
	}
	var res []domain.Question
	for _, q := range questionCatalog {
		for _, t := range q.Tags {
			if t == tag {
				res = append(res, q)
				break
			}
		}
	}
	return res
}

func questionByID(id string) (domain.Question, bool) {
	for _, q := range questionCatalog {
		if q.ID == id || q.Slug == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

// VerifySubmission checks the user's recent accepted LeetCode submissions
// for the question and records the solve on a hit.
func (a *App) VerifySubmission(ctx context.Context, user domain.User, questionID string) (domain.QuestionProgress, error) {
	question, ok := questionByID(questionID)
	if !ok {
		return domain.QuestionProgress{}, ErrNotFound
	}
	username, err := a.linkedLeetCodeUsername(user.ID)
	if err != nil {
		return domain.QuestionProgress{}, err
	}
	subs, err := a.coding.RecentAcceptedSubmissions(ctx, username, 20)
	if err != nil {
		return domain.QuestionProgress{}, fmt.Errorf("fetch submissions: %w", err)
	}
	for _, sub := range subs {
		if sub.TitleSlug != question.Slug {
			continue
		}
		progress := domain.QuestionProgress{
			UserID:     user.ID,
			QuestionID: question.ID,
			Status:     "solved",
			SolvedAt:   a.now(),
		}
		if err := a.store.UpsertProgress(progress); err != nil {
			return domain.QuestionProgress{}, fmt.Errorf("save progress: %w", err)
		}
		return progress, nil
	}
	return domain.QuestionProgress{}, ErrSubmissionNotFound
}

// ListProgress returns the full catalog with the caller's solve state and
// revision classification.
func (a *App) ListProgress(userID string) ([]ProgressEntry, error) {
	progress, err := a.store.ListProgress(userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	solved := make(map[string]domain.QuestionProgress, len(progress))
	for _, p := range progress {
		solved[p.QuestionID] = p
	}
	now := a.now()
	res := make([]ProgressEntry, 0, len(questionCatalog))
	for _, q := range questionCatalog {
		entry := ProgressEntry{Question: q}
		if p, ok := solved[q.ID]; ok {
			solvedAt := p.SolvedAt
			entry.Solved = true
			entry.SolvedAt = &solvedAt
			entry.Revision = ClassifyRevision(solvedAt, now)
		}
		res = append(res, entry)
	}
	return res, nil
}

// EnqueueSync schedules a background re-check of the user's recent
// submissions against the whole catalog.
func (a *App) EnqueueSync(ctx context.Context, user domain.User) (queue.JobStatus, error) {
	if a.syncJobs == nil {
		return queue.JobStatus{}, ErrSyncUnavailable
	}
	if _, err := a.linkedLeetCodeUsername(user.ID); err != nil {
		return queue.JobStatus{}, err
	}
	job, err := a.syncJobs.Enqueue(ctx, user.ID)
	if err != nil {
		return queue.JobStatus{}, fmt.Errorf("enqueue sync: %w", err)
	}
	return job, nil
}

// SyncJob reads a sync job's status.
func (a *App) SyncJob(ctx context.Context, jobID string) (queue.JobStatus, bool, error) {
	if a.syncJobs == nil {
		return queue.JobStatus{}, false, ErrSyncUnavailable
	}
	return a.syncJobs.GetJob(ctx, jobID)
}

// SyncUserProgress is the queue worker body: it matches the user's recent
// accepted submissions against the catalog and records any solves not yet
// tracked. Existing solve timestamps are preserved.
func (a *App) SyncUserProgress(ctx context.Context, userID string) error {
	username, err := a.linkedLeetCodeUsername(userID)
	if err != nil {
		return err
	}
	subs, err := a.coding.RecentAcceptedSubmissions(ctx, username, 50)
	if err != nil {
		return fmt.Errorf("fetch submissions: %w", err)
	}
	accepted := make(map[string]bool, len(subs))
	for _, sub := range subs {
		accepted[sub.TitleSlug] = true
	}
	for _, q := range questionCatalog {
		if !accepted[q.Slug] {
			continue
		}
		if _, found, err := a.store.GetProgress(userID, q.ID); err != nil {
			return fmt.Errorf("check progress: %w", err)
		} else if found {
			continue
		}
		if err := a.store.UpsertProgress(domain.QuestionProgress{
			UserID:     userID,
			QuestionID: q.ID,
			Status:     "solved",
			SolvedAt:   a.now(),
		}); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
	}
	return nil
}

func (a *App) linkedLeetCodeUsername(userID string) (string, error) {
	profile, found, err := a.store.GetProfile(userID)
	if err != nil {
		return "", fmt.Errorf("fetch profile: %w", err)
	}
	if !found || strings.TrimSpace(profile.LeetCodeUsername) == "" {
		return "", ErrLeetCodeNotLinked
	}
	return profile.LeetCodeUsername, nil
}
