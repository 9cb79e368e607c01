package app

import (
	"fmt"

	"intraprep/internal/util"
	"intraprep/pkg/domain"
)

// QuizOverview pairs a quiz with the caller's best recorded score.
type QuizOverview struct {
	Quiz      domain.Quiz `json:"quiz"`
	BestScore *int        `json:"bestScore,omitempty"`
	Attempts  int         `json:"attempts"`
}

// ListQuizzes returns all quizzes with the caller's best results.
func (a *App) ListQuizzes(userID string) ([]QuizOverview, error) {
	quizzes, err := a.store.ListQuizzes()
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	results, err := a.store.ListQuizResults(userID)
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	best := make(map[string]*int, len(results))
	attempts := make(map[string]int, len(results))
	for _, r := range results {
		attempts[r.QuizID]++
		score := r.Score
		if prev, ok := best[r.QuizID]; !ok || score > *prev {
			best[r.QuizID] = &score
		}
	}
	res := make([]QuizOverview, 0, len(quizzes))
	for _, q := range quizzes {
		res = append(res, QuizOverview{Quiz: q, BestScore: best[q.ID], Attempts: attempts[q.ID]})
	}
	return res, nil
}

// SubmitQuizResult records a quiz attempt.
func (a *App) SubmitQuizResult(userID, quizID string, score, total int, answers map[string]any) (domain.QuizResult, error) {
	if total <= 0 || score < 0 || score > total {
		return domain.QuizResult{}, invalidInputf("invalid score %d/%d", score, total)
	}
	result := domain.QuizResult{
		ID:             util.NewID(),
		UserID:         userID,
		QuizID:         quizID,
		Score:          score,
		TotalQuestions: total,
		Answers:        answers,
		CreatedAt:      a.now(),
	}
	if err := a.store.SaveQuizResult(result); err != nil {
		return domain.QuizResult{}, fmt.Errorf("save quiz result: %w", err)
	}
	return result, nil
}

// ListQuizResults returns the caller's quiz history, newest first.
func (a *App) ListQuizResults(userID string) ([]domain.QuizResult, error) {
	results, err := a.store.ListQuizResults(userID)
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	return results, nil
}

// SeedQuizzes inserts the default quiz set; existing rows are updated in
// place so reseeding on boot is safe.
func (a *App) SeedQuizzes() error {
	defaults := []domain.Quiz{
		{ID: "frontend-fundamentals", Title: "Frontend Fundamentals", Category: "technical", Role: "Frontend Developer", QuestionCount: 15},
		{ID: "backend-fundamentals", Title: "Backend Fundamentals", Category: "technical", Role: "Backend Developer", QuestionCount: 15},
		{ID: "system-design-basics", Title: "System Design Basics", Category: "technical", Role: "Software Engineer", QuestionCount: 10},
		{ID: "behavioral-star", Title: "Behavioral Interview (STAR)", Category: "behavioral", Role: "All Roles", QuestionCount: 12},
		{ID: "data-structures", Title: "Data Structures", Category: "technical", Role: "Software Engineer", QuestionCount: 20},
	}
	for _, q := range defaults {
		if err := a.store.SaveQuiz(q); err != nil {
			return fmt.Errorf("seed quiz %s: %w", q.ID, err)
		}
	}
	return nil
}
