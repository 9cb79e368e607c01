package store

import (
	"intraprep/pkg/domain"
)

// Store defines persistence operations for accounts, usage quotas,
// verification codes, coding progress, resume artifacts, quizzes, and the
// premium waitlist.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// profiles
	SaveProfile(domain.Profile) error
	GetProfile(userID string) (domain.Profile, bool, error)
	UsernameTaken(username, excludeUserID string) (bool, error)

	// daily usage
	GetDailyUsage(userID string) (domain.DailyUsage, bool, error)
	// IncrementUsage bumps one action counter for the given calendar date,
	// creating or resetting the user's row when it is dated differently.
	// The increment only applies while the counter is below limit; it
	// reports false when the quota for that action is already exhausted.
	IncrementUsage(userID, date string, action domain.ActionType, limit int) (bool, error)

	// verification codes: at most one live code per (email, type)
	UpsertVerificationCode(domain.VerificationCode) error
	GetVerificationCode(email string, codeType domain.CodeType) (domain.VerificationCode, bool, error)
	SetVerificationAttempts(email string, codeType domain.CodeType, attempts int) error
	DeleteVerificationCode(email string, codeType domain.CodeType) error

	// coding progress
	UpsertProgress(domain.QuestionProgress) error
	GetProgress(userID, questionID string) (domain.QuestionProgress, bool, error)
	ListProgress(userID string) ([]domain.QuestionProgress, error)

	// resume analyses and builder drafts
	SaveAnalysis(domain.ResumeAnalysis) error
	ListAnalyses(userID string, limit int) ([]domain.ResumeAnalysis, error)
	SaveResume(domain.Resume) error
	GetResume(userID string) (domain.Resume, bool, error)

	// quizzes
	SaveQuiz(domain.Quiz) error
	ListQuizzes() ([]domain.Quiz, error)
	SaveQuizResult(domain.QuizResult) error
	ListQuizResults(userID string) ([]domain.QuizResult, error)

	// premium waitlist
	JoinWaitlist(domain.WaitlistEntry) error
	OnWaitlist(userID string) (bool, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
