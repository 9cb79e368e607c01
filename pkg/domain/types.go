package domain

import "time"

type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

// ActionType names a daily-quota limited action.
type ActionType string

const (
	ActionPDFScan   ActionType = "pdf_scan"
	ActionJDMatch   ActionType = "jd_match"
	ActionBuilderAI ActionType = "builder_ai"
)

// CodeType distinguishes signup verification from password reset.
type CodeType string

const (
	CodeSignup CodeType = "signup"
	CodeReset  CodeType = "reset"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"fullName"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Profile struct {
	UserID            string   `json:"userId"`
	Username          string   `json:"username"`
	Phone             string   `json:"phone"`
	Location          string   `json:"location"`
	TargetRole        string   `json:"targetRole"`
	PreferredIndustry string   `json:"preferredIndustry"`
	Skills            []string `json:"skills"`
	LeetCodeUsername  string   `json:"leetcodeUsername"`
}

// DailyUsage is the per-user per-day counter row for quota-limited actions.
// DateTracked is a calendar date in the service's configured timezone,
// formatted as 2006-01-02. A row dated before today counts as absent.
type DailyUsage struct {
	UserID         string `json:"userId"`
	DateTracked    string `json:"dateTracked"`
	PDFScanCount   int    `json:"pdfScanCount"`
	JDMatchCount   int    `json:"jdMatchCount"`
	BuilderAICount int    `json:"builderAiCount"`
}

// Count returns the counter for one action type.
func (u DailyUsage) Count(action ActionType) int {
	switch action {
	case ActionPDFScan:
		return u.PDFScanCount
	case ActionJDMatch:
		return u.JDMatchCount
	case ActionBuilderAI:
		return u.BuilderAICount
	default:
		return 0
	}
}

// VerificationCode is a short-lived email OTP. At most one live code exists
// per (email, type); the code itself is stored only as a bcrypt hash.
type VerificationCode struct {
	Email     string    `json:"email"`
	Type      CodeType  `json:"type"`
	CodeHash  string    `json:"-"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question is a curated practice problem referencing a LeetCode slug.
type Question struct {
	ID         string   `json:"id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
}

// QuestionProgress records a verified solve. Unique per (user, question).
type QuestionProgress struct {
	UserID     string    `json:"userId"`
	QuestionID string    `json:"questionId"`
	Status     string    `json:"status"`
	SolvedAt   time.Time `json:"solvedAt"`
}

// Streak summarizes consecutive-day solving activity.
type Streak struct {
	CurrentStreak  int  `json:"currentStreak"`
	HasSolvedToday bool `json:"hasSolvedToday"`
}

// RevisionStatus buckets a solved question by elapsed days since the solve.
type RevisionStatus struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

// AnalysisSource names which flow produced a resume analysis.
type AnalysisSource string

const (
	SourcePDFScan   AnalysisSource = "pdf_scan"
	SourceJDMatch   AnalysisSource = "jd_match"
	SourceBuilderAI AnalysisSource = "builder_ai"
)

// ScanFeedback is the structured output of a resume scan or builder review.
type ScanFeedback struct {
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Improvements     []string `json:"improvements"`
	RecommendedRoles []string `json:"recommendedRoles,omitempty"`
}

// MatchFeedback is the structured output of a resume-vs-JD match.
type MatchFeedback struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

type ResumeAnalysis struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Source          AnalysisSource `json:"source"`
	OverallScore    int            `json:"overallScore"`
	MatchScore      int            `json:"matchScore,omitempty"`
	SectionScores   map[string]int `json:"sectionScores,omitempty"`
	ScanFeedback    *ScanFeedback  `json:"scanFeedback,omitempty"`
	MatchFeedback   *MatchFeedback `json:"matchFeedback,omitempty"`
	MissingKeywords []string       `json:"missingKeywords,omitempty"`
	FileURL         string         `json:"fileUrl,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Resume is the single builder draft a user keeps; Content is the raw
// structured document the frontend edits.
type Resume struct {
	UserID    string         `json:"userId"`
	Title     string         `json:"title"`
	Content   map[string]any `json:"content"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type Quiz struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Role          string `json:"role"`
	QuestionCount int    `json:"questionCount"`
}

type QuizResult struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	QuizID         string         `json:"quizId"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        map[string]any `json:"answers,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type WaitlistEntry struct {
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}
