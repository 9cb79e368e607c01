package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FullName     string
	Status       string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type ProfileModel struct {
	UserID            string `gorm:"primaryKey"`
	Username          string `gorm:"uniqueIndex"`
	Phone             string
	Location          string
	TargetRole        string
	PreferredIndustry string
	Skills            datatypes.JSON `gorm:"type:jsonb"`
	LeetcodeUsername  string
}

// DailyUsageModel keeps one counter row per user; a new day replaces the
// previous day's row in place. Column names are referenced by raw SQL in
// IncrementUsage, so they are pinned explicitly.
type DailyUsageModel struct {
	UserID         string `gorm:"primaryKey"`
	DateTracked    string `gorm:"column:date_tracked;not null;index"`
	PDFScanCount   int    `gorm:"column:pdf_scan_count;not null;default:0"`
	JDMatchCount   int    `gorm:"column:jd_match_count;not null;default:0"`
	BuilderAICount int    `gorm:"column:builder_ai_count;not null;default:0"`
}

// VerificationCodeModel's composite key enforces one live code per
// (email, type).
type VerificationCodeModel struct {
	Email     string `gorm:"primaryKey"`
	Type      string `gorm:"primaryKey"`
	CodeHash  string `gorm:"not null"`
	Attempts  int    `gorm:"not null;default:0"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

type QuestionProgressModel struct {
	UserID     string `gorm:"primaryKey"`
	QuestionID string `gorm:"primaryKey"`
	Status     string `gorm:"not null"`
	SolvedAt   time.Time `gorm:"not null;index"`
}

type ResumeAnalysisModel struct {
	ID              string `gorm:"primaryKey"`
	UserID          string `gorm:"not null;index"`
	Source          string `gorm:"not null"`
	OverallScore    int
	MatchScore      int
	SectionScores   datatypes.JSON `gorm:"type:jsonb"`
	Feedback        datatypes.JSON `gorm:"type:jsonb"`
	MissingKeywords datatypes.JSON `gorm:"type:jsonb"`
	FileURL         string
	CreatedAt       time.Time `gorm:"not null;index"`
}

type ResumeModel struct {
	UserID    string `gorm:"primaryKey"`
	Title     string
	Content   datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time      `gorm:"not null"`
}

type QuizModel struct {
	ID            string `gorm:"primaryKey"`
	Title         string `gorm:"not null"`
	Category      string `gorm:"index"`
	Role          string `gorm:"index"`
	QuestionCount int
}

type QuizResultModel struct {
	ID             string `gorm:"primaryKey"`
	UserID         string `gorm:"not null;index"`
	QuizID         string `gorm:"not null;index"`
	Score          int
	TotalQuestions int
	Answers        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null"`
}

type WaitlistEntryModel struct {
	UserID   string    `gorm:"primaryKey"`
	JoinedAt time.Time `gorm:"not null"`
}
