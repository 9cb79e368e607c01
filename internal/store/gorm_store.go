package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"intraprep/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&ProfileModel{},
		&DailyUsageModel{},
		&VerificationCodeModel{},
		&QuestionProgressModel{},
		&ResumeAnalysisModel{},
		&ResumeModel{},
		&QuizModel{},
		&QuizResultModel{},
		&WaitlistEntryModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "full_name", "status", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SaveProfile stores or updates a user's profile.
func (s *GormStore) SaveProfile(p domain.Profile) error {
	model := profileToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "phone", "location", "target_role", "preferred_industry", "skills", "leetcode_username"}),
	}).Create(&model).Error
}

// GetProfile retrieves a user's profile.
func (s *GormStore) GetProfile(userID string) (domain.Profile, bool, error) {
	var model ProfileModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, err
	}
	return profileFromModel(model), true, nil
}

// UsernameTaken checks whether another user already claimed username.
func (s *GormStore) UsernameTaken(username, excludeUserID string) (bool, error) {
	var count int64
	if err := s.db.Model(&ProfileModel{}).
		Where("username = ? AND user_id <> ?", username, excludeUserID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetDailyUsage returns the user's usage row regardless of its date.
func (s *GormStore) GetDailyUsage(userID string) (domain.DailyUsage, bool, error) {
	var model DailyUsageModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.DailyUsage{}, false, nil
		}
		return domain.DailyUsage{}, false, err
	}
	return usageFromModel(model), true, nil
}

// IncrementUsage bumps one action counter for date, resetting a stale row
// from a previous day. The guarded UPDATE keeps concurrent increments from
// exceeding limit; it reports false when the quota is already spent.
func (s *GormStore) IncrementUsage(userID, date string, action domain.ActionType, limit int) (bool, error) {
	col, err := usageColumn(action)
	if err != nil {
		return false, err
	}

	ok, err := s.bumpUsage(userID, date, col, limit)
	if ok || err != nil {
		return ok, err
	}

	// No counter bumped: the row is missing, stale, or the quota is spent.
	// Claim the first use of the new day; the conflict guard leaves a row
	// already dated today untouched.
	model := DailyUsageModel{UserID: userID, DateTracked: date}
	switch action {
	case domain.ActionPDFScan:
		model.PDFScanCount = 1
	case domain.ActionJDMatch:
		model.JDMatchCount = 1
	case domain.ActionBuilderAI:
		model.BuilderAICount = 1
	}
	ins := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"date_tracked":     date,
			"pdf_scan_count":   model.PDFScanCount,
			"jd_match_count":   model.JDMatchCount,
			"builder_ai_count": model.BuilderAICount,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "daily_usage_models", Name: "date_tracked"}, Value: date},
		}},
	}).Create(&model)
	if ins.Error != nil {
		return false, ins.Error
	}
	if ins.RowsAffected > 0 {
		return true, nil
	}

	// Today's row existed all along (or a concurrent request reset it);
	// retry the guarded increment once before reporting the quota spent.
	return s.bumpUsage(userID, date, col, limit)
}

func (s *GormStore) bumpUsage(userID, date, col string, limit int) (bool, error) {
	res := s.db.Model(&DailyUsageModel{}).
		Where("user_id = ? AND date_tracked = ? AND "+col+" < ?", userID, date, limit).
		UpdateColumn(col, gorm.Expr(col+" + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func usageColumn(action domain.ActionType) (string, error) {
	switch action {
	case domain.ActionPDFScan:
		return "pdf_scan_count", nil
	case domain.ActionJDMatch:
		return "jd_match_count", nil
	case domain.ActionBuilderAI:
		return "builder_ai_count", nil
	default:
		return "", fmt.Errorf("unknown action type %q", action)
	}
}

// UpsertVerificationCode stores a code, replacing any prior code for the
// same email and type.
func (s *GormStore) UpsertVerificationCode(c domain.VerificationCode) error {
	model := codeToModel(c)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "attempts", "expires_at", "created_at"}),
	}).Create(&model).Error
}

// GetVerificationCode retrieves the live code for (email, type).
func (s *GormStore) GetVerificationCode(email string, codeType domain.CodeType) (domain.VerificationCode, bool, error) {
	var model VerificationCodeModel
	if err := s.db.First(&model, "email = ? AND type = ?", email, string(codeType)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.VerificationCode{}, false, nil
		}
		return domain.VerificationCode{}, false, err
	}
	return codeFromModel(model), true, nil
}

// SetVerificationAttempts records a failed-attempt count.
func (s *GormStore) SetVerificationAttempts(email string, codeType domain.CodeType, attempts int) error {
	return s.db.Model(&VerificationCodeModel{}).
		Where("email = ? AND type = ?", email, string(codeType)).
		UpdateColumn("attempts", attempts).Error
}

// DeleteVerificationCode removes a code after use or invalidation.
func (s *GormStore) DeleteVerificationCode(email string, codeType domain.CodeType) error {
	return s.db.Delete(&VerificationCodeModel{}, "email = ? AND type = ?", email, string(codeType)).Error
}

// UpsertProgress records or updates a solved question.
func (s *GormStore) UpsertProgress(p domain.QuestionProgress) error {
	model := progressToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "solved_at"}),
	}).Create(&model).Error
}

// GetProgress retrieves one question's progress for a user.
func (s *GormStore) GetProgress(userID, questionID string) (domain.QuestionProgress, bool, error) {
	var model QuestionProgressModel
	if err := s.db.First(&model, "user_id = ? AND question_id = ?", userID, questionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.QuestionProgress{}, false, nil
		}
		return domain.QuestionProgress{}, false, err
	}
	return progressFromModel(model), true, nil
}

// ListProgress returns a user's progress ordered by most recent solve.
func (s *GormStore) ListProgress(userID string) ([]domain.QuestionProgress, error) {
	var models []QuestionProgressModel
	if err := s.db.Where("user_id = ?", userID).Order("solved_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.QuestionProgress, 0, len(models))
	for _, m := range models {
		res = append(res, progressFromModel(m))
	}
	return res, nil
}

// SaveAnalysis records a resume analysis.
func (s *GormStore) SaveAnalysis(a domain.ResumeAnalysis) error {
	model := analysisToModel(a)
	return s.db.Create(&model).Error
}

// ListAnalyses returns a user's analyses, newest first.
func (s *GormStore) ListAnalyses(userID string, limit int) ([]domain.ResumeAnalysis, error) {
	var models []ResumeAnalysisModel
	tx := s.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ResumeAnalysis, 0, len(models))
	for _, m := range models {
		res = append(res, analysisFromModel(m))
	}
	return res, nil
}

// SaveResume stores or updates a builder draft.
func (s *GormStore) SaveResume(r domain.Resume) error {
	model := resumeToModel(r)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content", "updated_at"}),
	}).Create(&model).Error
}

// GetResume retrieves a user's builder draft.
func (s *GormStore) GetResume(userID string) (domain.Resume, bool, error) {
	var model ResumeModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Resume{}, false, nil
		}
		return domain.Resume{}, false, err
	}
	return resumeFromModel(model), true, nil
}

// SaveQuiz stores or updates a quiz definition.
func (s *GormStore) SaveQuiz(q domain.Quiz) error {
	model := quizToModel(q)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "category", "role", "question_count"}),
	}).Create(&model).Error
}

// ListQuizzes returns all quizzes ordered by title.
func (s *GormStore) ListQuizzes() ([]domain.Quiz, error) {
	var models []QuizModel
	if err := s.db.Order("title ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Quiz, 0, len(models))
	for _, m := range models {
		res = append(res, quizFromModel(m))
	}
	return res, nil
}

// SaveQuizResult records a quiz attempt.
func (s *GormStore) SaveQuizResult(r domain.QuizResult) error {
	model := quizResultToModel(r)
	return s.db.Create(&model).Error
}

// ListQuizResults returns a user's quiz attempts, newest first.
func (s *GormStore) ListQuizResults(userID string) ([]domain.QuizResult, error) {
	var models []QuizResultModel
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.QuizResult, 0, len(models))
	for _, m := range models {
		res = append(res, quizResultFromModel(m))
	}
	return res, nil
}

// JoinWaitlist adds a user to the premium waitlist; joining twice is a no-op.
func (s *GormStore) JoinWaitlist(e domain.WaitlistEntry) error {
	model := WaitlistEntryModel{UserID: e.UserID, JoinedAt: e.JoinedAt}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

// OnWaitlist checks waitlist membership.
func (s *GormStore) OnWaitlist(userID string) (bool, error) {
	var count int64
	if err := s.db.Model(&WaitlistEntryModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FullName:     m.FullName,
		Status:       domain.UserStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func profileToModel(p domain.Profile) ProfileModel {
	return ProfileModel{
		UserID:            p.UserID,
		Username:          p.Username,
		Phone:             p.Phone,
		Location:          p.Location,
		TargetRole:        p.TargetRole,
		PreferredIndustry: p.PreferredIndustry,
		Skills:            mustJSON(p.Skills),
		LeetcodeUsername:  p.LeetCodeUsername,
	}
}

func profileFromModel(m ProfileModel) domain.Profile {
	p := domain.Profile{
		UserID:            m.UserID,
		Username:          m.Username,
		Phone:             m.Phone,
		Location:          m.Location,
		TargetRole:        m.TargetRole,
		PreferredIndustry: m.PreferredIndustry,
		LeetCodeUsername:  m.LeetcodeUsername,
	}
	fromJSON(m.Skills, &p.Skills)
	return p
}

func usageFromModel(m DailyUsageModel) domain.DailyUsage {
	return domain.DailyUsage{
		UserID:         m.UserID,
		DateTracked:    m.DateTracked,
		PDFScanCount:   m.PDFScanCount,
		JDMatchCount:   m.JDMatchCount,
		BuilderAICount: m.BuilderAICount,
	}
}

func codeToModel(c domain.VerificationCode) VerificationCodeModel {
	return VerificationCodeModel{
		Email:     c.Email,
		Type:      string(c.Type),
		CodeHash:  c.CodeHash,
		Attempts:  c.Attempts,
		ExpiresAt: c.ExpiresAt,
		CreatedAt: c.CreatedAt,
	}
}

func codeFromModel(m VerificationCodeModel) domain.VerificationCode {
	return domain.VerificationCode{
		Email:     m.Email,
		Type:      domain.CodeType(m.Type),
		CodeHash:  m.CodeHash,
		Attempts:  m.Attempts,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}

func progressToModel(p domain.QuestionProgress) QuestionProgressModel {
	return QuestionProgressModel{
		UserID:     p.UserID,
		QuestionID: p.QuestionID,
		Status:     p.Status,
		SolvedAt:   p.SolvedAt,
	}
}

func progressFromModel(m QuestionProgressModel) domain.QuestionProgress {
	return domain.QuestionProgress{
		UserID:     m.UserID,
		QuestionID: m.QuestionID,
		Status:     m.Status,
		SolvedAt:   m.SolvedAt,
	}
}

func analysisToModel(a domain.ResumeAnalysis) ResumeAnalysisModel {
	model := ResumeAnalysisModel{
		ID:              a.ID,
		UserID:          a.UserID,
		Source:          string(a.Source),
		OverallScore:    a.OverallScore,
		MatchScore:      a.MatchScore,
		SectionScores:   mustJSON(a.SectionScores),
		MissingKeywords: mustJSON(a.MissingKeywords),
		FileURL:         a.FileURL,
		CreatedAt:       a.CreatedAt,
	}
	if a.Source == domain.SourceJDMatch {
		model.Feedback = mustJSON(a.MatchFeedback)
	} else {
		model.Feedback = mustJSON(a.ScanFeedback)
	}
	return model
}

func analysisFromModel(m ResumeAnalysisModel) domain.ResumeAnalysis {
	a := domain.ResumeAnalysis{
		ID:           m.ID,
		UserID:       m.UserID,
		Source:       domain.AnalysisSource(m.Source),
		OverallScore: m.OverallScore,
		MatchScore:   m.MatchScore,
		FileURL:      m.FileURL,
		CreatedAt:    m.CreatedAt,
	}
	fromJSON(m.SectionScores, &a.SectionScores)
	fromJSON(m.MissingKeywords, &a.MissingKeywords)
	if a.Source == domain.SourceJDMatch {
		fromJSON(m.Feedback, &a.MatchFeedback)
	} else {
		fromJSON(m.Feedback, &a.ScanFeedback)
	}
	return a
}

func resumeToModel(r domain.Resume) ResumeModel {
	return ResumeModel{
		UserID:    r.UserID,
		Title:     r.Title,
		Content:   mustJSON(r.Content),
		UpdatedAt: r.UpdatedAt,
	}
}

func resumeFromModel(m ResumeModel) domain.Resume {
	r := domain.Resume{
		UserID:    m.UserID,
		Title:     m.Title,
		UpdatedAt: m.UpdatedAt,
	}
	fromJSON(m.Content, &r.Content)
	return r
}

func quizToModel(q domain.Quiz) QuizModel {
	return QuizModel{
		ID:            q.ID,
		Title:         q.Title,
		Category:      q.Category,
		Role:          q.Role,
		QuestionCount: q.QuestionCount,
	}
}

func quizFromModel(m QuizModel) domain.Quiz {
	return domain.Quiz{
		ID:            m.ID,
		Title:         m.Title,
		Category:      m.Category,
		Role:          m.Role,
		QuestionCount: m.QuestionCount,
	}
}

func quizResultToModel(r domain.QuizResult) QuizResultModel {
	return QuizResultModel{
		ID:             r.ID,
		UserID:         r.UserID,
		QuizID:         r.QuizID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Answers:        mustJSON(r.Answers),
		CreatedAt:      r.CreatedAt,
	}
}

func quizResultFromModel(m QuizResultModel) domain.QuizResult {
	r := domain.QuizResult{
		ID:             m.ID,
		UserID:         m.UserID,
		QuizID:         m.QuizID,
		Score:          m.Score,
		TotalQuestions: m.TotalQuestions,
		CreatedAt:      m.CreatedAt,
	}
	fromJSON(m.Answers, &r.Answers)
	return r
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func fromJSON(data datatypes.JSON, out any) {
	if len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, out)
}
