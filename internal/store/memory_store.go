package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"intraprep/internal/util"
	"intraprep/pkg/domain"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User    // id -> user
	emails      map[string]string         // email -> id
	profiles    map[string]domain.Profile // user id -> profile
	usages      map[string]domain.DailyUsage
	codes       map[string]domain.VerificationCode // email|type -> code
	progress    map[string]domain.QuestionProgress // user id|question id -> progress
	analyses    map[string][]domain.ResumeAnalysis
	resumes     map[string]domain.Resume
	quizzes     map[string]domain.Quiz
	quizResults map[string][]domain.QuizResult
	waitlist    map[string]domain.WaitlistEntry
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		emails:      make(map[string]string),
		profiles:    make(map[string]domain.Profile),
		usages:      make(map[string]domain.DailyUsage),
		codes:       make(map[string]domain.VerificationCode),
		progress:    make(map[string]domain.QuestionProgress),
		analyses:    make(map[string][]domain.ResumeAnalysis),
		resumes:     make(map[string]domain.Resume),
		quizzes:     make(map[string]domain.Quiz),
		quizResults: make(map[string][]domain.QuizResult),
		waitlist:    make(map[string]domain.WaitlistEntry),
	}
}

func (s *MemoryStore) SaveUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.users[u.ID]; ok && prev.Email != u.Email {
		delete(s.emails, prev.Email)
	}
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return nil
}

func (s *MemoryStore) HasUserEmail(email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.emails[email]
	return ok, nil
}

func (s *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) SaveProfile(p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}

func (s *MemoryStore) GetProfile(userID string) (domain.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok, nil
}

func (s *MemoryStore) UsernameTaken(username, excludeUserID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.profiles {
		if id != excludeUserID && p.Username != "" && strings.EqualFold(p.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetDailyUsage(userID string) (domain.DailyUsage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usages[userID]
	return u, ok, nil
}

func (s *MemoryStore) IncrementUsage(userID, date string, action domain.ActionType, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.usages[userID]
	if !ok || row.DateTracked != date {
		row = domain.DailyUsage{UserID: userID, DateTracked: date}
	}
	if row.Count(action) >= limit {
		s.usages[userID] = row
		return false, nil
	}
	switch action {
	case domain.ActionPDFScan:
		row.PDFScanCount++
	case domain.ActionJDMatch:
		row.JDMatchCount++
	case domain.ActionBuilderAI:
		row.BuilderAICount++
	default:
		return false, fmt.Errorf("unknown action type %q", action)
	}
	s.usages[userID] = row
	return true, nil
}

func codeKey(email string, codeType domain.CodeType) string {
	return email + "|" + string(codeType)
}

func (s *MemoryStore) UpsertVerificationCode(c domain.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[codeKey(c.Email, c.Type)] = c
	return nil
}

func (s *MemoryStore) GetVerificationCode(email string, codeType domain.CodeType) (domain.VerificationCode, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.codes[codeKey(email, codeType)]
	return c, ok, nil
}

func (s *MemoryStore) SetVerificationAttempts(email string, codeType domain.CodeType, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := codeKey(email, codeType)
	if c, ok := s.codes[key]; ok {
		c.Attempts = attempts
		s.codes[key] = c
	}
	return nil
}

func (s *MemoryStore) DeleteVerificationCode(email string, codeType domain.CodeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, codeKey(email, codeType))
	return nil
}

func (s *MemoryStore) UpsertProgress(p domain.QuestionProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[p.UserID+"|"+p.QuestionID] = p
	return nil
}

func (s *MemoryStore) GetProgress(userID, questionID string) (domain.QuestionProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[userID+"|"+questionID]
	return p, ok, nil
}

func (s *MemoryStore) ListProgress(userID string) ([]domain.QuestionProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.QuestionProgress, 0)
	for _, p := range s.progress {
		if p.UserID == userID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].SolvedAt.After(res[j].SolvedAt) })
	return res, nil
}

func (s *MemoryStore) SaveAnalysis(a domain.ResumeAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.UserID] = append([]domain.ResumeAnalysis{a}, s.analyses[a.UserID]...)
	return nil
}

func (s *MemoryStore) ListAnalyses(userID string, limit int) ([]domain.ResumeAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.analyses[userID]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	res := make([]domain.ResumeAnalysis, len(all))
	copy(res, all)
	return res, nil
}

func (s *MemoryStore) SaveResume(r domain.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[r.UserID] = r
	return nil
}

func (s *MemoryStore) GetResume(userID string) (domain.Resume, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resumes[userID]
	return r, ok, nil
}

func (s *MemoryStore) SaveQuiz(q domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[q.ID] = q
	return nil
}

func (s *MemoryStore) ListQuizzes() ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		res = append(res, q)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Title < res[j].Title })
	return res, nil
}

func (s *MemoryStore) SaveQuizResult(r domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizResults[r.UserID] = append([]domain.QuizResult{r}, s.quizResults[r.UserID]...)
	return nil
}

func (s *MemoryStore) ListQuizResults(userID string) ([]domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.quizResults[userID]
	res := make([]domain.QuizResult, len(all))
	copy(res, all)
	return res, nil
}

func (s *MemoryStore) JoinWaitlist(e domain.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.waitlist[e.UserID]; !ok {
		s.waitlist[e.UserID] = e
	}
	return nil
}

func (s *MemoryStore) OnWaitlist(userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.waitlist[userID]
	return ok, nil
}

// MemorySessionStore keeps sessions in a map; used in tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]string // token -> user id
}

// NewMemorySessionStore builds an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]string)}
}

func (s *MemorySessionStore) NewSession(userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := util.NewID() + util.NewID()
	s.sessions[token] = userID
	return token, nil
}

func (s *MemorySessionStore) GetUserIDByToken(token string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[token]
	return id, ok, nil
}

func (s *MemorySessionStore) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
