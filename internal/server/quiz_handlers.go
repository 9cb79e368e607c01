package server

import (
	"net/http"

	"intraprep/pkg/domain"
)

func (s *Server) handleListQuizzes(w http.ResponseWriter, _ *http.Request, user domain.User) {
	quizzes, err := s.app.ListQuizzes(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

type quizResultRequest struct {
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        map[string]any `json:"answers"`
}

func (s *Server) handleSubmitQuizResult(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req quizResultRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.app.SubmitQuizResult(user.ID, r.PathValue("id"), req.Score, req.TotalQuestions, req.Answers)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListQuizResults(w http.ResponseWriter, _ *http.Request, user domain.User) {
	results, err := s.app.ListQuizResults(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleJoinWaitlist(w http.ResponseWriter, _ *http.Request, user domain.User) {
	if err := s.app.JoinWaitlist(user.ID); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "You're on the waitlist."})
}

func (s *Server) handleWaitlistStatus(w http.ResponseWriter, _ *http.Request, user domain.User) {
	on, err := s.app.OnWaitlist(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"onWaitlist": on})
}
