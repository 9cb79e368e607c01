package server

import (
	"net/http"

	"intraprep/pkg/domain"
)

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions := s.app.Questions(r.URL.Query().Get("tag"))
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request, user domain.User) {
	entries, err := s.app.ListProgress(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": entries})
}

func (s *Server) handleVerifySubmission(w http.ResponseWriter, r *http.Request, user domain.User) {
	progress, err := s.app.VerifySubmission(r.Context(), user, r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleEnqueueSync(w http.ResponseWriter, r *http.Request, user domain.User) {
	job, err := s.app.EnqueueSync(r.Context(), user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleSyncJob(w http.ResponseWriter, r *http.Request, user domain.User) {
	job, found, err := s.app.SyncJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if !found || job.UserID != user.ID {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleStreak(w http.ResponseWriter, _ *http.Request, user domain.User) {
	streak, err := s.app.Streak(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}
