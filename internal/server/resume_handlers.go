package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"intraprep/internal/app"
	"intraprep/pkg/domain"
)

// readUpload pulls the "file" part out of a multipart form, enforcing the
// upload size cap.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form with a \"file\" part required")
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart form with a \"file\" part required")
		return nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload failed")
		return nil, false
	}
	return data, true
}

func (s *Server) handleScanResume(w http.ResponseWriter, r *http.Request, user domain.User) {
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	analysis, err := s.app.ScanResume(r.Context(), user, data)
	if err != nil {
		if errors.Is(err, app.ErrLimitExceeded) {
			writeError(w, http.StatusTooManyRequests, s.app.LimitMessage(domain.ActionPDFScan))
			return
		}
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleMatchJD(w http.ResponseWriter, r *http.Request, user domain.User) {
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	role := r.FormValue("role")
	jobDescription := r.FormValue("jobDescription")
	analysis, err := s.app.MatchJD(r.Context(), user, data, role, jobDescription)
	if err != nil {
		if errors.Is(err, app.ErrLimitExceeded) {
			writeError(w, http.StatusTooManyRequests, s.app.LimitMessage(domain.ActionJDMatch))
			return
		}
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request, user domain.User) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	analyses, err := s.app.ListAnalyses(user.ID, limit)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}

type draftRequest struct {
	Title   string         `json:"title"`
	Content map[string]any `json:"content"`
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req draftRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := s.app.SaveDraft(user.ID, req.Title, req.Content)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, _ *http.Request, user domain.User) {
	draft, err := s.app.GetDraft(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleReviewDraft(w http.ResponseWriter, r *http.Request, user domain.User) {
	analysis, err := s.app.ReviewDraft(r.Context(), user)
	if err != nil {
		if errors.Is(err, app.ErrLimitExceeded) {
			writeError(w, http.StatusTooManyRequests, s.app.LimitMessage(domain.ActionBuilderAI))
			return
		}
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request, user domain.User) {
	summary, err := s.app.UsageSummary(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usage": summary})
}
