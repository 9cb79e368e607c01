package server

import (
	"net/http"

	"intraprep/pkg/domain"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request, user domain.User) {
	profile, err := s.app.GetProfile(user.ID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req domain.Profile
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := s.app.UpdateProfile(user.ID, req)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type linkLeetCodeRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleLinkLeetCode(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req linkLeetCodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := s.app.LinkLeetCode(r.Context(), user.ID, req.Username)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
