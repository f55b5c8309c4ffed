// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package web

import (
	"net/http"

	"github.com/storytable/storytable/internal/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	User userJSON `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, user, err := s.auth.Register(r.Context(), auth.CreateUserInput(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, auth.SessionCookie(session, s.secure))
	writeJSON(w, http.StatusCreated, userResponse{User: toUserJSON(&auth.SessionUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     auth.RoleFree,
	})})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, _, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.metrics.RecordLogin("failure")
		s.writeError(w, r, err)
		return
	}
	s.metrics.RecordLogin("success")

	user, err := s.auth.SessionUser(r.Context(), session.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHORIZED", "invalid username or password"))
		return
	}
	http.SetCookie(w, auth.SessionCookie(session, s.secure))
	writeJSON(w, http.StatusOK, userResponse{User: toUserJSON(user)})
}

// handleLogout always clears the cookie, even without a session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.DestroySession(r.Context(), auth.SessionIDFromRequest(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, auth.ClearedSessionCookie(s.secure))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userResponse{User: toUserJSON(currentUser(r.Context()))})
}
