package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !s.gate.Login(w, r, req.Email, req.Password) {
		s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Logged in"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.gate.Logout(w, r)
	s.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Logged out"})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]bool{"loggedIn": s.gate.LoggedIn(r)})
}
