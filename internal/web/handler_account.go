package web

import (
	"net/http"

	"github.com/vbonduro/dishout/internal/accounts"
	"github.com/vbonduro/dishout/internal/domain"
)

type signupRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Type     domain.UserType `json:"type"`
	Location *domain.LatLng  `json:"location,omitempty"`
	Website  string          `json:"website,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, clientID string) {
	writeState(w, http.StatusOK, s.svc.Accounts.State(r.Context(), clientID))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request, clientID string) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := s.svc.Accounts.Signup(r.Context(), clientID, accounts.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Type:     req.Type,
		Location: req.Location,
		Website:  req.Website,
	})
	if err != nil {
		s.fail(w, "signup failed", err)
		return
	}
	writeState(w, http.StatusCreated, st)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, clientID string) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := s.svc.Accounts.Login(r.Context(), clientID, req.Email, req.Password)
	if err != nil {
		s.fail(w, "login failed", err)
		return
	}
	writeState(w, http.StatusOK, st)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, clientID string) {
	writeState(w, http.StatusOK, s.svc.Accounts.Logout(r.Context(), clientID))
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request, clientID string) {
	var req struct {
		View string `json:"view"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := domain.ParseView(req.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeState(w, http.StatusOK, s.svc.Accounts.SetView(r.Context(), clientID, view))
}

func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request, clientID string) {
	var req struct {
		Avatar string `json:"avatar"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Avatar == "" {
		writeError(w, http.StatusBadRequest, "avatar required")
		return
	}
	st, err := s.svc.Accounts.UpdateAvatar(r.Context(), clientID, req.Avatar)
	if err != nil {
		s.fail(w, "update avatar failed", err)
		return
	}
	writeState(w, http.StatusOK, st)
}
