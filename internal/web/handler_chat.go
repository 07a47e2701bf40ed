package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/session"
)

func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request, clientID string) {
	var match domain.RestaurantMatch
	if !decodeJSON(w, r, &match) {
		return
	}
	if strings.TrimSpace(match.ID) == "" || strings.TrimSpace(match.Name) == "" {
		writeError(w, http.StatusBadRequest, "restaurant id and name required")
		return
	}
	writeState(w, http.StatusOK, s.svc.Chats.StartChat(r.Context(), clientID, match))
}

func (s *Server) handleSetActiveChat(w http.ResponseWriter, r *http.Request, clientID string) {
	var req struct {
		ChatID string `json:"chatId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	writeState(w, http.StatusOK, s.svc.Chats.SetActiveChat(r.Context(), clientID, req.ChatID))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, clientID string) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	// The intent check can outlive an impatient client.
	st, err := s.svc.Chats.SendMessage(context.WithoutCancel(r.Context()), clientID, r.PathValue("id"), req.Text)
	if err != nil {
		s.fail(w, "send message failed", err)
		return
	}
	writeState(w, http.StatusOK, st)
}

type leadAction func(ctx context.Context, clientID, chatID string) (session.State, error)

func (s *Server) leadHandler(name string, action leadAction) clientHandler {
	return func(w http.ResponseWriter, r *http.Request, clientID string) {
		st, err := action(r.Context(), clientID, r.PathValue("id"))
		if err != nil {
			s.fail(w, name+" failed", err)
			return
		}
		writeState(w, http.StatusOK, st)
	}
}

func (s *Server) handleAcceptLead(w http.ResponseWriter, r *http.Request, clientID string) {
	s.leadHandler("accept lead", s.svc.Chats.AcceptLead)(w, r, clientID)
}

func (s *Server) handleDeclineLead(w http.ResponseWriter, r *http.Request, clientID string) {
	s.leadHandler("decline lead", s.svc.Chats.DeclineLead)(w, r, clientID)
}

func (s *Server) handleConvertLead(w http.ResponseWriter, r *http.Request, clientID string) {
	s.leadHandler("convert lead", s.svc.Chats.ConvertLead)(w, r, clientID)
}

func (s *Server) handleFocusMap(w http.ResponseWriter, r *http.Request, clientID string) {
	var focus domain.MapFocus
	if !decodeJSON(w, r, &focus) {
		return
	}
	writeState(w, http.StatusOK, s.svc.Chats.FocusMap(r.Context(), clientID, focus))
}
