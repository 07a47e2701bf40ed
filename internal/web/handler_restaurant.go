package web

import (
	"context"
	"net/http"

	"github.com/vbonduro/dishout/internal/domain"
)

func (s *Server) handleUpdateMenu(w http.ResponseWriter, r *http.Request, clientID string) {
	var req struct {
		Items []domain.MenuItem `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Items == nil {
		req.Items = []domain.MenuItem{}
	}
	st, err := s.svc.Dashboard.UpdateMenu(r.Context(), clientID, req.Items)
	if err != nil {
		s.fail(w, "update menu failed", err)
		return
	}
	writeState(w, http.StatusOK, st)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request, clientID string) {
	var loc domain.LatLng
	if !decodeJSON(w, r, &loc) {
		return
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		writeError(w, http.StatusBadRequest, "invalid location")
		return
	}
	st, err := s.svc.Dashboard.UpdateLocation(r.Context(), clientID, loc)
	if err != nil {
		s.fail(w, "update location failed", err)
		return
	}
	writeState(w, http.StatusOK, st)
}

func (s *Server) handleSyncProfile(w http.ResponseWriter, r *http.Request, clientID string) {
	var req struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := s.svc.Dashboard.SyncProfile(context.WithoutCancel(r.Context()), clientID, req.URL)
	if err != nil {
		s.fail(w, "sync profile failed", err)
		return
	}
	writeState(w, http.StatusOK, st)
}

func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request, clientID string) {
	png, err := s.svc.Dashboard.QRCode(r.Context(), clientID)
	if err != nil {
		s.fail(w, "qr code failed", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		s.logger.Error("write qr code failed", "error", err)
	}
}
