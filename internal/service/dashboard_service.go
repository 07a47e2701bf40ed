package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/oracle"
	"github.com/vbonduro/dishout/internal/session"
)

// DashboardService manages the logged-in restaurant's menu, location and
// printed QR code.
type DashboardService struct {
	sessions  sessionSource
	oracle    oracle.Oracle
	directory accountDirectory
	qr        QRGenerator
	logger    *slog.Logger
}

func NewDashboardService(sessions sessionSource, o oracle.Oracle, directory accountDirectory, qr QRGenerator, logger *slog.Logger) *DashboardService {
	return &DashboardService{sessions: sessions, oracle: o, directory: directory, qr: qr, logger: logger}
}

func (s *DashboardService) restaurant(ctx context.Context, clientID string) (*session.Store, session.State, error) {
	store := s.sessions.Get(ctx, clientID)
	st := store.State()
	if st.Dashboard == nil {
		return nil, session.State{}, ErrNotRestaurant
	}
	return store, st, nil
}

func (s *DashboardService) UpdateMenu(ctx context.Context, clientID string, items []domain.MenuItem) (session.State, error) {
	store, _, err := s.restaurant(ctx, clientID)
	if err != nil {
		return session.State{}, err
	}
	st := store.Dispatch(ctx, session.UpdateMenu{Items: items})
	s.syncDirectory(ctx, st)
	return st, nil
}

func (s *DashboardService) UpdateLocation(ctx context.Context, clientID string, loc domain.LatLng) (session.State, error) {
	store, _, err := s.restaurant(ctx, clientID)
	if err != nil {
		return session.State{}, err
	}
	st := store.Dispatch(ctx, session.UpdateRestaurantLocation{Location: loc})
	s.syncDirectory(ctx, st)
	return st, nil
}

// SyncProfile reads the restaurant's website through the oracle and applies
// what it found: the menu when it is non-empty, the location when both
// coordinates are non-zero.
func (s *DashboardService) SyncProfile(ctx context.Context, clientID, websiteURL string) (session.State, error) {
	websiteURL = strings.TrimSpace(websiteURL)
	if websiteURL == "" {
		return session.State{}, ErrMissingURL
	}
	store, st, err := s.restaurant(ctx, clientID)
	if err != nil {
		return session.State{}, err
	}

	s.logger.Info("profile sync started", "client_id", clientID, "url", websiteURL)
	profile, err := s.oracle.SyncProfile(ctx, websiteURL)
	if err != nil {
		return session.State{}, fmt.Errorf("failed to sync profile: %w", err)
	}

	changed := false
	if len(profile.Menu) > 0 {
		st = store.Dispatch(ctx, session.UpdateMenu{Items: profile.Menu})
		changed = true
	}
	if loc := profile.Location; loc != nil && loc.Lat != 0 && loc.Lng != 0 {
		st = store.Dispatch(ctx, session.UpdateRestaurantLocation{Location: *loc})
		changed = true
	}
	if changed {
		s.syncDirectory(ctx, st)
	}
	s.logger.Info("profile sync complete", "client_id", clientID, "menu_items", len(profile.Menu), "located", profile.Location != nil)
	return st, nil
}

// QRCode renders the PNG QR code of the logged-in restaurant.
func (s *DashboardService) QRCode(ctx context.Context, clientID string) ([]byte, error) {
	_, st, err := s.restaurant(ctx, clientID)
	if err != nil {
		return nil, err
	}
	png, err := s.qr.Generate(st.Dashboard.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}
	return png, nil
}

// syncDirectory stores the logged-in restaurant's profile, dashboard menu
// included, so the next login on any client restores it.
func (s *DashboardService) syncDirectory(ctx context.Context, st session.State) {
	if st.User == nil {
		return
	}
	profile := *st.User
	if st.Dashboard != nil {
		profile.Menu = make([]domain.MenuItem, len(st.Dashboard.Menu))
		copy(profile.Menu, st.Dashboard.Menu)
	}
	if err := s.directory.UpdateProfile(ctx, profile); err != nil {
		s.logger.Error("failed to update account profile", "user_id", st.User.ID, "error", err)
	}
}
