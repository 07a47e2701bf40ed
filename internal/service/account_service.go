package service

import (
	"context"
	"log/slog"

	"github.com/vbonduro/dishout/internal/accounts"
	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/session"
)

// accountDirectory is the subset of accounts.Directory that AccountService
// requires.
type accountDirectory interface {
	Signup(ctx context.Context, req accounts.SignupRequest) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
	UpdateProfile(ctx context.Context, u domain.User) error
}

type AccountService struct {
	directory accountDirectory
	sessions  sessionSource
	logger    *slog.Logger
}

func NewAccountService(directory accountDirectory, sessions sessionSource, logger *slog.Logger) *AccountService {
	return &AccountService{directory: directory, sessions: sessions, logger: logger}
}

func (s *AccountService) State(ctx context.Context, clientID string) session.State {
	return s.sessions.Get(ctx, clientID).State()
}

// Signup registers an account and logs the client in as it.
func (s *AccountService) Signup(ctx context.Context, clientID string, req accounts.SignupRequest) (session.State, error) {
	u, err := s.directory.Signup(ctx, req)
	if err != nil {
		return session.State{}, err
	}
	s.logger.Info("account created", "client_id", clientID, "user_id", u.ID, "type", u.Type)
	return s.sessions.Get(ctx, clientID).Dispatch(ctx, session.Login{User: u}), nil
}

func (s *AccountService) Login(ctx context.Context, clientID, email, password string) (session.State, error) {
	u, err := s.directory.Login(ctx, email, password)
	if err != nil {
		return session.State{}, err
	}
	s.logger.Info("logged in", "client_id", clientID, "user_id", u.ID)
	return s.sessions.Get(ctx, clientID).Dispatch(ctx, session.Login{User: u}), nil
}

func (s *AccountService) Logout(ctx context.Context, clientID string) session.State {
	return s.sessions.Get(ctx, clientID).Dispatch(ctx, session.Logout{})
}

func (s *AccountService) SetView(ctx context.Context, clientID string, view domain.View) session.State {
	return s.sessions.Get(ctx, clientID).Dispatch(ctx, session.SetView{View: view})
}

// UpdateAvatar replaces the avatar of the logged-in user, in the session
// and in the account directory.
func (s *AccountService) UpdateAvatar(ctx context.Context, clientID, avatar string) (session.State, error) {
	store := s.sessions.Get(ctx, clientID)
	if store.State().User == nil {
		return session.State{}, ErrNotLoggedIn
	}
	st := store.Dispatch(ctx, session.UpdateUserAvatar{Avatar: avatar})
	s.syncDirectory(ctx, st)
	return st, nil
}

// syncDirectory copies the session identity back into the directory so a
// later login sees it. Failures are logged; the session already holds the
// change.
func (s *AccountService) syncDirectory(ctx context.Context, st session.State) {
	if st.User == nil {
		return
	}
	if err := s.directory.UpdateProfile(ctx, *st.User); err != nil {
		s.logger.Error("failed to update account profile", "user_id", st.User.ID, "error", err)
	}
}
