package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vbonduro/dishout/internal/accounts"
	"github.com/vbonduro/dishout/internal/db"
	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/events"
	"github.com/vbonduro/dishout/internal/kv"
	"github.com/vbonduro/dishout/internal/oracle"
	"github.com/vbonduro/dishout/internal/session"
	"github.com/vbonduro/dishout/internal/store"
)

// stubOracle is a minimal oracle.Oracle for tests.
type stubOracle struct {
	mu        sync.Mutex
	dish      *oracle.Dish
	matches   []domain.RestaurantMatch
	profile   *oracle.Profile
	intent    bool
	err       error
	near      domain.LatLng
	searched  string
	intentFor []string
}

func (s *stubOracle) Identify(_ context.Context, _ io.Reader, _ string) (*oracle.Dish, error) {
	return s.dish, s.err
}

func (s *stubOracle) Search(_ context.Context, dishName string, near domain.LatLng) ([]domain.RestaurantMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searched = dishName
	s.near = near
	return s.matches, s.err
}

func (s *stubOracle) SyncProfile(_ context.Context, _ string) (*oracle.Profile, error) {
	return s.profile, s.err
}

func (s *stubOracle) CheckIntent(_ context.Context, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intentFor = append(s.intentFor, text)
	return s.intent, s.err
}

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	saved   map[string][]byte
	saveErr error
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Save(_ context.Context, prefix, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, _ := io.ReadAll(r)
	key := prefix + "_photo.jpg"
	s.saved[key] = data
	return key, nil
}

func (s *stubPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := s.saved[key]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (s *stubPhotoStore) Delete(_ context.Context, key string) error {
	delete(s.saved, key)
	return nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	sessions  *session.Registry
	directory *accounts.Directory
	oracle    *stubOracle
	publisher *recordingPublisher
	photoStg  *stubPhotoStore
	photos    *store.PhotoStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	mem := kv.NewMemory()
	return &testEnv{
		sessions:  session.NewRegistry(mem, session.NewReducer(session.DefaultLeadPrice), slog.Default()),
		directory: accounts.New(mem).WithCost(bcrypt.MinCost),
		oracle:    &stubOracle{},
		publisher: &recordingPublisher{},
		photoStg:  newStubPhotoStore(),
		photos:    store.NewPhotoStore(d),
	}
}

func (e *testEnv) accountService() *AccountService {
	return NewAccountService(e.directory, e.sessions, slog.Default())
}

func (e *testEnv) chatService() *ChatService {
	return NewChatService(e.sessions, e.oracle, e.publisher, slog.Default())
}

func (e *testEnv) dashboardService() *DashboardService {
	return NewDashboardService(e.sessions, e.oracle, e.directory, DefaultQRGenerator{BaseURL: "https://dishout.example"}, slog.Default())
}

func (e *testEnv) scanService() *ScanService {
	return NewScanService(e.sessions, e.oracle, e.photos, e.photoStg, e.publisher, domain.LatLng{Lat: 25.2048, Lng: 55.2708}, slog.Default())
}

// loginAs signs up a fresh account of the given type on clientID.
func (e *testEnv) loginAs(t *testing.T, clientID, name string, typ domain.UserType) domain.User {
	t.Helper()
	st, err := e.accountService().Signup(context.Background(), clientID, accounts.SignupRequest{
		Name:     name,
		Email:    clientID + "@example.com",
		Password: "pw",
		Type:     typ,
	})
	require.NoError(t, err)
	require.NotNil(t, st.User)
	return *st.User
}
