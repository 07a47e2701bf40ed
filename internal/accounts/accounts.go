// Package accounts is the email/password account directory. The directory
// is a single JSON document in the key-value store, keyed by normalized
// email address.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/geo"
	"github.com/vbonduro/dishout/internal/kv"
	"github.com/vbonduro/dishout/internal/session"
)

// DirectoryKey is the key of the account directory document.
const DirectoryKey = "dishout_users"

var (
	ErrMissingFields     = errors.New("Please fill in all required fields.")
	ErrAccountNotFound   = errors.New("Account not found. Please sign up.")
	ErrIncorrectPassword = errors.New("Incorrect password.")
	ErrEmailTaken        = errors.New("Email already registered. Please log in.")
	ErrUnknownType       = errors.New("unknown account type")
)

type record struct {
	Profile      domain.User `json:"profile"`
	PasswordHash string      `json:"passwordHash"`
}

// SignupRequest carries the signup form. Location and Website are only
// used for restaurant accounts; a nil Location defaults to
// geo.DefaultLocation.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
	Type     domain.UserType
	Location *domain.LatLng
	Website  string
}

type Directory struct {
	mu    sync.Mutex
	kv    kv.Store
	cost  int
	newID func() string
}

func New(store kv.Store) *Directory {
	return &Directory{kv: store, cost: bcrypt.DefaultCost, newID: uuid.NewString}
}

// WithCost sets the bcrypt cost used for new accounts.
func (d *Directory) WithCost(cost int) *Directory {
	d.cost = cost
	return d
}

// Signup registers a new account and returns its profile.
func (d *Directory) Signup(ctx context.Context, req SignupRequest) (domain.User, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		return domain.User{}, ErrMissingFields
	}
	if req.Type == "" {
		req.Type = domain.UserTypeUser
	}
	if req.Type != domain.UserTypeUser && req.Type != domain.UserTypeRestaurant {
		return domain.User{}, fmt.Errorf("%w %q", ErrUnknownType, req.Type)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if _, ok := users[email]; ok {
		return domain.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), d.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := domain.User{
		ID:     "user_" + d.newID(),
		Name:   name,
		Email:  strings.TrimSpace(req.Email),
		Avatar: session.AvatarURL(name),
		Type:   req.Type,
	}
	if u.IsRestaurant() {
		loc := geo.DefaultLocation
		if req.Location != nil {
			loc = *req.Location
		}
		balance := decimal.Zero
		u.Location = &loc
		u.Website = strings.TrimSpace(req.Website)
		u.Menu = []domain.MenuItem{}
		u.Balance = &balance
	}

	users[email] = record{Profile: u, PasswordHash: string(hash)}
	if err := d.save(ctx, users); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Login checks the credentials of an existing account and returns its
// profile.
func (d *Directory) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, ErrMissingFields
	}

	d.mu.Lock()
	users, err := d.load(ctx)
	d.mu.Unlock()
	if err != nil {
		return domain.User{}, err
	}

	rec, ok := users[email]
	if !ok {
		return domain.User{}, ErrAccountNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrIncorrectPassword
	}
	return rec.Profile, nil
}

// UpdateProfile replaces the stored profile of the account owning u.Email.
// Unknown accounts are ignored.
func (d *Directory) UpdateProfile(ctx context.Context, u domain.User) error {
	email := normalizeEmail(u.Email)

	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx)
	if err != nil {
		return err
	}
	rec, ok := users[email]
	if !ok || rec.Profile.ID != u.ID {
		return nil
	}
	rec.Profile = u
	users[email] = rec
	return d.save(ctx, users)
}

func (d *Directory) load(ctx context.Context) (map[string]record, error) {
	raw, ok, err := d.kv.Get(ctx, DirectoryKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	users := make(map[string]record)
	if !ok || raw == "" {
		return users, nil
	}
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		// A corrupt directory reads as empty.
		return make(map[string]record), nil
	}
	return users, nil
}

func (d *Directory) save(ctx context.Context, users map[string]record) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := d.kv.Set(ctx, DirectoryKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
