package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type UserType string

const (
	UserTypeUser       UserType = "USER"
	UserTypeRestaurant UserType = "RESTAURANT"
)

type View string

const (
	ViewHome    View = "HOME"
	ViewMap     View = "MAP"
	ViewChat    View = "CHAT"
	ViewProfile View = "PROFILE"
)

// ParseView validates s against the known views.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewHome, ViewMap, ViewChat, ViewProfile:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

type ChatStatus string

const (
	ChatPending   ChatStatus = "pending"
	ChatActive    ChatStatus = "active"
	ChatClosed    ChatStatus = "closed"
	ChatConverted ChatStatus = "converted"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type MenuItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// User is the identity record persisted as the current session. The
// restaurant fields are only populated when Type is UserTypeRestaurant.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Avatar string   `json:"avatar"`
	Type   UserType `json:"type"`

	Location *LatLng          `json:"location,omitempty"`
	Website  string           `json:"website,omitempty"`
	Menu     []MenuItem       `json:"menu,omitempty"`
	Leads    int              `json:"leads,omitempty"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
}

func (u *User) IsRestaurant() bool {
	return u != nil && u.Type == UserTypeRestaurant
}

// Dashboard is the restaurant-side projection of the logged-in account.
type Dashboard struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Avatar   string          `json:"avatar"`
	Website  string          `json:"website,omitempty"`
	Location *LatLng         `json:"location,omitempty"`
	Menu     []MenuItem      `json:"menu"`
	Leads    int             `json:"leads"`
	Balance  decimal.Decimal `json:"balance"`
}

// DashboardFor derives the dashboard of a restaurant user, defaulting
// missing stats to zero and a missing menu to empty.
func DashboardFor(u *User) *Dashboard {
	d := &Dashboard{
		ID:      u.ID,
		Name:    u.Name,
		Avatar:  u.Avatar,
		Website: u.Website,
		Menu:    make([]MenuItem, len(u.Menu)),
		Leads:   u.Leads,
		Balance: decimal.Zero,
	}
	copy(d.Menu, u.Menu)
	if u.Location != nil {
		loc := *u.Location
		d.Location = &loc
	}
	if u.Balance != nil {
		d.Balance = *u.Balance
	}
	return d
}

type ChatMessage struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	IsSystem  bool   `json:"isSystem,omitempty"`
}

type ChatSession struct {
	ID               string        `json:"id"`
	RestaurantID     string        `json:"restaurantId"`
	RestaurantName   string        `json:"restaurantName"`
	RestaurantAvatar string        `json:"restaurantAvatar"`
	UserID           string        `json:"userId"`
	UserName         string        `json:"userName"`
	Messages         []ChatMessage `json:"messages"`
	Status           ChatStatus    `json:"status"`
}

type RestaurantMatch struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Distance     string  `json:"distance"`
	Price        string  `json:"price"`
	Rating       float64 `json:"rating"`
	Location     LatLng  `json:"location"`
	GroundingURL string  `json:"groundingUrl,omitempty"`
}

type FoodScan struct {
	ID                 string            `json:"id"`
	ImageURL           string            `json:"imageUrl"`
	DishName           string            `json:"dishName"`
	Description        string            `json:"description,omitempty"`
	Timestamp          int64             `json:"timestamp"`
	MatchedRestaurants []RestaurantMatch `json:"matchedRestaurants"`
}

type MapFocus struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RestaurantID string  `json:"restaurantId"`
}

type Photo struct {
	ID         int64
	ClientID   string
	StorageKey string
	MimeType   string
	UploadedAt time.Time
}
