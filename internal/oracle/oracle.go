// Package oracle wraps the multimodal model that identifies dishes, finds
// restaurants serving them, reads restaurant websites and classifies chat
// messages. Backends only generate text; prompts and response parsing are
// shared here.
package oracle

import (
	"context"
	"io"

	"github.com/vbonduro/dishout/internal/domain"
)

// Dish is the result of identifying a photographed dish.
type Dish struct {
	DishName    string `json:"dishName"`
	Description string `json:"description"`
}

// Profile is what could be extracted from a restaurant website.
type Profile struct {
	Menu     []domain.MenuItem `json:"menu"`
	Location *domain.LatLng    `json:"location,omitempty"`
}

type Oracle interface {
	Identify(ctx context.Context, r io.Reader, mimeType string) (*Dish, error)
	Search(ctx context.Context, dishName string, near domain.LatLng) ([]domain.RestaurantMatch, error)
	SyncProfile(ctx context.Context, url string) (*Profile, error)
	CheckIntent(ctx context.Context, text string) (bool, error)
}

// Identifier is an optional dedicated image classifier that replaces the
// model for Identify.
type Identifier interface {
	Identify(ctx context.Context, image []byte, mimeType string) (*Dish, error)
}

// Task tells a backend which operation a request belongs to, so it can pick
// a model or enable tools for it.
type Task int

const (
	TaskIdentify Task = iota
	TaskSearch
	TaskSync
	TaskIntent
)

func (t Task) String() string {
	switch t {
	case TaskIdentify:
		return "identify"
	case TaskSearch:
		return "search"
	case TaskSync:
		return "sync"
	case TaskIntent:
		return "intent"
	default:
		return "unknown"
	}
}

type Request struct {
	Task   Task
	Prompt string
	// Image is sent inline when non-empty.
	Image    []byte
	MimeType string
	// JSON asks the backend to constrain the output to JSON when it can.
	JSON bool
	// Near is the retrieval location for location-grounded tasks.
	Near *domain.LatLng
}

type Response struct {
	Text string
	// Sources are grounding URIs, in the order the backend cited them.
	Sources []string
}

// Generator is implemented by each model backend.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
