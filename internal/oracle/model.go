package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/geo"
)

// Model implements Oracle on top of a text Generator.
type Model struct {
	gen        Generator
	identifier Identifier
	now        func() time.Time
	rand       *rand.Rand
}

func New(gen Generator) *Model {
	return &Model{gen: gen, now: time.Now}
}

// WithIdentifier routes Identify to id instead of the model.
func (m *Model) WithIdentifier(id Identifier) *Model {
	m.identifier = id
	return m
}

func (m *Model) Identify(ctx context.Context, r io.Reader, mimeType string) (*Dish, error) {
	image, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if m.identifier != nil {
		return m.identifier.Identify(ctx, image, mimeType)
	}

	resp, err := m.gen.Generate(ctx, Request{
		Task:     TaskIdentify,
		Prompt:   identifyPrompt,
		Image:    image,
		MimeType: mimeType,
		JSON:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to identify dish: %w", err)
	}

	var dish Dish
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Text)), &dish); err != nil {
		return nil, fmt.Errorf("failed to parse identification: %w", err)
	}
	if dish.DishName == "" {
		return nil, errors.New("no dish name in response")
	}
	return &dish, nil
}

// Search asks the model for restaurants serving dishName. The model is not
// asked for coordinates; each match is placed at a random point near the
// caller and its distance computed from there.
func (m *Model) Search(ctx context.Context, dishName string, near domain.LatLng) ([]domain.RestaurantMatch, error) {
	loc := near
	resp, err := m.gen.Generate(ctx, Request{
		Task:   TaskSearch,
		Prompt: searchPrompt(dishName, near.Lat, near.Lng),
		Near:   &loc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search restaurants: %w", err)
	}

	stamp := m.now().UnixMilli()
	matches := make([]domain.RestaurantMatch, 0)
	for i, c := range parseCandidates(resp.Text) {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		at := geo.Nearby(near, m.rand)
		match := domain.RestaurantMatch{
			ID:       fmt.Sprintf("rest_%d_%d", stamp, i),
			Name:     name,
			Distance: geo.Distance(near, at),
			Price:    rawString(c.Price),
			Rating:   rawFloat(c.Rating),
			Location: at,
		}
		if i < len(resp.Sources) {
			match.GroundingURL = resp.Sources[i]
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (m *Model) SyncProfile(ctx context.Context, url string) (*Profile, error) {
	resp, err := m.gen.Generate(ctx, Request{
		Task:   TaskSync,
		Prompt: syncPrompt(url),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sync profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Text)), &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if p.Menu == nil {
		p.Menu = []domain.MenuItem{}
	}
	return &p, nil
}

func (m *Model) CheckIntent(ctx context.Context, text string) (bool, error) {
	resp, err := m.gen.Generate(ctx, Request{
		Task:   TaskIntent,
		Prompt: intentPrompt(text),
	})
	if err != nil {
		return false, fmt.Errorf("failed to check intent: %w", err)
	}
	return strings.Contains(strings.ToLower(resp.Text), "true"), nil
}
