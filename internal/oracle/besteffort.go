package oracle

import (
	"context"
	"io"
	"log/slog"

	"github.com/vbonduro/dishout/internal/domain"
)

// UnknownDish is returned by BestEffort when identification fails.
var UnknownDish = Dish{DishName: "Delicious Food", Description: "Could not identify dish."}

// BestEffort wraps an Oracle so that no call fails: errors are logged and
// replaced by an empty or default result.
type BestEffort struct {
	next   Oracle
	logger *slog.Logger
}

func NewBestEffort(next Oracle, logger *slog.Logger) *BestEffort {
	return &BestEffort{next: next, logger: logger}
}

func (b *BestEffort) Identify(ctx context.Context, r io.Reader, mimeType string) (*Dish, error) {
	dish, err := b.next.Identify(ctx, r, mimeType)
	if err != nil {
		b.logger.Error("dish identification failed", "error", err)
		d := UnknownDish
		return &d, nil
	}
	return dish, nil
}

func (b *BestEffort) Search(ctx context.Context, dishName string, near domain.LatLng) ([]domain.RestaurantMatch, error) {
	matches, err := b.next.Search(ctx, dishName, near)
	if err != nil {
		b.logger.Error("restaurant search failed", "dish", dishName, "error", err)
		return []domain.RestaurantMatch{}, nil
	}
	if matches == nil {
		matches = []domain.RestaurantMatch{}
	}
	return matches, nil
}

func (b *BestEffort) SyncProfile(ctx context.Context, url string) (*Profile, error) {
	p, err := b.next.SyncProfile(ctx, url)
	if err != nil {
		b.logger.Error("profile sync failed", "url", url, "error", err)
		return &Profile{Menu: []domain.MenuItem{}}, nil
	}
	return p, nil
}

func (b *BestEffort) CheckIntent(ctx context.Context, text string) (bool, error) {
	ok, err := b.next.CheckIntent(ctx, text)
	if err != nil {
		b.logger.Warn("intent check failed", "error", err)
		return false, nil
	}
	return ok, nil
}
