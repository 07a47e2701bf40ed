package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/events"
	"github.com/vbonduro/dishout/internal/oracle"
	"github.com/vbonduro/dishout/internal/photostore"
	"github.com/vbonduro/dishout/internal/session"
)

// photoRepository is the subset of store.PhotoStore that ScanService requires.
type photoRepository interface {
	Create(ctx context.Context, clientID, storageKey, mimeType string) (*domain.Photo, error)
	GetByID(ctx context.Context, id int64) (*domain.Photo, error)
	ListByClient(ctx context.Context, clientID string) ([]*domain.Photo, error)
	Delete(ctx context.Context, id int64) error
}

type ScanService struct {
	sessions    sessionSource
	oracle      oracle.Oracle
	photoStore  photoRepository
	photoStg    photostore.PhotoStore
	events      events.Publisher
	defaultNear domain.LatLng
	now         func() time.Time
	logger      *slog.Logger
}

func NewScanService(
	sessions sessionSource,
	o oracle.Oracle,
	photoStore photoRepository,
	photoStg photostore.PhotoStore,
	publisher events.Publisher,
	defaultNear domain.LatLng,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		sessions:    sessions,
		oracle:      o,
		photoStore:  photoStore,
		photoStg:    photoStg,
		events:      publisher,
		defaultNear: defaultNear,
		now:         time.Now,
		logger:      logger,
	}
}

// PhotoURL is the API path that serves a stored scan photo.
func PhotoURL(id int64) string {
	return fmt.Sprintf("/api/photos/%d", id)
}

// Scan stores the photo, identifies the dish, finds restaurants near the
// caller (or the default location when near is nil) and records the scan
// in the caller's history.
func (s *ScanService) Scan(ctx context.Context, clientID string, imageData []byte, mimeType string, near *domain.LatLng) (*domain.FoodScan, error) {
	if len(imageData) == 0 {
		return nil, ErrEmptyImage
	}
	s.logger.Info("scan started", "client_id", clientID, "mime_type", mimeType, "bytes", len(imageData))

	storageKey, err := s.photoStg.Save(ctx, "scan", mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	photo, err := s.photoStore.Create(ctx, clientID, storageKey, mimeType)
	if err != nil {
		if stgErr := s.photoStg.Delete(ctx, storageKey); stgErr != nil {
			s.logger.Error("failed to roll back photo file", "storage_key", storageKey, "error", stgErr)
		}
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}
	s.logger.Debug("photo saved", "client_id", clientID, "photo_id", photo.ID, "storage_key", storageKey)

	dish, err := s.oracle.Identify(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		s.discardPhoto(ctx, photo)
		return nil, fmt.Errorf("failed to identify dish: %w", err)
	}
	s.logger.Info("dish identified", "client_id", clientID, "dish", dish.DishName)

	loc := s.defaultNear
	if near != nil {
		loc = *near
	}
	matches, err := s.oracle.Search(ctx, dish.DishName, loc)
	if err != nil {
		s.discardPhoto(ctx, photo)
		return nil, fmt.Errorf("failed to search restaurants: %w", err)
	}

	scan := domain.FoodScan{
		ID:                 "scan_" + uuid.NewString(),
		ImageURL:           PhotoURL(photo.ID),
		DishName:           dish.DishName,
		Description:        dish.Description,
		Timestamp:          s.now().UnixMilli(),
		MatchedRestaurants: matches,
	}
	// The request may have outlived a logout; the scan is recorded anyway.
	s.sessions.Get(ctx, clientID).Dispatch(ctx, session.AddScan{Scan: scan})
	s.publish(ctx, events.Event{Type: events.ScanCreated, ClientID: clientID, ScanID: scan.ID})

	s.logger.Info("scan complete", "client_id", clientID, "scan_id", scan.ID, "matches", len(matches))
	return &scan, nil
}

// discardPhoto removes the record and file of a photo whose scan failed.
func (s *ScanService) discardPhoto(ctx context.Context, photo *domain.Photo) {
	if err := s.photoStore.Delete(ctx, photo.ID); err != nil {
		s.logger.Error("failed to roll back photo record", "photo_id", photo.ID, "error", err)
	}
	if err := s.photoStg.Delete(ctx, photo.StorageKey); err != nil {
		s.logger.Error("failed to roll back photo file", "storage_key", photo.StorageKey, "error", err)
	}
}

// Photos lists the scan photos uploaded by clientID, newest first.
func (s *ScanService) Photos(ctx context.Context, clientID string) ([]*domain.Photo, error) {
	photos, err := s.photoStore.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// Photo opens a scan photo uploaded by clientID. Photos of other clients
// are reported as not found.
func (s *ScanService) Photo(ctx context.Context, clientID string, id int64) (io.ReadCloser, string, error) {
	photo, err := s.photoStore.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get photo: %w", err)
	}
	if photo == nil || photo.ClientID != clientID {
		return nil, "", photostore.ErrNotFound
	}
	return s.photoStg.Get(ctx, photo.StorageKey)
}

// DeletePhoto removes a scan photo record and its file.
func (s *ScanService) DeletePhoto(ctx context.Context, clientID string, id int64) error {
	photo, err := s.photoStore.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get photo: %w", err)
	}
	if photo == nil || photo.ClientID != clientID {
		return photostore.ErrNotFound
	}
	if err := s.photoStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete photo record: %w", err)
	}
	if err := s.photoStg.Delete(ctx, photo.StorageKey); err != nil {
		s.logger.Error("failed to delete photo file", "storage_key", photo.StorageKey, "error", err)
	}
	return nil
}

func (s *ScanService) publish(ctx context.Context, e events.Event) {
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish event", "type", e.Type, "error", err)
	}
}
