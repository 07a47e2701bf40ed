package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/events"
	"github.com/vbonduro/dishout/internal/oracle"
	"github.com/vbonduro/dishout/internal/photostore"
)

func TestScanServiceScan(t *testing.T) {
	env := newTestEnv(t)
	env.oracle.dish = &oracle.Dish{DishName: "Shawarma", Description: "Wrapped"}
	env.oracle.matches = []domain.RestaurantMatch{{ID: "rest_1_0", Name: "Al Mallah"}}
	svc := env.scanService()
	ctx := context.Background()

	near := &domain.LatLng{Lat: 24.45, Lng: 54.37}
	scan, err := svc.Scan(ctx, "c1", []byte{0xFF, 0xD8}, "image/jpeg", near)

	require.NoError(t, err)
	assert.Regexp(t, `^scan_`, scan.ID)
	assert.Equal(t, "Shawarma", scan.DishName)
	assert.Equal(t, "Wrapped", scan.Description)
	assert.Regexp(t, `^/api/photos/\d+$`, scan.ImageURL)
	assert.Len(t, scan.MatchedRestaurants, 1)
	assert.Equal(t, "Shawarma", env.oracle.searched)
	assert.Equal(t, *near, env.oracle.near)

	st := env.sessions.Get(ctx, "c1").State()
	require.Len(t, st.Scans, 1)
	assert.Equal(t, scan.ID, st.Scans[0].ID)
	assert.Equal(t, []events.Type{events.ScanCreated}, env.publisher.types())
}

func TestScanServiceDefaultLocation(t *testing.T) {
	env := newTestEnv(t)
	env.oracle.dish = &oracle.Dish{DishName: "Pho"}

	_, err := env.scanService().Scan(context.Background(), "c1", []byte{1}, "image/jpeg", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.LatLng{Lat: 25.2048, Lng: 55.2708}, env.oracle.near)
}

func TestScanServiceScansAreMostRecentFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := env.scanService()
	ctx := context.Background()

	env.oracle.dish = &oracle.Dish{DishName: "First"}
	_, err := svc.Scan(ctx, "c1", []byte{1}, "image/jpeg", nil)
	require.NoError(t, err)
	env.oracle.dish = &oracle.Dish{DishName: "Second"}
	_, err = svc.Scan(ctx, "c1", []byte{2}, "image/jpeg", nil)
	require.NoError(t, err)

	st := env.sessions.Get(ctx, "c1").State()
	require.Len(t, st.Scans, 2)
	assert.Equal(t, "Second", st.Scans[0].DishName)
	assert.Equal(t, "First", st.Scans[1].DishName)
}

func TestScanServiceEmptyImage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.scanService().Scan(context.Background(), "c1", nil, "image/jpeg", nil)

	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestScanServiceStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.photoStg.saveErr = errors.New("disk full")

	_, err := env.scanService().Scan(context.Background(), "c1", []byte{1}, "image/jpeg", nil)

	require.Error(t, err)
	assert.Empty(t, env.sessions.Get(context.Background(), "c1").State().Scans)
	assert.Empty(t, env.publisher.types())
}

func TestScanServicePhoto(t *testing.T) {
	env := newTestEnv(t)
	env.oracle.dish = &oracle.Dish{DishName: "Pho"}
	svc := env.scanService()
	ctx := context.Background()
	scan, err := svc.Scan(ctx, "c1", []byte("jpeg bytes"), "image/jpeg", nil)
	require.NoError(t, err)

	photos, err := svc.Photos(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, PhotoURL(photos[0].ID), scan.ImageURL)

	rc, mimeType, err := svc.Photo(ctx, "c1", photos[0].ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)
	assert.Equal(t, "image/jpeg", mimeType)

	_, _, err = svc.Photo(ctx, "someone-else", photos[0].ID)
	assert.ErrorIs(t, err, photostore.ErrNotFound)

	_, _, err = svc.Photo(ctx, "c1", 9999)
	assert.ErrorIs(t, err, photostore.ErrNotFound)
}

func TestScanServiceDeletePhoto(t *testing.T) {
	env := newTestEnv(t)
	env.oracle.dish = &oracle.Dish{DishName: "Pho"}
	svc := env.scanService()
	ctx := context.Background()
	_, err := svc.Scan(ctx, "c1", []byte("jpeg bytes"), "image/jpeg", nil)
	require.NoError(t, err)
	photos, err := svc.Photos(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, photos, 1)

	assert.ErrorIs(t, svc.DeletePhoto(ctx, "someone-else", photos[0].ID), photostore.ErrNotFound)
	require.NoError(t, svc.DeletePhoto(ctx, "c1", photos[0].ID))

	_, _, err = svc.Photo(ctx, "c1", photos[0].ID)
	assert.ErrorIs(t, err, photostore.ErrNotFound)
	assert.Empty(t, env.photoStg.saved)
}

func TestScanServicePhotosAreScopedToClient(t *testing.T) {
	env := newTestEnv(t)
	env.oracle.dish = &oracle.Dish{DishName: "Pho"}
	svc := env.scanService()
	ctx := context.Background()
	_, err := svc.Scan(ctx, "c1", []byte{1}, "image/jpeg", nil)
	require.NoError(t, err)
	_, err = svc.Scan(ctx, "c2", []byte{2}, "image/png", nil)
	require.NoError(t, err)

	photos, err := svc.Photos(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "c1", photos[0].ClientID)

	none, err := svc.Photos(ctx, "c3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScanServiceOracleFailureDiscardsPhoto(t *testing.T) {
	env := newTestEnv(t)
	env.oracle.err = errors.New("model down")
	svc := env.scanService()
	ctx := context.Background()

	_, err := svc.Scan(ctx, "c1", []byte{1}, "image/jpeg", nil)

	require.Error(t, err)
	photos, err := svc.Photos(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, photos)
	assert.Empty(t, env.photoStg.saved)
	assert.Empty(t, env.sessions.Get(ctx, "c1").State().Scans)
	assert.Empty(t, env.publisher.types())
}

func TestScanServiceSearchFailureDiscardsPhoto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewScanService(env.sessions, failingSearchOracle{env.oracle}, env.photos, env.photoStg, env.publisher,
		domain.LatLng{Lat: 25.2048, Lng: 55.2708}, slog.Default())
	env.oracle.dish = &oracle.Dish{DishName: "Pho"}

	_, err := svc.Scan(ctx, "c1", []byte{1}, "image/jpeg", nil)

	require.Error(t, err)
	photos, err := svc.Photos(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, photos)
	assert.Empty(t, env.photoStg.saved)
}

// failingSearchOracle identifies dishes but cannot search.
type failingSearchOracle struct{ *stubOracle }

func (failingSearchOracle) Search(context.Context, string, domain.LatLng) ([]domain.RestaurantMatch, error) {
	return nil, errors.New("maps down")
}
