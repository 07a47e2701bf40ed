package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/oracle"
)

func TestDashboardServiceUpdateMenu(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "c1", "Cafe X", domain.UserTypeRestaurant)
	items := []domain.MenuItem{{Name: "Latte", Price: "18 AED"}}

	st, err := env.dashboardService().UpdateMenu(context.Background(), "c1", items)

	require.NoError(t, err)
	assert.Equal(t, items, st.Dashboard.Menu)
}

func TestDashboardServiceUpdateMenuSurvivesRelogin(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "c1", "Cafe X", domain.UserTypeRestaurant)
	ctx := context.Background()
	items := []domain.MenuItem{{Name: "Latte", Price: "18 AED"}}

	_, err := env.dashboardService().UpdateMenu(ctx, "c1", items)
	require.NoError(t, err)

	st, err := env.accountService().Login(ctx, "c2", "c1@example.com", "pw")
	require.NoError(t, err)
	require.NotNil(t, st.Dashboard)
	assert.Equal(t, items, st.Dashboard.Menu)
}

func TestDashboardServiceRequiresRestaurant(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "c1", "Sara", domain.UserTypeUser)
	svc := env.dashboardService()
	ctx := context.Background()

	_, err := svc.UpdateMenu(ctx, "c1", nil)
	assert.ErrorIs(t, err, ErrNotRestaurant)
	_, err = svc.UpdateLocation(ctx, "c1", domain.LatLng{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, ErrNotRestaurant)
	_, err = svc.SyncProfile(ctx, "c1", "https://cafe.example")
	assert.ErrorIs(t, err, ErrNotRestaurant)
	_, err = svc.QRCode(ctx, "anonymous")
	assert.ErrorIs(t, err, ErrNotRestaurant)
}

func TestDashboardServiceUpdateLocationSurvivesRelogin(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "c1", "Cafe X", domain.UserTypeRestaurant)
	ctx := context.Background()
	loc := domain.LatLng{Lat: 25.08, Lng: 55.14}

	st, err := env.dashboardService().UpdateLocation(ctx, "c1", loc)
	require.NoError(t, err)
	assert.Equal(t, &loc, st.Dashboard.Location)
	assert.Equal(t, &loc, st.User.Location)

	st, err = env.accountService().Login(ctx, "c2", "c1@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, &loc, st.Dashboard.Location)
}

func TestDashboardServiceSyncProfile(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "c1", "Cafe X", domain.UserTypeRestaurant)
	env.oracle.profile = &oracle.Profile{
		Menu:     []domain.MenuItem{{Name: "Karak", Price: "5 AED"}},
		Location: &domain.LatLng{Lat: 25.2, Lng: 55.3},
	}

	st, err := env.dashboardService().SyncProfile(context.Background(), "c1", " https://cafe.example ")

	require.NoError(t, err)
	assert.Equal(t, env.oracle.profile.Menu, st.Dashboard.Menu)
	assert.Equal(t, &domain.LatLng{Lat: 25.2, Lng: 55.3}, st.Dashboard.Location)

	st, err = env.accountService().Login(context.Background(), "c2", "c1@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, env.oracle.profile.Menu, st.Dashboard.Menu)
	assert.Equal(t, &domain.LatLng{Lat: 25.2, Lng: 55.3}, st.Dashboard.Location)
}

func TestDashboardServiceSyncProfileKeepsExistingData(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "c1", "Cafe X", domain.UserTypeRestaurant)
	svc := env.dashboardService()
	ctx := context.Background()
	items := []domain.MenuItem{{Name: "Latte", Price: "18 AED"}}
	st, err := svc.UpdateMenu(ctx, "c1", items)
	require.NoError(t, err)
	loc := *st.Dashboard.Location

	env.oracle.profile = &oracle.Profile{Menu: []domain.MenuItem{}, Location: &domain.LatLng{Lat: 25.2, Lng: 0}}
	st, err = svc.SyncProfile(ctx, "c1", "https://cafe.example")

	require.NoError(t, err)
	assert.Equal(t, items, st.Dashboard.Menu)
	assert.Equal(t, loc, *st.Dashboard.Location)
}

func TestDashboardServiceSyncProfileErrors(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "c1", "Cafe X", domain.UserTypeRestaurant)
	svc := env.dashboardService()
	ctx := context.Background()

	_, err := svc.SyncProfile(ctx, "c1", "  ")
	assert.ErrorIs(t, err, ErrMissingURL)

	env.oracle.err = errors.New("quota")
	_, err = svc.SyncProfile(ctx, "c1", "https://cafe.example")
	assert.Error(t, err)
}

func TestDashboardServiceQRCode(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "c1", "Cafe X", domain.UserTypeRestaurant)

	png, err := env.dashboardService().QRCode(context.Background(), "c1")

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
