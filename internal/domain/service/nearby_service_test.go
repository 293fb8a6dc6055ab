package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madrid-bins-api/internal/domain/helper"
	"madrid-bins-api/internal/domain/model"
)

func TestFindNearbyInProcess(t *testing.T) {
	ctx := context.Background()
	origin := model.LatLng{Lat: 40.4168, Lng: -3.7038}

	t.Run("returns only records within the radius, nearest first", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			binAt(1, 0.8, 0),  // ~800 m north
			binAt(2, 0.2, 0),  // ~200 m north
			binAt(3, 0, 0.5),  // ~500 m east
			binAt(4, 30, 0),   // ~30 km north, outside
		)
		svc := NewNearbyService(repo, nil)

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: origin.Lat, Lng: origin.Lng, RadiusKm: 1, Limit: 10,
		})
		require.NoError(t, err)
		require.Len(t, bins, 3)
		assert.Equal(t, int64(2), bins[0].ID)
		assert.Equal(t, int64(3), bins[1].ID)
		assert.Equal(t, int64(1), bins[2].ID)
	})

	t.Run("distances are non-decreasing", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			binAt(1, 3, -2), binAt(2, -1, 1), binAt(3, 0.1, 0.1), binAt(4, -4, -4),
		)
		svc := NewNearbyService(repo, nil)

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: origin.Lat, Lng: origin.Lng, RadiusKm: 50, Limit: 10,
		})
		require.NoError(t, err)
		require.Len(t, bins, 4)
		for i := 1; i < len(bins); i++ {
			prev := helper.Distance(origin, bins[i-1].ToLatLng())
			cur := helper.Distance(origin, bins[i].ToLatLng())
			assert.LessOrEqual(t, prev, cur)
		}
	})

	t.Run("every result is within the requested radius", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			binAt(1, 0.9, 0), binAt(2, 1.4, 0), binAt(3, 2.5, 0),
		)
		svc := NewNearbyService(repo, nil)

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: origin.Lat, Lng: origin.Lng, RadiusKm: 1.5, Limit: 10,
		})
		require.NoError(t, err)
		for _, bin := range bins {
			assert.LessOrEqual(t, helper.Distance(origin, bin.ToLatLng()), 1500.0)
		}
		assert.Len(t, bins, 2)
	})

	t.Run("limit truncates after ranking", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			binAt(1, 0.5, 0), binAt(2, 0.1, 0), binAt(3, 0.3, 0),
		)
		svc := NewNearbyService(repo, nil)

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: origin.Lat, Lng: origin.Lng, RadiusKm: 5, Limit: 2,
		})
		require.NoError(t, err)
		require.Len(t, bins, 2)
		assert.Equal(t, int64(2), bins[0].ID)
		assert.Equal(t, int64(3), bins[1].ID)
	})

	t.Run("tiny radius is clamped to the minimum, not rejected", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			binAt(1, 0.03, 0), // ~30 m, inside the clamped 50 m radius
			binAt(2, 0.08, 0), // ~80 m, outside
		)
		svc := NewNearbyService(repo, nil)

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: origin.Lat, Lng: origin.Lng, RadiusKm: 0.01, Limit: 10,
		})
		require.NoError(t, err)
		require.Len(t, bins, 1)
		assert.Equal(t, int64(1), bins[0].ID)
	})

	t.Run("empty collection yields an empty slice", func(t *testing.T) {
		svc := NewNearbyService(newFakeRepo(model.BinTypeGlass), nil)

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: origin.Lat, Lng: origin.Lng, RadiusKm: 5, Limit: 10,
		})
		require.NoError(t, err)
		assert.NotNil(t, bins)
		assert.Empty(t, bins)
	})

	t.Run("records without coordinates are skipped", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			model.BinRecord{ID: 1, DistrictID: 1},
			binAt(2, 0.2, 0),
		)
		svc := NewNearbyService(repo, nil)

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: origin.Lat, Lng: origin.Lng, RadiusKm: 5, Limit: 10,
		})
		require.NoError(t, err)
		require.Len(t, bins, 1)
		assert.Equal(t, int64(2), bins[0].ID)
	})

	t.Run("store pre-filter is asked for an over-fetched page", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass, binAt(1, 0.1, 0))
		svc := NewNearbyService(repo, nil)

		_, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: origin.Lat, Lng: origin.Lng, RadiusKm: 5, Limit: 25,
		})
		require.NoError(t, err)
		assert.Equal(t, 25*model.NearbyOverfetchFactor, repo.lastBoxLimit)
	})
}

type fakeNearbyProc struct {
	bins []model.BinRecord
	err  error

	gotParams model.NearbyParams
}

func (f *fakeNearbyProc) FindNearbyProcedure(_ context.Context, _ string, params model.NearbyParams) ([]model.BinRecord, error) {
	f.gotParams = params
	return f.bins, f.err
}

func TestFindNearbyProcedurePath(t *testing.T) {
	ctx := context.Background()

	t.Run("procedure results pass through untouched", func(t *testing.T) {
		expected := []model.BinRecord{binAt(7, 0.1, 0), binAt(8, 0.2, 0)}
		proc := &fakeNearbyProc{bins: expected}
		svc := NewNearbyService(newFakeRepo(model.BinTypeGlass), proc)

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: 40.4168, Lng: -3.7038, RadiusKm: 5, Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, expected, bins)
	})

	t.Run("params are clamped before reaching the procedure", func(t *testing.T) {
		proc := &fakeNearbyProc{}
		svc := NewNearbyService(newFakeRepo(model.BinTypeGlass), proc)

		_, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: 40.4168, Lng: -3.7038, RadiusKm: 999, Limit: 999999,
		})
		require.NoError(t, err)
		assert.Equal(t, model.MaxRadiusKm, proc.gotParams.RadiusKm)
		assert.Equal(t, model.MaxNearbyLimit, proc.gotParams.Limit)
	})

	t.Run("nil procedure result becomes an empty slice", func(t *testing.T) {
		svc := NewNearbyService(newFakeRepo(model.BinTypeGlass), &fakeNearbyProc{})

		bins, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: 40.4168, Lng: -3.7038, RadiusKm: 5, Limit: 10,
		})
		require.NoError(t, err)
		assert.NotNil(t, bins)
		assert.Empty(t, bins)
	})

	t.Run("procedure errors are wrapped and surfaced", func(t *testing.T) {
		boom := errors.New("rpc unavailable")
		svc := NewNearbyService(newFakeRepo(model.BinTypeGlass), &fakeNearbyProc{err: boom})

		_, err := svc.FindNearby(ctx, model.BinTypeGlass, model.NearbyParams{
			Lat: 40.4168, Lng: -3.7038, RadiusKm: 5, Limit: 10,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})
}
