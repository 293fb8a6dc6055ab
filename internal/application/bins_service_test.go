package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madrid-bins-api/internal/domain/model"
	"madrid-bins-api/internal/domain/service"
)

// stubRepo records the last parameters each store method received.
type stubRepo struct {
	bins []model.BinRecord

	lastLocation model.LocationParams
}

func (s *stubRepo) FindAll(_ context.Context, _ string) ([]model.BinRecord, error) {
	return s.bins, nil
}

func (s *stubRepo) Count(_ context.Context, _ string) (int64, error) {
	return int64(len(s.bins)), nil
}

func (s *stubRepo) FindByLocation(_ context.Context, _ string, params model.LocationParams) ([]model.BinRecord, error) {
	s.lastLocation = params
	return s.bins, nil
}

func (s *stubRepo) FindWithinBox(_ context.Context, _ string, _ model.BoundingBox, _ int) ([]model.BinRecord, error) {
	return s.bins, nil
}

func (s *stubRepo) FindPointsWithinBox(_ context.Context, _ string, _ model.BoundingBox) ([]model.BinPoint, error) {
	return nil, nil
}

func (s *stubRepo) FetchHierarchyPairs(_ context.Context, _ string) ([]model.HierarchyPair, error) {
	return nil, nil
}

func (s *stubRepo) InsertBatch(_ context.Context, _ string, bins []model.BinRecord) (*model.InsertResult, error) {
	return &model.InsertResult{Inserted: len(bins)}, nil
}

func (s *stubRepo) DeleteAll(_ context.Context, _ string) error { return nil }

func newService(repo *stubRepo) BinsService {
	return NewBinsService(repo, service.NewNearbyService(repo, nil), nil)
}

func TestBinsServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(&stubRepo{})

	t.Run("unknown bin type is rejected everywhere", func(t *testing.T) {
		_, err := svc.GetAllBins(ctx, "swimming_pools")
		assert.ErrorIs(t, err, model.ErrInvalidBinType)

		_, err = svc.GetBinsCount(ctx, "swimming_pools")
		assert.ErrorIs(t, err, model.ErrInvalidBinType)

		_, err = svc.GetBinsNearby(ctx, "swimming_pools", model.NearbyParams{Lat: 40, Lng: -3})
		assert.ErrorIs(t, err, model.ErrInvalidBinType)

		_, err = svc.GetCountsHierarchy(ctx, "swimming_pools")
		assert.ErrorIs(t, err, model.ErrInvalidBinType)
	})

	t.Run("out-of-range coordinates are rejected", func(t *testing.T) {
		_, err := svc.GetBinsNearby(ctx, model.BinTypeGlass, model.NearbyParams{Lat: 91, Lng: 0})
		assert.ErrorIs(t, err, model.ErrInvalidCoordinates)

		_, err = svc.GetBinsNearby(ctx, model.BinTypeGlass, model.NearbyParams{Lat: 0, Lng: -181})
		assert.ErrorIs(t, err, model.ErrInvalidCoordinates)
	})

	t.Run("unknown location type is rejected", func(t *testing.T) {
		_, err := svc.GetBinsByLocation(ctx, model.BinTypeGlass, model.LocationParams{
			LocationType: "street", LocationValue: "1",
		})
		assert.ErrorIs(t, err, model.ErrInvalidLocationParams)
	})

	t.Run("empty location value is rejected", func(t *testing.T) {
		_, err := svc.GetBinsByLocation(ctx, model.BinTypeGlass, model.LocationParams{
			LocationType: model.LocationDistrict,
		})
		assert.ErrorIs(t, err, model.ErrInvalidLocationParams)
	})

	t.Run("degenerate bounding box is rejected", func(t *testing.T) {
		box := model.BoundingBox{MinLat: 41, MinLng: -3, MaxLat: 40, MaxLng: -2}
		_, err := svc.AggregateByDistrict(ctx, model.BinTypeGlass, box)
		assert.ErrorIs(t, err, model.ErrInvalidBoundingBox)

		_, err = svc.AggregateByNeighborhood(ctx, model.BinTypeGlass, box)
		assert.ErrorIs(t, err, model.ErrInvalidBoundingBox)
	})
}

func TestBinsServiceNormalization(t *testing.T) {
	ctx := context.Background()

	t.Run("location pagination is clamped into the window", func(t *testing.T) {
		repo := &stubRepo{}
		svc := newService(repo)

		_, err := svc.GetBinsByLocation(ctx, model.BinTypeGlass, model.LocationParams{
			LocationType:  model.LocationDistrict,
			LocationValue: "1",
			Page:          -3,
			Limit:         99999,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, repo.lastLocation.Page)
		assert.Equal(t, model.MaxPageLimit, repo.lastLocation.Limit)
	})

	t.Run("boundary coordinates are accepted", func(t *testing.T) {
		svc := newService(&stubRepo{})
		_, err := svc.GetBinsNearby(ctx, model.BinTypeGlass, model.NearbyParams{Lat: 90, Lng: -180, RadiusKm: 1, Limit: 1})
		assert.NoError(t, err)
	})
}
