package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madrid-bins-api/internal/domain/model"
)

func binIn(id int64, districtID int, neighborhoodID *int, lat, lng float64) model.BinRecord {
	return model.BinRecord{
		ID:             id,
		DistrictID:     districtID,
		NeighborhoodID: neighborhoodID,
		Lat:            fptr(lat),
		Lng:            fptr(lng),
	}
}

func TestAggregateByDistrict(t *testing.T) {
	ctx := context.Background()
	box := model.BoundingBox{MinLat: 39, MinLng: -5, MaxLat: 42, MaxLng: -2}

	t.Run("counts and centroids per district", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			binIn(1, 1, nil, 40.0, -3.0),
			binIn(2, 1, nil, 41.0, -4.0),
			binIn(3, 2, nil, 40.5, -3.5),
		)
		svc := NewAggregateService(repo)

		aggs, err := svc.AggregateByDistrict(ctx, model.BinTypeGlass, box)
		require.NoError(t, err)
		require.Len(t, aggs, 2)

		assert.Equal(t, 1, aggs[0].DistrictID)
		assert.Equal(t, 2, aggs[0].Count)
		assert.InDelta(t, 40.5, aggs[0].Centroid.Lat, 1e-9)
		assert.InDelta(t, -3.5, aggs[0].Centroid.Lng, 1e-9)

		assert.Equal(t, 2, aggs[1].DistrictID)
		assert.Equal(t, 1, aggs[1].Count)
	})

	t.Run("group counts sum to the records inside the box", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			binIn(1, 1, nil, 40.0, -3.0),
			binIn(2, 3, nil, 40.2, -3.2),
			binIn(3, 5, nil, 40.4, -3.4),
			binIn(4, 5, nil, 40.6, -3.6),
			binIn(5, 5, nil, 70.0, 10.0), // outside
		)
		svc := NewAggregateService(repo)

		aggs, err := svc.AggregateByDistrict(ctx, model.BinTypeGlass, box)
		require.NoError(t, err)

		total := 0
		for _, agg := range aggs {
			total += agg.Count
		}
		assert.Equal(t, 4, total)
	})

	t.Run("every centroid lies inside the box", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass,
			binIn(1, 1, nil, 39.1, -4.9),
			binIn(2, 1, nil, 41.9, -2.1),
			binIn(3, 2, nil, 40.0, -3.0),
		)
		svc := NewAggregateService(repo)

		aggs, err := svc.AggregateByDistrict(ctx, model.BinTypeGlass, box)
		require.NoError(t, err)
		for _, agg := range aggs {
			assert.True(t, box.Contains(agg.Centroid), "district %d", agg.DistrictID)
		}
	})

	t.Run("empty box yields an empty slice", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeGlass, binIn(1, 1, nil, 40.0, -3.0))
		svc := NewAggregateService(repo)

		aggs, err := svc.AggregateByDistrict(ctx, model.BinTypeGlass,
			model.BoundingBox{MinLat: 10, MinLng: 10, MaxLat: 11, MaxLng: 11})
		require.NoError(t, err)
		assert.NotNil(t, aggs)
		assert.Empty(t, aggs)
	})
}

func TestAggregateByNeighborhood(t *testing.T) {
	ctx := context.Background()
	box := model.BoundingBox{MinLat: 39, MinLng: -5, MaxLat: 42, MaxLng: -2}

	t.Run("null neighborhood is its own group", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeBattery,
			binIn(1, 1, iptr(11), 40.0, -3.0),
			binIn(2, 1, iptr(11), 40.2, -3.2),
			binIn(3, 1, nil, 40.4, -3.4),
			binIn(4, 2, iptr(21), 40.6, -3.6),
		)
		svc := NewAggregateService(repo)

		aggs, err := svc.AggregateByNeighborhood(ctx, model.BinTypeBattery, box)
		require.NoError(t, err)
		require.Len(t, aggs, 3)

		// District 1 first, its NULL-neighborhood group before neighborhood 11.
		assert.Equal(t, 1, aggs[0].DistrictID)
		assert.Nil(t, aggs[0].NeighborhoodID)
		assert.Equal(t, 1, aggs[0].Count)

		assert.Equal(t, 1, aggs[1].DistrictID)
		require.NotNil(t, aggs[1].NeighborhoodID)
		assert.Equal(t, 11, *aggs[1].NeighborhoodID)
		assert.Equal(t, 2, aggs[1].Count)

		assert.Equal(t, 2, aggs[2].DistrictID)
		require.NotNil(t, aggs[2].NeighborhoodID)
		assert.Equal(t, 21, *aggs[2].NeighborhoodID)
	})

	t.Run("centroid is the arithmetic mean of member coordinates", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeBattery,
			binIn(1, 1, iptr(11), 40.0, -3.0),
			binIn(2, 1, iptr(11), 41.0, -4.0),
		)
		svc := NewAggregateService(repo)

		aggs, err := svc.AggregateByNeighborhood(ctx, model.BinTypeBattery, box)
		require.NoError(t, err)
		require.Len(t, aggs, 1)
		assert.InDelta(t, 40.5, aggs[0].Centroid.Lat, 1e-9)
		assert.InDelta(t, -3.5, aggs[0].Centroid.Lng, 1e-9)
	})
}
