package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madrid-bins-api/internal/domain/model"
)

func TestCountsHierarchy(t *testing.T) {
	ctx := context.Background()

	t.Run("groups by district and neighborhood with null as its own group", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeClothing,
			model.BinRecord{ID: 1, DistrictID: 1, NeighborhoodID: iptr(1)},
			model.BinRecord{ID: 2, DistrictID: 1, NeighborhoodID: iptr(1)},
			model.BinRecord{ID: 3, DistrictID: 1},
			model.BinRecord{ID: 4, DistrictID: 2, NeighborhoodID: iptr(5)},
		)
		svc := NewHierarchyService(repo)

		counts, err := svc.CountsHierarchy(ctx, model.BinTypeClothing)
		require.NoError(t, err)
		require.Len(t, counts, 3)

		assert.Equal(t, 1, counts[0].DistrictID)
		assert.Nil(t, counts[0].NeighborhoodID)
		assert.Equal(t, 1, counts[0].Count)

		assert.Equal(t, 1, counts[1].DistrictID)
		require.NotNil(t, counts[1].NeighborhoodID)
		assert.Equal(t, 1, *counts[1].NeighborhoodID)
		assert.Equal(t, 2, counts[1].Count)

		assert.Equal(t, 2, counts[2].DistrictID)
		require.NotNil(t, counts[2].NeighborhoodID)
		assert.Equal(t, 5, *counts[2].NeighborhoodID)
		assert.Equal(t, 1, counts[2].Count)
	})

	t.Run("counts sum to the collection size", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeClothing,
			model.BinRecord{ID: 1, DistrictID: 3, NeighborhoodID: iptr(31)},
			model.BinRecord{ID: 2, DistrictID: 3, NeighborhoodID: iptr(32)},
			model.BinRecord{ID: 3, DistrictID: 7},
			model.BinRecord{ID: 4, DistrictID: 7},
			model.BinRecord{ID: 5, DistrictID: 7, NeighborhoodID: iptr(71)},
		)
		svc := NewHierarchyService(repo)

		counts, err := svc.CountsHierarchy(ctx, model.BinTypeClothing)
		require.NoError(t, err)

		total := 0
		for _, hc := range counts {
			total += hc.Count
		}
		assert.Equal(t, 5, total)
	})

	t.Run("empty collection yields an empty slice", func(t *testing.T) {
		svc := NewHierarchyService(newFakeRepo(model.BinTypeClothing))

		counts, err := svc.CountsHierarchy(ctx, model.BinTypeClothing)
		require.NoError(t, err)
		assert.NotNil(t, counts)
		assert.Empty(t, counts)
	})

	t.Run("a neighborhood id of zero is distinct from null", func(t *testing.T) {
		repo := newFakeRepo(model.BinTypeClothing,
			model.BinRecord{ID: 1, DistrictID: 1, NeighborhoodID: iptr(0)},
			model.BinRecord{ID: 2, DistrictID: 1},
		)
		svc := NewHierarchyService(repo)

		counts, err := svc.CountsHierarchy(ctx, model.BinTypeClothing)
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Nil(t, counts[0].NeighborhoodID)
		require.NotNil(t, counts[1].NeighborhoodID)
		assert.Equal(t, 0, *counts[1].NeighborhoodID)
	})
}
