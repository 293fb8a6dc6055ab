package service

import (
	"context"
	"fmt"
	"sort"

	"madrid-bins-api/internal/domain/model"
	"madrid-bins-api/internal/domain/repository"
)

// HierarchyService is the hierarchical counter: record counts grouped by
// (district, neighborhood) over a whole collection, no spatial filter.
// Intended for dashboard/summary use over bounded collections.
type HierarchyService interface {
	CountsHierarchy(ctx context.Context, binType string) ([]model.HierarchyCount, error)
}

type hierarchyServiceImpl struct {
	repo repository.BinsRepository
}

// NewHierarchyService creates a HierarchyService over the given store.
func NewHierarchyService(repo repository.BinsRepository) HierarchyService {
	return &hierarchyServiceImpl{repo: repo}
}

func (s *hierarchyServiceImpl) CountsHierarchy(ctx context.Context, binType string) ([]model.HierarchyCount, error) {
	pairs, err := s.repo.FetchHierarchyPairs(ctx, binType)
	if err != nil {
		return nil, fmt.Errorf("hierarchy scan: %w", err)
	}

	// Composite struct key, not a joined string: a NULL neighborhood must
	// stay its own group and never collide with a literal value.
	type groupKey struct {
		districtID      int
		neighborhoodID  int
		hasNeighborhood bool
	}

	counts := make(map[groupKey]int)
	for _, pair := range pairs {
		k := groupKey{districtID: pair.DistrictID}
		if pair.NeighborhoodID != nil {
			k.neighborhoodID = *pair.NeighborhoodID
			k.hasNeighborhood = true
		}
		counts[k]++
	}

	result := make([]model.HierarchyCount, 0, len(counts))
	for k, count := range counts {
		hc := model.HierarchyCount{DistrictID: k.districtID, Count: count}
		if k.hasNeighborhood {
			id := k.neighborhoodID
			hc.NeighborhoodID = &id
		}
		result = append(result, hc)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DistrictID != result[j].DistrictID {
			return result[i].DistrictID < result[j].DistrictID
		}
		ni, nj := result[i].NeighborhoodID, result[j].NeighborhoodID
		if ni == nil || nj == nil {
			return ni == nil && nj != nil
		}
		return *ni < *nj
	})
	return result, nil
}
