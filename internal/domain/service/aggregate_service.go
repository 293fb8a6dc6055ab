package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"madrid-bins-api/internal/domain/helper"
	"madrid-bins-api/internal/domain/model"
	"madrid-bins-api/internal/domain/repository"
)

// AggregateService is the geographic aggregation engine: per-group counts and
// centroids over a bounding box. Centroids are the unweighted arithmetic mean
// of member coordinates, which is fine at city scale.
type AggregateService interface {
	AggregateByDistrict(ctx context.Context, binType string, box model.BoundingBox) ([]model.DistrictAggregate, error)
	AggregateByNeighborhood(ctx context.Context, binType string, box model.BoundingBox) ([]model.NeighborhoodAggregate, error)
}

type aggregateServiceImpl struct {
	repo repository.BinsRepository
}

// NewAggregateService creates an AggregateService over the given store.
func NewAggregateService(repo repository.BinsRepository) AggregateService {
	return &aggregateServiceImpl{repo: repo}
}

// centroidAcc accumulates one group. Count >= 1 by construction: a group
// exists only because a record contributed to it.
type centroidAcc struct {
	count  int
	sumLat float64
	sumLng float64
}

func (a *centroidAcc) add(lat, lng float64) {
	a.count++
	a.sumLat += lat
	a.sumLng += lng
}

func (a *centroidAcc) centroid() model.LatLng {
	return model.LatLng{Lat: a.sumLat / float64(a.count), Lng: a.sumLng / float64(a.count)}
}

func (s *aggregateServiceImpl) AggregateByDistrict(ctx context.Context, binType string, box model.BoundingBox) ([]model.DistrictAggregate, error) {
	points, err := s.fetchPoints(ctx, binType, box)
	if err != nil {
		return nil, err
	}

	groups := make(map[int]*centroidAcc)
	for _, p := range points {
		acc, ok := groups[p.DistrictID]
		if !ok {
			acc = &centroidAcc{}
			groups[p.DistrictID] = acc
		}
		acc.add(*p.Lat, *p.Lng)
	}

	result := make([]model.DistrictAggregate, 0, len(groups))
	for districtID, acc := range groups {
		result = append(result, model.DistrictAggregate{
			DistrictID: districtID,
			Count:      acc.count,
			Centroid:   acc.centroid(),
		})
	}
	// Sorted by key so a fixed box over fixed data always serializes the same.
	sort.Slice(result, func(i, j int) bool {
		return result[i].DistrictID < result[j].DistrictID
	})
	return result, nil
}

func (s *aggregateServiceImpl) AggregateByNeighborhood(ctx context.Context, binType string, box model.BoundingBox) ([]model.NeighborhoodAggregate, error) {
	points, err := s.fetchPoints(ctx, binType, box)
	if err != nil {
		return nil, err
	}

	type groupKey struct {
		districtID      int
		neighborhoodID  int
		hasNeighborhood bool
	}
	keyOf := func(p model.BinPoint) groupKey {
		k := groupKey{districtID: p.DistrictID}
		if p.NeighborhoodID != nil {
			k.neighborhoodID = *p.NeighborhoodID
			k.hasNeighborhood = true
		}
		return k
	}

	groups := make(map[groupKey]*centroidAcc)
	for _, p := range points {
		k := keyOf(p)
		acc, ok := groups[k]
		if !ok {
			acc = &centroidAcc{}
			groups[k] = acc
		}
		acc.add(*p.Lat, *p.Lng)
	}

	result := make([]model.NeighborhoodAggregate, 0, len(groups))
	for k, acc := range groups {
		agg := model.NeighborhoodAggregate{
			DistrictID: k.districtID,
			Count:      acc.count,
			Centroid:   acc.centroid(),
		}
		if k.hasNeighborhood {
			id := k.neighborhoodID
			agg.NeighborhoodID = &id
		}
		result = append(result, agg)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DistrictID != result[j].DistrictID {
			return result[i].DistrictID < result[j].DistrictID
		}
		// NULL neighborhood sorts first within its district.
		ni, nj := result[i].NeighborhoodID, result[j].NeighborhoodID
		if ni == nil || nj == nil {
			return ni == nil && nj != nil
		}
		return *ni < *nj
	})
	return result, nil
}

// fetchPoints queries the projection and re-checks containment exactly. The
// store filter already constrains to the box; the re-check keeps the count
// conservation property independent of store-side edge semantics.
func (s *aggregateServiceImpl) fetchPoints(ctx context.Context, binType string, box model.BoundingBox) ([]model.BinPoint, error) {
	points, err := s.repo.FindPointsWithinBox(ctx, binType, box)
	if err != nil {
		return nil, fmt.Errorf("aggregate projection: %w", err)
	}

	bound := helper.BoundingBoxToBound(box)
	inside := make([]model.BinPoint, 0, len(points))
	for _, p := range points {
		if !p.HasCoordinates() {
			continue
		}
		if bound.Contains(orb.Point{*p.Lng, *p.Lat}) {
			inside = append(inside, p)
		}
	}
	return inside, nil
}
