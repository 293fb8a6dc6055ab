package service

import (
	"context"
	"fmt"

	"madrid-bins-api/internal/domain/helper"
	"madrid-bins-api/internal/domain/model"
	"madrid-bins-api/internal/domain/repository"
)

// NearbyService is the proximity search engine: records of one bin type
// within a radius of a reference point, nearest first.
type NearbyService interface {
	FindNearby(ctx context.Context, binType string, params model.NearbyParams) ([]model.BinRecord, error)
}

type nearbyServiceImpl struct {
	repo repository.BinsRepository
	proc repository.NearbyProcedureRepository // nil when the store has no native procedure
}

// NewNearbyService creates a NearbyService. proc may be nil; when set, the
// store-side find_nearby_bins procedure is preferred over the in-process
// bounding-box strategy.
func NewNearbyService(repo repository.BinsRepository, proc repository.NearbyProcedureRepository) NearbyService {
	return &nearbyServiceImpl{repo: repo, proc: proc}
}

func (s *nearbyServiceImpl) FindNearby(ctx context.Context, binType string, params model.NearbyParams) ([]model.BinRecord, error) {
	// Clamped here as well as in the application layer: the store query size
	// must be bounded no matter who calls the engine.
	params.Normalize()

	if s.proc != nil {
		bins, err := s.proc.FindNearbyProcedure(ctx, binType, params)
		if err != nil {
			return nil, fmt.Errorf("nearby procedure: %w", err)
		}
		if bins == nil {
			bins = []model.BinRecord{}
		}
		return bins, nil
	}

	return s.findNearbyInProcess(ctx, binType, params)
}

// findNearbyInProcess is the fallback strategy: cheap bounding-box pre-filter
// at the store, exact Haversine re-rank in process. The over-fetch window is
// not widened adaptively when the exact filter leaves fewer than limit
// survivors; that matches the store-cost contract of the endpoint.
func (s *nearbyServiceImpl) findNearbyInProcess(ctx context.Context, binType string, params model.NearbyParams) ([]model.BinRecord, error) {
	origin := params.Origin()
	box := helper.BoundingBoxForRadius(params.RadiusKm, origin)

	overfetch := params.Limit * model.NearbyOverfetchFactor
	candidates, err := s.repo.FindWithinBox(ctx, binType, box, overfetch)
	if err != nil {
		return nil, fmt.Errorf("nearby pre-filter: %w", err)
	}

	radiusMeters := params.RadiusKm * 1000
	matches := make([]model.BinRecord, 0, len(candidates))
	for _, bin := range candidates {
		if !bin.HasCoordinates() {
			continue
		}
		if helper.Distance(origin, bin.ToLatLng()) <= radiusMeters {
			matches = append(matches, bin)
		}
	}

	helper.SortByDistance(matches, origin)
	if len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}
	return matches, nil
}
