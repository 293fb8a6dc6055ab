package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"madrid-bins-api/internal/domain/model"
	"madrid-bins-api/internal/domain/repository"
	"madrid-bins-api/internal/domain/service"
	"madrid-bins-api/internal/metrics"
)

// BinsService is the application-facing surface of the read API. It owns
// input validation and parameter clamping; the engines behind it only ever
// see normalized, typed parameters.
type BinsService interface {
	GetAllBins(ctx context.Context, binType string) ([]model.BinRecord, error)
	GetBinsCount(ctx context.Context, binType string) (int64, error)
	GetBinsByLocation(ctx context.Context, binType string, params model.LocationParams) ([]model.BinRecord, error)
	GetBinsNearby(ctx context.Context, binType string, params model.NearbyParams) ([]model.BinRecord, error)
	AggregateByDistrict(ctx context.Context, binType string, box model.BoundingBox) ([]model.DistrictAggregate, error)
	AggregateByNeighborhood(ctx context.Context, binType string, box model.BoundingBox) ([]model.NeighborhoodAggregate, error)
	GetCountsHierarchy(ctx context.Context, binType string) ([]model.HierarchyCount, error)
}

// Cache TTLs track the Cache-Control ages of the corresponding endpoints.
const (
	countCacheTTL     = 5 * time.Minute
	hierarchyCacheTTL = time.Minute
)

type binsServiceImpl struct {
	repo      repository.BinsRepository
	nearby    service.NearbyService
	aggregate service.AggregateService
	hierarchy service.HierarchyService
	cache     *redis.Client // nil disables caching
}

// NewBinsService wires the engines over one shared store handle. cache may be
// nil; only the two full-scan reads (count, hierarchy) use it.
func NewBinsService(repo repository.BinsRepository, nearby service.NearbyService, cache *redis.Client) BinsService {
	return &binsServiceImpl{
		repo:      repo,
		nearby:    nearby,
		aggregate: service.NewAggregateService(repo),
		hierarchy: service.NewHierarchyService(repo),
		cache:     cache,
	}
}

func validateBinType(binType string) error {
	if !model.IsValidBinType(binType) {
		return fmt.Errorf("%w: %s", model.ErrInvalidBinType, binType)
	}
	return nil
}

func (s *binsServiceImpl) GetAllBins(ctx context.Context, binType string) ([]model.BinRecord, error) {
	if err := validateBinType(binType); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, binType)
}

func (s *binsServiceImpl) GetBinsCount(ctx context.Context, binType string) (int64, error) {
	if err := validateBinType(binType); err != nil {
		return 0, err
	}

	cacheKey := "bins:count:" + binType
	var cached int64
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	count, err := s.repo.Count(ctx, binType)
	if err != nil {
		return 0, err
	}
	s.cacheSet(ctx, cacheKey, count, countCacheTTL)
	return count, nil
}

func (s *binsServiceImpl) GetBinsByLocation(ctx context.Context, binType string, params model.LocationParams) ([]model.BinRecord, error) {
	if err := validateBinType(binType); err != nil {
		return nil, err
	}
	if !params.LocationType.Valid() || params.LocationValue == "" {
		return nil, fmt.Errorf("%w: type=%q value=%q", model.ErrInvalidLocationParams, params.LocationType, params.LocationValue)
	}
	params.Normalize()
	return s.repo.FindByLocation(ctx, binType, params)
}

func (s *binsServiceImpl) GetBinsNearby(ctx context.Context, binType string, params model.NearbyParams) ([]model.BinRecord, error) {
	if err := validateBinType(binType); err != nil {
		return nil, err
	}
	if !params.Origin().Valid() {
		return nil, fmt.Errorf("%w: lat=%v lng=%v", model.ErrInvalidCoordinates, params.Lat, params.Lng)
	}
	// Radius and limit are clamped, not rejected.
	params.Normalize()
	return s.nearby.FindNearby(ctx, binType, params)
}

func (s *binsServiceImpl) AggregateByDistrict(ctx context.Context, binType string, box model.BoundingBox) ([]model.DistrictAggregate, error) {
	if err := validateBinType(binType); err != nil {
		return nil, err
	}
	if !box.Valid() {
		return nil, fmt.Errorf("%w: %+v", model.ErrInvalidBoundingBox, box)
	}
	return s.aggregate.AggregateByDistrict(ctx, binType, box)
}

func (s *binsServiceImpl) AggregateByNeighborhood(ctx context.Context, binType string, box model.BoundingBox) ([]model.NeighborhoodAggregate, error) {
	if err := validateBinType(binType); err != nil {
		return nil, err
	}
	if !box.Valid() {
		return nil, fmt.Errorf("%w: %+v", model.ErrInvalidBoundingBox, box)
	}
	return s.aggregate.AggregateByNeighborhood(ctx, binType, box)
}

func (s *binsServiceImpl) GetCountsHierarchy(ctx context.Context, binType string) ([]model.HierarchyCount, error) {
	if err := validateBinType(binType); err != nil {
		return nil, err
	}

	cacheKey := "bins:hierarchy:" + binType
	var cached []model.HierarchyCount
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	counts, err := s.hierarchy.CountsHierarchy(ctx, binType)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKey, counts, hierarchyCacheTTL)
	return counts, nil
}

// cacheGet loads a JSON value. Any cache failure counts as a miss; the store
// remains the source of truth.
func (s *binsServiceImpl) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheMissesTotal.Inc()
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		metrics.CacheMissesTotal.Inc()
		return false
	}
	metrics.CacheHitsTotal.Inc()
	return true
}

// cacheSet stores a JSON value best-effort.
func (s *binsServiceImpl) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, payload, ttl)
}
