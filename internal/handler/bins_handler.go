package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"madrid-bins-api/internal/application"
	"madrid-bins-api/internal/domain/model"
	"madrid-bins-api/internal/metrics"
)

// BinsHandler owns the HTTP surface of the bins API: parameter coercion,
// status codes and envelopes. Engines never see a raw string.
type BinsHandler struct {
	binsService application.BinsService
}

// NewBinsHandler creates a BinsHandler over the application service.
func NewBinsHandler(binsService application.BinsService) *BinsHandler {
	return &BinsHandler{binsService: binsService}
}

// mapError turns an error kind into a client-visible status. Validation
// kinds are client errors; everything else is a store/system failure.
func mapError(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidBinType),
		errors.Is(err, model.ErrInvalidCoordinates),
		errors.Is(err, model.ErrInvalidLocationParams),
		errors.Is(err, model.ErrInvalidBoundingBox):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := mapError(err)
	c.JSON(status, model.FailureResponse(err.Error(), status))
}

func respondList(c *gin.Context, cacheControl, emptyMessage, message string, length int, data interface{}) {
	if length == 0 {
		metrics.EmptyResultsTotal.Inc()
		message = emptyMessage
	}
	c.Header("Cache-Control", cacheControl)
	c.JSON(http.StatusOK, model.SuccessResponse(message, data, http.StatusOK))
}

// queryFloat coerces a required float query parameter, rejecting the
// non-finite values ParseFloat accepts.
func queryFloat(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest,
			model.FailureResponse("query parameter '"+name+"' is required", http.StatusBadRequest))
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		c.JSON(http.StatusBadRequest,
			model.FailureResponse("query parameter '"+name+"' must be a valid number", http.StatusBadRequest))
		return 0, false
	}
	return v, true
}

// queryFloatDefault is queryFloat for optional parameters.
func queryFloatDefault(c *gin.Context, name string, def float64) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		c.JSON(http.StatusBadRequest,
			model.FailureResponse("query parameter '"+name+"' must be a valid number", http.StatusBadRequest))
		return 0, false
	}
	return v, true
}

func queryIntDefault(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest,
			model.FailureResponse("query parameter '"+name+"' must be an integer", http.StatusBadRequest))
		return 0, false
	}
	return v, true
}

// GetBins GET /api/v1/:binType - every record of the collection
func (h *BinsHandler) GetBins(c *gin.Context) {
	bins, err := h.binsService.GetAllBins(c.Request.Context(), c.Param("binType"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "public, max-age=60, stale-while-revalidate=120",
		"no bins found", "bins retrieved", len(bins), bins)
}

// GetBinsCount GET /api/v1/:binType/count
func (h *BinsHandler) GetBinsCount(c *gin.Context) {
	count, err := h.binsService.GetBinsCount(c.Request.Context(), c.Param("binType"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300, stale-while-revalidate=600")
	c.JSON(http.StatusOK, model.SuccessResponse("count retrieved", gin.H{"count": count}, http.StatusOK))
}

// GetBinsByLocation GET /api/v1/:binType/location/:locationType/:locationValue
func (h *BinsHandler) GetBinsByLocation(c *gin.Context) {
	page, ok := queryIntDefault(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := queryIntDefault(c, "limit", model.DefaultPageLimit)
	if !ok {
		return
	}

	params := model.LocationParams{
		LocationType:  model.LocationType(c.Param("locationType")),
		LocationValue: c.Param("locationValue"),
		Page:          page,
		Limit:         limit,
	}
	bins, err := h.binsService.GetBinsByLocation(c.Request.Context(), c.Param("binType"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "public, max-age=300, stale-while-revalidate=600",
		"no bins found for location", "location bins retrieved", len(bins), bins)
}

// GetBinsNearby GET /api/v1/:binType/nearby?lat&lng&radius&limit
// radius is kilometers on the wire; out-of-window radius/limit are clamped.
func (h *BinsHandler) GetBinsNearby(c *gin.Context) {
	lat, ok := queryFloat(c, "lat")
	if !ok {
		return
	}
	lng, ok := queryFloat(c, "lng")
	if !ok {
		return
	}
	radius, ok := queryFloatDefault(c, "radius", model.DefaultRadiusKm)
	if !ok {
		return
	}
	limit, ok := queryIntDefault(c, "limit", model.DefaultNearbyLimit)
	if !ok {
		return
	}

	params := model.NearbyParams{Lat: lat, Lng: lng, RadiusKm: radius, Limit: limit}
	bins, err := h.binsService.GetBinsNearby(c.Request.Context(), c.Param("binType"), params)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "public, max-age=30, stale-while-revalidate=60",
		"no nearby bins found", "nearby bins retrieved", len(bins), bins)
}

// boundingBoxFromQuery coerces the four bbox parameters. Degenerate boxes are
// rejected here, before any engine runs.
func boundingBoxFromQuery(c *gin.Context) (model.BoundingBox, bool) {
	minLat, ok := queryFloat(c, "minLat")
	if !ok {
		return model.BoundingBox{}, false
	}
	minLng, ok := queryFloat(c, "minLng")
	if !ok {
		return model.BoundingBox{}, false
	}
	maxLat, ok := queryFloat(c, "maxLat")
	if !ok {
		return model.BoundingBox{}, false
	}
	maxLng, ok := queryFloat(c, "maxLng")
	if !ok {
		return model.BoundingBox{}, false
	}

	box := model.BoundingBox{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}
	if !box.Valid() {
		c.JSON(http.StatusBadRequest,
			model.FailureResponse("invalid bounding box: min bounds must not exceed max bounds", http.StatusBadRequest))
		return model.BoundingBox{}, false
	}
	return box, true
}

// AggregateByDistrict GET /api/v1/:binType/aggregate/district?minLat&minLng&maxLat&maxLng
func (h *BinsHandler) AggregateByDistrict(c *gin.Context) {
	box, ok := boundingBoxFromQuery(c)
	if !ok {
		return
	}
	aggregates, err := h.binsService.AggregateByDistrict(c.Request.Context(), c.Param("binType"), box)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "public, max-age=60, stale-while-revalidate=120",
		"no bins inside bounding box", "district aggregates retrieved", len(aggregates), aggregates)
}

// AggregateByNeighborhood GET /api/v1/:binType/aggregate/neighborhood?minLat&minLng&maxLat&maxLng
func (h *BinsHandler) AggregateByNeighborhood(c *gin.Context) {
	box, ok := boundingBoxFromQuery(c)
	if !ok {
		return
	}
	aggregates, err := h.binsService.AggregateByNeighborhood(c.Request.Context(), c.Param("binType"), box)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "public, max-age=60, stale-while-revalidate=120",
		"no bins inside bounding box", "neighborhood aggregates retrieved", len(aggregates), aggregates)
}

// GetCountsHierarchy GET /api/v1/:binType/counts
func (h *BinsHandler) GetCountsHierarchy(c *gin.Context) {
	counts, err := h.binsService.GetCountsHierarchy(c.Request.Context(), c.Param("binType"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, "public, max-age=300, stale-while-revalidate=600",
		"no hierarchy data", "hierarchy counts retrieved", len(counts), counts)
}
