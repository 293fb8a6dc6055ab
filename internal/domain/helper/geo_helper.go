package helper

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"madrid-bins-api/internal/domain/model"
)

const (
	// EarthRadiusMeters is the mean Earth radius. Meters are the canonical
	// distance unit everywhere in-process; kilometers exist only on the wire.
	EarthRadiusMeters = 6371000.0

	// kmPerDegree is the meridian arc approximation used for bounding-box
	// pre-filtering. Good enough for a pre-filter, never for ranking.
	kmPerDegree = 111.0

	// maxLngDeltaDeg caps the longitude half-width. Near the poles
	// cos(lat) -> 0 and the delta diverges; beyond this cap the longitude
	// filter is effectively unbounded anyway.
	maxLngDeltaDeg = 180.0
)

// ToRadians converts degrees to radians.
func ToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// HaversineDistanceMeters computes the great-circle distance between two
// WGS84 coordinate pairs.
func HaversineDistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := ToRadians(lat2 - lat1)
	dLng := ToRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(ToRadians(lat1))*math.Cos(ToRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	// The clamp is mandatory: floating-point overshoot on near-identical or
	// antipodal points pushes sqrt(a) past 1, which is outside Asin's domain.
	c := 2 * math.Asin(math.Min(1, math.Sqrt(a)))
	return EarthRadiusMeters * c
}

// Distance is HaversineDistanceMeters over LatLng values.
func Distance(a, b model.LatLng) float64 {
	return HaversineDistanceMeters(a.Lat, a.Lng, b.Lat, b.Lng)
}

// BoundingBoxForRadius builds the pre-filter box of a radius search centered
// on origin. The longitude half-width scales with 1/cos(lat) and is capped
// when the latitude degenerates toward the poles.
func BoundingBoxForRadius(radiusKm float64, origin model.LatLng) model.BoundingBox {
	latDelta := radiusKm / kmPerDegree

	lngDelta := maxLngDeltaDeg
	if cosLat := math.Cos(ToRadians(origin.Lat)); cosLat > 1e-9 {
		lngDelta = radiusKm / (kmPerDegree * cosLat)
		if lngDelta > maxLngDeltaDeg {
			lngDelta = maxLngDeltaDeg
		}
	}

	bound := orb.Bound{
		Min: orb.Point{origin.Lng - lngDelta, origin.Lat - latDelta},
		Max: orb.Point{origin.Lng + lngDelta, origin.Lat + latDelta},
	}
	return clampBound(bound)
}

// clampBound converts an orb.Bound to a BoundingBox clipped to coordinate
// range, so a wide radius never produces a filter outside [-90,90]x[-180,180].
func clampBound(b orb.Bound) model.BoundingBox {
	return model.BoundingBox{
		MinLat: math.Max(b.Min.Lat(), -90),
		MinLng: math.Max(b.Min.Lon(), -180),
		MaxLat: math.Min(b.Max.Lat(), 90),
		MaxLng: math.Min(b.Max.Lon(), 180),
	}
}

// BoundingBoxToBound converts a BoundingBox to an orb.Bound for exact
// containment checks.
func BoundingBoxToBound(b model.BoundingBox) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// SortByDistance stable-sorts records by ascending great-circle distance from
// origin. Records without coordinates are assumed to have been filtered out
// already. Stability keeps equal-distance ties in store order.
func SortByDistance(records []model.BinRecord, origin model.LatLng) {
	sort.SliceStable(records, func(i, j int) bool {
		return Distance(origin, records[i].ToLatLng()) < Distance(origin, records[j].ToLatLng())
	})
}
