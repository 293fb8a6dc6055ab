package model

// LatLng is a WGS84 coordinate pair, used both as query input (reference
// point) and derived output (centroid).
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the pair is inside the WGS84 degree ranges.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// BoundingBox is an axis-aligned lat/lng rectangle. Bounds are inclusive on
// all four edges.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Valid reports whether the box is non-degenerate and inside coordinate range.
func (b BoundingBox) Valid() bool {
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return false
	}
	return b.MinLat >= -90 && b.MaxLat <= 90 && b.MinLng >= -180 && b.MaxLng <= 180
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(p LatLng) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// NearbyParams are the normalized inputs of a proximity search.
type NearbyParams struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Limit    int
}

// Normalize clamps radius and limit into their configured windows. Clamping
// is deliberate API behavior: out-of-window values are adjusted, not rejected.
func (p *NearbyParams) Normalize() {
	if p.RadiusKm < MinRadiusKm {
		p.RadiusKm = MinRadiusKm
	}
	if p.RadiusKm > MaxRadiusKm {
		p.RadiusKm = MaxRadiusKm
	}
	if p.Limit <= 0 {
		p.Limit = DefaultNearbyLimit
	}
	if p.Limit > MaxNearbyLimit {
		p.Limit = MaxNearbyLimit
	}
}

// Origin returns the reference point of the search.
func (p *NearbyParams) Origin() LatLng {
	return LatLng{Lat: p.Lat, Lng: p.Lng}
}

// LocationType selects the grouping column of a location lookup.
type LocationType string

const (
	LocationDistrict     LocationType = "district"
	LocationNeighborhood LocationType = "neighborhood"
)

// Valid reports whether the location type is one of the two known values.
func (t LocationType) Valid() bool {
	return t == LocationDistrict || t == LocationNeighborhood
}

// LocationParams are the normalized inputs of a district/neighborhood lookup.
type LocationParams struct {
	LocationType  LocationType
	LocationValue string
	Page          int
	Limit         int
}

// Normalize clamps pagination into the configured window.
func (p *LocationParams) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}
