package model

// BinRecord is one recycling collection point as stored in a bin-type table.
// Column names follow the v1 database schema; NULLable columns are pointers.
type BinRecord struct {
	ID              int64    `json:"id,omitempty" db:"id"`
	CategoryGroupID int      `json:"category_group_id" db:"category_group_id"`
	CategoryID      int      `json:"category_id" db:"category_id"`
	DistrictID      int      `json:"district_id" db:"district_id"`
	NeighborhoodID  *int     `json:"neighborhood_id" db:"neighborhood_id"` // NULL for e.g. battery points
	Address         string   `json:"address" db:"address"`
	Lat             *float64 `json:"lat" db:"lat"`
	Lng             *float64 `json:"lng" db:"lng"`
	LoadType        *string  `json:"load_type,omitempty" db:"load_type"`
	Direction       *string  `json:"direction,omitempty" db:"direction"`
	Subtype         *string  `json:"subtype,omitempty" db:"subtype"`
	PlacementType   *string  `json:"placement_type,omitempty" db:"placement_type"`
	Notes           *string  `json:"notes,omitempty" db:"notes"`
	BusStop         *string  `json:"bus_stop,omitempty" db:"bus_stop"`
	InterurbanNode  *string  `json:"interurban_node,omitempty" db:"interurban_node"`
	CreatedAt       string   `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt       string   `json:"updated_at,omitempty" db:"updated_at"`
}

// HasCoordinates reports whether both coordinates are present.
func (b *BinRecord) HasCoordinates() bool {
	return b.Lat != nil && b.Lng != nil
}

// ToLatLng returns the record position. Only meaningful when HasCoordinates.
func (b *BinRecord) ToLatLng() LatLng {
	if !b.HasCoordinates() {
		return LatLng{}
	}
	return LatLng{Lat: *b.Lat, Lng: *b.Lng}
}

// BinPoint is the projection used by the aggregation queries: grouping keys
// plus coordinates, nothing else.
type BinPoint struct {
	DistrictID     int      `json:"district_id" db:"district_id"`
	NeighborhoodID *int     `json:"neighborhood_id" db:"neighborhood_id"`
	Lat            *float64 `json:"lat" db:"lat"`
	Lng            *float64 `json:"lng" db:"lng"`
}

// HasCoordinates reports whether both coordinates are present.
func (p *BinPoint) HasCoordinates() bool {
	return p.Lat != nil && p.Lng != nil
}

// HierarchyPair is the projection used by the hierarchy counter.
type HierarchyPair struct {
	DistrictID     int  `json:"district_id" db:"district_id"`
	NeighborhoodID *int `json:"neighborhood_id" db:"neighborhood_id"`
}

// HierarchyCount is one (district, neighborhood) group with its record count.
// NeighborhoodID stays nil for records not tied to a neighborhood; that group
// is distinct from every non-nil one.
type HierarchyCount struct {
	DistrictID     int  `json:"district_id"`
	NeighborhoodID *int `json:"neighborhood_id"`
	Count          int  `json:"count"`
}

// DistrictAggregate is a per-district count and centroid over a bounding box.
type DistrictAggregate struct {
	DistrictID int    `json:"district_id"`
	Count      int    `json:"count"`
	Centroid   LatLng `json:"centroid"`
}

// NeighborhoodAggregate is a per-(district, neighborhood) count and centroid
// over a bounding box.
type NeighborhoodAggregate struct {
	DistrictID     int    `json:"district_id"`
	NeighborhoodID *int   `json:"neighborhood_id"`
	Count          int    `json:"count"`
	Centroid       LatLng `json:"centroid"`
}

// InsertResult reports a batch insert: how many rows made it in and which
// batches failed. A failed batch does not abort the remaining ones.
type InsertResult struct {
	Inserted int          `json:"inserted"`
	Updated  int          `json:"updated"`
	Errors   []BatchError `json:"errors,omitempty"`
}

// BatchError identifies one failed insert batch.
type BatchError struct {
	Batch int    `json:"batch"`
	Error string `json:"error"`
}
