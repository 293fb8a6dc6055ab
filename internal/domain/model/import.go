package model

// ImportRecord is one normalized row produced by the CSV import pipeline,
// before the store assigns identifiers. District and neighborhood are still
// municipal codes here; the server-side import procedure resolves them to
// row identifiers on upsert.
type ImportRecord struct {
	Address          string   `json:"address"`
	Lat              *float64 `json:"lat"`
	Lng              *float64 `json:"lng"`
	LoadType         *string  `json:"load_type"`
	Direction        *string  `json:"direction"`
	Subtype          *string  `json:"subtype"`
	PlacementType    *string  `json:"placement_type"`
	Notes            *string  `json:"notes"`
	BusStop          *string  `json:"bus_stop"`
	InterurbanNode   *string  `json:"interurban_node"`
	DistrictCode     string   `json:"district_code"`
	NeighborhoodCode *string  `json:"neighborhood_code"` // nil, never "": ingestion normalizes the empty-string sentinel
}
