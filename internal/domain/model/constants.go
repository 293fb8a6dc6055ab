package model

// Bin-type tables. Bin type is a partition key: every record lives in exactly
// one of these collections, and every store query is scoped to one of them.
const (
	BinTypeClothing = "clothing_bins"
	BinTypeOil      = "oil_bins"
	BinTypeGlass    = "glass_bins"
	BinTypePaper    = "paper_bins"
	BinTypePlastic  = "plastic_bins"
	BinTypeOrganic  = "organic_bins"
	BinTypeBattery  = "battery_bins"
	BinTypeOther    = "other_bins"
)

// BinTypes lists every valid bin-type table, in presentation order.
var BinTypes = []string{
	BinTypeClothing,
	BinTypeOil,
	BinTypeGlass,
	BinTypePaper,
	BinTypePlastic,
	BinTypeOrganic,
	BinTypeBattery,
	BinTypeOther,
}

var binTypeSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(BinTypes))
	for _, t := range BinTypes {
		s[t] = struct{}{}
	}
	return s
}()

// IsValidBinType reports whether binType names a known bin-type table. Table
// names are interpolated into store queries, so callers must check this
// before touching the store.
func IsValidBinType(binType string) bool {
	_, ok := binTypeSet[binType]
	return ok
}

// Search and pagination windows. Radius and limit are clamped into these,
// never rejected.
const (
	MinRadiusKm        = 0.05
	MaxRadiusKm        = 50.0
	DefaultRadiusKm    = 5.0
	DefaultNearbyLimit = 100
	MaxNearbyLimit     = 5000

	DefaultPageLimit = 100
	MaxPageLimit     = 1000

	// StorePageSize is the store-side page cap; full scans paginate at this
	// size and concatenate.
	StorePageSize = 1000

	// NearbyOverfetchFactor compensates for the bounding box being a superset
	// of the search circle: box corners fall outside the radius.
	NearbyOverfetchFactor = 2
)
