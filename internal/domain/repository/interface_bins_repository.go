package repository

import (
	"context"

	"madrid-bins-api/internal/domain/model"
)

// BinsRepository is the record store seen by the engines. Every method is
// scoped to one bin-type table; implementations must reject unknown bin types
// before interpolating them into a query.
type BinsRepository interface {
	// FindAll returns the whole collection, paginating internally at the
	// store page cap and concatenating.
	FindAll(ctx context.Context, binType string) ([]model.BinRecord, error)

	// Count returns the collection size without fetching rows.
	Count(ctx context.Context, binType string) (int64, error)

	// FindByLocation returns one page of records matching a district or
	// neighborhood identifier.
	FindByLocation(ctx context.Context, binType string, params model.LocationParams) ([]model.BinRecord, error)

	// FindWithinBox returns up to limit records with non-null coordinates
	// inside the box (inclusive bounds). Used as the proximity pre-filter.
	FindWithinBox(ctx context.Context, binType string, box model.BoundingBox, limit int) ([]model.BinRecord, error)

	// FindPointsWithinBox is the aggregation projection: grouping keys and
	// coordinates only, for every record with non-null coordinates inside
	// the box.
	FindPointsWithinBox(ctx context.Context, binType string, box model.BoundingBox) ([]model.BinPoint, error)

	// FetchHierarchyPairs returns (district, neighborhood) for every record
	// in the collection, paginating internally like FindAll.
	FetchHierarchyPairs(ctx context.Context, binType string) ([]model.HierarchyPair, error)

	// InsertBatch bulk-inserts records in store-sized batches, reporting
	// per-batch failures without aborting the remaining batches.
	InsertBatch(ctx context.Context, binType string, bins []model.BinRecord) (*model.InsertResult, error)

	// DeleteAll clears the collection. Ingestion-only.
	DeleteAll(ctx context.Context, binType string) error
}

// NearbyProcedureRepository is the optional store-side proximity capability:
// a find_nearby_bins procedure that returns pre-sorted, pre-limited records.
// Wired explicitly at startup when the store offers it.
type NearbyProcedureRepository interface {
	FindNearbyProcedure(ctx context.Context, binType string, params model.NearbyParams) ([]model.BinRecord, error)
}

// ImportProcedureRepository is the optional server-side upsert procedure used
// by ingestion. Implementations group the records by (district, neighborhood)
// code pair and invoke the procedure once per group.
type ImportProcedureRepository interface {
	ImportBins(ctx context.Context, binType string, categoryGroupID, categoryID int, records []model.ImportRecord) (*model.InsertResult, error)
}
