package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/supabase-community/postgrest-go"

	"madrid-bins-api/internal/domain/model"
	"madrid-bins-api/internal/domain/repository"
	"madrid-bins-api/internal/infrastructure/database"
)

// SupabaseBinsRepository talks to the bin-type tables through PostgREST.
type SupabaseBinsRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseBinsRepository(client *database.SupabaseClient) repository.BinsRepository {
	return &SupabaseBinsRepository{client: client}
}

func checkBinType(binType string) error {
	if !model.IsValidBinType(binType) {
		return fmt.Errorf("%w: %s", model.ErrInvalidBinType, binType)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FindAll fetches the whole collection, page by page. PostgREST caps a single
// response at the store page size, so one request is never enough.
func (r *SupabaseBinsRepository) FindAll(ctx context.Context, binType string) ([]model.BinRecord, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}

	all := make([]model.BinRecord, 0)
	offset := 0
	for {
		var page []model.BinRecord
		data, _, err := r.client.GetClient().From(binType).
			Select("*", "", false).
			Order("district_id", &postgrest.OrderOpts{Ascending: true}).
			Order("neighborhood_id", &postgrest.OrderOpts{Ascending: true}).
			Range(offset, offset+model.StorePageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("%w: fetching %s: %v", model.ErrQueryFailed, binType, err)
		}
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			return nil, fmt.Errorf("%w: decoding %s rows: %v", model.ErrQueryFailed, binType, err)
		}

		all = append(all, page...)
		if len(page) < model.StorePageSize {
			return all, nil
		}
		offset += model.StorePageSize
	}
}

// Count returns the collection size via a head request.
func (r *SupabaseBinsRepository) Count(ctx context.Context, binType string) (int64, error) {
	if err := checkBinType(binType); err != nil {
		return 0, err
	}

	_, count, err := r.client.GetClient().From(binType).
		Select("*", "exact", true).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("%w: counting %s: %v", model.ErrQueryFailed, binType, err)
	}
	return count, nil
}

// FindByLocation fetches one page of records matching a district or
// neighborhood identifier.
func (r *SupabaseBinsRepository) FindByLocation(ctx context.Context, binType string, params model.LocationParams) ([]model.BinRecord, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}
	params.Normalize()

	column := "district_id"
	if params.LocationType == model.LocationNeighborhood {
		column = "neighborhood_id"
	}
	offset := (params.Page - 1) * params.Limit

	var bins []model.BinRecord
	data, _, err := r.client.GetClient().From(binType).
		Select("*", "", false).
		Eq(column, params.LocationValue).
		Order("district_id", &postgrest.OrderOpts{Ascending: true}).
		Order("neighborhood_id", &postgrest.OrderOpts{Ascending: true}).
		Range(offset, offset+params.Limit-1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s by %s: %v", model.ErrQueryFailed, binType, column, err)
	}
	if err := json.Unmarshal([]byte(data), &bins); err != nil {
		return nil, fmt.Errorf("%w: decoding %s rows: %v", model.ErrQueryFailed, binType, err)
	}
	return bins, nil
}

// FindWithinBox fetches up to limit records inside the box. The range filters
// exclude NULL coordinates on the store side; rows with NULLs never satisfy
// a gte/lte comparison.
func (r *SupabaseBinsRepository) FindWithinBox(ctx context.Context, binType string, box model.BoundingBox, limit int) ([]model.BinRecord, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = model.StorePageSize
	}

	var bins []model.BinRecord
	data, _, err := r.client.GetClient().From(binType).
		Select("*", "", false).
		Gte("lat", formatFloat(box.MinLat)).
		Lte("lat", formatFloat(box.MaxLat)).
		Gte("lng", formatFloat(box.MinLng)).
		Lte("lng", formatFloat(box.MaxLng)).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("%w: box query on %s: %v", model.ErrQueryFailed, binType, err)
	}
	if err := json.Unmarshal([]byte(data), &bins); err != nil {
		return nil, fmt.Errorf("%w: decoding %s rows: %v", model.ErrQueryFailed, binType, err)
	}
	return bins, nil
}

// FindPointsWithinBox fetches the aggregation projection for every record
// inside the box.
func (r *SupabaseBinsRepository) FindPointsWithinBox(ctx context.Context, binType string, box model.BoundingBox) ([]model.BinPoint, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}

	all := make([]model.BinPoint, 0)
	offset := 0
	for {
		var page []model.BinPoint
		data, _, err := r.client.GetClient().From(binType).
			Select("district_id,neighborhood_id,lat,lng", "", false).
			Gte("lat", formatFloat(box.MinLat)).
			Lte("lat", formatFloat(box.MaxLat)).
			Gte("lng", formatFloat(box.MinLng)).
			Lte("lng", formatFloat(box.MaxLng)).
			Range(offset, offset+model.StorePageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("%w: box projection on %s: %v", model.ErrQueryFailed, binType, err)
		}
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			return nil, fmt.Errorf("%w: decoding %s projection: %v", model.ErrQueryFailed, binType, err)
		}

		all = append(all, page...)
		if len(page) < model.StorePageSize {
			return all, nil
		}
		offset += model.StorePageSize
	}
}

// FetchHierarchyPairs fetches (district, neighborhood) for every record.
func (r *SupabaseBinsRepository) FetchHierarchyPairs(ctx context.Context, binType string) ([]model.HierarchyPair, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}

	all := make([]model.HierarchyPair, 0)
	offset := 0
	for {
		var page []model.HierarchyPair
		data, _, err := r.client.GetClient().From(binType).
			Select("district_id,neighborhood_id", "", false).
			Range(offset, offset+model.StorePageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("%w: hierarchy scan on %s: %v", model.ErrQueryFailed, binType, err)
		}
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			return nil, fmt.Errorf("%w: decoding %s pairs: %v", model.ErrQueryFailed, binType, err)
		}

		all = append(all, page...)
		if len(page) < model.StorePageSize {
			return all, nil
		}
		offset += model.StorePageSize
	}
}

// InsertBatch inserts records in store-sized batches. A failed batch is
// recorded and the remaining batches still run.
func (r *SupabaseBinsRepository) InsertBatch(ctx context.Context, binType string, bins []model.BinRecord) (*model.InsertResult, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}

	result := &model.InsertResult{}
	for i := 0; i < len(bins); i += model.StorePageSize {
		end := i + model.StorePageSize
		if end > len(bins) {
			end = len(bins)
		}
		batch := bins[i:end]
		batchNumber := i/model.StorePageSize + 1

		payload, err := json.Marshal(batch)
		if err != nil {
			result.Errors = append(result.Errors, model.BatchError{Batch: batchNumber, Error: err.Error()})
			continue
		}

		_, _, err = r.client.GetClient().From(binType).
			Insert(string(payload), false, "", "minimal", "").
			Execute()
		if err != nil {
			result.Errors = append(result.Errors, model.BatchError{Batch: batchNumber, Error: err.Error()})
			continue
		}
		result.Inserted += len(batch)
	}
	if len(bins) > 0 && result.Inserted == 0 {
		return result, fmt.Errorf("%w: all %d batches failed on %s", model.ErrInsertFailed, len(result.Errors), binType)
	}
	return result, nil
}

// DeleteAll clears the collection. PostgREST refuses an unfiltered delete, so
// the filter matches every real row.
func (r *SupabaseBinsRepository) DeleteAll(ctx context.Context, binType string) error {
	if err := checkBinType(binType); err != nil {
		return err
	}

	_, _, err := r.client.GetClient().From(binType).
		Delete("", "").
		Neq("id", "0").
		Execute()
	if err != nil {
		return fmt.Errorf("%w: clearing %s: %v", model.ErrDeleteFailed, binType, err)
	}
	return nil
}

// nearbyRow is a BinRecord plus the distance column the procedure computes.
// The distance is an internal ranking detail and is stripped before returning.
type nearbyRow struct {
	model.BinRecord
	DistanceMeters float64 `json:"distance_meters"`
}

// FindNearbyProcedure delegates the proximity search to the store-side
// find_nearby_bins function: pre-filtered, pre-sorted, pre-limited.
func (r *SupabaseBinsRepository) FindNearbyProcedure(ctx context.Context, binType string, params model.NearbyParams) ([]model.BinRecord, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}
	params.Normalize()

	payload := map[string]interface{}{
		"p_table_name": binType,
		"p_lat":        params.Lat,
		"p_lng":        params.Lng,
		"p_radius_km":  params.RadiusKm,
		"p_limit":      params.Limit,
	}

	data := r.client.GetClient().Rpc("find_nearby_bins", "", payload)
	if data == "" {
		return nil, fmt.Errorf("%w: find_nearby_bins on %s returned no payload", model.ErrQueryFailed, binType)
	}

	var rows []nearbyRow
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding find_nearby_bins result: %v", model.ErrQueryFailed, err)
	}

	bins := make([]model.BinRecord, 0, len(rows))
	for _, row := range rows {
		bins = append(bins, row.BinRecord)
	}
	return bins, nil
}

// importResultRow is the shape import_bins returns per call.
type importResultRow struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors"`
}

// ImportBins upserts records through the server-side import_bins procedure.
// The procedure resolves municipal codes to row identifiers, so records are
// grouped by (district, neighborhood) code pair and sent one group per call.
func (r *SupabaseBinsRepository) ImportBins(ctx context.Context, binType string, categoryGroupID, categoryID int, records []model.ImportRecord) (*model.InsertResult, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}

	groups := make(map[string][]model.ImportRecord)
	order := make([]string, 0)
	for _, rec := range records {
		key := rec.DistrictCode + "/"
		if rec.NeighborhoodCode != nil {
			key += *rec.NeighborhoodCode
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	result := &model.InsertResult{}
	for i, key := range order {
		group := groups[key]
		first := group[0]

		payload := map[string]interface{}{
			"p_table_name":        binType,
			"p_bin_data":          group,
			"p_category_group_id": categoryGroupID,
			"p_category_id":       categoryID,
			"p_district_code":     first.DistrictCode,
			"p_neighborhood_code": first.NeighborhoodCode,
		}

		data := r.client.GetClient().Rpc("import_bins", "", payload)
		if data == "" {
			result.Errors = append(result.Errors, model.BatchError{
				Batch: i + 1,
				Error: fmt.Sprintf("import_bins returned no payload for group %s", key),
			})
			continue
		}

		var rows []importResultRow
		if err := json.Unmarshal([]byte(data), &rows); err != nil {
			result.Errors = append(result.Errors, model.BatchError{Batch: i + 1, Error: err.Error()})
			continue
		}
		for _, row := range rows {
			result.Inserted += row.Inserted
			result.Updated += row.Updated
			if row.Errors > 0 {
				result.Errors = append(result.Errors, model.BatchError{
					Batch: i + 1,
					Error: fmt.Sprintf("%d rows rejected in group %s", row.Errors, key),
				})
			}
		}
	}
	return result, nil
}
