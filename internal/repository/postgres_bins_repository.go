package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"madrid-bins-api/internal/domain/model"
	"madrid-bins-api/internal/domain/repository"
	"madrid-bins-api/internal/infrastructure/database"
)

// PostgresBinsRepository talks SQL to the bin-type tables directly. Table
// names cannot be bound parameters, so every method validates the bin type
// before interpolating it.
type PostgresBinsRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresBinsRepository(client *database.PostgreSQLClient) repository.BinsRepository {
	return &PostgresBinsRepository{client: client}
}

const binColumns = "id, category_group_id, category_id, district_id, neighborhood_id, address, lat, lng, " +
	"load_type, direction, subtype, placement_type, notes, bus_stop, interurban_node, created_at, updated_at"

// binRow mirrors one table row with NULLable columns.
type binRow struct {
	ID              int64
	CategoryGroupID int
	CategoryID      int
	DistrictID      int
	NeighborhoodID  sql.NullInt64
	Address         string
	Lat             sql.NullFloat64
	Lng             sql.NullFloat64
	LoadType        sql.NullString
	Direction       sql.NullString
	Subtype         sql.NullString
	PlacementType   sql.NullString
	Notes           sql.NullString
	BusStop         sql.NullString
	InterurbanNode  sql.NullString
	CreatedAt       sql.NullTime
	UpdatedAt       sql.NullTime
}

func (row *binRow) scan(s interface{ Scan(...interface{}) error }) error {
	return s.Scan(&row.ID, &row.CategoryGroupID, &row.CategoryID, &row.DistrictID, &row.NeighborhoodID,
		&row.Address, &row.Lat, &row.Lng, &row.LoadType, &row.Direction, &row.Subtype,
		&row.PlacementType, &row.Notes, &row.BusStop, &row.InterurbanNode, &row.CreatedAt, &row.UpdatedAt)
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func (row *binRow) toRecord() model.BinRecord {
	rec := model.BinRecord{
		ID:              row.ID,
		CategoryGroupID: row.CategoryGroupID,
		CategoryID:      row.CategoryID,
		DistrictID:      row.DistrictID,
		Address:         row.Address,
		LoadType:        nullString(row.LoadType),
		Direction:       nullString(row.Direction),
		Subtype:         nullString(row.Subtype),
		PlacementType:   nullString(row.PlacementType),
		Notes:           nullString(row.Notes),
		BusStop:         nullString(row.BusStop),
		InterurbanNode:  nullString(row.InterurbanNode),
	}
	if row.NeighborhoodID.Valid {
		id := int(row.NeighborhoodID.Int64)
		rec.NeighborhoodID = &id
	}
	if row.Lat.Valid {
		lat := row.Lat.Float64
		rec.Lat = &lat
	}
	if row.Lng.Valid {
		lng := row.Lng.Float64
		rec.Lng = &lng
	}
	if row.CreatedAt.Valid {
		rec.CreatedAt = row.CreatedAt.Time.Format(time.RFC3339)
	}
	if row.UpdatedAt.Valid {
		rec.UpdatedAt = row.UpdatedAt.Time.Format(time.RFC3339)
	}
	return rec
}

func (r *PostgresBinsRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]model.BinRecord, error) {
	rows, err := r.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrQueryFailed, err)
	}
	defer rows.Close()

	bins := make([]model.BinRecord, 0)
	for rows.Next() {
		var row binRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", model.ErrQueryFailed, err)
		}
		bins = append(bins, row.toRecord())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrQueryFailed, err)
	}
	return bins, nil
}

func (r *PostgresBinsRepository) FindAll(ctx context.Context, binType string) ([]model.BinRecord, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY district_id, neighborhood_id NULLS FIRST", binColumns, binType)
	return r.queryRecords(ctx, query)
}

func (r *PostgresBinsRepository) Count(ctx context.Context, binType string) (int64, error) {
	if err := checkBinType(binType); err != nil {
		return 0, err
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", binType)
	if err := r.client.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting %s: %v", model.ErrQueryFailed, binType, err)
	}
	return count, nil
}

func (r *PostgresBinsRepository) FindByLocation(ctx context.Context, binType string, params model.LocationParams) ([]model.BinRecord, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}
	params.Normalize()

	column := "district_id"
	if params.LocationType == model.LocationNeighborhood {
		column = "neighborhood_id"
	}
	offset := (params.Page - 1) * params.Limit

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 ORDER BY district_id, neighborhood_id NULLS FIRST LIMIT $2 OFFSET $3",
		binColumns, binType, column)
	return r.queryRecords(ctx, query, params.LocationValue, params.Limit, offset)
}

func (r *PostgresBinsRepository) FindWithinBox(ctx context.Context, binType string, box model.BoundingBox, limit int) ([]model.BinRecord, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = model.StorePageSize
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE lat BETWEEN $1 AND $2 AND lng BETWEEN $3 AND $4 LIMIT $5",
		binColumns, binType)
	return r.queryRecords(ctx, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit)
}

func (r *PostgresBinsRepository) FindPointsWithinBox(ctx context.Context, binType string, box model.BoundingBox) ([]model.BinPoint, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT district_id, neighborhood_id, lat, lng FROM %s WHERE lat BETWEEN $1 AND $2 AND lng BETWEEN $3 AND $4",
		binType)
	rows, err := r.client.DB.QueryContext(ctx, query, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		return nil, fmt.Errorf("%w: box projection on %s: %v", model.ErrQueryFailed, binType, err)
	}
	defer rows.Close()

	points := make([]model.BinPoint, 0)
	for rows.Next() {
		var districtID int
		var neighborhoodID sql.NullInt64
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&districtID, &neighborhoodID, &lat, &lng); err != nil {
			return nil, fmt.Errorf("%w: scanning projection: %v", model.ErrQueryFailed, err)
		}
		p := model.BinPoint{DistrictID: districtID}
		if neighborhoodID.Valid {
			id := int(neighborhoodID.Int64)
			p.NeighborhoodID = &id
		}
		if lat.Valid {
			v := lat.Float64
			p.Lat = &v
		}
		if lng.Valid {
			v := lng.Float64
			p.Lng = &v
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrQueryFailed, err)
	}
	return points, nil
}

func (r *PostgresBinsRepository) FetchHierarchyPairs(ctx context.Context, binType string) ([]model.HierarchyPair, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT district_id, neighborhood_id FROM %s", binType)
	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: hierarchy scan on %s: %v", model.ErrQueryFailed, binType, err)
	}
	defer rows.Close()

	pairs := make([]model.HierarchyPair, 0)
	for rows.Next() {
		var districtID int
		var neighborhoodID sql.NullInt64
		if err := rows.Scan(&districtID, &neighborhoodID); err != nil {
			return nil, fmt.Errorf("%w: scanning pair: %v", model.ErrQueryFailed, err)
		}
		pair := model.HierarchyPair{DistrictID: districtID}
		if neighborhoodID.Valid {
			id := int(neighborhoodID.Int64)
			pair.NeighborhoodID = &id
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrQueryFailed, err)
	}
	return pairs, nil
}

func (r *PostgresBinsRepository) InsertBatch(ctx context.Context, binType string, bins []model.BinRecord) (*model.InsertResult, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}

	const insertColumns = "category_group_id, category_id, district_id, neighborhood_id, address, lat, lng, " +
		"load_type, direction, subtype, placement_type, notes, bus_stop, interurban_node"

	result := &model.InsertResult{}
	for i := 0; i < len(bins); i += model.StorePageSize {
		end := i + model.StorePageSize
		if end > len(bins) {
			end = len(bins)
		}
		batch := bins[i:end]
		batchNumber := i/model.StorePageSize + 1

		placeholders := make([]string, 0, len(batch))
		args := make([]interface{}, 0, len(batch)*14)
		for j, bin := range batch {
			base := j * 14
			ph := make([]string, 14)
			for k := range ph {
				ph[k] = fmt.Sprintf("$%d", base+k+1)
			}
			placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
			args = append(args,
				bin.CategoryGroupID, bin.CategoryID, bin.DistrictID, bin.NeighborhoodID,
				bin.Address, bin.Lat, bin.Lng, bin.LoadType, bin.Direction, bin.Subtype,
				bin.PlacementType, bin.Notes, bin.BusStop, bin.InterurbanNode)
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", binType, insertColumns, strings.Join(placeholders, ", "))
		if _, err := r.client.DB.ExecContext(ctx, query, args...); err != nil {
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

func (r *PostgresBinsRepository) DeleteAll(ctx context.Context, binType string) error {
	if err := checkBinType(binType); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s", binType)
	if _, err := r.client.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%w: clearing %s: %v", model.ErrDeleteFailed, binType, err)
	}
	return nil
}

// FindNearbyProcedure calls the find_nearby_bins SQL function directly:
// pre-filtered, sorted by distance, limited server-side. The distance column
// is scanned and dropped.
func (r *PostgresBinsRepository) FindNearbyProcedure(ctx context.Context, binType string, params model.NearbyParams) ([]model.BinRecord, error) {
	if err := checkBinType(binType); err != nil {
		return nil, err
	}
	params.Normalize()

	query := fmt.Sprintf(
		"SELECT %s, distance_meters FROM find_nearby_bins($1, $2, $3, $4, $5)", binColumns)
	rows, err := r.client.DB.QueryContext(ctx, query, binType, params.Lat, params.Lng, params.RadiusKm, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: find_nearby_bins on %s: %v", model.ErrQueryFailed, binType, err)
	}
	defer rows.Close()

	bins := make([]model.BinRecord, 0)
	for rows.Next() {
		var row binRow
		var distanceMeters float64
		if err := rows.Scan(&row.ID, &row.CategoryGroupID, &row.CategoryID, &row.DistrictID, &row.NeighborhoodID,
			&row.Address, &row.Lat, &row.Lng, &row.LoadType, &row.Direction, &row.Subtype,
			&row.PlacementType, &row.Notes, &row.BusStop, &row.InterurbanNode, &row.CreatedAt, &row.UpdatedAt,
			&distanceMeters); err != nil {
			return nil, fmt.Errorf("%w: scanning nearby row: %v", model.ErrQueryFailed, err)
		}
		bins = append(bins, row.toRecord())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrQueryFailed, err)
	}
	return bins, nil
}
