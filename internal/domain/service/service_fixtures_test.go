package service

import (
	"context"

	"madrid-bins-api/internal/domain/model"
)

// fakeBinsRepository is an in-memory store serving the engine tests. Spatial
// filters are evaluated exactly, which is a superset of what real stores do.
type fakeBinsRepository struct {
	records map[string][]model.BinRecord
	err     error

	lastBoxLimit int
}

func newFakeRepo(binType string, records ...model.BinRecord) *fakeBinsRepository {
	return &fakeBinsRepository{records: map[string][]model.BinRecord{binType: records}}
}

func (f *fakeBinsRepository) FindAll(_ context.Context, binType string) ([]model.BinRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[binType], nil
}

func (f *fakeBinsRepository) Count(_ context.Context, binType string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.records[binType])), nil
}

func (f *fakeBinsRepository) FindByLocation(_ context.Context, binType string, params model.LocationParams) ([]model.BinRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[binType], nil
}

func (f *fakeBinsRepository) FindWithinBox(_ context.Context, binType string, box model.BoundingBox, limit int) ([]model.BinRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastBoxLimit = limit
	var out []model.BinRecord
	for _, r := range f.records[binType] {
		if !r.HasCoordinates() {
			continue
		}
		if box.Contains(r.ToLatLng()) {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBinsRepository) FindPointsWithinBox(_ context.Context, binType string, box model.BoundingBox) ([]model.BinPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.BinPoint
	for _, r := range f.records[binType] {
		if !r.HasCoordinates() {
			continue
		}
		if box.Contains(r.ToLatLng()) {
			out = append(out, model.BinPoint{
				DistrictID:     r.DistrictID,
				NeighborhoodID: r.NeighborhoodID,
				Lat:            r.Lat,
				Lng:            r.Lng,
			})
		}
	}
	return out, nil
}

func (f *fakeBinsRepository) FetchHierarchyPairs(_ context.Context, binType string) ([]model.HierarchyPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.HierarchyPair
	for _, r := range f.records[binType] {
		out = append(out, model.HierarchyPair{DistrictID: r.DistrictID, NeighborhoodID: r.NeighborhoodID})
	}
	return out, nil
}

func (f *fakeBinsRepository) InsertBatch(_ context.Context, binType string, bins []model.BinRecord) (*model.InsertResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.records[binType] = append(f.records[binType], bins...)
	return &model.InsertResult{Inserted: len(bins)}, nil
}

func (f *fakeBinsRepository) DeleteAll(_ context.Context, binType string) error {
	if f.err != nil {
		return f.err
	}
	f.records[binType] = nil
	return nil
}

func fptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }

// binAt builds a record at the given offset (in km, north/east) from Madrid
// center. The meridian-arc conversion is exact enough at city scale.
func binAt(id int64, northKm, eastKm float64) model.BinRecord {
	lat := 40.4168 + northKm/111.0
	lng := -3.7038 + eastKm/(111.0*0.7612) // cos(40.4168 deg)
	return model.BinRecord{ID: id, DistrictID: 1, Lat: fptr(lat), Lng: fptr(lng)}
}
