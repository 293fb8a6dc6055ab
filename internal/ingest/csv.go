package ingest

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"madrid-bins-api/internal/domain/model"
)

// ReadRows parses one municipal open-data CSV into header-keyed rows. The
// files are semicolon-delimited, sometimes BOM-prefixed, and quote columns
// inconsistently, so the reader is deliberately lax.
func ReadRows(path string) ([]map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	content := strings.TrimPrefix(string(raw), "\uFEFF")

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseCoordinate reads a coordinate cell. The CSVs use a decimal comma in
// some datasets and a decimal dot in others; empty and unparseable cells
// become nil.
func ParseCoordinate(value string) *float64 {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if value == "" {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// RowMapping names the CSV columns for one dataset and carries the constant
// subtype tag, if any, for every record of the file.
type RowMapping struct {
	AddressColumn      string
	LatColumn          string
	LngColumn          string
	DistrictColumn     string
	NeighborhoodColumn string // "" when the dataset has no neighborhood column
	LoadTypeColumn     string // "" when absent
	Subtype            string // "" when absent
}

// MapRows converts raw CSV rows into import records, resolving district and
// neighborhood names to municipal codes. Rows whose district cannot be
// resolved are skipped and counted; a missing neighborhood only degrades the
// record to a district-level one.
func MapRows(rows []map[string]string, mapping RowMapping, idx *DistrictIndex) (records []model.ImportRecord, skipped int) {
	for _, row := range rows {
		districtCode := idx.DistrictCode(row[mapping.DistrictColumn])
		if districtCode == "" {
			skipped++
			continue
		}

		rec := model.ImportRecord{
			Address:      row[mapping.AddressColumn],
			Lat:          ParseCoordinate(row[mapping.LatColumn]),
			Lng:          ParseCoordinate(row[mapping.LngColumn]),
			DistrictCode: districtCode,
		}
		if mapping.NeighborhoodColumn != "" {
			if code := idx.NeighborhoodCode(districtCode, row[mapping.NeighborhoodColumn]); code != "" {
				rec.NeighborhoodCode = &code
			}
		}
		if mapping.LoadTypeColumn != "" {
			if v := row[mapping.LoadTypeColumn]; v != "" {
				rec.LoadType = &v
			}
		}
		if mapping.Subtype != "" {
			subtype := mapping.Subtype
			rec.Subtype = &subtype
		}
		records = append(records, rec)
	}
	return records, skipped
}

// Chunk splits records into store-sized batches.
func Chunk(records []model.ImportRecord, size int) [][]model.ImportRecord {
	if size <= 0 || len(records) == 0 {
		return nil
	}
	chunks := make([][]model.ImportRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
