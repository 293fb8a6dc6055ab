package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// districtEntry mirrors one element of the municipal distritos.json file.
type districtEntry struct {
	Code          string `json:"cod_dis"`
	Name          string `json:"nom_dis"`
	Neighborhoods []struct {
		Code string `json:"cod_barrio"`
		Name string `json:"nom_bar"`
	} `json:"barrios"`
}

// DistrictIndex resolves district and neighborhood names from the open-data
// CSVs to their municipal codes. Lookups are accent- and case-insensitive
// because the CSVs spell names inconsistently across datasets.
type DistrictIndex struct {
	districts     map[string]string            // normalized name -> code
	neighborhoods map[string]map[string]string // district code -> normalized name -> code
}

var (
	hyphenSpacing = regexp.MustCompile(`\s*-\s*`)
	multiSpace    = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes a district or neighborhood name: uppercase,
// accents stripped, hyphens tightened, whitespace collapsed.
func NormalizeName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))

	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	s = hyphenSpacing.ReplaceAllString(b.String(), "-")
	return multiSpace.ReplaceAllString(s, " ")
}

// LoadDistrictIndex reads distritos.json and builds the lookup index.
func LoadDistrictIndex(path string) (*DistrictIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read district file: %w", err)
	}

	var entries []districtEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse district file: %w", err)
	}

	idx := &DistrictIndex{
		districts:     make(map[string]string, len(entries)),
		neighborhoods: make(map[string]map[string]string, len(entries)),
	}
	for _, d := range entries {
		idx.districts[NormalizeName(d.Name)] = d.Code
		byName := make(map[string]string, len(d.Neighborhoods))
		for _, n := range d.Neighborhoods {
			byName[NormalizeName(n.Name)] = n.Code
		}
		idx.neighborhoods[d.Code] = byName
	}
	return idx, nil
}

// DistrictCode resolves a district name to its code. Returns "" when the
// name is unknown.
func (idx *DistrictIndex) DistrictCode(name string) string {
	normalized := NormalizeName(name)
	// Some datasets abbreviate the merged district name.
	if normalized == "SAN BLAS" {
		normalized = "SAN BLAS-CANILLEJAS"
	}
	return idx.districts[normalized]
}

// NeighborhoodCode resolves a neighborhood name within a district. Returns
// "" when either side is unknown.
func (idx *DistrictIndex) NeighborhoodCode(districtCode, name string) string {
	byName, ok := idx.neighborhoods[districtCode]
	if !ok {
		return ""
	}
	return byName[NormalizeName(name)]
}
