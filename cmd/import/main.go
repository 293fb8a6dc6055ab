package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"madrid-bins-api/internal/domain/model"
	domainrepo "madrid-bins-api/internal/domain/repository"
	"madrid-bins-api/internal/infrastructure/database"
	"madrid-bins-api/internal/ingest"
	"madrid-bins-api/internal/repository"
)

func main() {
	var (
		csvPath         = flag.String("csv", "", "path to the open-data CSV file (required)")
		binType         = flag.String("type", "", "target bin type table (required)")
		districtsPath   = flag.String("districts", "data/json/distritos.json", "path to distritos.json")
		categoryGroupID = flag.Int("category-group", 1, "category group identifier")
		categoryID      = flag.Int("category", 0, "category identifier (required)")
		subtype         = flag.String("subtype", "", "constant subtype tag for every record")
		addressCol      = flag.String("address-col", "Dirección", "address column name")
		latCol          = flag.String("lat-col", "Latitud", "latitude column name")
		lngCol          = flag.String("lng-col", "Longitud", "longitude column name")
		districtCol     = flag.String("district-col", "Distrito", "district name column")
		neighborhoodCol = flag.String("neighborhood-col", "Barrio", "neighborhood name column (empty to skip)")
		loadTypeCol     = flag.String("load-type-col", "", "load type column name (empty to skip)")
		chunkSize       = flag.Int("chunk", 1000, "records per import call")
		clear           = flag.Bool("clear", false, "delete all existing records of the type first")
	)
	flag.Parse()

	if *csvPath == "" || *binType == "" || *categoryID == 0 {
		flag.Usage()
		log.Fatal("-csv, -type and -category are required")
	}
	if !model.IsValidBinType(*binType) {
		log.Fatalf("invalid bin type: %s", *binType)
	}

	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	runID := uuid.New().String()
	start := time.Now()
	fmt.Printf("Import run %s: %s -> %s\n", runID, *csvPath, *binType)

	client, err := database.NewSupabaseClient()
	if err != nil {
		log.Fatalf("Supabase client initialization failed: %v", err)
	}
	repo := repository.NewSupabaseBinsRepository(client)

	idx, err := ingest.LoadDistrictIndex(*districtsPath)
	if err != nil {
		log.Fatalf("District index load failed: %v", err)
	}

	rows, err := ingest.ReadRows(*csvPath)
	if err != nil {
		log.Fatalf("CSV read failed: %v", err)
	}
	fmt.Printf("Rows found: %d\n", len(rows))

	records, skipped := ingest.MapRows(rows, ingest.RowMapping{
		AddressColumn:      *addressCol,
		LatColumn:          *latCol,
		LngColumn:          *lngCol,
		DistrictColumn:     *districtCol,
		NeighborhoodColumn: *neighborhoodCol,
		LoadTypeColumn:     *loadTypeCol,
		Subtype:            *subtype,
	}, idx)
	if skipped > 0 {
		fmt.Printf("Warning: %d rows skipped (unresolvable district)\n", skipped)
	}
	if len(records) == 0 {
		log.Fatal("no importable records")
	}

	ctx := context.Background()

	if *clear {
		fmt.Printf("Clearing existing %s records...\n", *binType)
		if err := repo.DeleteAll(ctx, *binType); err != nil {
			log.Fatalf("Clear failed: %v", err)
		}
	}

	totalInserted, totalUpdated, totalErrors := 0, 0, 0
	chunks := ingest.Chunk(records, *chunkSize)
	for i, chunk := range chunks {
		fmt.Printf("Batch %d/%d (%d records)...\n", i+1, len(chunks), len(chunk))
		result, err := importChunk(ctx, repo, *binType, *categoryGroupID, *categoryID, chunk)
		if err != nil {
			log.Fatalf("Batch %d failed: %v", i+1, err)
		}
		totalInserted += result.Inserted
		totalUpdated += result.Updated
		totalErrors += len(result.Errors)
		for _, be := range result.Errors {
			fmt.Printf("  batch error %d: %s\n", be.Batch, be.Error)
		}
	}

	fmt.Printf("Import run %s complete in %.2fs: inserted=%d updated=%d errors=%d processed=%d\n",
		runID, time.Since(start).Seconds(), totalInserted, totalUpdated, totalErrors, len(records))
}

// importChunk prefers the server-side import_bins procedure; when the store
// has no procedure support, records fall back to a plain batch insert with
// municipal codes converted to numeric identifiers client-side.
func importChunk(ctx context.Context, repo domainrepo.BinsRepository, binType string, categoryGroupID, categoryID int, records []model.ImportRecord) (*model.InsertResult, error) {
	if proc, ok := repo.(domainrepo.ImportProcedureRepository); ok {
		return proc.ImportBins(ctx, binType, categoryGroupID, categoryID, records)
	}

	bins := make([]model.BinRecord, 0, len(records))
	for _, rec := range records {
		districtID, err := strconv.Atoi(rec.DistrictCode)
		if err != nil {
			continue
		}
		bin := model.BinRecord{
			CategoryGroupID: categoryGroupID,
			CategoryID:      categoryID,
			DistrictID:      districtID,
			Address:         rec.Address,
			Lat:             rec.Lat,
			Lng:             rec.Lng,
			LoadType:        rec.LoadType,
			Direction:       rec.Direction,
			Subtype:         rec.Subtype,
			PlacementType:   rec.PlacementType,
			Notes:           rec.Notes,
			BusStop:         rec.BusStop,
			InterurbanNode:  rec.InterurbanNode,
		}
		if rec.NeighborhoodCode != nil {
			if neighborhoodID, err := strconv.Atoi(*rec.NeighborhoodCode); err == nil {
				bin.NeighborhoodID = &neighborhoodID
			}
		}
		bins = append(bins, bin)
	}
	return repo.InsertBatch(ctx, binType, bins)
}
