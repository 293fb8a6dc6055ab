package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"madrid-bins-api/internal/application"
	domainrepo "madrid-bins-api/internal/domain/repository"
	"madrid-bins-api/internal/domain/service"
	"madrid-bins-api/internal/handler"
	"madrid-bins-api/internal/handler/middleware"
	"madrid-bins-api/internal/infrastructure/cache"
	"madrid-bins-api/internal/infrastructure/database"
	"madrid-bins-api/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	repo, err := buildRepository()
	if err != nil {
		log.Fatalf("Store initialization failed: %v", err)
	}

	// find_nearby_bins is an optional server-side procedure; opt in explicitly.
	var proc domainrepo.NearbyProcedureRepository
	if os.Getenv("BINS_NEARBY_RPC") == "1" {
		if p, ok := repo.(domainrepo.NearbyProcedureRepository); ok {
			proc = p
			fmt.Println("Nearby: using find_nearby_bins procedure")
		} else {
			fmt.Println("Warning: BINS_NEARBY_RPC=1 but the store has no procedure support, using in-process search")
		}
	}

	redisClient := cache.NewRedisFromEnv()
	if redisClient != nil {
		fmt.Println("Cache: Redis enabled")
	}

	binsService := application.NewBinsService(repo, service.NewNearbyService(repo, proc), redisClient)
	binsHandler := handler.NewBinsHandler(binsService)

	limiter := middleware.NewRateLimiter(envFloat("RATE_LIMIT_RPS", 20), envInt("RATE_LIMIT_BURST", 40))
	router := handler.SetupRouter(binsHandler, limiter)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("madrid-bins-api server starting on :%s...\n", port)
	log.Fatal(router.Run(":" + port))
}

// buildRepository selects the store backend. Default is Supabase via
// PostgREST; BINS_STORE=postgres switches to the direct SQL connection.
func buildRepository() (domainrepo.BinsRepository, error) {
	if os.Getenv("BINS_STORE") == "postgres" {
		fmt.Println("Initializing PostgreSQL client...")
		pgClient, err := database.NewPostgreSQLClientWithRetry(3, 2*time.Second)
		if err != nil {
			return nil, err
		}
		if err := pgClient.HealthCheck(); err != nil {
			return nil, err
		}
		fmt.Println("✅ PostgreSQL connection successful!")
		return repository.NewPostgresBinsRepository(pgClient), nil
	}

	fmt.Println("Initializing Supabase client...")
	sbClient, err := database.NewSupabaseClient()
	if err != nil {
		return nil, err
	}
	if err := sbClient.HealthCheck(); err != nil {
		return nil, err
	}
	fmt.Println("✅ Supabase connection successful!")
	return repository.NewSupabaseBinsRepository(sbClient), nil
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
