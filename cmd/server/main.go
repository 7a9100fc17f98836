package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/lavaait/clauseIQ/handlers"
	"github.com/lavaait/clauseIQ/repository"
	"github.com/lavaait/clauseIQ/service"
	"github.com/lavaait/clauseIQ/storage"
)

const defaultRegulationPath = "./clause_compliance/far_dfars.txt"

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	// Verify the Gemini API key works before wiring anything else
	if _, err := initGemini(); err != nil {
		log.Fatal("Failed to initialize Gemini:", err)
	}
	gemini := service.NewGeminiBackend(os.Getenv("GEMINI_API_KEY"))

	// Initialize the local compliance database
	dbPath := os.Getenv("COMPLIANCE_DB_PATH")
	if dbPath == "" {
		dbPath = "./contracts.db"
	}
	db, err := repository.OpenComplianceDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open compliance database: %v", err)
	}
	defer db.Close()

	complianceRepo := repository.NewComplianceRepository(db)
	if err := complianceRepo.InitSchema(context.Background()); err != nil {
		log.Fatalf("Failed to initialize compliance schema: %v", err)
	}

	// Initialize storage
	documentStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	// Pick the regulation retriever: pgvector when Postgres is configured,
	// otherwise an in-memory index built from the flat corpus file
	retriever, err := initRetriever(gemini)
	if err != nil {
		log.Fatalf("Failed to initialize regulation retriever: %v", err)
	}

	// Initialize services
	metadataExtractor := service.NewMetadataExtractor(
		service.MetadataWithModelTagger(gemini),
	)
	enricher := service.NewEnricher(
		service.EnrichWithClassifier(gemini),
		service.EnrichWithSummarizer(gemini),
		service.EnrichWithOpinionGenerator(gemini),
	)
	validator := service.NewValidator(
		service.ValidateWithRetriever(retriever),
		service.ValidateWithGenerator(gemini),
		service.ValidateWithScorer(gemini),
	)

	// Initialize handlers
	documentHandler := handlers.NewDocumentHandler(complianceRepo, documentStorage)
	clauseHandler := handlers.NewClauseHandler(metadataExtractor, enricher)
	complianceHandler := handlers.NewComplianceHandler(validator, complianceRepo)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Document intake endpoints
		api.POST("/documents/extract", documentHandler.ExtractDocument)
		api.GET("/documents", documentHandler.ListDocuments)
		api.GET("/documents/:basename/text", documentHandler.GetDocumentText)

		// Clause endpoints
		api.POST("/clause/match", clauseHandler.MatchClauses)
		api.POST("/clause/classify", clauseHandler.ClassifyClause)

		// Compliance endpoints
		api.POST("/compliance/validate", complianceHandler.ValidateClauses)
		api.GET("/dashboard/compliance", complianceHandler.DashboardSummary)
		api.GET("/dashboard/export/xlsx", complianceHandler.ExportXLSX)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// initRetriever prefers the pgvector store and falls back to an in-memory
// index over the flat corpus file when DATABASE_URL is not set.
func initRetriever(gemini *service.GeminiBackend) (service.Retriever, error) {
	if connString := os.Getenv("DATABASE_URL"); connString != "" {
		pool, err := initPostgres(connString)
		if err != nil {
			return nil, err
		}
		log.Println("Using pgvector regulation retriever")
		return service.NewRepositoryRetriever(repository.NewRegulationChunkRepository(pool), gemini), nil
	}

	regulationPath := os.Getenv("REGULATION_PATH")
	if regulationPath == "" {
		regulationPath = defaultRegulationPath
	}
	log.Printf("DATABASE_URL not set, building in-memory regulation index from %s", regulationPath)
	return service.BuildMemoryIndex(context.Background(), regulationPath, gemini)
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	// Enable pgvector extension
	ctx := context.Background()
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
		log.Println("This may be normal if extension is already installed or requires superuser privileges")
	} else {
		log.Println("pgvector extension enabled")
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}

func initGemini() (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}
