package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/lavaait/clauseIQ/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	inputDir := flag.String("input", "./extracted_clauses", "folder of clause JSON files")
	outputDir := flag.String("output", "./validated_clauses", "folder for validated output files")
	regulationPath := flag.String("regulation", "./clause_compliance/far_dfars.txt", "flat FAR/DFARS corpus file")
	flag.Parse()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()
	gemini := service.NewGeminiBackend(apiKey)

	color.Cyan("Building regulation index from %s", *regulationPath)
	index, err := service.BuildMemoryIndex(ctx, *regulationPath, gemini)
	if err != nil {
		log.Fatalf("Failed to build regulation index: %v", err)
	}

	validator := service.NewValidator(
		service.ValidateWithRetriever(index),
		service.ValidateWithGenerator(gemini),
		service.ValidateWithScorer(gemini),
	)

	color.Cyan("Validating clause files in %s", *inputDir)
	results, err := validator.ProcessBatch(ctx, *inputDir, *outputDir)
	if err != nil {
		log.Fatalf("Batch validation failed: %v", err)
	}

	var processed, skipped int
	for _, result := range results {
		if result.Skipped {
			skipped++
			color.Yellow("⏭  %s skipped: %s", result.File, result.Reason)
			continue
		}
		processed++
		color.Green("✓ %s -> %s (%d clauses)", result.File, result.OutputPath, result.Clauses)
	}

	if processed == 0 && skipped == 0 {
		color.Yellow("No clause files found in %s", *inputDir)
		return
	}
	color.Cyan("Done: %d processed, %d skipped", processed, skipped)
}
