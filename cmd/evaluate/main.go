package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"yt-transcript-rag/internal/config"
	"yt-transcript-rag/internal/database"
	"yt-transcript-rag/internal/embedding"
	"yt-transcript-rag/internal/evaluator"
	"yt-transcript-rag/internal/indexer"
	"yt-transcript-rag/internal/llm"
	"yt-transcript-rag/internal/models"
	"yt-transcript-rag/internal/rag"
	"yt-transcript-rag/internal/retriever"
	"yt-transcript-rag/internal/retry"
	"yt-transcript-rag/internal/transcript"
)

func main() {
	generateFlag := flag.String("generate", "", "Generate ground-truth questions for a video URL or ID")
	runFlag := flag.Bool("run", false, "Run the evaluation over the ground-truth set")
	sampleFlag := flag.Int("sample", 10, "Number of questions to sample for evaluation")
	seedFlag := flag.Int64("seed", evaluator.DefaultSeed, "Sampling seed")
	modeFlag := flag.String("mode", "hybrid", "Search mode: lexical, vector or hybrid")
	configFlag := flag.String("config", "", "Config file path (default ytrag.yaml)")
	openaiFlag := flag.Bool("openai", false, "Use OpenAI embeddings instead of Ollama")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *generateFlag == "" && !*runFlag {
		log.Fatal("Use -generate 'video' to build a question set, or -run to evaluate")
	}

	ctx := context.Background()

	db, err := database.NewDB(ctx, cfg.Postgres.ConnString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	embedder, err := buildEmbedder(cfg, *openaiFlag)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	policy := retry.Policy{MaxAttempts: cfg.Ollama.MaxRetries, InitialBackoff: time.Second}
	gen, err := llm.NewOllama(cfg.Ollama.Host, cfg.Ollama.Model, time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second, policy)
	if err != nil {
		log.Fatalf("Failed to create Ollama client: %v", err)
	}

	groundTruthPath := filepath.Join(cfg.DataDir, evaluator.GroundTruthFile)

	if *generateFlag != "" {
		videoID := transcript.ExtractVideoID(*generateFlag)
		if videoID == "" {
			log.Fatalf("Could not extract a video ID from %q", *generateFlag)
		}
		indexName := indexer.IndexName(videoID, embedder.ModelName())
		exists, err := db.IndexExists(ctx, indexName)
		if err != nil {
			log.Fatalf("Failed to check index: %v", err)
		}
		if !exists {
			log.Fatalf("Video %s is not indexed with model %s. Run ingest first.", videoID, embedder.ModelName())
		}

		items, err := evaluator.GenerateGroundTruth(ctx, db, gen, videoID, indexName)
		if err != nil {
			log.Fatalf("Failed to generate ground truth: %v", err)
		}
		if err := evaluator.SaveGroundTruth(groundTruthPath, items); err != nil {
			log.Fatalf("Failed to save ground truth: %v", err)
		}
		fmt.Printf("Saved %d questions for video %s to %s\n", len(items), videoID, groundTruthPath)
	}

	if *runFlag {
		items, err := evaluator.LoadGroundTruth(groundTruthPath)
		if err != nil {
			log.Fatalf("Failed to load ground truth: %v", err)
		}
		if len(items) == 0 {
			log.Fatalf("No ground-truth questions in %s. Run -generate first.", groundTruthPath)
		}

		system := rag.New(retriever.New(db, embedder), gen)
		ev := evaluator.New(db, system, embedder.ModelName())
		ev.Mode = retriever.Mode(*modeFlag)
		ev.Seed = *seedFlag

		records, err := ev.Evaluate(ctx, items, *sampleFlag)
		if err != nil {
			log.Fatalf("Evaluation failed: %v", err)
		}

		counts := evaluator.Summarize(records)
		fmt.Printf("Evaluated %d questions:\n", len(records))
		for _, label := range []string{models.RelevanceFull, models.RelevancePartly, models.RelevanceNone, models.RelevanceUnknown} {
			if counts[label] > 0 {
				fmt.Printf("  %-16s %d\n", label, counts[label])
			}
		}
	}
}

// buildEmbedder must select the same backend as ingest, or the index name
// never resolves.
func buildEmbedder(cfg *config.Config, useOpenAI bool) (embedding.Embedder, error) {
	if useOpenAI {
		return embedding.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	}
	return embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
}
