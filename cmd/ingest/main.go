package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"yt-transcript-rag/internal/config"
	"yt-transcript-rag/internal/database"
	"yt-transcript-rag/internal/embedding"
	"yt-transcript-rag/internal/indexer"
	"yt-transcript-rag/internal/llm"
	"yt-transcript-rag/internal/retry"
	"yt-transcript-rag/internal/transcript"
)

func main() {
	videoFlag := flag.String("video", "", "YouTube video URL or ID to ingest")
	channelFlag := flag.String("channel", "", "YouTube channel URL to ingest all videos from")
	fileFlag := flag.String("file", "", "Local transcript file (.txt or .pdf) to ingest")
	configFlag := flag.String("config", "", "Config file path (default ytrag.yaml)")
	openaiFlag := flag.Bool("openai", false, "Use OpenAI embeddings instead of Ollama")
	pullFlag := flag.Bool("pull", false, "Pull the Ollama models before ingesting")
	flag.Parse()

	// Optional .env, environment wins over the YAML file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *videoFlag == "" && *channelFlag == "" && *fileFlag == "" {
		log.Fatal("One of -video, -channel or -file is required")
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

	if *pullFlag {
		policy := retry.Policy{MaxAttempts: cfg.Ollama.MaxRetries, InitialBackoff: time.Second}
		gen, err := llm.NewOllama(cfg.Ollama.Host, cfg.Ollama.Model, time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second, policy)
		if err != nil {
			log.Fatalf("Failed to create Ollama client: %v", err)
		}
		gen.EnsureModel(ctx)
	}

	source := transcript.NewYouTubeSource()
	chunker := transcript.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	ix := indexer.New(db, source, chunker, embedder)

	switch {
	case *fileFlag != "":
		t, err := transcript.LoadFile(*fileFlag)
		if err != nil {
			log.Fatalf("Failed to load transcript file: %v", err)
		}
		indexName, err := ix.BuildIndexFromTranscript(ctx, t)
		if err != nil {
			log.Fatalf("Failed to index transcript: %v", err)
		}
		fmt.Printf("Indexed %s as %s\n", *fileFlag, indexName)

	case *channelFlag != "":
		videoIDs, err := source.ChannelVideoIDs(ctx, *channelFlag)
		if err != nil {
			log.Fatalf("Failed to list channel videos: %v", err)
		}
		log.Printf("Found %d videos in channel", len(videoIDs))
		indexes := ix.BuildIndexes(ctx, videoIDs)
		fmt.Printf("Indexed %d/%d videos\n", len(indexes), len(videoIDs))

	default:
		videoID := transcript.ExtractVideoID(*videoFlag)
		if videoID == "" {
			log.Fatalf("Could not extract a video ID from %q", *videoFlag)
		}
		indexName, err := ix.BuildIndex(ctx, videoID)
		if err != nil {
			log.Fatalf("Failed to index video: %v", err)
		}
		fmt.Printf("Indexed video %s as %s\n", videoID, indexName)
	}
}

func buildEmbedder(cfg *config.Config, useOpenAI bool) (embedding.Embedder, error) {
	if useOpenAI {
		return embedding.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	}
	return embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
}
