package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"yt-transcript-rag/internal/config"
	"yt-transcript-rag/internal/database"
	"yt-transcript-rag/internal/embedding"
	"yt-transcript-rag/internal/indexer"
	"yt-transcript-rag/internal/llm"
	"yt-transcript-rag/internal/models"
	"yt-transcript-rag/internal/rag"
	"yt-transcript-rag/internal/retriever"
	"yt-transcript-rag/internal/retry"
	"yt-transcript-rag/internal/rewriter"
	"yt-transcript-rag/internal/transcript"
)

func main() {
	videoFlag := flag.String("video", "", "YouTube video URL or ID to query against")
	queryFlag := flag.String("q", "", "Question to answer (non-interactive mode)")
	interactive := flag.Bool("i", false, "Run in interactive mode")
	modeFlag := flag.String("mode", "hybrid", "Search mode: lexical, vector or hybrid")
	topKFlag := flag.Int("topk", 3, "Number of passages to retrieve")
	rewriteFlag := flag.String("rewrite", "", "Query rewrite strategy: chain_of_thought or react")
	listFlag := flag.Bool("list", false, "List indexed videos and exit")
	configFlag := flag.String("config", "", "Config file path (default ytrag.yaml)")
	openaiFlag := flag.Bool("openai", false, "Use OpenAI embeddings instead of Ollama")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewDB(ctx, cfg.Postgres.ConnString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if *listFlag {
		videos, err := db.GetAllVideos(ctx)
		if err != nil {
			log.Fatalf("Failed to list videos: %v", err)
		}
		fmt.Print(database.FormatVideoList(videos))
		return
	}

	if *videoFlag == "" {
		log.Fatal("A video is required. Use -video 'URL or ID'")
	}
	videoID := transcript.ExtractVideoID(*videoFlag)
	if videoID == "" {
		log.Fatalf("Could not extract a video ID from %q", *videoFlag)
	}

	var embedder embedding.Embedder
	if *openaiFlag {
		embedder, err = embedding.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	} else {
		embedder, err = embedding.NewOllamaEmbedder(cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
	}
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	indexName := indexer.IndexName(videoID, embedder.ModelName())
	exists, err := db.IndexExists(ctx, indexName)
	if err != nil {
		log.Fatalf("Failed to check index: %v", err)
	}
	if !exists {
		log.Fatalf("Video %s is not indexed with model %s. Run ingest first.", videoID, embedder.ModelName())
	}

	policy := retry.Policy{MaxAttempts: cfg.Ollama.MaxRetries, InitialBackoff: time.Second}
	gen, err := llm.NewOllama(cfg.Ollama.Host, cfg.Ollama.Model, time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second, policy)
	if err != nil {
		log.Fatalf("Failed to create Ollama client: %v", err)
	}

	system := rag.New(retriever.New(db, embedder), gen)
	opts := rag.Options{
		Mode:            retriever.Mode(*modeFlag),
		TopK:            *topKFlag,
		RewriteStrategy: rewriter.Strategy(*rewriteFlag),
	}

	if *interactive {
		runInteractiveMode(ctx, system, indexName, opts)
		return
	}

	if *queryFlag == "" {
		log.Fatal("A question is required in non-interactive mode. Use -q 'your question'")
	}
	answer, err := system.Query(ctx, *queryFlag, indexName, opts)
	if err != nil {
		log.Fatalf("Failed to answer question: %v", err)
	}
	fmt.Println(formatAnswer(answer))
}

func runInteractiveMode(ctx context.Context, system *rag.System, indexName string, opts rag.Options) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Transcript Assistant - Ask questions about the video (type 'exit' to quit)")

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			break
		}
		if input == "" {
			continue
		}

		if strings.HasPrefix(strings.ToLower(input), "/mode ") {
			opts.Mode = retriever.Mode(strings.TrimSpace(strings.TrimPrefix(input, "/mode ")))
			fmt.Printf("Search mode set to: %s\n", opts.Mode)
			continue
		}

		fmt.Print("Searching transcript... ")

		answer, err := system.Query(ctx, input, indexName, opts)
		if err != nil {
			fmt.Printf("\rError: %v\n", err)
			continue
		}

		fmt.Println("\r" + formatAnswer(answer))
	}
}

func formatAnswer(answer *models.Answer) string {
	var sb strings.Builder
	sb.WriteString(answer.Text)
	if len(answer.Passages) > 0 {
		sb.WriteString("\n\nSources:\n")
		for _, p := range answer.Passages {
			sb.WriteString(fmt.Sprintf("  [%.3f] chunk %d", p.Score, p.Chunk.Position))
			if p.Chunk.StartSeconds > 0 {
				sb.WriteString(fmt.Sprintf(" (at %s)", formatTimestamp(p.Chunk.StartSeconds)))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func formatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
