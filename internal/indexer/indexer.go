// Package indexer turns video transcripts into registered, searchable
// indexes.
package indexer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"yt-transcript-rag/internal/embedding"
	"yt-transcript-rag/internal/models"
	"yt-transcript-rag/internal/transcript"
)

// Store is the persistence surface the indexer needs.
type Store interface {
	AddVideo(ctx context.Context, video *models.Video) error
	GetVideoByYouTubeID(ctx context.Context, youtubeID string) (*models.Video, error)
	AddEmbeddingModel(ctx context.Context, name, description string) (int, error)
	GetIndexByVideoAndModel(ctx context.Context, youtubeID, modelName string) (string, error)
	AddIndexRecord(ctx context.Context, videoDBID int, indexName string, modelID int) error
	StoreChunks(ctx context.Context, chunks []models.TranscriptChunk) error
}

// Indexer builds per-video search indexes.
type Indexer struct {
	store    Store
	source   transcript.Source
	chunker  *transcript.Chunker
	embedder embedding.Embedder
}

// New creates an indexer.
func New(store Store, source transcript.Source, chunker *transcript.Chunker, embedder embedding.Embedder) *Indexer {
	return &Indexer{store: store, source: source, chunker: chunker, embedder: embedder}
}

// IndexName derives the case-normalized index name for a
// (video, embedding-model) pair.
func IndexName(videoID, modelName string) string {
	return strings.ToLower(fmt.Sprintf("video_%s_%s", videoID, modelName))
}

// BuildIndex builds and registers the index for one video. If an index
// already exists for the (video, embedding-model) pair the existing handle
// is returned without rebuilding.
func (ix *Indexer) BuildIndex(ctx context.Context, videoID string) (string, error) {
	modelName := ix.embedder.ModelName()

	existing, err := ix.store.GetIndexByVideoAndModel(ctx, videoID, modelName)
	if err != nil {
		return "", &models.IndexBuildError{VideoID: videoID, Err: err}
	}
	if existing != "" {
		log.Printf("Video %s already indexed with %s, using existing index %s", videoID, modelName, existing)
		return existing, nil
	}

	t, err := ix.source.FetchTranscript(ctx, videoID)
	if err != nil {
		return "", &models.IndexBuildError{VideoID: videoID, Err: err}
	}

	return ix.BuildIndexFromTranscript(ctx, t)
}

// BuildIndexFromTranscript builds the index from an already-fetched
// transcript, for the local-file ingestion path. The idempotence check
// still applies.
func (ix *Indexer) BuildIndexFromTranscript(ctx context.Context, t *transcript.Transcript) (string, error) {
	modelName := ix.embedder.ModelName()

	existing, err := ix.store.GetIndexByVideoAndModel(ctx, t.VideoID, modelName)
	if err != nil {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: err}
	}
	if existing != "" {
		return existing, nil
	}

	if err := ix.store.AddVideo(ctx, &t.Metadata); err != nil {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: err}
	}

	indexName := IndexName(t.VideoID, modelName)
	chunks := ix.chunker.Chunk(t, indexName)
	if len(chunks) == 0 {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: fmt.Errorf("transcript produced no chunks")}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: fmt.Errorf("embedding computation failed: %w", err)}
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := ix.store.StoreChunks(ctx, chunks); err != nil {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: err}
	}

	modelID, err := ix.store.AddEmbeddingModel(ctx, modelName, "embedding model used for transcript indexing")
	if err != nil {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: err}
	}

	video, err := ix.store.GetVideoByYouTubeID(ctx, t.VideoID)
	if err != nil {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: err}
	}
	if video == nil {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: fmt.Errorf("video record missing after insert")}
	}

	// Registration is last: a crash before this point leaves no registered
	// index, so a partially-built index is never visible.
	if err := ix.store.AddIndexRecord(ctx, video.ID, indexName, modelID); err != nil {
		return "", &models.IndexBuildError{VideoID: t.VideoID, Err: err}
	}

	log.Printf("Built index %s (%d chunks)", indexName, len(chunks))
	return indexName, nil
}

// BuildIndexes processes several videos. Per-video failures are logged and
// skipped; the returned slice holds the index names that succeeded.
func (ix *Indexer) BuildIndexes(ctx context.Context, videoIDs []string) []string {
	var indexes []string
	for _, videoID := range videoIDs {
		indexName, err := ix.BuildIndex(ctx, videoID)
		if err != nil {
			log.Printf("Warning: failed to index video %s: %v", videoID, err)
			continue
		}
		indexes = append(indexes, indexName)
	}
	log.Printf("Processed and indexed transcripts for %d videos", len(indexes))
	return indexes
}
