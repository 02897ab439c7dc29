package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"yt-transcript-rag/internal/models"
	"yt-transcript-rag/internal/transcript"
)

type fakeStore struct {
	videos        map[string]*models.Video
	indexes       map[string]string // youtubeID+model -> index name
	storedChunks  []models.TranscriptChunk
	indexRecords  []string
	nextVideoID   int
	storeChunkErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos:  map[string]*models.Video{},
		indexes: map[string]string{},
	}
}

func (s *fakeStore) AddVideo(ctx context.Context, video *models.Video) error {
	if _, ok := s.videos[video.YouTubeID]; ok {
		return nil
	}
	s.nextVideoID++
	stored := *video
	stored.ID = s.nextVideoID
	s.videos[video.YouTubeID] = &stored
	return nil
}

func (s *fakeStore) GetVideoByYouTubeID(ctx context.Context, youtubeID string) (*models.Video, error) {
	return s.videos[youtubeID], nil
}

func (s *fakeStore) AddEmbeddingModel(ctx context.Context, name, description string) (int, error) {
	return 1, nil
}

func (s *fakeStore) GetIndexByVideoAndModel(ctx context.Context, youtubeID, modelName string) (string, error) {
	return s.indexes[youtubeID+"/"+modelName], nil
}

func (s *fakeStore) AddIndexRecord(ctx context.Context, videoDBID int, indexName string, modelID int) error {
	s.indexRecords = append(s.indexRecords, indexName)
	for youtubeID, video := range s.videos {
		if video.ID == videoDBID {
			s.indexes[youtubeID+"/fake"] = indexName
		}
	}
	return nil
}

func (s *fakeStore) StoreChunks(ctx context.Context, chunks []models.TranscriptChunk) error {
	if s.storeChunkErr != nil {
		return s.storeChunkErr
	}
	s.storedChunks = append(s.storedChunks, chunks...)
	return nil
}

type fakeSource struct {
	transcripts map[string]*transcript.Transcript
	fetches     int
}

func (s *fakeSource) FetchTranscript(ctx context.Context, videoID string) (*transcript.Transcript, error) {
	s.fetches++
	if t, ok := s.transcripts[videoID]; ok {
		return t, nil
	}
	return nil, models.ErrTranscriptUnavailable
}

func (s *fakeSource) ChannelVideoIDs(ctx context.Context, channelURL string) ([]string, error) {
	return nil, nil
}

type fakeEmbedder struct {
	model string
	calls int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls++
	return []float64{1, 0}, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	e.calls++
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(i), 1}
	}
	return out, nil
}

func (e *fakeEmbedder) ModelName() string { return e.model }

func newTestTranscript(videoID string) *transcript.Transcript {
	return &transcript.Transcript{
		VideoID: videoID,
		Segments: []transcript.Segment{
			{Text: strings.Repeat("bees do the waggle dance ", 20), Start: 0},
			{Text: strings.Repeat("to tell the hive where nectar is ", 20), Start: 60},
		},
		Metadata: models.Video{YouTubeID: videoID, Title: "Bees"},
	}
}

func newTestIndexer(store *fakeStore, source *fakeSource, embedder *fakeEmbedder) *Indexer {
	return New(store, source, transcript.NewChunker(200, 40), embedder)
}

func TestIndexName(t *testing.T) {
	got := IndexName("AbC123dEf45", "Nomic-Embed-Text")
	want := "video_abc123def45_nomic-embed-text"
	if got != want {
		t.Errorf("IndexName = %q, want %q", got, want)
	}
}

func TestBuildIndex(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{transcripts: map[string]*transcript.Transcript{
		"abc123def45": newTestTranscript("abc123def45"),
	}}
	embedder := &fakeEmbedder{model: "fake"}
	ix := newTestIndexer(store, source, embedder)

	indexName, err := ix.BuildIndex(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if indexName != "video_abc123def45_fake" {
		t.Errorf("unexpected index name %q", indexName)
	}
	if len(store.storedChunks) == 0 {
		t.Fatal("expected chunks to be stored")
	}
	for i, chunk := range store.storedChunks {
		if chunk.Embedding == nil {
			t.Errorf("chunk %d stored without an embedding", i)
		}
		if chunk.IndexName != indexName {
			t.Errorf("chunk %d has index name %q", i, chunk.IndexName)
		}
	}
	if len(store.indexRecords) != 1 || store.indexRecords[0] != indexName {
		t.Errorf("expected one index record for %q, got %v", indexName, store.indexRecords)
	}
	if store.videos["abc123def45"] == nil {
		t.Error("expected the video metadata to be persisted")
	}
}

func TestBuildIndexIsIdempotent(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{transcripts: map[string]*transcript.Transcript{
		"abc123def45": newTestTranscript("abc123def45"),
	}}
	embedder := &fakeEmbedder{model: "fake"}
	ix := newTestIndexer(store, source, embedder)

	first, err := ix.BuildIndex(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	embedCalls := embedder.calls
	storedChunks := len(store.storedChunks)

	second, err := ix.BuildIndex(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Errorf("expected the existing handle %q, got %q", first, second)
	}
	if embedder.calls != embedCalls {
		t.Error("a repeat build must not recompute embeddings")
	}
	if len(store.storedChunks) != storedChunks {
		t.Error("a repeat build must not store more chunks")
	}
	if len(store.indexRecords) != 1 {
		t.Errorf("expected one index record, got %d", len(store.indexRecords))
	}
}

func TestBuildIndexTranscriptUnavailable(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{transcripts: map[string]*transcript.Transcript{}}
	ix := newTestIndexer(store, source, &fakeEmbedder{model: "fake"})

	_, err := ix.BuildIndex(context.Background(), "abc123def45")
	if err == nil {
		t.Fatal("expected an error")
	}
	var buildErr *models.IndexBuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("expected an IndexBuildError, got %T", err)
	}
	if !errors.Is(err, models.ErrTranscriptUnavailable) {
		t.Errorf("expected the cause to be ErrTranscriptUnavailable, got %v", buildErr.Err)
	}
	if len(store.indexRecords) != 0 {
		t.Error("a failed build must not register an index")
	}
}

func TestBuildIndexNoPartialIndexOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.storeChunkErr = errors.New("disk full")
	source := &fakeSource{transcripts: map[string]*transcript.Transcript{
		"abc123def45": newTestTranscript("abc123def45"),
	}}
	ix := newTestIndexer(store, source, &fakeEmbedder{model: "fake"})

	_, err := ix.BuildIndex(context.Background(), "abc123def45")
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(store.indexRecords) != 0 {
		t.Error("a failed build must not register an index")
	}

	// The registry is still empty, so a retry rebuilds from scratch.
	store.storeChunkErr = nil
	indexName, err := ix.BuildIndex(context.Background(), "abc123def45")
	if err != nil {
		t.Fatalf("retry after failure should succeed, got %v", err)
	}
	if len(store.indexRecords) != 1 || store.indexRecords[0] != indexName {
		t.Errorf("expected the retry to register %q, got %v", indexName, store.indexRecords)
	}
}

func TestBuildIndexesSkipsFailures(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{transcripts: map[string]*transcript.Transcript{
		"abc123def45": newTestTranscript("abc123def45"),
		"fgh678ijk90": newTestTranscript("fgh678ijk90"),
	}}
	ix := newTestIndexer(store, source, &fakeEmbedder{model: "fake"})

	indexes := ix.BuildIndexes(context.Background(), []string{"abc123def45", "nocaptions1", "fgh678ijk90"})
	if len(indexes) != 2 {
		t.Fatalf("expected 2 built indexes, got %d: %v", len(indexes), indexes)
	}
}
