package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yt-transcript-rag/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// DB represents the database connection
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection. Every connection registers the
// pgvector codec so the embedding column scans into vector values.
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize sets up the database tables and indices
func (db *DB) Initialize(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS videos (
            id SERIAL PRIMARY KEY,
            youtube_id TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            upload_date TEXT,
            view_count BIGINT NOT NULL DEFAULT 0,
            like_count BIGINT NOT NULL DEFAULT 0,
            comment_count BIGINT NOT NULL DEFAULT 0,
            duration TEXT
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create videos table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS embedding_models (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            description TEXT
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create embedding_models table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS transcript_indexes (
            id SERIAL PRIMARY KEY,
            video_id INTEGER NOT NULL REFERENCES videos(id),
            index_name TEXT NOT NULL UNIQUE,
            model_id INTEGER NOT NULL REFERENCES embedding_models(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            UNIQUE (video_id, model_id)
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create transcript_indexes table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS transcript_chunks (
            id SERIAL PRIMARY KEY,
            index_name TEXT NOT NULL,
            position INTEGER NOT NULL,
            content TEXT NOT NULL,
            start_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
            embedding vector NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create transcript_chunks table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS transcript_chunks_index_name_idx
        ON transcript_chunks (index_name, position)
    `)
	if err != nil {
		return fmt.Errorf("failed to create chunk index: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS rag_evaluations (
            id TEXT PRIMARY KEY,
            video_id TEXT NOT NULL,
            question TEXT NOT NULL,
            answer TEXT NOT NULL,
            relevance TEXT NOT NULL,
            explanation TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create rag_evaluations table: %w", err)
	}

	return nil
}

// AddVideo inserts video metadata. Re-inserting the same video is a no-op;
// the first successful fetch owns the row.
func (db *DB) AddVideo(ctx context.Context, video *models.Video) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO videos (youtube_id, title, author, upload_date, view_count, like_count, comment_count, duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (youtube_id) DO NOTHING
    `,
		video.YouTubeID,
		video.Title,
		video.Author,
		video.UploadDate,
		video.ViewCount,
		video.LikeCount,
		video.CommentCount,
		video.Duration)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

// GetVideoByYouTubeID fetches one video row by its platform ID.
func (db *DB) GetVideoByYouTubeID(ctx context.Context, youtubeID string) (*models.Video, error) {
	var v models.Video
	err := db.Pool.QueryRow(ctx, `
        SELECT id, youtube_id, title, author, upload_date, view_count, like_count, comment_count, duration
        FROM videos
        WHERE youtube_id = $1
    `, youtubeID).Scan(
		&v.ID, &v.YouTubeID, &v.Title, &v.Author, &v.UploadDate,
		&v.ViewCount, &v.LikeCount, &v.CommentCount, &v.Duration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query video: %w", err)
	}
	return &v, nil
}

// GetAllVideos lists all processed videos.
func (db *DB) GetAllVideos(ctx context.Context) ([]models.Video, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, youtube_id, title, author, upload_date, view_count, like_count, comment_count, duration
        FROM videos
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(
			&v.ID, &v.YouTubeID, &v.Title, &v.Author, &v.UploadDate,
			&v.ViewCount, &v.LikeCount, &v.CommentCount, &v.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating video rows: %w", err)
	}
	return videos, nil
}

// AddEmbeddingModel registers an embedding model by name and returns its
// ID. Registering an existing name returns the existing ID.
func (db *DB) AddEmbeddingModel(ctx context.Context, name, description string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO embedding_models (name, description)
        VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id
    `, name, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to register embedding model: %w", err)
	}
	return id, nil
}

// GetIndexByVideoAndModel returns the registered index name for a
// (video, embedding-model) pair, or "" when none exists.
func (db *DB) GetIndexByVideoAndModel(ctx context.Context, youtubeID, modelName string) (string, error) {
	var indexName string
	err := db.Pool.QueryRow(ctx, `
        SELECT ti.index_name
        FROM transcript_indexes ti
        JOIN videos v ON v.id = ti.video_id
        JOIN embedding_models m ON m.id = ti.model_id
        WHERE v.youtube_id = $1 AND m.name = $2
    `, youtubeID, modelName).Scan(&indexName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query index registry: %w", err)
	}
	return indexName, nil
}

// AddIndexRecord registers a built index for a (video, model) pair.
func (db *DB) AddIndexRecord(ctx context.Context, videoDBID int, indexName string, modelID int) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO transcript_indexes (video_id, index_name, model_id)
        VALUES ($1, $2, $3)
    `, videoDBID, indexName, modelID)
	if err != nil {
		return fmt.Errorf("failed to register index: %w", err)
	}
	return nil
}

// IndexExists reports whether any chunks are stored under indexName.
func (db *DB) IndexExists(ctx context.Context, indexName string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM transcript_indexes WHERE index_name = $1)
    `, indexName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check index existence: %w", err)
	}
	return exists, nil
}

// StoreChunks inserts all chunks of an index in one transaction so a failed
// build never leaves a partial index behind.
func (db *DB) StoreChunks(ctx context.Context, chunks []models.TranscriptChunk) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, chunk := range chunks {
		_, err := tx.Exec(ctx, `
            INSERT INTO transcript_chunks (index_name, position, content, start_seconds, embedding)
            VALUES ($1, $2, $3, $4, $5)
        `, chunk.IndexName, chunk.Position, chunk.Content, chunk.StartSeconds, vectorParam(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("failed to store chunk %d: %w", chunk.Position, err)
		}
	}

	return tx.Commit(ctx)
}

// ChunksByIndex loads all chunks of an index with their embeddings, in
// original chunk order.
func (db *DB) ChunksByIndex(ctx context.Context, indexName string) ([]models.TranscriptChunk, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, index_name, position, content, start_seconds, embedding
        FROM transcript_chunks
        WHERE index_name = $1
        ORDER BY position
    `, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.TranscriptChunk
	for rows.Next() {
		var chunk models.TranscriptChunk
		var embedding pgvector.Vector
		if err := rows.Scan(
			&chunk.ID,
			&chunk.IndexName,
			&chunk.Position,
			&chunk.Content,
			&chunk.StartSeconds,
			&embedding); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunk.Embedding = vectorValues(embedding)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk rows: %w", err)
	}
	return chunks, nil
}

// AddEvaluation appends one evaluation record. The row is never updated.
func (db *DB) AddEvaluation(ctx context.Context, rec *models.EvaluationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO rag_evaluations (id, video_id, question, answer, relevance, explanation)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, rec.ID, rec.VideoID, rec.Question, rec.Answer, rec.Relevance, rec.Explanation)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

// ListEvaluations returns all stored evaluation records, oldest first.
func (db *DB) ListEvaluations(ctx context.Context) ([]models.EvaluationRecord, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, video_id, question, answer, relevance, explanation
        FROM rag_evaluations
        ORDER BY created_at
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var records []models.EvaluationRecord
	for rows.Next() {
		var rec models.EvaluationRecord
		if err := rows.Scan(&rec.ID, &rec.VideoID, &rec.Question, &rec.Answer, &rec.Relevance, &rec.Explanation); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluation rows: %w", err)
	}
	return records, nil
}

// vectorParam converts an embedding to the pgvector wire type. The column
// stores float32 components, which is all the similarity math needs.
func vectorParam(embedding []float64) pgvector.Vector {
	v := make([]float32, len(embedding))
	for i, x := range embedding {
		v[i] = float32(x)
	}
	return pgvector.NewVector(v)
}

func vectorValues(v pgvector.Vector) []float64 {
	s := v.Slice()
	if len(s) == 0 {
		return nil
	}
	out := make([]float64, len(s))
	for i, x := range s {
		out[i] = float64(x)
	}
	return out
}

// FormatVideoList renders videos as aligned text lines for terminal output.
func FormatVideoList(videos []models.Video) string {
	var sb strings.Builder
	for _, v := range videos {
		sb.WriteString(fmt.Sprintf("  %-12s  %-40s  %s\n", v.YouTubeID, truncate(v.Title, 40), v.Author))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// Close closes the database connection
func (db *DB) Close() {
	db.Pool.Close()
}
