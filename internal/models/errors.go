package models

import (
	"errors"
	"fmt"
)

var (
	// ErrTranscriptUnavailable means the video is missing, private, or has
	// no captions. Retrying cannot succeed.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")

	// ErrIndexNotFound means a search targeted an index that was never
	// built. Distinct from a valid empty result set.
	ErrIndexNotFound = errors.New("index not found")
)

// IndexBuildError signals that an index build failed. A partially-built
// index is never exposed.
type IndexBuildError struct {
	VideoID string
	Err     error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("failed to build index for video %s: %v", e.VideoID, e.Err)
}

func (e *IndexBuildError) Unwrap() error { return e.Err }

// GenerationError is returned when a model call exhausted its retries. It
// carries the last underlying error.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GroundTruthParseError signals malformed JSON in the model's ground-truth
// response.
type GroundTruthParseError struct {
	Raw string
	Err error
}

func (e *GroundTruthParseError) Error() string {
	return fmt.Sprintf("failed to parse ground-truth response: %v", e.Err)
}

func (e *GroundTruthParseError) Unwrap() error { return e.Err }

// JudgeParseError signals malformed JSON in the judge model's response.
type JudgeParseError struct {
	Raw string
	Err error
}

func (e *JudgeParseError) Error() string {
	return fmt.Sprintf("failed to parse judge response: %v", e.Err)
}

func (e *JudgeParseError) Unwrap() error { return e.Err }
