package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"yt-transcript-rag/internal/models"
	"yt-transcript-rag/internal/retry"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// chatTransport is the single call the generator needs from the serving
// endpoint. Narrow so tests can inject failures.
type chatTransport interface {
	chat(ctx context.Context, model, prompt string) (string, error)
}

// Ollama generates completions through the Ollama chat API with bounded
// retries and exponential backoff.
type Ollama struct {
	Client  *api.Client
	Model   string
	Timeout time.Duration
	Policy  retry.Policy

	transport chatTransport
}

// NewOllama creates a generator for model. An empty host falls back to the
// OLLAMA_HOST env var.
func NewOllama(host, model string, timeout time.Duration, policy retry.Policy) (*Ollama, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	o := &Ollama{
		Client:  client,
		Model:   model,
		Timeout: timeout,
		Policy:  policy,
	}
	o.transport = o
	return o, nil
}

// chat makes one synchronous chat call and accumulates the response.
func (o *Ollama) chat(ctx context.Context, model, prompt string) (string, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	stream := false
	req := api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}

	var responseBuilder strings.Builder
	err := o.Client.Chat(ctx, &req, func(resp api.ChatResponse) error {
		_, err := responseBuilder.WriteString(resp.Message.Content)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("chat call failed: %w", err)
	}

	return responseBuilder.String(), nil
}

// Complete runs the chat call under the retry policy. All retries exhausted
// yields a GenerationError carrying the last underlying error.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	var result string
	attempts, err := o.Policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		result, callErr = o.transport.chat(ctx, o.Model, prompt)
		if callErr != nil {
			log.Printf("generation attempt failed: %v", callErr)
		}
		return callErr
	})
	if err != nil {
		return "", &models.GenerationError{Attempts: attempts, Err: err}
	}
	return result, nil
}

// EnsureModel pulls the model if needed. Best effort: a failed pull is
// logged but does not abort, the chat call will fail on its own if the
// model is truly unavailable.
func (o *Ollama) EnsureModel(ctx context.Context) {
	err := o.Client.Pull(ctx, &api.PullRequest{Model: o.Model}, func(resp api.ProgressResponse) error {
		return nil
	})
	if err != nil {
		log.Printf("Warning: failed to pull model %s: %v", o.Model, err)
		return
	}
	log.Printf("Model %s is available", o.Model)
}

// ListModels returns the names of locally available models.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	resp, err := o.Client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
