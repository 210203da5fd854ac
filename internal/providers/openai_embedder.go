package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEmbedderConfig configures the remote dense-embedding back-end.
// Retries are the caller's (embedding pipeline's) responsibility, on
// timeout/connection errors only — this client itself makes a single
// batched call per invocation.
type OpenAIEmbedderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// OpenAIEmbedder implements DenseEmbedder against an OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder constructs a remote dense embedder.
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) *OpenAIEmbedder {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-large"
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 1024
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		// Retries are handled by the caller with its own backoff policy,
		// so the SDK transport itself does not retry.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

// Dimension returns the fixed vector dimension.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed requests embeddings for texts in a single batch call. Callers
// are responsible for respecting the vendor's per-request batch limit
// by chunking texts before calling Embed.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string, progress func(done int)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings request: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	if progress != nil {
		progress(len(out))
	}
	return out, nil
}
