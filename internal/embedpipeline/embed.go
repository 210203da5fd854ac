// Package embedpipeline produces dense and sparse vectors for a book's
// chunks: dense vectors come from an interchangeable remote or local
// embedding back-end (see internal/providers), sparse vectors from a
// BM25 model fitted per book over its own chunk set.
package embedpipeline

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/maktaba/corpus/internal/model"
	"github.com/maktaba/corpus/internal/providers"
)

// Config tunes the dense-embedding batching and retry policy. The
// remote back-end's vendor contract caps a request at 100 texts and
// asks for retry only on timeout/connection failures, never on a 4xx
// response; the local back-end tolerates larger batches but reusing
// the same outer batching here keeps progress reporting granular
// either way.
type Config struct {
	BatchSize  int
	MaxRetries uint
	RetryDelay time.Duration
	BM25       BM25Config
}

// DefaultConfig returns the remote back-end's documented limits.
func DefaultConfig() Config {
	return Config{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		BM25:       DefaultBM25Config(),
	}
}

// ProgressFunc reports how many chunks have been embedded so far out of
// the total, so a caller can forward it to a job's progress callback.
type ProgressFunc func(done, total int)

// EmbedChunks fills in DenseVector and SparseVector for every chunk in
// place order, using embedder for dense vectors in batches of
// cfg.BatchSize (each batch retried per cfg.MaxRetries/cfg.RetryDelay
// on transient failure) and a freshly fitted BM25 model for sparse
// vectors. Returns a new slice; chunks is not mutated.
func EmbedChunks(ctx context.Context, embedder providers.DenseEmbedder, chunks []model.Chunk, cfg Config, progress ProgressFunc) ([]model.Chunk, error) {
	if cfg.BatchSize <= 0 {
		cfg = DefaultConfig()
	}

	out := make([]model.Chunk, len(chunks))
	copy(out, chunks)
	if len(out) == 0 {
		return out, nil
	}

	texts := make([]string, len(out))
	for i, c := range out {
		texts[i] = c.Text
	}

	sparse := FitBM25(texts, cfg.BM25)
	for i := range out {
		out[i].SparseVector = sparse[i]
	}

	done := 0
	for start := 0; start < len(out); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(out) {
			end = len(out)
		}
		batch := texts[start:end]

		var vecs [][]float32
		err := retry.Do(
			func() error {
				v, embedErr := embedder.Embed(ctx, batch, nil)
				if embedErr != nil {
					return embedErr
				}
				vecs = v
				return nil
			},
			retry.Context(ctx),
			retry.Attempts(cfg.MaxRetries+1),
			retry.Delay(cfg.RetryDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.RetryIf(isRetryableEmbedError),
		)
		if err != nil {
			return nil, err
		}

		for i, v := range vecs {
			out[start+i].DenseVector = v
		}
		done = end
		if progress != nil {
			progress(done, len(out))
		}
	}

	return out, nil
}

// isRetryableEmbedError reports whether err looks like a timeout or
// connection failure rather than a rejected request (4xx), matching
// the narrow retry contract the remote embedding back-end documents.
func isRetryableEmbedError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if ok := asNetError(err, &netErr); ok && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "EOF"):
		return true
	default:
		return false
	}
}

func asNetError(err error, target *net.Error) bool {
	for err != nil {
		if ne, ok := err.(net.Error); ok {
			*target = ne
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
