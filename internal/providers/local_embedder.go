package providers

import (
	"context"
	"sync"
)

// ModelFunc is the vendor-supplied inference call a local embedding
// model exposes — ModelFunc is the seam at which it plugs in.
type ModelFunc func(ctx context.Context, texts []string, fp16 bool, device string) ([][]float32, error)

// LocalEmbedderConfig configures the in-process embedding model.
type LocalEmbedderConfig struct {
	Dimension int
	FP16      bool
	Device    string // e.g. "cuda", "cpu"
	BatchSize int    // default 1000
	Model     ModelFunc
}

// LocalEmbedder is the process-wide local embedding model handle. The
// model is lazily constructed on first use and shared across every
// concurrent export worker: an explicitly constructed long-lived
// object, not a package-global mutable default.
type LocalEmbedder struct {
	mu        sync.Mutex
	cfg       LocalEmbedderConfig
	loaded    bool
}

// NewLocalEmbedder returns the factory-constructed, lazily-initialized
// local embedder. Call this once per process and share the instance
// across workers; do not construct one per job.
func NewLocalEmbedder(cfg LocalEmbedderConfig) *LocalEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return &LocalEmbedder{cfg: cfg}
}

// Dimension returns the fixed vector dimension.
func (e *LocalEmbedder) Dimension() int { return e.cfg.Dimension }

func (e *LocalEmbedder) ensureLoaded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	// The actual model load (weights, device placement) is the vendor's
	// concern; this marks the lazy-load point the model would occupy.
	e.loaded = true
}

// Embed runs inference in batches of at most cfg.BatchSize. The
// underlying model is assumed thread-safe for concurrent Embed calls,
// since the inference library itself serializes device access.
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string, progress func(done int)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.ensureLoaded()

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.cfg.Model(ctx, texts[start:end], e.cfg.FP16, e.cfg.Device)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
		if progress != nil {
			progress(len(out))
		}
	}
	return out, nil
}
