// Package providers abstracts the external LLM and dense-embedding
// vendors behind small capability interfaces, the way a registry
// separates chat clients from embedding clients by the distinct
// retry/rate-limit/result shape each one needs. Neither vendor is
// implemented by this system directly; this package is the boundary
// they plug into.
package providers

import "context"

// ChatMessage is one turn of a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a request to an LLM chat/completion endpoint.
type ChatRequest struct {
	Messages    []ChatMessage
	Model       string
	Temperature float64
	MaxTokens   int
	// JSONSchema, when non-empty, is the schema the caller expects the
	// response to conform to (set by query rewriting, which validates the
	// reply against it itself). OpenAICompatibleClient does not send it
	// to the endpoint.
	JSONSchema []byte
}

// ChatResult is the LLM's response.
type ChatResult struct {
	Content      string
	FinishReason string
}

// LLMClient is the capability needed by query rewriting and by the
// gateway's answer-generation call.
type LLMClient interface {
	// Chat sends a single chat-completion request and returns the full
	// response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// ChatStream sends a chat-completion request and streams content
	// deltas on the returned channel, closing it when the response is
	// complete or ctx is cancelled. The error channel carries at most
	// one error.
	ChatStream(ctx context.Context, req *ChatRequest) (<-chan string, <-chan error)

	// Name identifies the backing vendor, e.g. "openai-compatible".
	Name() string
}

// DenseEmbedder is the capability needed by the embedding pipeline for
// its remote back-end, and by the gateway when embedding a rewritten
// query. Two interchangeable variants exist: Remote (HTTP, batched,
// retried) and Local (in-process singleton model) — both implement this
// one method.
type DenseEmbedder interface {
	// Embed returns one dense vector per input text, in order. progress,
	// if non-nil, is called after each batch completes with the count of
	// vectors produced so far.
	Embed(ctx context.Context, texts []string, progress func(done int)) ([][]float32, error)

	// Dimension returns the fixed vector dimension this embedder produces.
	Dimension() int
}
