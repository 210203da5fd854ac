// Package gateway composes the RAG orchestration (C13): rewrite the
// raw query, embed it dense+sparse, hybrid-search the vector store,
// and ask an external LLM for a grounded answer, optionally streaming
// the answer back as newline-delimited JSON frames.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/embedpipeline"
	"github.com/maktaba/corpus/internal/providers"
	"github.com/maktaba/corpus/internal/rewrite"
	"github.com/maktaba/corpus/internal/search"
)

// Source is one retrieved chunk assembled into the ask-service request
// and echoed back to the client.
type Source struct {
	BookID       int64   `json:"book_id"`
	BookName     string  `json:"book_name"`
	Author       string  `json:"author"`
	Category     string  `json:"category"`
	PartTitle    string  `json:"part_title"`
	PageNumRange string  `json:"page_num_range"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
}

// AskRequest is what the gateway sends to the answer-generation
// collaborator.
type AskRequest struct {
	Query       string
	Sources     []Source
	Temperature float64
	MaxTokens   int
}

// AskClient is the capability needed from the external LLM that
// produces the final grounded answer (the "ask-service" of §4.13).
type AskClient interface {
	Ask(ctx context.Context, req AskRequest) (string, error)
	AskStream(ctx context.Context, req AskRequest) (<-chan string, <-chan error)
}

// LLMAskClient implements AskClient over a providers.LLMClient by
// composing the sources into a grounding prompt, the same way the
// query rewriter composes its own prompt over providers.LLMClient.
type LLMAskClient struct {
	LLM   providers.LLMClient
	Model string
}

func (c *LLMAskClient) buildRequest(req AskRequest) *providers.ChatRequest {
	return &providers.ChatRequest{
		Model:       c.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []providers.ChatMessage{
			{Role: "system", Content: groundingSystemPrompt},
			{Role: "user", Content: buildAskPrompt(req)},
		},
	}
}

func (c *LLMAskClient) Ask(ctx context.Context, req AskRequest) (string, error) {
	resp, err := c.LLM.Chat(ctx, c.buildRequest(req))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *LLMAskClient) AskStream(ctx context.Context, req AskRequest) (<-chan string, <-chan error) {
	return c.LLM.ChatStream(ctx, c.buildRequest(req))
}

const groundingSystemPrompt = `You are answering questions about a corpus of classical Arabic books. Answer only using the provided sources; if the sources do not contain the answer, say so.`

func buildAskPrompt(req AskRequest) string {
	out := req.Query + "\n\nSources:\n"
	for i, s := range req.Sources {
		out += fmt.Sprintf("[%d] %s — %s (%s, pages %s)\n%s\n\n", i+1, s.BookName, s.Author, s.PartTitle, s.PageNumRange, s.Text)
	}
	return out
}

// Gateway wires together the rewriter, the dense embedder, the hybrid
// search store, and the ask client into the single /query operation.
type Gateway struct {
	Rewriter        *rewrite.Rewriter
	Embedder        providers.DenseEmbedder
	Search          search.Store
	Ask             AskClient
	Partition       string
	KnownPartitions map[string]struct{}
}

// QueryRequest is the gateway's public request shape.
type QueryRequest struct {
	Query          string
	TopK           int
	Temperature    float64
	MaxTokens      int
	Stream         bool
	Reranker       search.RankerKind
	RerankerParams []float64
}

// QueryResponse is returned for a non-streaming request.
type QueryResponse struct {
	Response       string   `json:"response"`
	Sources        []Source `json:"sources"`
	OptimizedQuery string   `json:"optimized_query"`
	SubQueries     []string `json:"subqueries,omitempty"`
	RequestID      string   `json:"request_id"`
}

// buildRanker validates the reranker selection and its parameters
// before any upstream call is made: exactly one of RRF/Weighted with a
// matching parameter count, each within its documented range.
func buildRanker(kind search.RankerKind, params []float64) (search.Ranker, error) {
	switch kind {
	case search.RankerRRF:
		if len(params) != 1 {
			return nil, apperr.Validationf("RRF reranker takes exactly 1 parameter (k_rrf), got %d", len(params))
		}
		return search.NewRRFRanker(int(params[0]))
	case search.RankerWeighted:
		if len(params) != 2 {
			return nil, apperr.Validationf("Weighted reranker takes exactly 2 parameters (w_dense, w_sparse), got %d", len(params))
		}
		return search.NewWeightedRanker(params[0], params[1])
	default:
		return nil, apperr.Validationf("unknown reranker %q", kind)
	}
}

// prepare runs the validation, rewrite, embed, and search stages
// shared by both the streaming and non-streaming paths. It returns the
// rewrite result and the assembled sources so each caller can proceed
// to its own ask-service call.
func (g *Gateway) prepare(ctx context.Context, req QueryRequest) (rewrite.Result, []Source, error) {
	if req.Query == "" {
		return rewrite.Result{}, nil, apperr.Validation("query must not be empty")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	ranker, err := buildRanker(req.Reranker, req.RerankerParams)
	if err != nil {
		return rewrite.Result{}, nil, err
	}

	rewritten, err := g.Rewriter.Rewrite(ctx, req.Query)
	if err != nil {
		return rewrite.Result{}, nil, err
	}

	vectors, err := g.Embedder.Embed(ctx, []string{rewritten.OptimizedQuery}, nil)
	if err != nil {
		return rewrite.Result{}, nil, apperr.UpstreamTransient("embed query", err)
	}
	if len(vectors) == 0 {
		return rewrite.Result{}, nil, apperr.Internal(errors.New("embedder returned no vectors for query"))
	}

	results, err := search.Search(ctx, g.Search, search.Request{
		DenseVector:  vectors[0],
		SparseVector: embedpipeline.QuerySparseVector(rewritten.OptimizedQuery),
		Partition:    g.Partition,
		Limit:        topK,
		Ranker:       ranker,
	}, g.KnownPartitions)
	if err != nil {
		return rewrite.Result{}, nil, err
	}

	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = sourceFromResult(r)
	}
	return rewritten, sources, nil
}

func sourceFromResult(r search.Result) Source {
	s := Source{Score: r.Distance}
	if v, ok := r.Fields["book_id"].(int64); ok {
		s.BookID = v
	}
	if v, ok := r.Fields["book_name"].(string); ok {
		s.BookName = v
	}
	if v, ok := r.Fields["author"].(string); ok {
		s.Author = v
	}
	if v, ok := r.Fields["category"].(string); ok {
		s.Category = v
	}
	if v, ok := r.Fields["part_title"].(string); ok {
		s.PartTitle = v
	}
	if v, ok := r.Fields["page_num_range"].(string); ok {
		s.PageNumRange = v
	}
	if v, ok := r.Fields["text"].(string); ok {
		s.Text = v
	}
	return s
}

// Query runs the full non-streaming pipeline: rewrite, embed, search,
// ask, and returns the complete answer.
func (g *Gateway) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	rewritten, sources, err := g.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	answer, err := g.Ask.Ask(ctx, AskRequest{
		Query:       rewritten.OptimizedQuery,
		Sources:     sources,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, apperr.UpstreamTransient("ask service", err)
	}

	return &QueryResponse{
		Response:       answer,
		Sources:        sources,
		OptimizedQuery: rewritten.OptimizedQuery,
		SubQueries:     rewritten.SubQueries,
		RequestID:      uuid.NewString(),
	}, nil
}

// Frame is one line of the streaming NDJSON response.
type Frame struct {
	Type           string   `json:"type"`
	Sources        []Source `json:"sources,omitempty"`
	OptimizedQuery string   `json:"optimized_query,omitempty"`
	SubQueries     []string `json:"subqueries,omitempty"`
	RequestID      string   `json:"request_id,omitempty"`
	Delta          string   `json:"delta,omitempty"`
}

// QueryStream runs the same pipeline as Query but streams the answer:
// one "metadata" frame, zero or more "content" frames, then one "done"
// frame, on the returned channel. The channel is closed once "done" has
// been sent or an error occurs; at most one error is ever sent on the
// error channel.
func (g *Gateway) QueryStream(ctx context.Context, req QueryRequest) (<-chan Frame, <-chan error) {
	frames := make(chan Frame)
	errs := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errs)

		rewritten, sources, err := g.prepare(ctx, req)
		if err != nil {
			errs <- err
			return
		}

		requestID := uuid.NewString()
		select {
		case frames <- Frame{Type: "metadata", Sources: sources, OptimizedQuery: rewritten.OptimizedQuery, SubQueries: rewritten.SubQueries, RequestID: requestID}:
		case <-ctx.Done():
			errs <- ctx.Err()
			return
		}

		deltas, askErrs := g.Ask.AskStream(ctx, AskRequest{
			Query:       rewritten.OptimizedQuery,
			Sources:     sources,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})

		for deltas != nil || askErrs != nil {
			select {
			case delta, ok := <-deltas:
				if !ok {
					deltas = nil
					continue
				}
				select {
				case frames <- Frame{Type: "content", Delta: delta}:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			case err, ok := <-askErrs:
				if !ok {
					askErrs = nil
					continue
				}
				if err != nil {
					errs <- apperr.UpstreamTransient("ask service stream", err)
					return
				}
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}

		select {
		case frames <- Frame{Type: "done"}:
		case <-ctx.Done():
			errs <- ctx.Err()
		}
	}()

	return frames, errs
}
