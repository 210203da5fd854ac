package gatewayserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maktaba/corpus/internal/gateway"
	"github.com/maktaba/corpus/internal/providers"
	"github.com/maktaba/corpus/internal/rewrite"
	"github.com/maktaba/corpus/internal/vectorstore"
)

type fakeLLM struct{ response string }

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Chat(_ context.Context, _ *providers.ChatRequest) (*providers.ChatResult, error) {
	return &providers.ChatResult{Content: f.response, FinishReason: "stop"}, nil
}
func (f *fakeLLM) ChatStream(_ context.Context, _ *providers.ChatRequest) (<-chan string, <-chan error) {
	panic("not used")
}

type fakeAsk struct {
	answer string
	deltas []string
}

func (f *fakeAsk) Ask(_ context.Context, _ gateway.AskRequest) (string, error) {
	return f.answer, nil
}

func (f *fakeAsk) AskStream(_ context.Context, _ gateway.AskRequest) (<-chan string, <-chan error) {
	deltas := make(chan string, len(f.deltas))
	errs := make(chan error)
	for _, d := range f.deltas {
		deltas <- d
	}
	close(deltas)
	close(errs)
	return deltas, errs
}

type fakeSearchStore struct{}

func (fakeSearchStore) SearchDense(_ context.Context, _ []float32, _ string, _ int, _ []string) ([]vectorstore.Hit, error) {
	return []vectorstore.Hit{
		{ID: 420000001, Score: 0.9, Fields: map[string]any{"book_id": int64(42), "book_name": "Example", "text": "first chunk"}},
	}, nil
}

func (fakeSearchStore) SearchSparse(_ context.Context, _ map[int]float64, _ string, _ int, _ []string) ([]vectorstore.Hit, error) {
	return []vectorstore.Hit{
		{ID: 420000001, Score: 3.2, Fields: map[string]any{"book_id": int64(42), "book_name": "Example", "text": "first chunk"}},
	}, nil
}

func newTestServer(llmResponse, askAnswer string, deltas []string) *Server {
	rwCfg := rewrite.DefaultConfig()
	rwCfg.MinDelay = time.Millisecond
	rwCfg.MaxDelay = 2 * time.Millisecond

	gw := &gateway.Gateway{
		Rewriter:        rewrite.New(&fakeLLM{response: llmResponse}, rwCfg),
		Embedder:        providers.NewMockDenseEmbedder(8),
		Search:          fakeSearchStore{},
		Ask:             &fakeAsk{answer: askAnswer, deltas: deltas},
		Partition:       "_default",
		KnownPartitions: map[string]struct{}{"_default": {}},
	}
	return New(Server{Gateway: gw})
}

func TestHandleHealthAndReady(t *testing.T) {
	srv := newTestServer("", "", nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleQueryNonStreaming(t *testing.T) {
	srv := newTestServer(`{"optimized_query":"حكم الوضوء"}`, "الجواب كذا", nil)

	body := `{"query":"ما حكم الوضوء؟","top_k":5,"reranker":"Weighted","reranker_params":[0.5,0.5]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp gateway.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "حكم الوضوء", resp.OptimizedQuery)
	require.Equal(t, "الجواب كذا", resp.Response)
	require.Len(t, resp.Sources, 1)
}

func TestHandleQueryInvalidBodyIsBadRequest(t *testing.T) {
	srv := newTestServer("", "", nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("not json"))
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQueryRejectsMismatchedRerankerParams(t *testing.T) {
	srv := newTestServer(`{"optimized_query":"unused"}`, "unused", nil)

	body := `{"query":"ما حكم الوضوء؟","reranker":"RRF","reranker_params":[0.5,0.5]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQueryStreamingEmitsNDJSONFrames(t *testing.T) {
	srv := newTestServer(`{"optimized_query":"حكم الوضوء"}`, "", []string{"جزء", "آخر"})

	body := `{"query":"ما حكم الوضوء؟","top_k":5,"stream":true,"reranker":"RRF","reranker_params":[60]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	scanner := bufio.NewScanner(bytes.NewReader(rec.Body.Bytes()))
	var frames []gateway.Frame
	for scanner.Scan() {
		var f gateway.Frame
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &f))
		frames = append(frames, f)
	}
	require.GreaterOrEqual(t, len(frames), 3)
	require.Equal(t, "metadata", frames[0].Type)
	require.Equal(t, "done", frames[len(frames)-1].Type)
}
