package gatewayserver

import (
	"bufio"
	"encoding/json"
	"net/http"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/gateway"
	"github.com/maktaba/corpus/internal/search"
)

// queryRequestBody is the wire shape of a /query request.
type queryRequestBody struct {
	Query          string    `json:"query"`
	TopK           int       `json:"top_k"`
	Temperature    float64   `json:"temperature"`
	MaxTokens      int       `json:"max_tokens"`
	Stream         bool      `json:"stream"`
	Reranker       string    `json:"reranker"`
	RerankerParams []float64 `json:"reranker_params"`
}

func (b queryRequestBody) toRequest() gateway.QueryRequest {
	return gateway.QueryRequest{
		Query:          b.Query,
		TopK:           b.TopK,
		Temperature:    b.Temperature,
		MaxTokens:      b.MaxTokens,
		Stream:         b.Stream,
		Reranker:       search.RankerKind(b.Reranker),
		RerankerParams: b.RerankerParams,
	}
}

// handleQuery runs the gateway's rewrite→embed→search→ask pipeline,
// responding with one JSON body or, when the request asks to stream,
// a newline-delimited JSON body flushed frame by frame.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, r, apperr.Validation("invalid request body"))
		return
	}
	defer r.Body.Close()

	req := body.toRequest()

	if !req.Stream {
		resp, err := s.Gateway.Query(r.Context(), req)
		if err != nil {
			Error(w, r, err)
			return
		}
		JSON(w, http.StatusOK, resp)
		return
	}

	s.streamQuery(w, r, req)
}

// streamQuery writes one JSON-encoded gateway.Frame per line, flushing
// after each, so a client can render the answer incrementally.
func (s *Server) streamQuery(w http.ResponseWriter, r *http.Request, req gateway.QueryRequest) {
	frames, errs := s.Gateway.QueryStream(r.Context(), req)

	flusher, canFlush := w.(http.Flusher)
	bw := bufio.NewWriter(w)

	headerWritten := false
	writeHeader := func() {
		if headerWritten {
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		headerWritten = true
	}

	enc := json.NewEncoder(bw)
	for frame := range frames {
		writeHeader()
		if err := enc.Encode(frame); err != nil {
			s.Logger.Error("stream query: failed to encode frame", "error", err)
			break
		}
		bw.Flush()
		if canFlush {
			flusher.Flush()
		}
	}

	if err := <-errs; err != nil {
		if !headerWritten {
			Error(w, r, err)
			return
		}
		s.Logger.Error("stream query: pipeline error after streaming began", "error", err)
	}
}
