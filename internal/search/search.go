// Package search implements the dense+sparse hybrid retrieval over the
// vector store (C12): two ANN searches per query embedding, fused by
// either Reciprocal Rank Fusion or a weighted linear combination.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/vectorstore"
)

// Store is the slice of C4 hybrid search drives directly. Satisfied by
// *vectorstore.Store.
type Store interface {
	SearchDense(ctx context.Context, vector []float32, partition string, limit int, outputFields []string) ([]vectorstore.Hit, error)
	SearchSparse(ctx context.Context, vector map[int]float64, partition string, limit int, outputFields []string) ([]vectorstore.Hit, error)
}

// AllowedOutputFields is the closed set of scalar fields a caller may
// request back from a search, matching the collection schema (C4). The
// dense and sparse vector fields themselves are never returned.
var AllowedOutputFields = map[string]struct{}{
	vectorstore.FieldBookID:       {},
	vectorstore.FieldBookName:     {},
	vectorstore.FieldOrder:        {},
	vectorstore.FieldAuthor:       {},
	vectorstore.FieldCategory:     {},
	vectorstore.FieldPartTitle:    {},
	vectorstore.FieldStartPageID:  {},
	vectorstore.FieldPageOffset:   {},
	vectorstore.FieldPageNumRange: {},
	vectorstore.FieldText:         {},
}

// DefaultOutputFields is returned whenever a request does not name any
// explicit field.
var DefaultOutputFields = []string{
	vectorstore.FieldBookID,
	vectorstore.FieldBookName,
	vectorstore.FieldAuthor,
	vectorstore.FieldCategory,
	vectorstore.FieldPartTitle,
	vectorstore.FieldPageNumRange,
	vectorstore.FieldText,
}

// RankerKind names the two fusion strategies. Exactly one must be
// selected per request.
type RankerKind string

const (
	RankerRRF      RankerKind = "RRF"
	RankerWeighted RankerKind = "Weighted"
)

// Ranker fuses a dense hit list and a sparse hit list, both already
// ordered best-first, into one ranked result list.
type Ranker interface {
	Fuse(dense, sparse []vectorstore.Hit) []Result
}

// RRFRanker implements Reciprocal Rank Fusion: score = sum of
// 1/(K+rank) across the lists a document appears in, rank 1-based.
type RRFRanker struct {
	K int
}

// NewRRFRanker validates k and returns a ready ranker. k must be a
// positive integer no greater than 16384.
func NewRRFRanker(k int) (*RRFRanker, error) {
	if k <= 0 || k > 16384 {
		return nil, apperr.Validationf("k_rrf must be in (0, 16384], got %d", k)
	}
	return &RRFRanker{K: k}, nil
}

func (r *RRFRanker) Fuse(dense, sparse []vectorstore.Hit) []Result {
	scores := make(map[int64]float64)
	fields := make(map[int64]map[string]any)

	accumulate := func(hits []vectorstore.Hit) {
		for rank, h := range hits {
			scores[h.ID] += 1.0 / float64(r.K+rank+1)
			if _, ok := fields[h.ID]; !ok {
				fields[h.ID] = h.Fields
			}
		}
	}
	accumulate(dense)
	accumulate(sparse)

	return toSortedResults(scores, fields)
}

// WeightedRanker implements weighted linear fusion: score = wDense *
// denseScore + wSparse * sparseScore, where each document missing from
// one list contributes 0 for that side.
type WeightedRanker struct {
	WDense  float64
	WSparse float64
}

// NewWeightedRanker validates both weights lie in [0, 1].
func NewWeightedRanker(wDense, wSparse float64) (*WeightedRanker, error) {
	if wDense < 0 || wDense > 1 {
		return nil, apperr.Validationf("w_dense must be in [0,1], got %v", wDense)
	}
	if wSparse < 0 || wSparse > 1 {
		return nil, apperr.Validationf("w_sparse must be in [0,1], got %v", wSparse)
	}
	return &WeightedRanker{WDense: wDense, WSparse: wSparse}, nil
}

func (r *WeightedRanker) Fuse(dense, sparse []vectorstore.Hit) []Result {
	scores := make(map[int64]float64)
	fields := make(map[int64]map[string]any)

	for _, h := range dense {
		scores[h.ID] += r.WDense * float64(h.Score)
		fields[h.ID] = h.Fields
	}
	for _, h := range sparse {
		scores[h.ID] += r.WSparse * float64(h.Score)
		if _, ok := fields[h.ID]; !ok {
			fields[h.ID] = h.Fields
		}
	}

	return toSortedResults(scores, fields)
}

func toSortedResults(scores map[int64]float64, fields map[int64]map[string]any) []Result {
	out := make([]Result, 0, len(scores))
	for id, score := range scores {
		out = append(out, Result{ID: id, Distance: score, Fields: fields[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance > out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Result is one fused, ranked row.
type Result struct {
	ID       int64
	Distance float64
	Fields   map[string]any
}

// Request is one hybrid-search call: a dense and a sparse embedding of
// the same query, the partition and fields to search, and exactly one
// ranker.
type Request struct {
	DenseVector  []float32
	SparseVector map[int]float64
	Partition    string
	Limit        int
	OutputFields []string
	Ranker       Ranker
}

// Validate checks the request against the closed sets of known
// partitions and allowed output fields, and confirms exactly one
// ranker was supplied with in-range parameters (already checked by the
// NewRRFRanker/NewWeightedRanker constructors, so this only confirms
// one is present).
func (req Request) Validate(knownPartitions map[string]struct{}) error {
	if req.Ranker == nil {
		return apperr.Validation("exactly one reranker must be selected")
	}
	if req.Partition == "" {
		return apperr.Validation("partition must not be empty")
	}
	if _, ok := knownPartitions[req.Partition]; !ok {
		return apperr.Validationf("unknown partition %q", req.Partition)
	}
	if req.Limit <= 0 {
		return apperr.Validation("limit must be positive")
	}
	for _, f := range req.OutputFields {
		if _, ok := AllowedOutputFields[f]; !ok {
			return apperr.Validationf("unknown output field %q", f)
		}
	}
	return nil
}

// Search issues a dense ANN search and a sparse ANN search against
// store, each capped at req.Limit, and fuses them with req.Ranker,
// returning the top req.Limit fused rows.
func Search(ctx context.Context, store Store, req Request, knownPartitions map[string]struct{}) ([]Result, error) {
	if err := req.Validate(knownPartitions); err != nil {
		return nil, err
	}

	outputFields := req.OutputFields
	if len(outputFields) == 0 {
		outputFields = DefaultOutputFields
	}

	denseHits, err := store.SearchDense(ctx, req.DenseVector, req.Partition, req.Limit, outputFields)
	if err != nil {
		return nil, fmt.Errorf("search: dense_vector: %w", err)
	}
	sparseHits, err := store.SearchSparse(ctx, req.SparseVector, req.Partition, req.Limit, outputFields)
	if err != nil {
		return nil, fmt.Errorf("search: sparse_vector: %w", err)
	}

	fused := req.Ranker.Fuse(denseHits, sparseHits)
	if len(fused) > req.Limit {
		fused = fused[:req.Limit]
	}
	return fused, nil
}
