package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maktaba/corpus/internal/vectorstore"
)

type fakeStore struct {
	dense, sparse []vectorstore.Hit
}

func (f *fakeStore) SearchDense(_ context.Context, _ []float32, _ string, limit int, _ []string) ([]vectorstore.Hit, error) {
	return capHits(f.dense, limit), nil
}

func (f *fakeStore) SearchSparse(_ context.Context, _ map[int]float64, _ string, limit int, _ []string) ([]vectorstore.Hit, error) {
	return capHits(f.sparse, limit), nil
}

func capHits(hits []vectorstore.Hit, limit int) []vectorstore.Hit {
	if limit > 0 && limit < len(hits) {
		return hits[:limit]
	}
	return hits
}

func TestNewRRFRankerValidatesRange(t *testing.T) {
	_, err := NewRRFRanker(0)
	require.Error(t, err)
	_, err = NewRRFRanker(16385)
	require.Error(t, err)
	_, err = NewRRFRanker(60)
	require.NoError(t, err)
}

func TestNewWeightedRankerValidatesRange(t *testing.T) {
	_, err := NewWeightedRanker(-0.1, 0.5)
	require.Error(t, err)
	_, err = NewWeightedRanker(0.5, 1.1)
	require.Error(t, err)
	_, err = NewWeightedRanker(0.5, 0.5)
	require.NoError(t, err)
}

func TestRRFFusePrefersDocumentInBothLists(t *testing.T) {
	ranker, err := NewRRFRanker(60)
	require.NoError(t, err)

	dense := []vectorstore.Hit{{ID: 1, Score: 0.9}, {ID: 2, Score: 0.8}}
	sparse := []vectorstore.Hit{{ID: 2, Score: 5}, {ID: 3, Score: 4}}

	fused := ranker.Fuse(dense, sparse)
	require.Equal(t, int64(2), fused[0].ID, "document present in both lists should rank first")
}

func TestWeightedFuseCombinesScoresLinearly(t *testing.T) {
	ranker, err := NewWeightedRanker(0.5, 0.5)
	require.NoError(t, err)

	dense := []vectorstore.Hit{{ID: 1, Score: 1.0}}
	sparse := []vectorstore.Hit{{ID: 1, Score: 1.0}}

	fused := ranker.Fuse(dense, sparse)
	require.Len(t, fused, 1)
	require.InDelta(t, 1.0, fused[0].Distance, 1e-9)
}

func TestSearchRejectsUnknownPartition(t *testing.T) {
	store := &fakeStore{}
	ranker, _ := NewRRFRanker(60)
	req := Request{
		DenseVector:  []float32{0.1},
		SparseVector: map[int]float64{1: 0.5},
		Partition:    "_iqeedah",
		Limit:        5,
		Ranker:       ranker,
	}
	_, err := Search(context.Background(), store, req, map[string]struct{}{"_default": {}})
	require.Error(t, err)
}

func TestSearchRejectsUnknownOutputField(t *testing.T) {
	store := &fakeStore{}
	ranker, _ := NewRRFRanker(60)
	req := Request{
		DenseVector:  []float32{0.1},
		SparseVector: map[int]float64{1: 0.5},
		Partition:    "_default",
		Limit:        5,
		OutputFields: []string{"dense_vector"},
		Ranker:       ranker,
	}
	_, err := Search(context.Background(), store, req, map[string]struct{}{"_default": {}})
	require.Error(t, err)
}

func TestSearchMisconfiguredRerankerIsValidationError(t *testing.T) {
	req := Request{Partition: "_default", Limit: 5}
	err := req.Validate(map[string]struct{}{"_default": {}})
	require.Error(t, err)
}

func TestSearchReturnsFusedTopK(t *testing.T) {
	store := &fakeStore{
		dense:  []vectorstore.Hit{{ID: 1, Score: 0.9}, {ID: 2, Score: 0.8}, {ID: 3, Score: 0.7}},
		sparse: []vectorstore.Hit{{ID: 2, Score: 5}, {ID: 4, Score: 4}},
	}
	ranker, _ := NewRRFRanker(60)
	req := Request{
		DenseVector:  []float32{0.1},
		SparseVector: map[int]float64{1: 0.5},
		Partition:    "_default",
		Limit:        2,
		Ranker:       ranker,
	}
	results, err := Search(context.Background(), store, req, map[string]struct{}{"_default": {}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(2), results[0].ID)
}
