// Package vectorstore adapts the vector store holding chunk embeddings:
// collection and partition lifecycle, batched idempotent upsert, and
// delete-by-book.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/maktaba/corpus/internal/model"
)

// Field names in the collection schema.
const (
	FieldID           = "id"
	FieldBookID       = "book_id"
	FieldBookName     = "book_name"
	FieldOrder        = "order"
	FieldAuthor       = "author"
	FieldCategory     = "category"
	FieldPartTitle    = "part_title"
	FieldStartPageID  = "start_page_id"
	FieldPageOffset   = "page_offset"
	FieldPageNumRange = "page_num_range"
	FieldText         = "text"
	FieldDenseVector  = "dense_vector"
	FieldSparseVector = "sparse_vector"
)

const defaultCollection = "islamic_library"

// SchemaDescription is the side-car description used to construct the
// collection schema: a fixed dense dimension and a VARCHAR length
// ceiling beyond which text is truncated before upsert. An existing
// collection is loaded as it is, without checking it against this
// description.
type SchemaDescription struct {
	DenseDimension int
	VarcharLimit   int
}

// Store is the vector store adapter.
type Store struct {
	client         client.Client
	collectionName string
	schema         SchemaDescription
}

// Config configures the connection and schema.
type Config struct {
	Address        string
	CollectionName string
	Schema         SchemaDescription
}

// New connects to the vector store and ensures the collection exists
// with the configured schema.
func New(ctx context.Context, cfg Config) (*Store, error) {
	name := cfg.CollectionName
	if name == "" {
		name = defaultCollection
	}

	c, err := client.NewGrpcClient(ctx, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connect: %w", err)
	}

	s := &Store{client: c, collectionName: name, schema: cfg.Schema}
	if err := s.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the client connection.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("vectorstore: has_collection: %w", err)
	}
	if exists {
		return s.client.LoadCollection(ctx, s.collectionName, false)
	}

	schema := &entity.Schema{
		CollectionName: s.collectionName,
		Description:    "classical Arabic book chunks with dense and sparse embeddings",
		AutoID:         false,
		Fields: []*entity.Field{
			{Name: FieldID, DataType: entity.FieldTypeInt64, PrimaryKey: true, AutoID: false},
			{Name: FieldBookID, DataType: entity.FieldTypeInt64},
			{Name: FieldBookName, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "512"}},
			{Name: FieldOrder, DataType: entity.FieldTypeInt64},
			{Name: FieldAuthor, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "256"}},
			{Name: FieldCategory, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "256"}},
			{Name: FieldPartTitle, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "512"}},
			{Name: FieldStartPageID, DataType: entity.FieldTypeInt64},
			{Name: FieldPageOffset, DataType: entity.FieldTypeInt64},
			{Name: FieldPageNumRange, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "64"}},
			{Name: FieldText, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": fmt.Sprintf("%d", s.schema.VarcharLimit)}},
			{
				Name:     FieldDenseVector,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.schema.DenseDimension),
				},
			},
			{Name: FieldSparseVector, DataType: entity.FieldTypeSparseVector},
		},
	}

	if err := s.client.CreateCollection(ctx, schema, 2); err != nil {
		return fmt.Errorf("vectorstore: create_collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, 16, 256)
	if err != nil {
		return fmt.Errorf("vectorstore: build dense index spec: %w", err)
	}
	if err := s.client.CreateIndex(ctx, s.collectionName, FieldDenseVector, idx, false); err != nil {
		return fmt.Errorf("vectorstore: create dense index: %w", err)
	}

	sparseIdx, err := entity.NewIndexSparseInverted(entity.IP, 0.2)
	if err != nil {
		return fmt.Errorf("vectorstore: build sparse index spec: %w", err)
	}
	if err := s.client.CreateIndex(ctx, s.collectionName, FieldSparseVector, sparseIdx, false); err != nil {
		return fmt.Errorf("vectorstore: create sparse index: %w", err)
	}

	return s.client.LoadCollection(ctx, s.collectionName, false)
}

// ListPartitions returns every partition name currently defined on the
// collection. The query service fetches this set at startup instead of
// hard-coding it, per the partition-mapping open question.
func (s *Store) ListPartitions(ctx context.Context) ([]string, error) {
	partitions, err := s.client.ShowPartitions(ctx, s.collectionName)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: show_partitions: %w", err)
	}
	names := make([]string, len(partitions))
	for i, p := range partitions {
		names[i] = p.Name
	}
	return names, nil
}

func (s *Store) ensurePartition(ctx context.Context, partition string) error {
	exists, err := s.client.HasPartition(ctx, s.collectionName, partition)
	if err != nil {
		return fmt.Errorf("vectorstore: has_partition: %w", err)
	}
	if exists {
		return nil
	}
	return s.client.CreatePartition(ctx, s.collectionName, partition)
}

const defaultUpsertBatchSize = 12_000

// UpsertChunks writes chunks to partition in batches of batchSize (0
// means use the default). Truncates text to the schema's VARCHAR limit.
// Idempotent under retry: primary keys are the deterministic chunk
// global id.
func (s *Store) UpsertChunks(ctx context.Context, chunks []model.Chunk, partition string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = defaultUpsertBatchSize
	}
	if err := s.ensurePartition(ctx, partition); err != nil {
		return err
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.upsertBatch(ctx, chunks[start:end], partition); err != nil {
			return fmt.Errorf("vectorstore: upsert batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, chunks []model.Chunk, partition string) error {
	n := len(chunks)
	ids := make([]int64, n)
	bookIDs := make([]int64, n)
	bookNames := make([]string, n)
	orders := make([]int64, n)
	authors := make([]string, n)
	categories := make([]string, n)
	partTitles := make([]string, n)
	startPageIDs := make([]int64, n)
	pageOffsets := make([]int64, n)
	pageNumRanges := make([]string, n)
	texts := make([]string, n)
	denseVecs := make([][]float32, n)
	sparseVecs := make([]entity.SparseEmbedding, n)

	for i, c := range chunks {
		ids[i] = model.ChunkGlobalID(c.BookID, c.Order)
		bookIDs[i] = c.BookID
		bookNames[i] = c.BookName
		orders[i] = int64(c.Order)
		authors[i] = c.Author
		categories[i] = c.Category
		partTitles[i] = c.PartTitle
		startPageIDs[i] = c.StartPageID
		pageOffsets[i] = int64(c.PageOffset)
		pageNumRanges[i] = fmt.Sprintf("%s-%s", c.PageNumRange[0], c.PageNumRange[1])
		texts[i] = truncateVarchar(c.Text, s.schema.VarcharLimit)
		denseVecs[i] = c.DenseVector

		positions := make([]uint32, 0, len(c.SparseVector))
		values := make([]float32, 0, len(c.SparseVector))
		for tokenIdx, weight := range c.SparseVector {
			positions = append(positions, uint32(tokenIdx))
			values = append(values, float32(weight))
		}
		sparse, err := entity.NewSliceSparseEmbedding(positions, values)
		if err != nil {
			return fmt.Errorf("build sparse embedding for chunk order %d: %w", c.Order, err)
		}
		sparseVecs[i] = sparse
	}

	columns := []entity.Column{
		entity.NewColumnInt64(FieldID, ids),
		entity.NewColumnInt64(FieldBookID, bookIDs),
		entity.NewColumnVarChar(FieldBookName, bookNames),
		entity.NewColumnInt64(FieldOrder, orders),
		entity.NewColumnVarChar(FieldAuthor, authors),
		entity.NewColumnVarChar(FieldCategory, categories),
		entity.NewColumnVarChar(FieldPartTitle, partTitles),
		entity.NewColumnInt64(FieldStartPageID, startPageIDs),
		entity.NewColumnInt64(FieldPageOffset, pageOffsets),
		entity.NewColumnVarChar(FieldPageNumRange, pageNumRanges),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnFloatVector(FieldDenseVector, s.schema.DenseDimension, denseVecs),
		entity.NewColumnSparseVectors(FieldSparseVector, sparseVecs),
	}

	_, err := s.client.Upsert(ctx, s.collectionName, partition, columns...)
	return err
}

func truncateVarchar(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}

// DeleteByBookID issues a filter-based delete for book_id within
// partition. Tolerates a missing collection by returning false.
func (s *Store) DeleteByBookID(ctx context.Context, bookID int64, partition string) (bool, error) {
	exists, err := s.client.HasCollection(ctx, s.collectionName)
	if err != nil {
		return false, fmt.Errorf("vectorstore: has_collection: %w", err)
	}
	if !exists {
		return false, nil
	}

	expr := fmt.Sprintf("%s == %d", FieldBookID, bookID)
	if err := s.client.Delete(ctx, s.collectionName, partition, expr); err != nil {
		return false, fmt.Errorf("vectorstore: delete_by_book_id: %w", err)
	}
	return true, nil
}

// Hit is one row returned by an ANN search: its chunk global id, the
// raw distance/score the index reports, and whichever output fields
// were requested.
type Hit struct {
	ID     int64
	Score  float32
	Fields map[string]any
}

const denseSearchEF = 64
const sparseSearchDropRatio = 0.2

// SearchDense runs an ANN search on the dense_vector field with cosine
// distance, returning up to limit hits.
func (s *Store) SearchDense(ctx context.Context, vector []float32, partition string, limit int, outputFields []string) ([]Hit, error) {
	sp, err := entity.NewIndexHNSWSearchParam(denseSearchEF)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: build dense search param: %w", err)
	}
	results, err := s.client.Search(ctx, s.collectionName, []string{partition}, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)}, FieldDenseVector, entity.COSINE, limit, sp)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search dense_vector: %w", err)
	}
	return toHits(results)
}

// SearchSparse runs an ANN search on the sparse_vector field with
// inner-product distance, returning up to limit hits.
func (s *Store) SearchSparse(ctx context.Context, vector map[int]float64, partition string, limit int, outputFields []string) ([]Hit, error) {
	positions := make([]uint32, 0, len(vector))
	values := make([]float32, 0, len(vector))
	for idx, weight := range vector {
		positions = append(positions, uint32(idx))
		values = append(values, float32(weight))
	}
	sparseVec, err := entity.NewSliceSparseEmbedding(positions, values)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: build sparse query vector: %w", err)
	}

	sp, err := entity.NewIndexSparseInvertedSearchParam(sparseSearchDropRatio)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: build sparse search param: %w", err)
	}
	results, err := s.client.Search(ctx, s.collectionName, []string{partition}, "", outputFields,
		[]entity.Vector{sparseVec}, FieldSparseVector, entity.IP, limit, sp)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search sparse_vector: %w", err)
	}
	return toHits(results)
}

// toHits flattens the first query vector's results (both search
// methods here issue exactly one query vector per call) into Hit
// values, reading every requested output field generically through the
// entity.Column interface.
func toHits(results []client.SearchResult) ([]Hit, error) {
	if len(results) == 0 {
		return nil, nil
	}
	result := results[0]

	idCol, ok := result.IDs.(*entity.ColumnInt64)
	if !ok {
		return nil, fmt.Errorf("vectorstore: unexpected id column type %T", result.IDs)
	}
	ids := idCol.Data()

	hits := make([]Hit, len(ids))
	for i, id := range ids {
		fields := make(map[string]any, len(result.Fields))
		for _, col := range result.Fields {
			v, err := col.Get(i)
			if err != nil {
				continue
			}
			fields[col.Name()] = v
		}
		var score float32
		if i < len(result.Scores) {
			score = result.Scores[i]
		}
		hits[i] = Hit{ID: id, Score: score, Fields: fields}
	}
	return hits, nil
}
