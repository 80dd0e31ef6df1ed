package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// Field names of the Milvus collection
const (
	FieldID       = "id"
	FieldPath     = "file_path"
	FieldContent  = "content"
	FieldMetadata = "metadata"
	FieldVector   = "vector"
)

const (
	// DefaultMilvusAddress is the standalone Milvus gRPC endpoint
	DefaultMilvusAddress = "localhost:19530"

	milvusIDMaxLength      = "1024"
	milvusPathMaxLength    = "4096"
	milvusContentMaxLength = "65535"
)

// MilvusStore implements VectorStore on a Milvus collection with an HNSW
// index over cosine distance.
type MilvusStore struct {
	client     *milvusclient.Client
	collection string

	mu        sync.Mutex
	dimension int // 0 until the collection is known to exist
}

// NewMilvusStore connects to the Milvus server at address
func NewMilvusStore(ctx context.Context, address, collection string) (*MilvusStore, error) {
	if address == "" {
		address = DefaultMilvusAddress
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", address, err)
	}

	return &MilvusStore{client: client, collection: collection}, nil
}

// Collection returns the collection name
func (m *MilvusStore) Collection() string {
	return m.collection
}

// Backend returns the backend name
func (m *MilvusStore) Backend() string {
	return BackendMilvus
}

// Close closes the client connection
func (m *MilvusStore) Close() error {
	return m.client.Close(context.Background())
}

// Ping lists collections as a cheap round trip to the server
func (m *MilvusStore) Ping(ctx context.Context) error {
	if _, err := m.client.ListCollections(ctx, milvusclient.NewListCollectionOption()); err != nil {
		return fmt.Errorf("milvus unreachable: %w", err)
	}
	return nil
}

// EnsureCollection creates, indexes and loads the collection if needed
func (m *MilvusStore) EnsureCollection(ctx context.Context, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(ctx, dimension)
}

func (m *MilvusStore) ensureLocked(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidRecord, dimension)
	}
	if m.dimension != 0 {
		if m.dimension != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, embedder produces %d",
				ErrDimensionMismatch, m.collection, m.dimension, dimension)
		}
		return nil
	}

	exists, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(m.collection))
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}

	if exists {
		existing, err := m.describeDimension(ctx)
		if err != nil {
			return err
		}
		if existing != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, embedder produces %d",
				ErrDimensionMismatch, m.collection, existing, dimension)
		}
	} else if err := m.createCollection(ctx, dimension); err != nil {
		return err
	}

	loadTask, err := m.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(m.collection))
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", m.collection, err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", m.collection, err)
	}

	m.dimension = dimension
	return nil
}

func (m *MilvusStore) createCollection(ctx context.Context, dimension int) error {
	schema := &entity.Schema{
		CollectionName: m.collection,
		Description:    "Indexed source code chunks",
		Fields: []*entity.Field{
			{
				Name:       FieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": milvusIDMaxLength},
			},
			{
				Name:       FieldPath,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": milvusPathMaxLength},
			},
			{
				Name:       FieldContent,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": milvusContentMaxLength},
			},
			{
				Name:     FieldMetadata,
				DataType: entity.FieldTypeJSON,
			},
			{
				Name:       FieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dimension)},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(m.collection, schema)); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", m.collection, err)
	}

	idx := index.NewHNSWIndex(entity.COSINE, 16, 200)
	task, err := m.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(m.collection, FieldVector, idx))
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to build vector index: %w", err)
	}
	return nil
}

// describeDimension reads the vector dimension from the collection schema
func (m *MilvusStore) describeDimension(ctx context.Context) (int, error) {
	coll, err := m.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(m.collection))
	if err != nil {
		return 0, fmt.Errorf("failed to describe collection %s: %w", m.collection, err)
	}
	for _, f := range coll.Schema.Fields {
		if f.Name == FieldVector {
			dim, err := strconv.Atoi(f.TypeParams["dim"])
			if err != nil {
				return 0, fmt.Errorf("collection %s: invalid vector dimension %q", m.collection, f.TypeParams["dim"])
			}
			return dim, nil
		}
	}
	return 0, fmt.Errorf("collection %s has no %s field: %w", m.collection, FieldVector, ErrNotFound)
}

// Upsert writes records column-wise in one request
func (m *MilvusStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	dimension := len(records[0].Vector)
	m.mu.Lock()
	err := m.ensureLocked(ctx, dimension)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	ids := make([]string, len(records))
	paths := make([]string, len(records))
	contents := make([]string, len(records))
	metadata := make([][]byte, len(records))
	vectors := make([][]float32, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		if len(r.Vector) != dimension {
			return fmt.Errorf("%w: record %s has %d, collection expects %d",
				ErrDimensionMismatch, r.ID, len(r.Vector), dimension)
		}
		ids[i] = r.ID
		paths[i] = r.Path
		contents[i] = r.Content
		metadata[i] = r.Metadata
		vectors[i] = r.Vector
	}

	opt := milvusclient.NewColumnBasedInsertOption(m.collection,
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnVarChar(FieldPath, paths),
		column.NewColumnVarChar(FieldContent, contents),
		column.NewColumnJSONBytes(FieldMetadata, metadata),
		column.NewColumnFloatVector(FieldVector, dimension, vectors),
	)
	if _, err := m.client.Upsert(ctx, opt); err != nil {
		return fmt.Errorf("failed to upsert %d documents: %w", len(records), err)
	}
	return nil
}

// exists reports whether the collection has been created. An existing
// collection from an earlier process is loaded before use.
func (m *MilvusStore) exists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimension != 0 {
		return true, nil
	}

	ok, err := m.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(m.collection))
	if err != nil {
		return false, fmt.Errorf("failed to check if collection exists: %w", err)
	}
	if !ok {
		return false, nil
	}

	dimension, err := m.describeDimension(ctx)
	if err != nil {
		return false, err
	}
	return true, m.ensureLocked(ctx, dimension)
}

// Query returns the k nearest documents. Milvus reports cosine similarity
// for the COSINE metric; it is converted back to a distance.
func (m *MilvusStore) Query(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 || len(vector) == 0 {
		return []Hit{}, nil
	}
	ok, err := m.exists(ctx)
	if err != nil || !ok {
		return []Hit{}, err
	}

	opt := milvusclient.NewSearchOption(m.collection, k, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector).
		WithOutputFields(FieldContent, FieldMetadata).
		WithConsistencyLevel(entity.ClStrong)

	results, err := m.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	if len(results) == 0 {
		return []Hit{}, nil
	}

	rs := results[0]
	hits := make([]Hit, 0, rs.ResultCount)
	contentCol := rs.GetColumn(FieldContent)
	metadataCol := rs.GetColumn(FieldMetadata)
	for i := 0; i < rs.ResultCount; i++ {
		id, err := rs.IDs.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read result id: %w", err)
		}
		h := Hit{ID: id}
		if i < len(rs.Scores) {
			h.Distance = 1 - float64(rs.Scores[i])
		}
		if contentCol != nil {
			h.Content, _ = contentCol.GetAsString(i)
		}
		if metadataCol != nil {
			h.Metadata = jsonValue(metadataCol, i)
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// jsonValue extracts raw JSON from a result column regardless of how the
// client materialized it
func jsonValue(col column.Column, i int) []byte {
	v, err := col.Get(i)
	if err != nil {
		return nil
	}
	switch raw := v.(type) {
	case []byte:
		return raw
	case string:
		return []byte(raw)
	default:
		return nil
	}
}

// Count returns the number of documents in the collection
func (m *MilvusStore) Count(ctx context.Context) (int64, error) {
	ok, err := m.exists(ctx)
	if err != nil || !ok {
		return 0, err
	}

	rs, err := m.client.Query(ctx, milvusclient.NewQueryOption(m.collection).
		WithOutputFields("count(*)").
		WithConsistencyLevel(entity.ClStrong))
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	col := rs.GetColumn("count(*)")
	if col == nil {
		return 0, fmt.Errorf("count(*) missing from query result")
	}
	return col.GetAsInt64(0)
}

// DeleteAll drops the collection; it is recreated on the next upsert with
// whatever dimension the embedder then produces.
func (m *MilvusStore) DeleteAll(ctx context.Context) (int64, error) {
	n, err := m.Count(ctx)
	if err != nil {
		return 0, err
	}
	ok, err := m.exists(ctx)
	if err != nil || !ok {
		return 0, err
	}

	if err := m.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(m.collection)); err != nil {
		return 0, fmt.Errorf("failed to drop collection %s: %w", m.collection, err)
	}

	m.mu.Lock()
	m.dimension = 0
	m.mu.Unlock()
	return n, nil
}

// DeleteByPath removes all documents that came from one file
func (m *MilvusStore) DeleteByPath(ctx context.Context, path string) (int64, error) {
	ok, err := m.exists(ctx)
	if err != nil || !ok {
		return 0, err
	}

	res, err := m.client.Delete(ctx, milvusclient.NewDeleteOption(m.collection).WithExpr(pathFilter(path)))
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents for %s: %w", path, err)
	}
	return res.DeleteCount, nil
}

// pathFilter builds a boolean expression matching one file path
func pathFilter(path string) string {
	return FieldPath + " == " + strconv.Quote(path)
}
