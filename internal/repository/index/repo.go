package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/peregrine-labs/scriptrag/internal/db"
	"github.com/peregrine-labs/scriptrag/internal/domain"
)

const (
	indexName      = domain.KeyPrefix + "chunks:idx"
	chunkKeyPrefix = domain.KeyPrefix + "chunk:"

	fieldText     = "text"
	fieldSource   = "source"
	fieldIndex    = "chunk_index"
	fieldCharLen  = "char_length"
	fieldVector   = "vector"
	fieldKNNScore = "__vector_score"
)

// Namespace for deterministic chunk point IDs (uuid v5 over source and
// chunk index). Re-ingesting a source rewrites its chunk hashes in place
// instead of accumulating duplicates.
var chunkIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("scriptrag/chunk"))

func chunkID(source string, index int) string {
	return uuid.NewSHA1(chunkIDNamespace, []byte(source+"#"+strconv.Itoa(index))).String()
}

// store is the consumer interface for vector index operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config holds vector index parameters.
type Config struct {
	Dim         int
	M           int // HNSW max edges per node; 0 uses the server default
	EFConstruct int // HNSW build-time list size; 0 uses the server default
}

// Repo stores chunk vectors as Redis hashes behind one RediSearch HNSW index.
type Repo struct {
	store store
	cfg   Config
}

// New creates a vector index repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndex creates the chunk index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("probe index: %w: %w", domain.ErrIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(indexName).
		Prefix(chunkKeyPrefix).
		Tag(fieldSource).
		Numeric(fieldIndex).
		VectorHNSW(fieldVector, r.cfg.Dim, db.DistanceCosine, r.cfg.M, r.cfg.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Upsert stores chunks with their vectors and returns the point IDs, derived
// deterministically from source and chunk index. chunks and vectors must be
// parallel slices.
func (r *Repo) Upsert(ctx context.Context, source string, chunks []domain.Chunk, vectors [][]float32) ([]string, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks/vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	ids := make([]string, len(chunks))
	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		id := chunkID(source, c.Index)
		ids[i] = id
		items[i] = db.HashSetItem{
			Key: chunkKeyPrefix + id,
			Fields: map[string]string{
				fieldText:    c.Text,
				fieldSource:  source,
				fieldIndex:   strconv.Itoa(c.Index),
				fieldCharLen: strconv.Itoa(c.CharLen),
				fieldVector:  vectorToBytes(vectors[i]),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return nil, fmt.Errorf("upsert chunks: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return ids, nil
}

// Search returns up to topK candidates ordered by vector similarity descending.
func (r *Repo) Search(ctx context.Context, vector []float32, topK int) ([]domain.Candidate, error) {
	if topK <= 0 {
		return nil, nil
	}

	q := &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{fieldText, fieldSource, fieldIndex, fieldCharLen, fieldKNNScore},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, domain.ErrIndexNotFound
		}
		return nil, fmt.Errorf("search knn: %w: %w", domain.ErrIndexUnavailable, err)
	}

	return parseCandidates(sr), nil
}

// Count returns the number of indexed chunks.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, domain.ErrIndexNotFound
		}
		return 0, fmt.Errorf("count chunks: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return n, nil
}

// Drop removes the index and all stored chunk hashes. Dropping an absent
// index is not an error.
func (r *Repo) Drop(ctx context.Context) error {
	keys, err := r.store.Scan(ctx, chunkKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan chunks: %w: %w", domain.ErrIndexUnavailable, err)
	}
	if len(keys) > 0 {
		if err := r.store.Del(ctx, keys...); err != nil {
			return fmt.Errorf("delete chunks: %w: %w", domain.ErrIndexUnavailable, err)
		}
	}

	if err := r.store.DropIndex(ctx, indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

func parseCandidates(sr *db.SearchResult) []domain.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		c := domain.Candidate{
			ID:          strings.TrimPrefix(entry.Key, chunkKeyPrefix),
			VectorScore: entry.Score,
			Payload:     make(map[string]string, len(entry.Fields)),
		}
		for k, v := range entry.Fields {
			if k == fieldText {
				c.Text = v
				continue
			}
			if k == fieldVector {
				continue
			}
			c.Payload[k] = v
		}
		out = append(out, c)
	}
	return out
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
