package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/peregrine-labs/scriptrag/internal/db"
	"github.com/peregrine-labs/scriptrag/internal/domain"
)

func TestEnsureIndex_CreatesWhenAbsent(t *testing.T) {
	repo, ms := newTestRepo(t)

	var captured *db.IndexDefinition
	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		captured = def
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured == nil {
		t.Fatal("expected FT.CREATE")
	}
	if captured.Name != indexName {
		t.Errorf("unexpected index name %q", captured.Name)
	}
	if len(captured.Prefixes) != 1 || captured.Prefixes[0] != chunkKeyPrefix {
		t.Errorf("unexpected prefixes %v", captured.Prefixes)
	}

	var vec *db.IndexField
	for i := range captured.Fields {
		if captured.Fields[i].Type == db.IndexFieldVector {
			vec = &captured.Fields[i]
		}
	}
	if vec == nil {
		t.Fatal("expected a vector field")
	}
	if vec.VectorAlgo != db.VectorHNSW || vec.VectorDistance != db.DistanceCosine {
		t.Errorf("unexpected vector field options: %+v", vec)
	}
	if vec.VectorDim != 4 {
		t.Errorf("expected dim 4, got %d", vec.VectorDim)
	}
}

func TestEnsureIndex_SkipsWhenPresent(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Error("FT.CREATE must not run when index exists")
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_ConcurrentCreate(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return db.ErrIndexExists
	}

	// Losing the create race is fine: the index is there either way.
	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpsert_StoresChunks(t *testing.T) {
	repo, ms := newTestRepo(t)

	var captured []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		captured = items
		return nil
	}

	chunks := []domain.Chunk{
		{Index: 0, Text: "第一章。", CharLen: 4},
		{Index: 1, Text: "第二章。", CharLen: 4},
	}
	vectors := [][]float32{testVector(), testVector()}

	ids, err := repo.Upsert(context.Background(), "script.md", chunks, vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] == ids[1] {
		t.Error("point ids must be unique")
	}
	if len(captured) != 2 {
		t.Fatalf("expected 2 items, got %d", len(captured))
	}

	item := captured[0]
	if !strings.HasPrefix(item.Key, chunkKeyPrefix) {
		t.Errorf("key %q missing prefix", item.Key)
	}
	if item.Fields[fieldText] != "第一章。" {
		t.Errorf("unexpected text field %q", item.Fields[fieldText])
	}
	if item.Fields[fieldSource] != "script.md" {
		t.Errorf("unexpected source field %q", item.Fields[fieldSource])
	}
	if item.Fields[fieldIndex] != "0" || item.Fields[fieldCharLen] != "4" {
		t.Errorf("unexpected payload fields: %v", item.Fields)
	}
	if len(item.Fields[fieldVector]) != 4*4 {
		t.Errorf("expected 16-byte vector, got %d bytes", len(item.Fields[fieldVector]))
	}
}

func TestUpsert_DeterministicIDs(t *testing.T) {
	repo, ms := newTestRepo(t)

	var firstKeys, secondKeys []string
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		keys := make([]string, len(items))
		for i, it := range items {
			keys[i] = it.Key
		}
		if firstKeys == nil {
			firstKeys = keys
		} else {
			secondKeys = keys
		}
		return nil
	}

	chunks := []domain.Chunk{
		{Index: 0, Text: "第一章。", CharLen: 4},
		{Index: 1, Text: "第二章。", CharLen: 4},
	}
	vectors := [][]float32{testVector(), testVector()}

	ids1, err := repo.Upsert(context.Background(), "script.md", chunks, vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids2, err := repo.Upsert(context.Background(), "script.md", chunks, vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same source and index rewrite the same hashes.
	for i := range ids1 {
		if ids1[i] != ids2[i] {
			t.Errorf("id[%d] changed across ingests: %q vs %q", i, ids1[i], ids2[i])
		}
		if firstKeys[i] != secondKeys[i] {
			t.Errorf("key[%d] changed across ingests: %q vs %q", i, firstKeys[i], secondKeys[i])
		}
	}

	ids3, err := repo.Upsert(context.Background(), "other.md", chunks[:1], vectors[:1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids3[0] == ids1[0] {
		t.Error("different sources must not collide")
	}
}

func TestUpsert_LengthMismatch(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Upsert(context.Background(), "s", []domain.Chunk{{Text: "a"}}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestUpsert_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		t.Error("HSET must not run for empty input")
		return nil
	}

	ids, err := repo.Upsert(context.Background(), "s", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids != nil {
		t.Errorf("expected nil ids, got %v", ids)
	}
}

func TestSearch_MapsCandidates(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != indexName {
			t.Errorf("unexpected index %q", q.IndexName)
		}
		if q.K != 5 {
			t.Errorf("expected k=5, got %d", q.K)
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:   chunkKeyPrefix + "abc",
				Score: 0.9,
				Fields: map[string]string{
					fieldText:    "程聿怀走进剧场。",
					fieldSource:  "script.md",
					fieldIndex:   "3",
					fieldCharLen: "8",
				},
			}},
		}, nil
	}

	got, err := repo.Search(context.Background(), testVector(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.ID != "abc" {
		t.Errorf("expected trimmed id, got %q", c.ID)
	}
	if c.Text != "程聿怀走进剧场。" {
		t.Errorf("unexpected text %q", c.Text)
	}
	if c.VectorScore != 0.9 {
		t.Errorf("unexpected score %v", c.VectorScore)
	}
	if c.Payload[fieldSource] != "script.md" || c.Payload[fieldIndex] != "3" {
		t.Errorf("unexpected payload %v", c.Payload)
	}
	if _, ok := c.Payload[fieldText]; ok {
		t.Error("text must not be duplicated into payload")
	}
}

func TestSearch_TopKZero(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		t.Error("FT.SEARCH must not run for topK=0")
		return nil, nil
	}

	got, err := repo.Search(context.Background(), testVector(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestSearch_IndexMissing(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, db.ErrIndexNotFound
	}

	_, err := repo.Search(context.Background(), testVector(), 5)
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("expected domain.ErrIndexNotFound, got %v", err)
	}
}

func TestSearch_StoreDown(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("connection refused")}
	}

	_, err := repo.Search(context.Background(), testVector(), 5)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected domain.ErrIndexUnavailable, got %v", err)
	}
}

func TestUpsert_StoreDown(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		return &db.Error{Op: db.OpHSet, Err: errors.New("connection refused")}
	}

	_, err := repo.Upsert(context.Background(), "s",
		[]domain.Chunk{{Index: 0, Text: "a", CharLen: 1}}, [][]float32{testVector()})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected domain.ErrIndexUnavailable, got %v", err)
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, index, query string) (int, error) {
		if index != indexName || query != "*" {
			t.Errorf("unexpected count query %q %q", index, query)
		}
		return 42, nil
	}

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestCount_IndexMissing(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, _, _ string) (int, error) {
		return 0, db.ErrIndexNotFound
	}

	_, err := repo.Count(context.Background())
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("expected domain.ErrIndexNotFound, got %v", err)
	}
}

func TestDrop(t *testing.T) {
	repo, ms := newTestRepo(t)

	var deleted []string
	dropped := false
	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != chunkKeyPrefix+"*" {
			t.Errorf("unexpected scan pattern %q", pattern)
		}
		return []string{chunkKeyPrefix + "a", chunkKeyPrefix + "b"}, nil
	}
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = keys
		return nil
	}
	ms.dropIndexFn = func(_ context.Context, name string) error {
		dropped = true
		return nil
	}

	if err := repo.Drop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("expected 2 deleted keys, got %v", deleted)
	}
	if !dropped {
		t.Error("expected FT.DROPINDEX")
	}
}

func TestDrop_AbsentIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.delFn = func(_ context.Context, _ ...string) error {
		t.Error("DEL must not run without keys")
		return nil
	}
	ms.dropIndexFn = func(_ context.Context, _ string) error {
		return db.ErrIndexNotFound
	}

	if err := repo.Drop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
