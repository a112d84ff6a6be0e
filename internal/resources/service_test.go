package resources

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekit/authgate/internal/shared"
)

type mockRepository struct {
	docs      map[string]map[int64]Document
	nextID    int64
	listCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{docs: make(map[string]map[int64]Document), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, collection string, limit, offset int) ([]Document, int, error) {
	m.listCalls++
	all := m.docs[collection]
	out := []Document{}
	for _, doc := range all {
		out = append(out, doc)
	}
	return out, len(all), nil
}

func (m *mockRepository) Get(ctx context.Context, collection string, id int64) (*Document, error) {
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &doc, nil
}

func (m *mockRepository) Create(ctx context.Context, collection string, data json.RawMessage) (*Document, error) {
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[int64]Document)
	}
	doc := Document{Collection: collection, ID: m.nextID, Data: data, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.docs[collection][doc.ID] = doc
	m.nextID++
	return &doc, nil
}

func (m *mockRepository) Replace(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error) {
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	doc.Data = data
	doc.UpdatedAt = time.Now()
	m.docs[collection][id] = doc
	return &doc, nil
}

func (m *mockRepository) Merge(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error) {
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	var current, patch map[string]any
	if err := json.Unmarshal(doc.Data, &current); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, err
	}
	for k, v := range patch {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	doc.Data = merged
	doc.UpdatedAt = time.Now()
	m.docs[collection][id] = doc
	return &doc, nil
}

func (m *mockRepository) Delete(ctx context.Context, collection string, id int64) error {
	if _, ok := m.docs[collection][id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.docs[collection], id)
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMockRepository()
	return NewService(repo, NewCache(client, time.Minute)), repo
}

func TestValidCollection(t *testing.T) {
	assert.True(t, ValidCollection("products"))
	assert.True(t, ValidCollection("order-lines_2"))
	assert.False(t, ValidCollection("users"), "users is reserved")
	assert.False(t, ValidCollection("Products"))
	assert.False(t, ValidCollection("1st"))
	assert.False(t, ValidCollection(""))
	assert.False(t, ValidCollection("a/b"))
}

func TestListCachesPages(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "products", json.RawMessage(`{"name":"chair"}`))
	require.NoError(t, err)

	page := shared.Pagination{Page: 1, PerPage: 20}
	docs, pagination, err := svc.List(ctx, "products", page)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, pagination.Total)
	assert.Equal(t, 1, repo.listCalls)

	// Second read is served from cache.
	_, _, err = svc.List(ctx, "products", page)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
}

func TestWritesInvalidateListCache(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	page := shared.Pagination{Page: 1, PerPage: 20}
	_, pagination, err := svc.List(ctx, "products", page)
	require.NoError(t, err)
	assert.Equal(t, 0, pagination.Total)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, "products", json.RawMessage(`{"name":"desk"}`))
	require.NoError(t, err)

	docs, pagination, err := svc.List(ctx, "products", page)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls, "write must bump the cache version")
	assert.Equal(t, 1, pagination.Total)
	require.Len(t, docs, 1)
}

func TestCRUDRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "products", json.RawMessage(`{"name":"chair","price":10}`))
	require.NoError(t, err)

	got, err := svc.Get(ctx, "products", created.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"chair","price":10}`, string(got.Data))

	patched, err := svc.Merge(ctx, "products", created.ID, json.RawMessage(`{"price":12}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"chair","price":12}`, string(patched.Data))

	replaced, err := svc.Replace(ctx, "products", created.ID, json.RawMessage(`{"name":"stool"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"stool"}`, string(replaced.Data))

	require.NoError(t, svc.Delete(ctx, "products", created.ID))
	_, err = svc.Get(ctx, "products", created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReservedAndInvalidCollections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "users", 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Create(ctx, "Not-Valid", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, _, err = svc.List(ctx, "users", shared.Pagination{Page: 1, PerPage: 20})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
