package collection

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/apiprobe/internal/types"
)

func TestNewDefaultStore(t *testing.T) {
	s := NewDefaultStore()

	cols := s.List()
	require.Len(t, cols, len(DefaultCollections()))
	assert.Equal(t, "JSONPlaceholder", cols[0].Name)

	// seeds are built fresh on every call
	a := DefaultCollections()
	a[0].Requests[0].Name = "mutated"
	assert.NotEqual(t, "mutated", DefaultCollections()[0].Requests[0].Name)
}

func TestStore_ImportIsAtomic(t *testing.T) {
	s := NewStore()

	_, err := s.Import([]byte(`{"info":{"name":"ok"},"item":[{"name":"bad","request":{"method":"NOPE","url":"u"}}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCollection))
	assert.Equal(t, 0, s.Len(), "failed import must not add anything")

	col, err := s.Import([]byte(`{"info":{"name":"ok"},"item":[{"name":"good","request":{"url":"u"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(col.ID)
	require.NoError(t, err)
	assert.Equal(t, "good", got.Requests[0].Name)
}

func TestStore_DuplicateNamesAllowed(t *testing.T) {
	s := NewStore()
	data := []byte(`{"info":{"name":"Twin"},"item":[]}`)

	a, err := s.Import(data)
	require.NoError(t, err)
	b, err := s.Import(data)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, s.Len())
}

func TestStore_AddAssignsIDs(t *testing.T) {
	s := NewStore()

	first := s.Add(types.Collection{ID: "fixed", Name: "A", Requests: []types.Request{{Name: "r"}}})
	assert.Equal(t, "fixed", first.ID)
	assert.NotEmpty(t, first.Requests[0].ID)

	second := s.Add(types.Collection{ID: "fixed", Name: "B"})
	assert.NotEqual(t, "fixed", second.ID, "taken IDs are replaced")
}

func TestStore_GettersReturnCopies(t *testing.T) {
	s := NewStore(types.Collection{ID: "c", Name: "C", Requests: []types.Request{
		{ID: "r", Name: "R", Headers: []types.Header{{Key: "A", Value: "1", Enabled: true}}},
	}})

	got, err := s.Get("c")
	require.NoError(t, err)
	got.Requests[0].Headers[0].Value = "changed"
	got.Name = "changed"

	again, _ := s.Get("c")
	assert.Equal(t, "C", again.Name)
	assert.Equal(t, "1", again.Requests[0].Headers[0].Value)
}

func TestStore_RequestLifecycle(t *testing.T) {
	s := NewStore(types.Collection{ID: "c", Name: "C"})

	req, err := s.AddRequest("c", types.Request{Name: "Ping", URL: "{{base}}/ping"})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, types.MethodGet, req.Method)

	found, err := s.FindRequest("c", "ping")
	require.NoError(t, err, "lookup falls back to case-insensitive names")
	assert.Equal(t, req.ID, found.ID)

	found, err = s.FindRequest("c", req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ping", found.Name)

	req.URL = "{{base}}/health"
	require.NoError(t, s.UpdateRequest("c", req))
	found, _ = s.FindRequest("c", req.ID)
	assert.Equal(t, "{{base}}/health", found.URL)

	require.NoError(t, s.RemoveRequest("c", req.ID))
	_, err = s.FindRequest("c", req.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(s.RemoveRequest("c", "missing"), ErrNotFound))
	assert.True(t, errors.Is(s.UpdateRequest("c", types.Request{ID: "missing"}), ErrNotFound))
	_, err = s.AddRequest("missing", types.Request{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_Remove(t *testing.T) {
	s := NewStore(types.Collection{ID: "a", Name: "A"}, types.Collection{ID: "b", Name: "B"}, types.Collection{ID: "c", Name: "C"})

	require.NoError(t, s.Remove("b"))

	cols := s.List()
	require.Len(t, cols, 2)
	assert.Equal(t, "a", cols[0].ID)
	assert.Equal(t, "c", cols[1].ID)

	assert.True(t, errors.Is(s.Remove("b"), ErrNotFound))
	_, err := s.Get("b")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_Export(t *testing.T) {
	s := NewDefaultStore()
	cols := s.List()

	data, err := s.Export(cols[0].ID)
	require.NoError(t, err)

	back, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, cols[0].Name, back.Name)
	assert.Len(t, back.Requests, len(cols[0].Requests))

	_, err = s.Export("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_Search(t *testing.T) {
	s := NewDefaultStore()

	matches := s.Search("createpost")
	require.NotEmpty(t, matches)

	var found *Match
	for i := range matches {
		if matches[i].Request.Name == "Create post" {
			found = &matches[i]
		}
	}
	require.NotNil(t, found, "expected Create post among %d matches", len(matches))
	assert.Equal(t, "JSONPlaceholder", found.CollectionName)

	assert.Empty(t, s.Search("zzzzqqq"))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(types.Collection{ID: "c", Name: "C"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.AddRequest("c", types.Request{Name: "r"})
		}()
		go func() {
			defer wg.Done()
			s.List()
		}()
	}
	wg.Wait()

	got, err := s.Get("c")
	require.NoError(t, err)
	assert.Len(t, got.Requests, 50)
}
