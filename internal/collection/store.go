package collection

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/studiowebux/apiprobe/internal/types"
)

// Store holds collections in memory, in insertion order. Getters return deep
// copies; callers mutate through the Store's methods.
type Store struct {
	mu          sync.RWMutex
	collections []types.Collection
}

// NewStore creates a store holding copies of seed
func NewStore(seed ...types.Collection) *Store {
	s := &Store{collections: make([]types.Collection, 0, len(seed))}
	for _, c := range seed {
		s.Add(c)
	}
	return s
}

// NewDefaultStore creates a store seeded with DefaultCollections
func NewDefaultStore() *Store {
	return NewStore(DefaultCollections()...)
}

// Add stores a copy of c and returns it. Missing collection or request IDs are
// generated, as is a new ID when c.ID is already taken. Names may repeat.
func (s *Store) Add(c types.Collection) types.Collection {
	c = c.Clone()
	for i := range c.Requests {
		if c.Requests[i].ID == "" {
			c.Requests[i].ID = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" || s.indexOf(c.ID) >= 0 {
		c.ID = uuid.NewString()
	}
	s.collections = append(s.collections, c)
	return c.Clone()
}

// Import parses data and adds the result. Nothing is stored on error.
func (s *Store) Import(data []byte) (types.Collection, error) {
	c, err := Import(data)
	if err != nil {
		return types.Collection{}, err
	}
	return s.Add(c), nil
}

// Export renders the collection with the given ID
func (s *Store) Export(id string) ([]byte, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return Export(c)
}

// Get returns a copy of the collection with the given ID
func (s *Store) Get(id string) (types.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return types.Collection{}, fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	return s.collections[i].Clone(), nil
}

// List returns copies of every collection in insertion order
func (s *Store) List() []types.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Collection, len(s.collections))
	for i, c := range s.collections {
		out[i] = c.Clone()
	}
	return out
}

// Len returns the number of collections
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections)
}

// Remove deletes the collection with the given ID
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	s.collections = append(s.collections[:i], s.collections[i+1:]...)
	return nil
}

// AddRequest appends req to a collection. An empty ID is generated and an
// empty method defaults to GET.
func (s *Store) AddRequest(collectionID string, req types.Request) (types.Request, error) {
	req = req.Clone()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Method == "" {
		req.Method = types.MethodGet
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(collectionID)
	if i < 0 {
		return types.Request{}, fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	s.collections[i].Requests = append(s.collections[i].Requests, req)
	return req.Clone(), nil
}

// UpdateRequest replaces the request with req.ID in a collection
func (s *Store) UpdateRequest(collectionID string, req types.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(collectionID)
	if i < 0 {
		return fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	for j, r := range s.collections[i].Requests {
		if r.ID == req.ID {
			s.collections[i].Requests[j] = req.Clone()
			return nil
		}
	}
	return fmt.Errorf("request %s: %w", req.ID, ErrNotFound)
}

// RemoveRequest deletes a request from a collection
func (s *Store) RemoveRequest(collectionID, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(collectionID)
	if i < 0 {
		return fmt.Errorf("collection %s: %w", collectionID, ErrNotFound)
	}
	reqs := s.collections[i].Requests
	for j, r := range reqs {
		if r.ID == requestID {
			s.collections[i].Requests = append(reqs[:j], reqs[j+1:]...)
			return nil
		}
	}
	return fmt.Errorf("request %s: %w", requestID, ErrNotFound)
}

// FindRequest looks a request up by ID, then exact name, then name ignoring case
func (s *Store) FindRequest(collectionID, nameOrID string) (types.Request, error) {
	c, err := s.Get(collectionID)
	if err != nil {
		return types.Request{}, err
	}
	return FindRequest(c, nameOrID)
}

// FindRequest looks a request up in c by ID, then exact name, then name ignoring case
func FindRequest(c types.Collection, nameOrID string) (types.Request, error) {
	for _, r := range c.Requests {
		if r.ID == nameOrID {
			return r, nil
		}
	}
	for _, r := range c.Requests {
		if r.Name == nameOrID {
			return r, nil
		}
	}
	for _, r := range c.Requests {
		if strings.EqualFold(r.Name, nameOrID) {
			return r, nil
		}
	}
	return types.Request{}, fmt.Errorf("request %q in collection %q: %w", nameOrID, c.Name, ErrNotFound)
}

// Match is a fuzzy search hit
type Match struct {
	CollectionID   string
	CollectionName string
	Request        types.Request
	Score          int
}

// Search fuzzy-matches query against "collection/request" names and request
// URLs, best matches first
func (s *Store) Search(query string) []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []string
	var refs []Match
	for _, c := range s.collections {
		for _, r := range c.Requests {
			targets = append(targets, c.Name+"/"+r.Name+" "+r.URL)
			refs = append(refs, Match{CollectionID: c.ID, CollectionName: c.Name, Request: r})
		}
	}

	results := fuzzy.Find(query, targets)
	matches := make([]Match, 0, len(results))
	for _, res := range results {
		m := refs[res.Index]
		m.Request = m.Request.Clone()
		m.Score = res.Score
		matches = append(matches, m)
	}
	return matches
}

func (s *Store) indexOf(id string) int {
	for i, c := range s.collections {
		if c.ID == id {
			return i
		}
	}
	return -1
}
