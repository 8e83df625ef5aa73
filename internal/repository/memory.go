package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"freightdesk/internal/model"
	"freightdesk/pkg/apierror"
)

type collectionData struct {
	order []string
	byID  map[string]model.Record
}

// MemoryStore keeps records in process memory; it backs the sandbox when no
// database is configured and every service test.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*collectionData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]*collectionData{}}
}

func (s *MemoryStore) collection(name string) *collectionData {
	data, ok := s.collections[name]
	if !ok {
		data = &collectionData{byID: map[string]model.Record{}}
		s.collections[name] = data
	}
	return data
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection]
	if !ok {
		return []model.Record{}, nil
	}

	out := make([]model.Record, 0, len(data.order))
	for _, id := range data.order {
		out = append(out, data.byID[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, collection string, id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection]
	if !ok {
		return nil, notFound(collection, id)
	}
	rec, ok := data.byID[id]
	if !ok {
		return nil, notFound(collection, id)
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) FindBy(_ context.Context, collection string, field string, value string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if data, ok := s.collections[collection]; ok {
		for _, id := range data.order {
			rec := data.byID[id]
			if strings.EqualFold(rec.String(field), value) {
				return rec.Clone(), nil
			}
		}
	}

	return nil, notFound(collection, field+"="+value)
}

func (s *MemoryStore) Insert(_ context.Context, collection string, rec model.Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("insert into %s: %w", collection, model.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.collection(collection)
	if _, exists := data.byID[id]; exists {
		return apierror.Conflict("Record already exists", collection+"/"+id)
	}

	data.byID[id] = rec.Clone()
	data.order = append(data.order, id)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, collection string, rec model.Record) error {
	id := rec.ID()

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.collections[collection]
	if !ok {
		return notFound(collection, id)
	}
	if _, exists := data.byID[id]; !exists {
		return notFound(collection, id)
	}

	data.byID[id] = rec.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.collections[collection]
	if !ok {
		return notFound(collection, id)
	}
	if _, exists := data.byID[id]; !exists {
		return notFound(collection, id)
	}

	delete(data.byID, id)
	for i, existing := range data.order {
		if existing == id {
			data.order = append(data.order[:i], data.order[i+1:]...)
			break
		}
	}
	return nil
}
