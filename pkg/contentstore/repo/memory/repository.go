package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/openlearntech/contentstore/pkg/contentstore"
)

// Repository implements contentstore.Repository using in-memory storage.
// Documents are kept in serialized form so the JSON-validity invariant is
// enforced at the same boundary as the relational repositories, and so
// callers cannot mutate stored state through shared maps.
type Repository struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]record
}

type record struct {
	metadata   []byte
	parameters []byte
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{records: make(map[int64]record)}
}

// EnsureSchema is a no-op for the in-memory repository.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	return nil
}

func (r *Repository) Upsert(ctx context.Context, contentID *int64, metadata, parameters contentstore.Document) (int64, error) {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("%w: metadata: %v", contentstore.ErrInvalidDocument, err)
	}
	parametersJSON, err := json.Marshal(parameters)
	if err != nil {
		return 0, fmt.Errorf("%w: parameters: %v", contentstore.ErrInvalidDocument, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var id int64
	if contentID != nil {
		id = *contentID
		if id > r.nextID {
			r.nextID = id
		}
	} else {
		r.nextID++
		id = r.nextID
	}

	r.records[id] = record{metadata: metadataJSON, parameters: parametersJSON}
	return id, nil
}

func (r *Repository) Exists(ctx context.Context, contentID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[contentID]
	return ok, nil
}

func (r *Repository) GetMetadata(ctx context.Context, contentID int64) (contentstore.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[contentID]
	if !ok {
		return nil, nil
	}
	return decodeDocument(rec.metadata)
}

func (r *Repository) GetParameters(ctx context.Context, contentID int64) (contentstore.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[contentID]
	if !ok {
		return nil, nil
	}
	return decodeDocument(rec.parameters)
}

func (r *Repository) ListIDs(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.records))
	for id, rec := range r.records {
		if rec.metadata == nil || string(rec.metadata) == "null" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Repository) Delete(ctx context.Context, contentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, contentID)
	return nil
}

func decodeDocument(data []byte) (contentstore.Document, error) {
	var doc contentstore.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	return doc, nil
}
