package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/console-conteudo/backend/internal/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryEntry struct {
	seq uint64
	doc document.Document
}

// MemoryRepo is an in-memory repository used by unit tests and local runs
// without a store. Identifiers are ObjectID hex strings like the Mongo repo's.
type MemoryRepo struct {
	mu    sync.RWMutex
	seq   uint64
	store map[string][]memoryEntry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string][]memoryEntry)}
}

func (m *MemoryRepo) Insert(_ context.Context, collection string, doc document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID().Hex()
	stored := make(document.Document, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored[document.FieldID] = id
	m.seq++
	m.store[collection] = append(m.store[collection], memoryEntry{seq: m.seq, doc: stored})
	return id, nil
}

func (m *MemoryRepo) Recent(_ context.Context, collection string, limit int) ([]document.Document, error) {
	m.mu.RLock()
	entries := append([]memoryEntry(nil), m.store[collection]...)
	m.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].doc.CreatedAt(), entries[j].doc.CreatedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].seq > entries[j].seq
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]document.Document, 0, len(entries))
	for _, e := range entries {
		cp := make(document.Document, len(e.doc))
		for k, v := range e.doc {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out, nil
}

// Len returns the number of documents stored in collection.
func (m *MemoryRepo) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store[collection])
}
