package compiler

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
)

// shardCount is the number of stripes the in-progress tools map is split
// across during a concurrent compile run. A power of two so the xxhash
// bucket mask is a cheap AND.
const shardCount = 16

// shardedToolMap is a concurrent insertion primitive for the compiler's
// in-progress tools map: "first writer wins" semantics, sharded
// by an xxhash of the tool name so concurrent endpoint processing doesn't
// serialize on one mutex. Deterministic collision resolution is guaranteed
// by the stable hash suffix (name.go), not by insertion order, so the
// sharding introduces no nondeterminism into the final snapshot.
type shardedToolMap struct {
	shards [shardCount]struct {
		mu   sync.Mutex
		data map[string]tool.Descriptor
	}
}

func newShardedToolMap() *shardedToolMap {
	m := &shardedToolMap{}
	for i := range m.shards {
		m.shards[i].data = make(map[string]tool.Descriptor)
	}
	return m
}

func (m *shardedToolMap) shardFor(name string) *struct {
	mu   sync.Mutex
	data map[string]tool.Descriptor
} {
	idx := xxhash.Sum64String(name) % shardCount
	return &m.shards[idx]
}

// Has reports whether name is already present.
func (m *shardedToolMap) Has(name string) bool {
	s := m.shardFor(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[name]
	return ok
}

// InsertIfAbsent stores d under name only if name is not already present.
// Returns true if this call performed the insertion ("first writer wins").
func (m *shardedToolMap) InsertIfAbsent(name string, d tool.Descriptor) bool {
	s := m.shardFor(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[name]; exists {
		return false
	}
	s.data[name] = d
	return true
}

// Snapshot copies all entries into a plain map, for publishing into a
// tool.CatalogSnapshot once the compile run is complete.
func (m *shardedToolMap) Snapshot() map[string]tool.Descriptor {
	out := make(map[string]tool.Descriptor)
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, v := range s.data {
			out[k] = v
		}
		s.mu.Unlock()
	}
	return out
}
