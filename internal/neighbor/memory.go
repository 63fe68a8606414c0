// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package neighbor

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
)

const backendMemory = "memory"

// Vector is one item stored in a MemoryIndex. The JSON shape matches a
// Pinecone vector export: {"id": "1", "values": [...], "metadata": {...}}.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float64      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type memoryItem struct {
	values   []float64
	norm     float64
	metadata map[string]any
}

// MemoryIndex is a brute-force cosine index for development and tests.
type MemoryIndex struct {
	mu    sync.RWMutex
	items map[int]memoryItem
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{items: make(map[int]memoryItem)}
}

// LoadMemoryIndex reads a JSON array of vectors from path.
func LoadMemoryIndex(path string) (*MemoryIndex, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	var vectors []Vector
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("decode vectors: %w", err)
	}

	idx := NewMemoryIndex()
	if err := idx.Upsert(vectors...); err != nil {
		return nil, err
	}
	return idx, nil
}

// Upsert stores vectors, replacing existing ones by id.
func (m *MemoryIndex) Upsert(vectors ...Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range vectors {
		id, err := strconv.Atoi(v.ID)
		if err != nil {
			return fmt.Errorf("vector id %q is not a movie id", v.ID)
		}
		if len(v.Values) == 0 {
			return fmt.Errorf("vector %q has no values", v.ID)
		}
		m.items[id] = memoryItem{
			values:   append([]float64(nil), v.Values...),
			norm:     norm(v.Values),
			metadata: v.Metadata,
		}
	}
	return nil
}

// Len returns the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// QueryNeighbors implements Client. Ties are broken by ascending id.
func (m *MemoryIndex) QueryNeighbors(ctx context.Context, movieID, count int) ([]Match, error) {
	if err := validateCount(count); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &ServiceError{Backend: backendMemory, Op: "query", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	query, ok := m.items[movieID]
	if !ok {
		return nil, noMatches(backendMemory, movieID, "movie has no embedding")
	}

	matches := make([]Match, 0, len(m.items))
	for id, item := range m.items {
		if len(item.values) != len(query.values) {
			continue
		}
		matches = append(matches, Match{
			ItemID:   id,
			Score:    cosine(query, item),
			Metadata: copyMetadata(item.metadata),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ItemID < matches[j].ItemID
	})
	if len(matches) > count {
		matches = matches[:count]
	}
	return matches, nil
}

func cosine(a, b memoryItem) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for i := range a.values {
		dot += a.values[i] * b.values[i]
	}
	return dot / (a.norm * b.norm)
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func copyMetadata(md map[string]any) map[string]any {
	if md == nil {
		return nil
	}
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
