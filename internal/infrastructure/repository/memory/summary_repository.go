package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/summary"
)

type SummaryRepository struct {
	mu    sync.RWMutex
	items map[string][]summary.Analysis
}

func NewSummaryRepository() *SummaryRepository {
	return &SummaryRepository{
		items: make(map[string][]summary.Analysis),
	}
}

// UpsertMany replaces any existing summary of the same kind per document.
func (r *SummaryRepository) UpsertMany(_ context.Context, items []summary.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.DocID == "" {
			continue
		}
		existing := r.items[item.DocID]
		replaced := false
		for i := range existing {
			if existing[i].Kind == item.Kind {
				existing[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, item)
		}
		r.items[item.DocID] = existing
	}

	return nil
}

func (r *SummaryRepository) ListByDocID(_ context.Context, docID string) ([]summary.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.items[docID]
	out := make([]summary.Analysis, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}
