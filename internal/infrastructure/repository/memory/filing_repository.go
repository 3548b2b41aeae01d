package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
)

type FilingRepository struct {
	mu    sync.RWMutex
	items map[string]filing.Metadata
	order []string
}

func NewFilingRepository() *FilingRepository {
	return &FilingRepository{
		items: make(map[string]filing.Metadata),
	}
}

func (r *FilingRepository) UpsertMany(_ context.Context, items []filing.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.DocID == "" {
			continue
		}
		if _, exists := r.items[item.DocID]; !exists {
			r.order = append(r.order, item.DocID)
		}
		r.items[item.DocID] = item
	}

	return nil
}

func (r *FilingRepository) GetByDocID(_ context.Context, docID string) (filing.Metadata, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[docID]
	if !ok {
		return filing.Metadata{}, false, nil
	}
	return item, true, nil
}

func (r *FilingRepository) ListByDate(_ context.Context, date time.Time, docTypeCodes []string) ([]filing.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wantDay := date.In(filing.JST).Format("2006-01-02")
	allowed := make(map[string]struct{}, len(docTypeCodes))
	for _, code := range docTypeCodes {
		allowed[code] = struct{}{}
	}

	out := make([]filing.Metadata, 0, len(r.order))
	for _, docID := range r.order {
		item := r.items[docID]
		if item.FilingDate.In(filing.JST).Format("2006-01-02") != wantDay {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[item.DocTypeCode]; !ok {
				continue
			}
		}
		out = append(out, item)
	}

	return out, nil
}
