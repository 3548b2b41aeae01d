package memory

import (
	"context"
	"sync"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
)

type RecordRepository struct {
	mu    sync.RWMutex
	items map[string]report.Record
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{
		items: make(map[string]report.Record),
	}
}

// Upsert stores a defensive copy so callers cannot alter a stored record
// through the shared field map.
func (r *RecordRepository) Upsert(_ context.Context, record report.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.Fields = record.Fields.Clone()
	r.items[record.DocID] = record
	return nil
}

func (r *RecordRepository) GetByDocID(_ context.Context, docID string) (report.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.items[docID]
	if !ok {
		return report.Record{}, false, nil
	}
	record.Fields = record.Fields.Clone()
	return record, true, nil
}
