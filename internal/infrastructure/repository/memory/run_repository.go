package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
)

type RunRepository struct {
	mu    sync.RWMutex
	items map[string]pipeline.Run
	order []string
}

func NewRunRepository() *RunRepository {
	return &RunRepository{
		items: make(map[string]pipeline.Run),
	}
}

func (r *RunRepository) Create(_ context.Context, run pipeline.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[run.RunID]; exists {
		return fmt.Errorf("pipeline run already exists run_id=%s", run.RunID)
	}
	r.items[run.RunID] = run
	r.order = append(r.order, run.RunID)
	return nil
}

func (r *RunRepository) Update(_ context.Context, run pipeline.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[run.RunID]; !exists {
		return fmt.Errorf("pipeline run not found run_id=%s", run.RunID)
	}
	r.items[run.RunID] = run
	return nil
}

func (r *RunRepository) GetByRunID(_ context.Context, runID string) (pipeline.Run, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.items[runID]
	if !ok {
		return pipeline.Run{}, false, nil
	}
	return run, true, nil
}

// ListRecent returns up to limit runs, newest first by creation order.
func (r *RunRepository) ListRecent(_ context.Context, limit int) ([]pipeline.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}

	out := make([]pipeline.Run, 0, limit)
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.items[r.order[i]])
	}
	return out, nil
}
