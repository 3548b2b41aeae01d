package filing

import (
	"context"
	"time"
)

type Repository interface {
	UpsertMany(ctx context.Context, items []Metadata) error
	GetByDocID(ctx context.Context, docID string) (Metadata, bool, error)
	ListByDate(ctx context.Context, date time.Time, docTypeCodes []string) ([]Metadata, error)
}
