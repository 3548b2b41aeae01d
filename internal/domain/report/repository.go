package report

import "context"

type Repository interface {
	Upsert(ctx context.Context, rec Record) error
	GetByDocID(ctx context.Context, docID string) (Record, bool, error)
}
