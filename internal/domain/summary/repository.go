package summary

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Analysis) error
	ListByDocID(ctx context.Context, docID string) ([]Analysis, error)
}
