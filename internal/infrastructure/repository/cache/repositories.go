package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	basecache "github.com/kaiseki-dev/edinet-insight/internal/platform/cache"
)

type FilingRepository struct {
	next  filing.Repository
	cache *basecache.Store
}

func NewFilingRepository(next filing.Repository, cache *basecache.Store) *FilingRepository {
	return &FilingRepository{next: next, cache: cache}
}

func (r *FilingRepository) UpsertMany(ctx context.Context, items []filing.Metadata) error {
	if err := r.next.UpsertMany(ctx, items); err != nil {
		return err
	}

	for _, item := range items {
		r.cache.Delete(ctx, filingByIDKey(item.DocID))
	}
	r.cache.DeletePrefix(ctx, filingListPrefix)
	return nil
}

func (r *FilingRepository) GetByDocID(ctx context.Context, docID string) (filing.Metadata, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, filingByIDKey(docID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByDocID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return cachedFilingByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return filing.Metadata{}, false, err
	}

	cached, _ := v.(cachedFilingByID)
	return cached.value, cached.exists, nil
}

func (r *FilingRepository) ListByDate(ctx context.Context, date time.Time, docTypeCodes []string) ([]filing.Metadata, error) {
	key := filingListKey(date, docTypeCodes)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByDate(ctx, date, docTypeCodes)
		if err != nil {
			return nil, err
		}
		return append([]filing.Metadata(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]filing.Metadata)
	return append([]filing.Metadata(nil), items...), nil
}

type cachedFilingByID struct {
	value  filing.Metadata
	exists bool
}

type RecordRepository struct {
	next  report.Repository
	cache *basecache.Store
}

func NewRecordRepository(next report.Repository, cache *basecache.Store) *RecordRepository {
	return &RecordRepository{next: next, cache: cache}
}

func (r *RecordRepository) Upsert(ctx context.Context, rec report.Record) error {
	if err := r.next.Upsert(ctx, rec); err != nil {
		return err
	}
	r.cache.Delete(ctx, recordByIDKey(rec.DocID))
	return nil
}

func (r *RecordRepository) GetByDocID(ctx context.Context, docID string) (report.Record, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, recordByIDKey(docID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByDocID(ctx, docID)
		if err != nil {
			return nil, err
		}
		return cachedRecordByID{value: cloneRecord(item), exists: exists}, nil
	})
	if err != nil {
		return report.Record{}, false, err
	}

	cached, _ := v.(cachedRecordByID)
	return cloneRecord(cached.value), cached.exists, nil
}

type cachedRecordByID struct {
	value  report.Record
	exists bool
}

func cloneRecord(rec report.Record) report.Record {
	out := rec
	out.Fields = rec.Fields.Clone()
	return out
}

const filingListPrefix = "filing:list:"

func filingByIDKey(docID string) string {
	return "filing:id:" + docID
}

func recordByIDKey(docID string) string {
	return "record:id:" + docID
}

func filingListKey(date time.Time, docTypeCodes []string) string {
	codes := append([]string(nil), docTypeCodes...)
	sort.Strings(codes)
	return filingListPrefix + date.In(filing.JST).Format("2006-01-02") + ":" + strings.Join(codes, ",")
}
