package postgres

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/summary"
)

type summaryTableModel struct {
	ID          int64     `db:"id"`
	DocID       string    `db:"doc_id"`
	Kind        string    `db:"kind"`
	ModelUsed   string    `db:"model_used"`
	Payload     string    `db:"payload"`
	GeneratedAt time.Time `db:"generated_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type summaryInsertModel struct {
	DocID       string    `db:"doc_id"`
	Kind        string    `db:"kind"`
	ModelUsed   string    `db:"model_used"`
	Payload     string    `db:"payload"`
	GeneratedAt time.Time `db:"generated_at"`
}

func summaryToInsert(item summary.Analysis) (summaryInsertModel, error) {
	var payload any
	switch item.Kind {
	case summary.KindOneLine:
		if item.OneLine == nil {
			return summaryInsertModel{}, fmt.Errorf("one line payload required for kind %s", item.Kind)
		}
		payload = item.OneLine
	case summary.KindExecutive:
		if item.Executive == nil {
			return summaryInsertModel{}, fmt.Errorf("executive payload required for kind %s", item.Kind)
		}
		payload = item.Executive
	default:
		return summaryInsertModel{}, fmt.Errorf("unknown summary kind %q", item.Kind)
	}

	raw, err := jsoniter.Marshal(payload)
	if err != nil {
		return summaryInsertModel{}, fmt.Errorf("marshal summary payload: %w", err)
	}

	return summaryInsertModel{
		DocID:       item.DocID,
		Kind:        string(item.Kind),
		ModelUsed:   item.ModelUsed,
		Payload:     string(raw),
		GeneratedAt: item.GeneratedAt.UTC(),
	}, nil
}

func summaryFromRow(row summaryTableModel) (summary.Analysis, error) {
	item := summary.Analysis{
		DocID:       row.DocID,
		Kind:        summary.Kind(row.Kind),
		ModelUsed:   row.ModelUsed,
		GeneratedAt: row.GeneratedAt,
	}

	switch item.Kind {
	case summary.KindOneLine:
		var payload summary.OneLine
		if err := jsoniter.Unmarshal([]byte(row.Payload), &payload); err != nil {
			return summary.Analysis{}, fmt.Errorf("unmarshal one line summary doc_id=%s: %w", row.DocID, err)
		}
		item.OneLine = &payload
	case summary.KindExecutive:
		var payload summary.Executive
		if err := jsoniter.Unmarshal([]byte(row.Payload), &payload); err != nil {
			return summary.Analysis{}, fmt.Errorf("unmarshal executive summary doc_id=%s: %w", row.DocID, err)
		}
		item.Executive = &payload
	default:
		return summary.Analysis{}, fmt.Errorf("unknown summary kind %q doc_id=%s", row.Kind, row.DocID)
	}

	return item, nil
}
