package summary

import "time"

type Kind string

const (
	KindOneLine   Kind = "one_line"
	KindExecutive Kind = "executive"
)

// OneLine is the single-sentence digest of a filing.
type OneLine struct {
	CompanyNameEN string `json:"company_name_en" validate:"required"`
	Summary       string `json:"summary" validate:"required"`
}

// Executive is the longer multi-part digest of a filing.
type Executive struct {
	CompanyNameEN            string   `json:"company_name_en" validate:"required"`
	CompanyDescriptionShort  string   `json:"company_description_short" validate:"required"`
	Summary                  string   `json:"summary" validate:"required"`
	KeyHighlights            []string `json:"key_highlights" validate:"required,min=1"`
	PotentialImpactRationale string   `json:"potential_impact_rationale" validate:"required"`
}

// Analysis is one generated summary attached to a filing. Exactly one of
// OneLine/Executive is set, matching Kind.
type Analysis struct {
	DocID       string
	Kind        Kind
	ModelUsed   string
	GeneratedAt time.Time
	OneLine     *OneLine
	Executive   *Executive
}
