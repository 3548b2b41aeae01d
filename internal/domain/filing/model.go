package filing

import (
	"strings"
	"time"
)

// JST is the regulator's local timezone. Filing dates and submission
// timestamps are local to it.
var JST = time.FixedZone("JST", 9*60*60)

// Document type codes from the regulator's filing taxonomy. Codes outside
// this set still flow through the pipeline via the generic processor.
const (
	DocTypeSecuritiesRegistration = "030"
	DocTypeAnnualReport           = "120"
	DocTypeQuarterlyReport        = "140"
	DocTypeSemiAnnualReport       = "160"
	DocTypeExtraordinaryReport    = "180"
	DocTypeLargeHoldingReport     = "350"
)

var docTypeNames = map[string]string{
	DocTypeSecuritiesRegistration: "securities registration statement",
	DocTypeAnnualReport:           "annual securities report",
	DocTypeQuarterlyReport:        "quarterly securities report",
	DocTypeSemiAnnualReport:       "semi-annual securities report",
	DocTypeExtraordinaryReport:    "extraordinary report",
	DocTypeLargeHoldingReport:     "large shareholding report",
}

// DocTypeName resolves a type code to a display name, or "unknown document type".
func DocTypeName(code string) string {
	if name, ok := docTypeNames[code]; ok {
		return name
	}
	return "unknown document type"
}

// Metadata identifies one disclosure document as returned by the list
// endpoint. Immutable once fetched.
type Metadata struct {
	DocID          string
	DocTypeCode    string
	EdinetCode     string
	SecCode        string
	FilerName      string
	DocDescription string
	PeriodStart    string
	PeriodEnd      string
	SubmitAt       time.Time
	FilingDate     time.Time
	CSVAvailable   bool
}

// ArchivePayload holds the raw compressed bytes of one filing's tabular
// export. Owned by the downloader, discarded after extraction.
type ArchivePayload struct {
	DocID string
	Data  []byte
}

// SearchCriteria filters a day's filing list down to documents worth
// processing.
type SearchCriteria struct {
	DocTypeCodes      []string
	RequireSecCode    bool
	FilerNameContains string
}

// Matches reports whether a filing passes the criteria. An empty
// DocTypeCodes list admits every type.
func (c SearchCriteria) Matches(m Metadata) bool {
	if len(c.DocTypeCodes) > 0 {
		found := false
		for _, code := range c.DocTypeCodes {
			if m.DocTypeCode == code {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if c.RequireSecCode && strings.TrimSpace(m.SecCode) == "" {
		return false
	}

	if c.FilerNameContains != "" &&
		!strings.Contains(strings.ToLower(m.FilerName), strings.ToLower(c.FilerNameContains)) {
		return false
	}

	return true
}
