package edinet

import (
	"strings"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
)

// Wire shapes of the document list endpoint. Unknown fields are ignored so
// additive API changes do not break decoding.

type documentListEnvelope struct {
	Metadata listMetadata     `json:"metadata"`
	Results  []documentResult `json:"results"`
}

type listMetadata struct {
	Title           string        `json:"title"`
	Status          string        `json:"status"` // API-level status, distinct from HTTP status
	Message         string        `json:"message"`
	ProcessDateTime string        `json:"processDateTime"`
	Resultset       listResultset `json:"resultset"`
}

type listResultset struct {
	Count int `json:"count"`
}

type documentResult struct {
	SeqNumber        int     `json:"seqNumber"`
	DocID            string  `json:"docID"`
	EdinetCode       *string `json:"edinetCode"` // null for some foreign filers
	SecCode          *string `json:"secCode"`    // null when the filer is unlisted
	JCN              *string `json:"JCN"`
	FilerName        *string `json:"filerName"`
	FundCode         *string `json:"fundCode"` // set only for fund filings
	OrdinanceCode    *string `json:"ordinanceCode"`
	FormCode         *string `json:"formCode"`
	DocTypeCode      *string `json:"docTypeCode"`
	PeriodStart      *string `json:"periodStart"`
	PeriodEnd        *string `json:"periodEnd"`
	SubmitDateTime   string  `json:"submitDateTime"`
	DocDescription   *string `json:"docDescription"`
	IssuerEdinetCode *string `json:"issuerEdinetCode"`
	CsvFlag          string  `json:"csvFlag"`
	WithdrawalStatus string  `json:"withdrawalStatus"`
	LegalStatus      string  `json:"legalStatus"`
}

const submitTimeLayout = "2006-01-02 15:04"

func (r documentResult) toMetadata(date time.Time) filing.Metadata {
	m := filing.Metadata{
		DocID:          strings.TrimSpace(r.DocID),
		DocTypeCode:    deref(r.DocTypeCode),
		EdinetCode:     deref(r.EdinetCode),
		SecCode:        deref(r.SecCode),
		FilerName:      strings.TrimSpace(deref(r.FilerName)),
		DocDescription: strings.TrimSpace(deref(r.DocDescription)),
		PeriodStart:    deref(r.PeriodStart),
		PeriodEnd:      deref(r.PeriodEnd),
		FilingDate:     date,
		CSVAvailable:   r.CsvFlag == "1",
	}

	if parsed, err := time.ParseInLocation(submitTimeLayout, strings.TrimSpace(r.SubmitDateTime), filing.JST); err == nil {
		m.SubmitAt = parsed
	}

	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
