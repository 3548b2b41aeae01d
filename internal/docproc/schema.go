package docproc

import "github.com/kaiseki-dev/edinet-insight/internal/domain/report"

// fieldSpec binds the element identifiers that may carry a data point to its
// canonical field name. Identifier aliases cover the namespaced XBRL form and
// the short form older exports use.
type fieldSpec struct {
	Canonical  string
	Kind       report.FieldKind
	Required   bool
	ElementIDs []string
}

type schema []fieldSpec

// Common cover-page and business-result elements shared across report kinds.
var (
	specFilerName = fieldSpec{
		Canonical: "filer_name",
		Kind:      report.FieldString,
		ElementIDs: []string{
			"jpdei_cor:FilerNameInJapaneseDEI",
			"jpcrp_cor:CompanyNameCoverPage",
			"JPCRP_FilerName",
		},
	}
	specDocumentTitle = fieldSpec{
		Canonical: "document_title",
		Kind:      report.FieldString,
		ElementIDs: []string{
			"jpcrp_cor:DocumentTitleCoverPage",
			"JPCRP_DocumentTitle",
		},
	}
	specNetSales = fieldSpec{
		Canonical: "net_sales",
		Kind:      report.FieldNumber,
		ElementIDs: []string{
			"jpcrp_cor:NetSalesSummaryOfBusinessResults",
			"jpcrp_cor:RevenuesSummaryOfBusinessResults",
			"JPCRP_NetSales",
		},
	}
	specOperatingIncome = fieldSpec{
		Canonical: "operating_income",
		Kind:      report.FieldNumber,
		ElementIDs: []string{
			"jpcrp_cor:OperatingIncomeLossSummaryOfBusinessResults",
			"JPCRP_OperatingIncome",
		},
	}
	specOrdinaryIncome = fieldSpec{
		Canonical: "ordinary_income",
		Kind:      report.FieldNumber,
		ElementIDs: []string{
			"jpcrp_cor:OrdinaryIncomeLossSummaryOfBusinessResults",
			"JPCRP_OrdinaryIncome",
		},
	}
	specNetIncome = fieldSpec{
		Canonical: "net_income",
		Kind:      report.FieldNumber,
		ElementIDs: []string{
			"jpcrp_cor:ProfitLossAttributableToOwnersOfParentSummaryOfBusinessResults",
			"jpcrp_cor:NetIncomeLossSummaryOfBusinessResults",
			"JPCRP_NetIncome",
		},
	}
	specPeriodStart = fieldSpec{
		Canonical: "period_start",
		Kind:      report.FieldDate,
		ElementIDs: []string{
			"jpdei_cor:CurrentFiscalYearStartDateDEI",
			"JPCRP_PeriodStart",
		},
	}
	specPeriodEnd = fieldSpec{
		Canonical: "period_end",
		Kind:      report.FieldDate,
		ElementIDs: []string{
			"jpdei_cor:CurrentFiscalYearEndDateDEI",
			"JPCRP_PeriodEnd",
		},
	}
	specSubmissionReason = fieldSpec{
		Canonical: "submission_reason",
		Kind:      report.FieldString,
		ElementIDs: []string{
			"jpcrp_cor:ReasonForFilingDocumentsCoverPage",
			"JPCRP_SubmissionReason",
		},
	}
)

// genericFields is the best-effort fallback schema. Nothing is required, so
// unregistered document types never fail on gaps.
var genericFields = schema{
	specFilerName,
	specDocumentTitle,
	specNetSales,
	specOperatingIncome,
	specOrdinaryIncome,
	specNetIncome,
}

// semiAnnualFields covers document type 160. Filer name and net sales are
// the two facts every semi-annual report must carry.
var semiAnnualFields = schema{
	required(specFilerName),
	required(specNetSales),
	specDocumentTitle,
	specOperatingIncome,
	specOrdinaryIncome,
	specNetIncome,
	specPeriodStart,
	specPeriodEnd,
}

// extraordinaryFields covers document type 180. Extraordinary reports carry
// no business results, only the filer and the reason for filing.
var extraordinaryFields = schema{
	required(specFilerName),
	specDocumentTitle,
	specSubmissionReason,
}

func required(f fieldSpec) fieldSpec {
	f.Required = true
	return f
}
