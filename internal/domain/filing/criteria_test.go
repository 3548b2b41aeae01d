package filing

import "testing"

func TestSearchCriteria_Matches(t *testing.T) {
	t.Parallel()

	base := Metadata{
		DocID:       "S100TEST",
		DocTypeCode: DocTypeSemiAnnualReport,
		SecCode:     "72030",
		FilerName:   "Example Motor Co., Ltd.",
	}

	cases := []struct {
		name     string
		criteria SearchCriteria
		meta     Metadata
		want     bool
	}{
		{
			name:     "empty criteria admits everything",
			criteria: SearchCriteria{},
			meta:     base,
			want:     true,
		},
		{
			name:     "doc type allowed",
			criteria: SearchCriteria{DocTypeCodes: []string{DocTypeSemiAnnualReport, DocTypeExtraordinaryReport}},
			meta:     base,
			want:     true,
		},
		{
			name:     "doc type rejected",
			criteria: SearchCriteria{DocTypeCodes: []string{DocTypeAnnualReport}},
			meta:     base,
			want:     false,
		},
		{
			name:     "sec code required and missing",
			criteria: SearchCriteria{RequireSecCode: true},
			meta:     Metadata{DocID: "S100FUND", DocTypeCode: DocTypeSemiAnnualReport},
			want:     false,
		},
		{
			name:     "filer name substring case-insensitive",
			criteria: SearchCriteria{FilerNameContains: "example motor"},
			meta:     base,
			want:     true,
		},
		{
			name:     "filer name substring absent",
			criteria: SearchCriteria{FilerNameContains: "holdings"},
			meta:     base,
			want:     false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.criteria.Matches(tc.meta); got != tc.want {
				t.Fatalf("Matches()=%t, want %t", got, tc.want)
			}
		})
	}
}

func TestDocTypeName(t *testing.T) {
	t.Parallel()

	if got := DocTypeName(DocTypeExtraordinaryReport); got != "extraordinary report" {
		t.Fatalf("unexpected name for 180: %q", got)
	}
	if got := DocTypeName("999"); got != "unknown document type" {
		t.Fatalf("unexpected fallback name: %q", got)
	}
}
