package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-wers-reader/internal/codes"
)

func TestReconcile_LabelPriority(t *testing.T) {
	in := Input{
		InputCodes: []string{"VOCI1", "BOTH2", "VDOC1", "VDOC2", "DOC1X", "DOC2X", "NONEX"},
		VociCodes:  []string{"VOCI1", "BOTH2", "VDOC1", "VDOC2"},
		FoundDoc1:  codes.NewSet("BOTH2", "VDOC1", "DOC1X"),
		FoundDoc2:  codes.NewSet("BOTH2", "VDOC2", "DOC2X"),
		Descriptions: map[string]string{
			"DOC1X": "Power Moonroof",
		},
	}

	out := Reconcile(in)

	want := []Result{
		{Code: "VOCI1", Label: LabelVociOnly},
		{Code: "BOTH2", Label: LabelVociDoc1Doc2},
		{Code: "VDOC1", Label: LabelVociDoc1},
		{Code: "VDOC2", Label: LabelVociDoc2},
		{Code: "DOC1X", Label: LabelDoc1Only, Description: "Power Moonroof"},
		{Code: "DOC2X", Label: LabelDoc2Only},
	}
	assert.Equal(t, want, out.Results)
}

func TestReconcile_DocumentOneWinsOverTwoWithoutVoci(t *testing.T) {
	out := Reconcile(Input{
		InputCodes: []string{"ABCDE"},
		FoundDoc1:  codes.NewSet("ABCDE"),
		FoundDoc2:  codes.NewSet("ABCDE"),
	})

	require.Len(t, out.Results, 1)
	assert.Equal(t, LabelDoc1Only, out.Results[0].Label)
}

func TestReconcile_DuplicateInputCodesPreserved(t *testing.T) {
	out := Reconcile(Input{
		InputCodes: []string{"ABCDE", "FGHIJ", "ABCDE"},
		FoundDoc1:  codes.NewSet("ABCDE", "FGHIJ"),
	})

	codesOut := make([]string, len(out.Results))
	for i, r := range out.Results {
		codesOut[i] = r.Code
	}
	assert.Equal(t, []string{"ABCDE", "FGHIJ", "ABCDE"}, codesOut)
	assert.Equal(t, 3, out.Metrics.TotalCodes)
}

func TestReconcile_VociAppend(t *testing.T) {
	out := Reconcile(Input{
		VociCodes: []string{"ZZZZZ"},
		FoundDoc1: codes.NewSet(),
	})

	assert.Equal(t, []Result{{Code: "ZZZZZ", Label: LabelVociOnly, Description: ""}}, out.Results)
	assert.Equal(t, 0, out.Metrics.TotalCodes)
}

func TestReconcile_VociAppendIgnoresDocumentPresence(t *testing.T) {
	out := Reconcile(Input{
		InputCodes:   []string{"ABCDE"},
		VociCodes:    []string{"FGHIJ", "ABCDE", "KLMNO"},
		FoundDoc1:    codes.NewSet("ABCDE", "FGHIJ"),
		Descriptions: map[string]string{"KLMNO": "Heated Seats"},
	})

	assert.Equal(t, []Result{
		{Code: "ABCDE", Label: LabelVociDoc1},
		{Code: "FGHIJ", Label: LabelVociOnly},
		{Code: "KLMNO", Label: LabelVociOnly, Description: "Heated Seats"},
	}, out.Results)
}

func TestReconcile_EmptyInputs(t *testing.T) {
	out := Reconcile(Input{})
	assert.Empty(t, out.Results)
	assert.Equal(t, Metrics{BufferDays: 1, TotalDays: 1}, out.Metrics)
}

func TestReconcile_Idempotent(t *testing.T) {
	in := Input{
		InputCodes:   []string{"ABCDE", "FGHIJ", "KLMNO"},
		VociCodes:    []string{"KLMNO", "PQRST"},
		FoundDoc1:    codes.NewSet("ABCDE"),
		FoundDoc2:    codes.NewSet("FGHIJ", "KLMNO"),
		Descriptions: map[string]string{"ABCDE": "Stripe"},
	}

	first := Reconcile(in)
	second := Reconcile(in)
	assert.Equal(t, first, second)
}

func TestVociAloneDisjointFromDocuments(t *testing.T) {
	voci := []string{"AAAAA", "BBBBB", "CCCCC", "DDDDD"}
	doc1 := codes.NewSet("AAAAA", "CCCCC")
	doc2 := codes.NewSet("CCCCC", "DDDDD")

	alone := VociAlone(voci, doc1, doc2)
	assert.Equal(t, []string{"BBBBB"}, alone.Sorted())
	for code := range alone {
		assert.False(t, doc1.Has(code))
		assert.False(t, doc2.Has(code))
	}

	assert.Equal(t, []string{"AAAAA", "CCCCC"}, Intersect(voci, doc1).Sorted())
	assert.Empty(t, Intersect(voci, nil))
}

func TestEstimate_Scenario(t *testing.T) {
	out := Reconcile(Input{
		InputCodes: []string{"ABCDE", "FGHIJ"},
		FoundDoc1:  codes.NewSet("ABCDE", "FGHIJ"),
	})

	assert.Equal(t, Metrics{
		TotalCodes:   2,
		TotalMinutes: 8,
		TotalHours:   0.13,
		BaseDays:     0.02,
		BufferDays:   1,
		TotalDays:    1.02,
		HasEntityMPV: false,
	}, out.Metrics)
}

func TestEstimate_EntityAndMPVFlag(t *testing.T) {
	m := Estimate([]Result{
		{Code: "MPV$", Label: LabelDoc1Only},
		{Code: "ENTITY", Label: LabelVociOnly},
	})
	assert.True(t, m.HasEntityMPV)
	assert.Equal(t, 1, m.TotalCodes)
	assert.Equal(t, 1, m.BufferDays)

	m = Estimate([]Result{{Code: "entity", Label: LabelVociOnly}})
	assert.False(t, m.HasEntityMPV, "VOCI-only codes are not counted")

	m = Estimate([]Result{{Code: "xentityx", Label: LabelDoc2Only}})
	assert.True(t, m.HasEntityMPV, "the check is case-insensitive")
}

func TestEstimate_LargeCount(t *testing.T) {
	results := make([]Result, 120)
	for i := range results {
		results[i] = Result{Code: "ABCDE", Label: LabelDoc1Only}
	}

	m := Estimate(results)
	assert.Equal(t, 480, m.TotalMinutes)
	assert.Equal(t, 8.0, m.TotalHours)
	assert.Equal(t, 1.0, m.BaseDays)
	assert.Equal(t, 2.0, m.TotalDays)
}

func TestEstimate_Rounding(t *testing.T) {
	tests := []struct {
		codes     int
		hours     float64
		baseDays  float64
		totalDays float64
	}{
		{codes: 9, hours: 0.6, baseDays: 0.07, totalDays: 1.07},
		{codes: 15, hours: 1, baseDays: 0.12, totalDays: 1.12},
		{codes: 39, hours: 2.6, baseDays: 0.33, totalDays: 1.32},
		{codes: 75, hours: 5, baseDays: 0.62, totalDays: 1.62},
	}

	for _, tt := range tests {
		results := make([]Result, tt.codes)
		for i := range results {
			results[i] = Result{Code: "ABCDE", Label: LabelDoc1Only}
		}

		m := Estimate(results)
		assert.Equal(t, tt.hours, m.TotalHours, "hours for %d codes", tt.codes)
		assert.Equal(t, tt.baseDays, m.BaseDays, "base days for %d codes", tt.codes)
		assert.Equal(t, tt.totalDays, m.TotalDays, "total days for %d codes", tt.codes)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "VOCI Only", LabelVociOnly.String())
	assert.Equal(t, "Both VOCI and WERS Document 1 and 2", LabelVociDoc1Doc2.String())
	assert.Equal(t, "WERS Document 2 Only", LabelDoc2Only.String())
	assert.Equal(t, "Unknown", Label(42).String())

	text, err := LabelVociDoc1.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Both VOCI and WERS Document 1", string(text))

	assert.Len(t, Labels(), 6)
}
