// Package reconcile combines the codes found in up to two documents with a
// pasted VOCI list into one ordered, provenance-labelled result list.
package reconcile

import (
	"strconv"
	"strings"

	"github.com/a3tai/mcp-wers-reader/internal/codes"
)

const (
	// MinutesPerCode is the CFD completion effort per counted code
	MinutesPerCode = 4
	// HoursPerDay is the working day length
	HoursPerDay = 8
	// BufferDays is always added to the estimate
	BufferDays = 1
)

// Label says where a code was found
type Label int

const (
	LabelVociOnly Label = iota
	LabelVociDoc1Doc2
	LabelVociDoc1
	LabelVociDoc2
	LabelDoc1Only
	LabelDoc2Only
)

var labelNames = [...]string{
	LabelVociOnly:     "VOCI Only",
	LabelVociDoc1Doc2: "Both VOCI and WERS Document 1 and 2",
	LabelVociDoc1:     "Both VOCI and WERS Document 1",
	LabelVociDoc2:     "Both VOCI and WERS Document 2",
	LabelDoc1Only:     "WERS Document 1 Only",
	LabelDoc2Only:     "WERS Document 2 Only",
}

// Labels lists every label in priority order
func Labels() []Label {
	return []Label{LabelVociOnly, LabelVociDoc1Doc2, LabelVociDoc1, LabelVociDoc2, LabelDoc1Only, LabelDoc2Only}
}

func (l Label) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return "Unknown"
	}
	return labelNames[l]
}

// MarshalText renders the label by name in JSON and YAML output
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Result is one reconciled code
type Result struct {
	Code        string `json:"code" yaml:"code"`
	Label       Label  `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// Metrics is the CFD completion time estimate over the non VOCI-only
// results. Hours and days are rounded to two decimals.
type Metrics struct {
	TotalCodes   int     `json:"total_codes" yaml:"total_codes"`
	TotalMinutes int     `json:"total_minutes" yaml:"total_minutes"`
	TotalHours   float64 `json:"total_hours" yaml:"total_hours"`
	BaseDays     float64 `json:"base_days" yaml:"base_days"`
	BufferDays   int     `json:"buffer_days" yaml:"buffer_days"`
	TotalDays    float64 `json:"total_days" yaml:"total_days"`
	HasEntityMPV bool    `json:"has_entity_mpv" yaml:"has_entity_mpv"`
}

// Input holds everything the engine reconciles
type Input struct {
	InputCodes   []string
	VociCodes    []string
	FoundDoc1    codes.Set
	FoundDoc2    codes.Set
	Descriptions map[string]string
}

// Outcome is the ordered result list plus metrics
type Outcome struct {
	Results []Result `json:"results" yaml:"results"`
	Metrics Metrics  `json:"metrics" yaml:"metrics"`
}

// Reconcile labels every input code by priority, dropping codes found
// nowhere, then appends VOCI codes missing from the input list as VOCI only.
func Reconcile(in Input) Outcome {
	vociAlone := VociAlone(in.VociCodes, in.FoundDoc1, in.FoundDoc2)
	commonDoc1 := Intersect(in.VociCodes, in.FoundDoc1)
	commonDoc2 := Intersect(in.VociCodes, in.FoundDoc2)

	results := make([]Result, 0, len(in.InputCodes)+len(in.VociCodes))
	for _, code := range in.InputCodes {
		var label Label
		switch {
		case vociAlone.Has(code):
			label = LabelVociOnly
		case commonDoc1.Has(code) && commonDoc2.Has(code):
			label = LabelVociDoc1Doc2
		case commonDoc1.Has(code):
			label = LabelVociDoc1
		case commonDoc2.Has(code):
			label = LabelVociDoc2
		case in.FoundDoc1.Has(code):
			label = LabelDoc1Only
		case in.FoundDoc2.Has(code):
			label = LabelDoc2Only
		default:
			continue
		}
		results = append(results, Result{Code: code, Label: label, Description: in.Descriptions[code]})
	}

	inputSet := codes.NewSet(in.InputCodes...)
	for _, code := range in.VociCodes {
		if inputSet.Has(code) {
			continue
		}
		results = append(results, Result{Code: code, Label: LabelVociOnly, Description: in.Descriptions[code]})
	}

	return Outcome{Results: results, Metrics: Estimate(results)}
}

// VociAlone returns the VOCI codes found in neither document
func VociAlone(voci []string, foundDoc1, foundDoc2 codes.Set) codes.Set {
	out := make(codes.Set)
	for _, code := range voci {
		if !foundDoc1.Has(code) && !foundDoc2.Has(code) {
			out[code] = struct{}{}
		}
	}
	return out
}

// Intersect returns the VOCI codes present in found
func Intersect(voci []string, found codes.Set) codes.Set {
	out := make(codes.Set)
	for _, code := range voci {
		if found.Has(code) {
			out[code] = struct{}{}
		}
	}
	return out
}

// Estimate computes the completion metrics. The one day buffer is always
// applied; HasEntityMPV only flags ENTITY or MPV$ codes for display.
func Estimate(results []Result) Metrics {
	m := Metrics{BufferDays: BufferDays}
	for _, r := range results {
		if r.Label == LabelVociOnly {
			continue
		}
		m.TotalCodes++
		upper := strings.ToUpper(r.Code)
		if strings.Contains(upper, "ENTITY") || strings.Contains(upper, "MPV$") {
			m.HasEntityMPV = true
		}
	}

	m.TotalMinutes = m.TotalCodes * MinutesPerCode
	hours := float64(m.TotalMinutes) / 60
	baseDays := hours / HoursPerDay

	m.TotalHours = round2(hours)
	m.BaseDays = round2(baseDays)
	m.TotalDays = round2(baseDays + float64(m.BufferDays))
	return m
}

// round2 rounds the exact binary value to two decimals, ties to even.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
