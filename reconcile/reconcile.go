// Package reconcile checks that the share field across every step record
// adds up to the allocation target. Sums use decimal arithmetic so that a
// set of shares such as 33.3, 33.3 and 33.4 reconciles exactly to 100.
package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest/step"
)

// DefaultTarget is the sum every allocation must reach.
var DefaultTarget = decimal.NewFromInt(100)

// Result is the outcome of reconciling a full set of records. It is
// produced once, at finalization, and is never persisted by the core.
type Result struct {
	Success    bool            `json:"success"`
	Total      decimal.Decimal `json:"total"`
	Records    []step.Record   `json:"records"`
	ShareField string          `json:"share_field,omitempty"`
}

// Reconcile sums shareField across records and compares it with target.
// A missing or unparseable share counts as zero. The returned records are
// copies ordered by index; the input is left untouched.
func Reconcile(records []step.Record, shareField string, target decimal.Decimal) *Result {
	byIndex := make(map[int]*step.Record, len(records))
	for i := range records {
		r := records[i]
		r.Fields = r.Fields.Clone()
		byIndex[r.Index] = &r
	}
	ordered := step.Ordered(byIndex)

	total := decimal.Zero
	for _, r := range ordered {
		total = total.Add(Share(r, shareField))
	}

	return &Result{
		Success:    total.Equal(target),
		Total:      total,
		Records:    ordered,
		ShareField: shareField,
	}
}

// Share returns the numeric value of field in r, or zero when it is
// absent or not a number.
func Share(r step.Record, field string) decimal.Decimal {
	raw := strings.TrimSpace(r.Fields[field])
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
