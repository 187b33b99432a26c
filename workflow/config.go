package workflow

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest/reconcile"
)

// Config is fixed when a workflow starts.
type Config struct {
	// TotalSteps is the number of steps, at least 1.
	TotalSteps int `json:"total_steps"`

	// ShareField names the field summed at finalization.
	ShareField string `json:"share_field"`

	// TargetSum is the total the shares must reach. Zero means 100.
	TargetSum decimal.Decimal `json:"target_sum"`
}

// Validate reports a *ConfigError when the config cannot start a workflow.
func (c Config) Validate() error {
	if c.TotalSteps < 1 {
		return &ConfigError{Reason: "step count must be at least 1, got " + strconv.Itoa(c.TotalSteps)}
	}
	if strings.TrimSpace(c.ShareField) == "" {
		return &ConfigError{Reason: "share field is required"}
	}
	if c.TargetSum.IsNegative() {
		return &ConfigError{Reason: "target sum must not be negative"}
	}
	return nil
}

// Target returns TargetSum, or the default of 100 when unset.
func (c Config) Target() decimal.Decimal {
	if c.TargetSum.IsZero() {
		return reconcile.DefaultTarget
	}
	return c.TargetSum
}

// ParseStepCount parses the step count handed to the workflow by the page
// that chose it. A missing, non-integer or non-positive count is a
// *ConfigError.
func ParseStepCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ConfigError{Reason: "step count is missing"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Reason: "step count " + strconv.Quote(raw) + " is not an integer"}
	}
	if n < 1 {
		return 0, &ConfigError{Reason: "step count must be at least 1, got " + raw}
	}
	return n, nil
}
