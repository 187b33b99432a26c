package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/validate"
)

// ConfigError reports a workflow that cannot start.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "bequest: invalid workflow config: " + e.Reason }

// Unwrap returns bequest.ErrConfig.
func (e *ConfigError) Unwrap() error { return bequest.ErrConfig }

// ValidationError reports a submit that was blocked because the active
// step's draft is not valid. Fields holds the last computed field errors
// and may be empty when the surface validated the draft itself. An Index
// of zero means a form outside the step sequence, such as the owner form.
type ValidationError struct {
	Index  int
	Fields validate.Errors
}

func (e *ValidationError) Error() string {
	subject := "form"
	if e.Index > 0 {
		subject = fmt.Sprintf("step %d", e.Index)
	}
	if len(e.Fields) == 0 {
		return "bequest: " + subject + " is not valid"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("bequest: %s is not valid: %s", subject, strings.Join(names, ", "))
}

// Unwrap returns bequest.ErrValidationBlocked.
func (e *ValidationError) Unwrap() error { return bequest.ErrValidationBlocked }

// ReconciliationError reports shares that do not add up to the target.
type ReconciliationError struct {
	ActualTotal decimal.Decimal
	Target      decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("bequest: total percentage share must be exactly %s, got %s", e.Target, e.ActualTotal)
}

// Unwrap returns bequest.ErrReconciliation.
func (e *ReconciliationError) Unwrap() error { return bequest.ErrReconciliation }
