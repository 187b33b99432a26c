// Package validate implements the pure step validator: a Schema of field
// rules that turns a step's raw field values into field-level error
// messages. Validation performs no I/O and never looks at other steps.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Errors maps a field name to its error message. An empty map means valid.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

// Kind selects the check a Rule performs.
type Kind int

const (
	// KindRequired fails on an empty value.
	KindRequired Kind = iota
	// KindPositiveNumber requires a number greater than zero.
	KindPositiveNumber
	// KindEmail requires a standard address shape.
	KindEmail
	// KindShare requires a number in the inclusive range [Min, Max].
	KindShare
	// KindAttachment requires a filename ending in Extension.
	KindAttachment
	// KindAddress requires a 0x-prefixed 20-byte hex wallet address.
	KindAddress
	// KindIntRange requires an integer in the inclusive range [Min, Max].
	KindIntRange
)

var (
	emailPattern   = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// Rule is a single field check.
type Rule struct {
	Field     string
	Label     string
	Kind      Kind
	Optional  bool
	Extension string
	Min       decimal.Decimal
	Max       decimal.Decimal
}

// Required builds a rule that fails with "<Label> is required.".
func Required(field, label string) Rule {
	return Rule{Field: field, Label: label, Kind: KindRequired}
}

// PositiveNumber builds a rule that requires a number greater than zero.
func PositiveNumber(field, label string) Rule {
	return Rule{Field: field, Label: label, Kind: KindPositiveNumber}
}

// Email builds a rule that requires an email-shaped value.
func Email(field, label string) Rule {
	return Rule{Field: field, Label: label, Kind: KindEmail}
}

// Share builds a rule that requires a number in [1, 100].
func Share(field, label string) Rule {
	return Rule{
		Field: field,
		Label: label,
		Kind:  KindShare,
		Min:   decimal.NewFromInt(1),
		Max:   decimal.NewFromInt(100),
	}
}

// Attachment builds a rule that requires a filename ending in ext,
// compared case-insensitively. ext may be given with or without the dot.
func Attachment(field, label, ext string) Rule {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return Rule{Field: field, Label: label, Kind: KindAttachment, Extension: strings.ToLower(ext)}
}

// Address builds a rule that requires a wallet address.
func Address(field, label string) Rule {
	return Rule{Field: field, Label: label, Kind: KindAddress}
}

// IntRange builds a rule that requires an integer in [lo, hi].
func IntRange(field, label string, lo, hi int64) Rule {
	return Rule{
		Field: field,
		Label: label,
		Kind:  KindIntRange,
		Min:   decimal.NewFromInt(lo),
		Max:   decimal.NewFromInt(hi),
	}
}

// Optional marks r so that an empty value passes.
func Optional(r Rule) Rule {
	r.Optional = true
	return r
}

// check returns the error message for value, or "" when it passes.
func (r Rule) check(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if r.Optional {
			return ""
		}
		if r.Kind == KindShare {
			return r.Label + " is required and must be a number."
		}
		return r.Label + " is required."
	}

	switch r.Kind {
	case KindPositiveNumber:
		n, err := decimal.NewFromString(value)
		if err != nil || !n.IsPositive() {
			return "Please enter a valid " + strings.ToLower(r.Label) + "."
		}
	case KindEmail:
		if !emailPattern.MatchString(value) {
			return "Invalid email format."
		}
	case KindShare:
		n, err := decimal.NewFromString(value)
		if err != nil {
			return r.Label + " is required and must be a number."
		}
		if n.LessThan(r.Min) {
			return fmt.Sprintf("%s must be at least %s.", r.Label, r.Min)
		}
		if n.GreaterThan(r.Max) {
			return fmt.Sprintf("%s must be at most %s.", r.Label, r.Max)
		}
	case KindAttachment:
		if !strings.HasSuffix(strings.ToLower(value), r.Extension) {
			return fmt.Sprintf("%s must be a %s file.", r.Label, strings.ToUpper(strings.TrimPrefix(r.Extension, ".")))
		}
	case KindAddress:
		if !addressPattern.MatchString(value) {
			return "Invalid wallet address."
		}
	case KindIntRange:
		n, err := decimal.NewFromString(value)
		if err != nil || !n.IsInteger() || n.LessThan(r.Min) || n.GreaterThan(r.Max) {
			return fmt.Sprintf("%s must be between %s and %s.", r.Label, r.Min, r.Max)
		}
	}
	return ""
}

// Schema is an ordered set of rules.
type Schema struct {
	rules []Rule
}

// NewSchema creates a schema from rules. Later rules for the same field
// replace earlier ones.
func NewSchema(rules ...Rule) *Schema {
	s := &Schema{}
	for _, r := range rules {
		s.replace(r)
	}
	return s
}

// With returns a copy of s extended by rules, which replace any existing
// rule for the same field.
func (s *Schema) With(rules ...Rule) *Schema {
	out := &Schema{}
	if s != nil {
		out.rules = append(out.rules, s.rules...)
	}
	for _, r := range rules {
		out.replace(r)
	}
	return out
}

func (s *Schema) replace(r Rule) {
	for i := range s.rules {
		if s.rules[i].Field == r.Field {
			s.rules[i] = r
			return
		}
	}
	s.rules = append(s.rules, r)
}

// Validate runs every rule against fields. Fields without a rule are ignored.
func (s *Schema) Validate(fields map[string]string) Errors {
	errs := Errors{}
	if s == nil {
		return errs
	}
	for _, r := range s.rules {
		if msg := r.check(fields[r.Field]); msg != "" {
			errs[r.Field] = msg
		}
	}
	return errs
}

// Fields returns the names of the fields the schema checks, in rule order.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Field
	}
	return out
}

// Rule returns the rule registered for field.
func (s *Schema) Rule(field string) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	for _, r := range s.rules {
		if r.Field == field {
			return r, true
		}
	}
	return Rule{}, false
}
