package workflow

import (
	"github.com/shopspring/decimal"

	"github.com/venu630/bequest/validate"
)

// BeneficiariesName is the name of the built-in beneficiary allocation
// workflow.
const BeneficiariesName = "beneficiaries"

// Definition describes one kind of sequential workflow: the schema every
// step is validated against and the field whose values must reconcile.
type Definition struct {
	// Name is the unique identifier for this workflow type.
	Name string

	// Version distinguishes revisions of the same workflow. Sessions keep
	// the version they started with. Zero is treated as 1.
	Version int

	// Schema validates each step. A nil schema accepts any draft.
	Schema *validate.Schema

	// ShareField names the field summed at finalization.
	ShareField string

	// TargetSum is the total ShareField must reach. Zero means 100.
	TargetSum decimal.Decimal
}

// NewDefinition creates a definition with the default target.
func NewDefinition(name string, schema *validate.Schema, shareField string) *Definition {
	return &Definition{
		Name:       name,
		Schema:     schema,
		ShareField: shareField,
	}
}

// Beneficiaries returns the beneficiary allocation workflow: one step per
// beneficiary, percentage shares that must total 100.
func Beneficiaries() *Definition {
	return NewDefinition(BeneficiariesName, validate.BeneficiarySchema(), validate.FieldShare)
}

// Config builds the session config for a workflow of totalSteps steps.
func (d *Definition) Config(totalSteps int) Config {
	return Config{
		TotalSteps: totalSteps,
		ShareField: d.ShareField,
		TargetSum:  d.TargetSum,
	}
}
