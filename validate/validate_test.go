package validate_test

import (
	"testing"

	"github.com/venu630/bequest/validate"
)

func validBeneficiary() map[string]string {
	return map[string]string{
		validate.FieldFirstName:     "Ada",
		validate.FieldLastName:      "Lovelace",
		validate.FieldEmail:         "ada@example.com",
		validate.FieldAge:           "36",
		validate.FieldRelation:      "Daughter",
		validate.FieldWalletAddress: "0x96f3c7bcc7f098b9f12219a2842235863ec0a774",
		validate.FieldShare:         "40",
		validate.FieldSaleDeed:      "deed.PDF",
	}
}

func TestBeneficiarySchema_Valid(t *testing.T) {
	errs := validate.BeneficiarySchema().Validate(validBeneficiary())
	if !errs.Valid() {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestBeneficiarySchema_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"missing first name", validate.FieldFirstName, "", "First Name is required."},
		{"blank last name", validate.FieldLastName, "   ", "Last Name is required."},
		{"missing email", validate.FieldEmail, "", "Email is required."},
		{"malformed email", validate.FieldEmail, "ada@example", "Invalid email format."},
		{"missing age", validate.FieldAge, "", "Age is required."},
		{"zero age", validate.FieldAge, "0", "Please enter a valid age."},
		{"text age", validate.FieldAge, "old", "Please enter a valid age."},
		{"missing relation", validate.FieldRelation, "", "Relation is required."},
		{"bad wallet", validate.FieldWalletAddress, "0x123", "Invalid wallet address."},
		{"missing share", validate.FieldShare, "", "Percentage Share is required and must be a number."},
		{"text share", validate.FieldShare, "half", "Percentage Share is required and must be a number."},
		{"share below range", validate.FieldShare, "0.5", "Percentage Share must be at least 1."},
		{"share above range", validate.FieldShare, "101", "Percentage Share must be at most 100."},
		{"missing deed", validate.FieldSaleDeed, "", "Sale Deed is required."},
		{"wrong deed extension", validate.FieldSaleDeed, "deed.docx", "Sale Deed must be a PDF file."},
	}

	schema := validate.BeneficiarySchema()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validBeneficiary()
			fields[tt.field] = tt.value

			errs := schema.Validate(fields)
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %v", errs)
			}
			if got := errs[tt.field]; got != tt.want {
				t.Errorf("error for %s = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestShare_BoundsInclusive(t *testing.T) {
	schema := validate.NewSchema(validate.Share("share", "Share"))
	for _, v := range []string{"1", "100", "33.3"} {
		if errs := schema.Validate(map[string]string{"share": v}); !errs.Valid() {
			t.Errorf("share %q: unexpected errors %v", v, errs)
		}
	}
}

func TestOptionalAttachment(t *testing.T) {
	schema := validate.NewSchema(validate.Optional(validate.Attachment("doc", "Document", "pdf")))

	if errs := schema.Validate(map[string]string{}); !errs.Valid() {
		t.Errorf("empty optional attachment should pass, got %v", errs)
	}
	errs := schema.Validate(map[string]string{"doc": "scan.png"})
	if errs["doc"] != "Document must be a PDF file." {
		t.Errorf("got %q", errs["doc"])
	}
}

func TestOwnerSchema(t *testing.T) {
	schema := validate.OwnerSchema(5)

	ok := map[string]string{
		validate.FieldFirstName:        "Grace",
		validate.FieldLastName:         "Hopper",
		validate.FieldBeneficiaryCount: "3",
	}
	if errs := schema.Validate(ok); !errs.Valid() {
		t.Fatalf("unexpected errors %v", errs)
	}

	for _, count := range []string{"0", "6", "2.5", "many"} {
		fields := map[string]string{
			validate.FieldFirstName:        "Grace",
			validate.FieldLastName:         "Hopper",
			validate.FieldBeneficiaryCount: count,
		}
		errs := schema.Validate(fields)
		if errs[validate.FieldBeneficiaryCount] != "Beneficiary Count must be between 1 and 5." {
			t.Errorf("count %q: got %v", count, errs)
		}
	}
}

func TestSchema_LaterRuleReplaces(t *testing.T) {
	schema := validate.NewSchema(
		validate.Required("age", "Age"),
		validate.PositiveNumber("age", "Age"),
	)
	if got := schema.Fields(); len(got) != 1 {
		t.Fatalf("expected one field, got %v", got)
	}
	r, ok := schema.Rule("age")
	if !ok || r.Kind != validate.KindPositiveNumber {
		t.Errorf("rule = %+v, want positive number", r)
	}
}

func TestSchema_WithCopies(t *testing.T) {
	base := validate.OwnerSchema(5)
	ext := base.With(validate.Address(validate.FieldWalletAddress, "Wallet Address"))

	if got := len(base.Fields()); got != 3 {
		t.Errorf("base schema changed: %d fields", got)
	}
	if got := len(ext.Fields()); got != 4 {
		t.Fatalf("extended schema has %d fields, want 4", got)
	}

	errs := ext.Validate(map[string]string{
		validate.FieldFirstName:        "Grace",
		validate.FieldLastName:         "Hopper",
		validate.FieldBeneficiaryCount: "2",
		validate.FieldWalletAddress:    "0x123",
	})
	if errs[validate.FieldWalletAddress] != "Invalid wallet address." {
		t.Errorf("got %v", errs)
	}
}

func TestValidate_IsPure(t *testing.T) {
	schema := validate.BeneficiarySchema()
	fields := validBeneficiary()
	fields[validate.FieldEmail] = "nope"

	first := schema.Validate(fields)
	second := schema.Validate(fields)
	if len(first) != len(second) || first[validate.FieldEmail] != second[validate.FieldEmail] {
		t.Errorf("validation not deterministic: %v vs %v", first, second)
	}
	if fields[validate.FieldEmail] != "nope" {
		t.Error("input fields were modified")
	}
}
