package validate

// Beneficiary form field names.
const (
	FieldFirstName     = "firstName"
	FieldLastName      = "lastName"
	FieldEmail         = "email"
	FieldAge           = "age"
	FieldRelation      = "relation"
	FieldWalletAddress = "walletAddress"
	FieldShare         = "percentageShare"
	FieldSaleDeed      = "saleDeed"
	FieldSaleDeedRef   = "saleDeedRef"
)

// Owner form field names.
const (
	FieldBeneficiaryCount = "beneficiaryCount"
)

// BeneficiarySchema returns the rules of one beneficiary step.
func BeneficiarySchema() *Schema {
	return NewSchema(
		Required(FieldFirstName, "First Name"),
		Required(FieldLastName, "Last Name"),
		Email(FieldEmail, "Email"),
		PositiveNumber(FieldAge, "Age"),
		Required(FieldRelation, "Relation"),
		Address(FieldWalletAddress, "Wallet Address"),
		Share(FieldShare, "Percentage Share"),
		Attachment(FieldSaleDeed, "Sale Deed", ".pdf"),
		Optional(Required(FieldSaleDeedRef, "Sale Deed Reference")),
	)
}

// OwnerSchema returns the rules of the will owner form, which chooses how
// many beneficiary steps follow.
func OwnerSchema(maxBeneficiaries int) *Schema {
	return NewSchema(
		Required(FieldFirstName, "First Name"),
		Required(FieldLastName, "Last Name"),
		IntRange(FieldBeneficiaryCount, "Beneficiary Count", 1, int64(maxBeneficiaries)),
	)
}
