package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

func TestValidateField_Required(t *testing.T) {
	for _, v := range []string{"", "   ", "\t\n"} {
		res := ValidateField("first_name", v, &tenant.Config{})
		assert.Equal(t, "validation_error", res.Type)
		assert.Equal(t, []string{"This field is required"}, res.Errors)
	}
}

func TestValidateField_Email(t *testing.T) {
	cfg := &tenant.Config{}

	valid := []string{"u@x.y", "ada.lovelace@example.org", "a+b@sub.domain.io"}
	for _, v := range valid {
		res := ValidateField("email", v, cfg)
		assert.Equal(t, "validation_success", res.Type, "value %q", v)
	}

	invalid := []string{"not-an-email", "u@x", "u @x.y", "@x.y", "u@.y "}
	for _, v := range invalid {
		res := ValidateField("email", v, cfg)
		assert.Equal(t, "validation_error", res.Type, "value %q", v)
		assert.Equal(t, []string{"Please enter a valid email address"}, res.Errors)
	}
}

func TestValidateField_Phone(t *testing.T) {
	cfg := &tenant.Config{}

	valid := []string{"555-123-4567", "(407) 555 0199", "+1 407 555 0199"}
	for _, v := range valid {
		assert.Equal(t, "validation_success", ValidateField("phone", v, cfg).Type, "value %q", v)
	}

	res := ValidateField("phone", "call me", cfg)
	assert.Equal(t, "validation_error", res.Type)
	assert.Equal(t, []string{"Please enter a valid phone number"}, res.Errors)
}

func TestValidateField_Confirmations(t *testing.T) {
	cfg := &tenant.Config{}

	res := ValidateField("age_confirm", "no", cfg)
	assert.Equal(t, []string{"You must be at least 22 years old to volunteer"}, res.Errors)
	assert.Equal(t, "validation_success", ValidateField("age_confirm", "yes", cfg).Type)

	res = ValidateField("commitment_confirm", "No", cfg)
	assert.Equal(t, []string{"A one year commitment is required for this program"}, res.Errors)
	assert.Equal(t, "validation_success", ValidateField("commitment_confirm", "yes", cfg).Type)
}

func TestValidateField_Idempotent(t *testing.T) {
	cfg := &tenant.Config{}
	first := ValidateField("email", "u@x.y", cfg)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, ValidateField("email", "u@x.y", cfg))
	}
}

func TestValidateField_UnknownFieldOnlyRequiresPresence(t *testing.T) {
	res := ValidateField("favorite_color", "blue", &tenant.Config{})
	assert.Equal(t, "validation_success", res.Type)
	assert.Equal(t, "favorite_color", res.Field)
}
