// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"sessionId", "message"},
		Properties: map[string]Property{
			"sessionId": {Type: "string", MinLength: IntPtr(1), MaxLength: IntPtr(128)},
			"message":   {Type: "string", MinLength: IntPtr(1)},
			"channel":   {Type: "string", Enum: []string{"web", "whatsapp"}},
		},
		AdditionalProperties: BoolPtr(false),
	}
}

func TestValidateInput_Valid(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"sessionId": "abc",
		"message":   "hello",
		"channel":   "web",
	}, messageSchema())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateInput_MissingRequired(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"sessionId": "abc",
	}, messageSchema())

	require.False(t, result.Valid)
	assert.True(t, result.HasErrors("message"))
}

func TestValidateInput_TypeAndEnum(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"sessionId": 42,
		"message":   "hi",
		"channel":   "fax",
	}, messageSchema())

	require.False(t, result.Valid)
	assert.True(t, result.HasErrors("sessionId"))
	assert.True(t, result.HasErrors("channel"))
	assert.Len(t, result.GetErrorMessages(), len(result.Errors))
}

func TestValidateInput_AdditionalProperties(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"sessionId": "abc",
		"message":   "hi",
		"extra":     true,
	}, messageSchema())

	assert.False(t, result.Valid)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("john.smith@example.com"))
	assert.False(t, ValidateEmail("john.smith"))
	assert.False(t, ValidateEmail("john@localhost"))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+1 (555) 123-4567"))
	assert.False(t, ValidatePhone("12345"))
}
