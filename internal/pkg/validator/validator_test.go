package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "propertyhub/internal/pkg/errors"
)

func TestFormatMalaysianIC(t *testing.T) {
	assert.Equal(t, "123456-78-9012", FormatMalaysianIC("123456789012"))
	assert.Equal(t, "900101-14-5678", FormatMalaysianIC("900101-14-5678"))
	assert.Equal(t, "12345", FormatMalaysianIC("12345"))
}

func TestValidateMalaysianIC(t *testing.T) {
	tests := []struct {
		name    string
		ic      string
		wantMsg string
	}{
		{"valid plain", "900101145678", ""},
		{"valid dashed", "900101-14-5678", ""},
		{"too short", "12345", "IC number must be 12 digits"},
		{"too long", "1234567890123", "IC number must be 12 digits"},
		{"letters", "90010114567A", "IC number must contain only digits"},
		{"empty", "", "IC number is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMalaysianIC(tt.ic)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			verr, ok := apperrors.IsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, "ic_number", verr.Field)
			assert.Equal(t, tt.wantMsg, verr.Message)
		})
	}
}

func TestValidateMalaysianPhone(t *testing.T) {
	for _, ok := range []string{"012-345 6789", "+60123456789", "0111234567", "60 11 2345 6789", "03-1234 5678"} {
		assert.NoError(t, ValidateMalaysianPhone(ok), ok)
	}
	for _, bad := range []string{"", "12345", "0212345678", "01234abcde", "+6512345678"} {
		assert.Error(t, ValidateMalaysianPhone(bad), bad)
	}
}

func TestFormatMalaysianPhone(t *testing.T) {
	assert.Equal(t, "012-345 6789", FormatMalaysianPhone("+60123456789"))
	assert.Equal(t, "011-2345 6789", FormatMalaysianPhone("01123456789"))
	assert.Equal(t, "03-1234 5678", FormatMalaysianPhone("0312345678"))
	assert.Equal(t, "abc", FormatMalaysianPhone("abc"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ali@example.com"))
	assert.NoError(t, ValidateEmail("siti.tan@gmail.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("someone@localhost"))
	assert.Error(t, ValidateEmail("x@mailinator.com"))
}
