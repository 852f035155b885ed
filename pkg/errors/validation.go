package errors

import (
	"unicode"
)

// MaxColumnNameLength bounds column names accepted from requests and config.
const MaxColumnNameLength = 256

// MaxTopN bounds the number of edges a top-N view may request.
const MaxTopN = 10000

// ValidateColumnName validates a column name supplied by a user.
// An empty name is valid and means "not configured".
//
// The validation rules are:
//   - Maximum length of 256 bytes
//   - No control characters or null bytes
func ValidateColumnName(name string) error {
	if len(name) > MaxColumnNameLength {
		return New(ErrCodeInvalidColumn, "column name too long (max %d characters)", MaxColumnNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidColumn, "column name contains invalid control characters")
		}
	}
	return nil
}

// ValidateTopN validates a top-N edge limit. Zero selects the view default;
// negative values and values above MaxTopN are rejected.
func ValidateTopN(n int) error {
	if n < 0 {
		return New(ErrCodeInvalidInput, "top-n must not be negative: %d", n)
	}
	if n > MaxTopN {
		return New(ErrCodeInvalidInput, "top-n too large (max %d): %d", MaxTopN, n)
	}
	return nil
}
