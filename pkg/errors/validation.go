package errors

import (
	"regexp"
	"unicode"
)

// maxIDLength bounds element and document identifiers.
const maxIDLength = 256

// ValidateID validates an element or document identifier.
//
// IDs end up in store keys and URL paths, so the rules are conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No path separators
//   - Maximum length of 256 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "id contains invalid control characters")
		}
		if r == '/' || r == '\\' {
			return New(ErrCodeInvalidInput, "id cannot contain path separators")
		}
	}
	return nil
}

// aliasRegex matches valid attribute namespace aliases (XML NCName subset).
var aliasRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateAlias validates an attribute namespace alias such as "er" or "ns0".
func ValidateAlias(alias string) error {
	if alias == "" {
		return New(ErrCodeInvalidConfig, "namespace alias cannot be empty")
	}
	if !aliasRegex.MatchString(alias) {
		return New(ErrCodeInvalidConfig, "invalid namespace alias: %q", alias)
	}
	return nil
}
