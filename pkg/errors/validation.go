package errors

import (
	"regexp"
	"unicode"
)

// backgroundRegex accepts a 6-digit hex color or the literal "transparent".
var backgroundRegex = regexp.MustCompile(`^(#[a-fA-F0-9]{6}|transparent)$`)

// ValidateBackground checks a graph background color.
// It must be a valid hex color (#rrggbb) or "transparent".
func ValidateBackground(color string) error {
	if !backgroundRegex.MatchString(color) {
		return New(ErrCodeInvalidColor, "invalid background color %q: it must be a valid hex color or \"transparent\"", color)
	}
	return nil
}

// ValidateServiceName validates a service name given on the command line or
// in a request (for --include/--exclude).
//
// The rules are conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateServiceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "service name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "service name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "service name contains invalid control characters")
		}
	}
	return nil
}

// ValidateServiceNames applies [ValidateServiceName] to each name.
func ValidateServiceNames(names []string) error {
	for _, n := range names {
		if err := ValidateServiceName(n); err != nil {
			return err
		}
	}
	return nil
}
