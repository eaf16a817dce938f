package types

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeID returns the NFC form of an identifier. Identifiers must be
// valid UTF-8, non-empty, free of control characters and must not carry
// surrounding whitespace. Violations return ErrInvalidID.
func NormalizeID(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidID)
	}
	n := norm.NFC.String(s)
	if n == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.TrimSpace(n) != n {
		return "", fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidID, n)
	}
	for _, r := range n {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %q contains a control character", ErrInvalidID, n)
		}
	}
	return n, nil
}

// ValidateURL normalizes a thing URL and checks that it is an absolute
// http or https URL with a host.
func ValidateURL(s string) (string, error) {
	n, err := NormalizeID(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	u, err := url.Parse(n)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidURL, n)
	}
	return n, nil
}

// OptionalString returns nil for the empty string and a pointer to s
// otherwise. Whitespace is kept as written.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue returns the value behind p, or "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// normalizeOptional applies the empty-string convention to an already
// optional field.
func normalizeOptional(p *string) *string {
	if p == nil {
		return nil
	}
	return OptionalString(*p)
}
