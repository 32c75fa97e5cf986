package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Emails are matched only at sign-in; the normalized form backs the unique index.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeGender canonicalizes the free-form request value before the enum check.
func NormalizeGender(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
