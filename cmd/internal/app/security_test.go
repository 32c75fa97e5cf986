package app

import (
	"strings"
	"testing"

	"ripple/cmd/security/token"
)

func TestValidateSecurityConfig(t *testing.T) {
	t.Run("policy off allows missing key", func(t *testing.T) {
		t.Setenv(token.HMACEnvKey, "")
		if err := ValidateSecurityConfig(Config{RequireTokenHMAC: false}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("policy on with missing key fails", func(t *testing.T) {
		t.Setenv(token.HMACEnvKey, "")
		err := ValidateSecurityConfig(Config{RequireTokenHMAC: true})
		if err == nil || !strings.Contains(err.Error(), "missing") {
			t.Fatalf("want missing-key error, got %v", err)
		}
	})

	t.Run("policy on with short key fails", func(t *testing.T) {
		t.Setenv(token.HMACEnvKey, "too-short")
		err := ValidateSecurityConfig(Config{RequireTokenHMAC: true})
		if err == nil || !strings.Contains(err.Error(), "too short") {
			t.Fatalf("want short-key error, got %v", err)
		}
	})

	t.Run("policy on with strong key passes", func(t *testing.T) {
		t.Setenv(token.HMACEnvKey, strings.Repeat("k", 32))
		if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
