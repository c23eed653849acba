package signup

import (
	"errors"
	"regexp"
	"testing"
)

func TestNormalizePhoneStructuredParse(t *testing.T) {
	p, err := NormalizePhone("+447911123456")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if p.CountryCode != "44" {
		t.Fatalf("expected country code 44, got %q", p.CountryCode)
	}
	if p.National != "7911123456" {
		t.Fatalf("expected national 7911123456, got %q", p.National)
	}
}

func TestNormalizePhoneFallbackDigitsOnly(t *testing.T) {
	// No recognizable country code: falls through to digit stripping.
	p, err := NormalizePhone("07911 123-456")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if p.CountryCode != "" {
		t.Fatalf("expected empty country code, got %q", p.CountryCode)
	}
	if !regexp.MustCompile(`^\d+$`).MatchString(p.National) {
		t.Fatalf("expected digits only, got %q", p.National)
	}
	if p.National != "07911123456" {
		t.Fatalf("expected 07911123456, got %q", p.National)
	}
}

func TestNormalizePhoneRegexSplit(t *testing.T) {
	// An unparseable but +-prefixed input is split by the regex tier.
	p, err := NormalizePhone("+999 1234 5678")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if p.CountryCode != "999" {
		t.Fatalf("expected country code 999, got %q", p.CountryCode)
	}
	if p.National != "12345678" {
		t.Fatalf("expected 12345678, got %q", p.National)
	}
}

func TestNormalizePhoneSanityFloor(t *testing.T) {
	for _, input := range []string{"123", "+44 12", "ab-cd", ""} {
		if _, err := NormalizePhone(input); !errors.Is(err, ErrPhoneTooShort) {
			t.Fatalf("input %q: expected ErrPhoneTooShort, got %v", input, err)
		}
	}
}
