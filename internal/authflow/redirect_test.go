package authflow

import "testing"

func TestSafeRedirect(t *testing.T) {
	cases := []struct {
		name   string
		target string
		want   string
	}{
		{"empty falls back", "", "/dashboard"},
		{"relative path kept", "/wallet", "/wallet"},
		{"nested path kept", "/team/tree?tab=left", "/team/tree?tab=left"},
		{"absolute url rejected", "https://evil.example/phish", "/dashboard"},
		{"protocol relative rejected", "//evil.example", "/dashboard"},
		{"backslash rejected", "/\\evil.example", "/dashboard"},
		{"missing leading slash rejected", "wallet", "/dashboard"},
		{"newline rejected", "/wallet\r\nSet-Cookie: x", "/dashboard"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SafeRedirect(tc.target, "/dashboard"); got != tc.want {
				t.Fatalf("SafeRedirect(%q) = %q, want %q", tc.target, got, tc.want)
			}
		})
	}
}
