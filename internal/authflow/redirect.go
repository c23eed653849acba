package authflow

import (
	"net/url"
	"strings"
)

// SafeRedirect sanitizes a caller-supplied post-login redirect target. Only
// same-origin relative paths survive; anything absolute, protocol-relative
// or otherwise odd collapses to the fallback.
func SafeRedirect(target, fallback string) string {
	if target == "" {
		return fallback
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	if strings.ContainsAny(target, "\\\r\n") {
		return fallback
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return fallback
	}
	return target
}
