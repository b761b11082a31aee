package badge

import (
	"fmt"
	"strings"
)

const (
	embedScriptTagTemplate = `<script defer src="%s/trust-badges/%s.js"></script>`
	previewURLTemplate     = "%s/trust-badges/%s/preview"
)

// EmbedCode returns the script tag a publisher places on their site to render
// the badge. Derived deterministically from the badge id and the configured
// base URL; no other state affects its shape.
func EmbedCode(publicBaseURL string, badgeID string) string {
	return fmt.Sprintf(embedScriptTagTemplate, normalizeBaseURL(publicBaseURL), badgeID)
}

// PreviewURL returns the externally reachable preview address for a badge.
func PreviewURL(publicBaseURL string, badgeID string) string {
	return fmt.Sprintf(previewURLTemplate, normalizeBaseURL(publicBaseURL), badgeID)
}

func normalizeBaseURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}
