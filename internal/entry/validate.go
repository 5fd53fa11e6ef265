package entry

import (
	"net/url"
)

// ValidateWebhookURL reports whether raw is an absolute HTTP or HTTPS
// URL. The rule is deliberately narrow: any other scheme, a missing
// host, or a parse failure all fail validation.
func ValidateWebhookURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// ValidateTheme reports whether theme is one of the accepted values.
func ValidateTheme(theme string) bool {
	return theme == ThemeDark || theme == ThemeLight
}
