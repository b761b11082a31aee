package badge

import "strings"

// logoAssetURLByOutlet maps outlet display names to hosted logo assets. Lookup
// is exact-match only; unknown outlets render the deterministic fallback.
var logoAssetURLByOutlet = map[string]string{
	"Business Insider":             "https://assets.mprlab.com/pressbadge/logos/business-insider.png",
	"Forbes":                       "https://assets.mprlab.com/pressbadge/logos/forbes.png",
	"TechCrunch":                   "https://assets.mprlab.com/pressbadge/logos/techcrunch.png",
	"Reuters":                      "https://assets.mprlab.com/pressbadge/logos/reuters.png",
	"Bloomberg":                    "https://assets.mprlab.com/pressbadge/logos/bloomberg.png",
	"Yahoo Finance":                "https://assets.mprlab.com/pressbadge/logos/yahoo-finance.png",
	"AP News":                      "https://assets.mprlab.com/pressbadge/logos/ap-news.png",
	"MarketWatch":                  "https://assets.mprlab.com/pressbadge/logos/marketwatch.png",
	"USA Today":                    "https://assets.mprlab.com/pressbadge/logos/usa-today.png",
	"Benzinga":                     "https://assets.mprlab.com/pressbadge/logos/benzinga.png",
	"The Globe and Mail":           "https://assets.mprlab.com/pressbadge/logos/globe-and-mail.png",
	"International Business Times": "https://assets.mprlab.com/pressbadge/logos/ibtimes.png",
}

// fallbackPalette is the fixed 6-color palette for outlets without a mapped
// logo asset. Order matters: the color for an outlet is palette[index mod 6].
var fallbackPalette = [...]string{
	"#1abc9c",
	"#3498db",
	"#9b59b6",
	"#e67e22",
	"#e74c3c",
	"#2c3e50",
}

// ResolveLogo returns the logo asset URL for an outlet name, or an empty
// string when no asset is mapped. No fuzzy matching, no domain inference.
func ResolveLogo(websiteName string) string {
	return logoAssetURLByOutlet[websiteName]
}

// FallbackInitial returns the first character of the outlet name, uppercased,
// for the logo-less fallback rendering.
func FallbackInitial(websiteName string) string {
	trimmedName := strings.TrimSpace(websiteName)
	if trimmedName == "" {
		return "?"
	}
	nameRunes := []rune(trimmedName)
	return strings.ToUpper(string(nameRunes[0]))
}

// FallbackColor returns the palette color for the outlet at the given display
// index. Pure function of the index; the palette wraps around every 6 entries.
func FallbackColor(index int) string {
	if index < 0 {
		index = -index
	}
	return fallbackPalette[index%len(fallbackPalette)]
}
