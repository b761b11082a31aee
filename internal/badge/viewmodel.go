package badge

import "html"

const (
	primaryRowSize = 3

	displayedSiteCountFloor     = 300
	displayedSiteCountPerOutlet = 50
)

// DisplayedSiteCount returns the "as seen on N+ sites" caption value:
// max(300, count*50). At the current selection bounds the floor always wins;
// the formula is kept so the caption scales if the bounds ever change.
func DisplayedSiteCount(selectionCount int) int {
	scaledCount := selectionCount * displayedSiteCountPerOutlet
	if scaledCount < displayedSiteCountFloor {
		return displayedSiteCountFloor
	}
	return scaledCount
}

type outletEntryView struct {
	WebsiteName     string
	LogoURL         string
	HasLogo         bool
	FallbackInitial string
	FallbackColor   string
}

type documentView struct {
	BadgeName          string
	Config             Config
	DisplayedSiteCount int
	PrimaryRow         []outletEntryView
	OverflowRow        []outletEntryView
}

// buildDocumentView assembles the render model once from the selection, the
// style configuration and the badge metadata. All text fields are HTML-escaped
// here so the template stays a plain concatenation.
func buildDocumentView(outlets []Outlet, configuration Config, badgeName string) documentView {
	entries := make([]outletEntryView, 0, len(outlets))
	for index, outlet := range outlets {
		logoURL := ResolveLogo(outlet.WebsiteName)
		entries = append(entries, outletEntryView{
			WebsiteName:     html.EscapeString(outlet.WebsiteName),
			LogoURL:         logoURL,
			HasLogo:         configuration.ShowLogos && logoURL != "",
			FallbackInitial: html.EscapeString(FallbackInitial(outlet.WebsiteName)),
			FallbackColor:   FallbackColor(index),
		})
	}

	// Fixed layout rule: first 3 outlets form the primary row, the remainder
	// the overflow row.
	splitIndex := primaryRowSize
	if len(entries) < splitIndex {
		splitIndex = len(entries)
	}

	return documentView{
		BadgeName:          html.EscapeString(badgeName),
		Config:             configuration,
		DisplayedSiteCount: DisplayedSiteCount(len(outlets)),
		PrimaryRow:         entries[:splitIndex],
		OverflowRow:        entries[splitIndex:],
	}
}
