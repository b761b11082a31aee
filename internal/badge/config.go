package badge

const (
	LayoutHorizontal = "horizontal"

	LogoSizeSmall  = "small"
	LogoSizeMedium = "medium"
	LogoSizeLarge  = "large"

	SpacingCompact     = "compact"
	SpacingComfortable = "comfortable"

	defaultPrimaryColor   = "#0b1f3a"
	defaultSecondaryColor = "#f5f7fa"
	defaultAccentColor    = "#d4af37"
	defaultMaxLogosPerRow = 3
)

// Config captures the style and behavior parameters baked into a generated
// document. It is immutable per generation and persisted alongside the badge
// so regeneration is reproducible.
type Config struct {
	ShowLogos        bool   `json:"show_logos"`
	ShowOrnaments    bool   `json:"show_ornaments"`
	ShowVerifiedMark bool   `json:"show_verified_mark"`
	PrimaryColor     string `json:"primary_color"`
	SecondaryColor   string `json:"secondary_color"`
	AccentColor      string `json:"accent_color"`
	Layout           string `json:"layout"`
	MaxLogosPerRow   int    `json:"max_logos_per_row"`
	LogoSize         string `json:"logo_size"`
	Spacing          string `json:"spacing"`
}

// DefaultConfig returns the fixed badge style defaults.
func DefaultConfig() Config {
	return Config{
		ShowLogos:        true,
		ShowOrnaments:    true,
		ShowVerifiedMark: true,
		PrimaryColor:     defaultPrimaryColor,
		SecondaryColor:   defaultSecondaryColor,
		AccentColor:      defaultAccentColor,
		Layout:           LayoutHorizontal,
		MaxLogosPerRow:   defaultMaxLogosPerRow,
		LogoSize:         LogoSizeMedium,
		Spacing:          SpacingComfortable,
	}
}
