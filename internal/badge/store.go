package badge

import (
	"context"
	"time"
)

// Website is the denormalized snapshot of a selected outlet persisted with a
// badge. Logo URL and domain are resolved at persist time and kept as-is for
// the life of the record.
type Website struct {
	OutletID     string `json:"id"`
	WebsiteName  string `json:"website_name"`
	PublishedURL string `json:"published_url,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	Domain       string `json:"domain,omitempty"`
}

// Record is the persisted badge artifact. BadgeID is assigned by the store on
// first creation and never changes afterwards.
type Record struct {
	BadgeID      string
	GridID       string
	Name         string
	Description  string
	Websites     []Website
	Config       Config
	HTMLDocument string
	GeneratedAt  time.Time
	UpdatedAt    time.Time
}

// PreviewGenerated reports whether a document has been synthesized for the
// badge. Derived from the document rather than stored separately so it cannot
// drift out of sync.
func (record Record) PreviewGenerated() bool {
	return record.HTMLDocument != ""
}

// Store persists badge records. Lookups that find nothing return
// ErrBadgeNotFound; all other failures are backend faults.
type Store interface {
	Create(ctx context.Context, record Record) (Record, error)
	Update(ctx context.Context, record Record) error
	GetByBadgeID(ctx context.Context, badgeID string) (Record, error)
	GetByGridID(ctx context.Context, gridID string) (Record, error)
	ListByGridID(ctx context.Context, gridID string) ([]Record, error)
	Delete(ctx context.Context, badgeID string) error
}
