package model

import "time"

// TrustBadge is the persisted badge artifact for one report. GridID references
// the report the badge was generated from; at most one badge exists per
// report. Websites and Config hold JSON snapshots taken at generation time so
// regeneration is reproducible and published badges stay stable.
type TrustBadge struct {
	ID           string    `gorm:"primaryKey;size:36"`
	GridID       string    `gorm:"uniqueIndex;not null;size:36"`
	Name         string    `gorm:"not null;size:200"`
	Description  string    `gorm:"size:2000"`
	Websites     string    `gorm:"not null"`
	Config       string    `gorm:"not null"`
	HTMLDocument string    `gorm:""`
	GeneratedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}
