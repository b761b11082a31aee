package model

import "time"

// Report is one uploaded PR distribution report.
type Report struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Name       string    `gorm:"not null;size:200"`
	OwnerEmail string    `gorm:"index;size:320"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// ReportOutlet is one media placement row of a report. Rows are immutable once
// ingested; Position preserves the upload order.
type ReportOutlet struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ReportID     string    `gorm:"index;not null;size:36"`
	WebsiteName  string    `gorm:"not null;size:200"`
	PublishedURL string    `gorm:"size:2000"`
	Reach        int64     `gorm:"not null;default:0"`
	Position     int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}
