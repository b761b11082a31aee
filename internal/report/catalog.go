// Package report holds the PR distribution report side of the service: the
// outlet catalog consumed by the badge engine and the thin ingest path that
// loads report rows.
package report

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/badge"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/model"
)

var (
	// ErrReportNotFound indicates the requested report does not exist.
	ErrReportNotFound = errors.New("report: not found")
)

// Catalog exposes the outlets of a report as badge selection candidates. It is
// a read-only view over report rows.
type Catalog struct {
	database *gorm.DB
}

// NewCatalog creates a Catalog over the given database connection.
func NewCatalog(database *gorm.DB) *Catalog {
	return &Catalog{database: database}
}

// Report loads a report header.
func (catalog *Catalog) Report(ctx context.Context, reportID string) (model.Report, error) {
	var reportRow model.Report
	if findErr := catalog.database.WithContext(ctx).First(&reportRow, "id = ?", reportID).Error; findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return model.Report{}, ErrReportNotFound
		}
		return model.Report{}, findErr
	}
	return reportRow, nil
}

// Outlets returns the report's outlets in stored display order, with the
// domain derived from each published URL.
func (catalog *Catalog) Outlets(ctx context.Context, reportID string) ([]badge.Outlet, error) {
	var rows []model.ReportOutlet
	if findErr := catalog.database.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("position asc").
		Find(&rows).Error; findErr != nil {
		return nil, findErr
	}

	outlets := make([]badge.Outlet, 0, len(rows))
	for _, row := range rows {
		outlets = append(outlets, badge.Outlet{
			ID:           row.ID,
			WebsiteName:  row.WebsiteName,
			PublishedURL: row.PublishedURL,
			Domain:       badge.DeriveDomain(row.PublishedURL),
		})
	}
	return outlets, nil
}
