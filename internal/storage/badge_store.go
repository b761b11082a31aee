package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/badge"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/model"
)

const (
	errorMessageEncodeWebsites = "storage: encode badge websites"
	errorMessageEncodeConfig   = "storage: encode badge config"
	errorMessageDecodeWebsites = "storage: decode badge websites"
	errorMessageDecodeConfig   = "storage: decode badge config"
)

// BadgeStore is the GORM-backed implementation of badge.Store.
type BadgeStore struct {
	database *gorm.DB
}

// NewBadgeStore creates a BadgeStore over the given database connection.
func NewBadgeStore(database *gorm.DB) *BadgeStore {
	return &BadgeStore{database: database}
}

// Create persists a new badge record, assigning its identifier and the
// generation timestamp. The stored record is returned.
func (store *BadgeStore) Create(ctx context.Context, record badge.Record) (badge.Record, error) {
	row, encodeErr := badgeRowFromRecord(record)
	if encodeErr != nil {
		return badge.Record{}, encodeErr
	}
	if row.ID == "" {
		row.ID = NewID()
	}

	if createErr := store.database.WithContext(ctx).Create(&row).Error; createErr != nil {
		return badge.Record{}, createErr
	}
	return recordFromBadgeRow(row)
}

// Update rewrites the snapshot columns of an existing badge, addressed by its
// identifier. Updating a badge that does not exist yields ErrBadgeNotFound.
func (store *BadgeStore) Update(ctx context.Context, record badge.Record) error {
	row, encodeErr := badgeRowFromRecord(record)
	if encodeErr != nil {
		return encodeErr
	}

	result := store.database.WithContext(ctx).
		Model(&model.TrustBadge{}).
		Where("id = ?", record.BadgeID).
		Updates(map[string]any{
			"name":          row.Name,
			"description":   row.Description,
			"websites":      row.Websites,
			"config":        row.Config,
			"html_document": row.HTMLDocument,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return badge.ErrBadgeNotFound
	}
	return nil
}

// GetByBadgeID loads a badge by its identifier.
func (store *BadgeStore) GetByBadgeID(ctx context.Context, badgeID string) (badge.Record, error) {
	var row model.TrustBadge
	if findErr := store.database.WithContext(ctx).First(&row, "id = ?", badgeID).Error; findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return badge.Record{}, badge.ErrBadgeNotFound
		}
		return badge.Record{}, findErr
	}
	return recordFromBadgeRow(row)
}

// GetByGridID loads the badge generated for a report, if one exists.
func (store *BadgeStore) GetByGridID(ctx context.Context, gridID string) (badge.Record, error) {
	var row model.TrustBadge
	if findErr := store.database.WithContext(ctx).First(&row, "grid_id = ?", gridID).Error; findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return badge.Record{}, badge.ErrBadgeNotFound
		}
		return badge.Record{}, findErr
	}
	return recordFromBadgeRow(row)
}

// ListByGridID returns the badges for a report, newest first. Used by the
// management view.
func (store *BadgeStore) ListByGridID(ctx context.Context, gridID string) ([]badge.Record, error) {
	var rows []model.TrustBadge
	if findErr := store.database.WithContext(ctx).
		Where("grid_id = ?", gridID).
		Order("generated_at desc").
		Find(&rows).Error; findErr != nil {
		return nil, findErr
	}

	records := make([]badge.Record, 0, len(rows))
	for _, row := range rows {
		record, decodeErr := recordFromBadgeRow(row)
		if decodeErr != nil {
			return nil, decodeErr
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes a badge by its identifier. Deleting a badge that does not
// exist yields ErrBadgeNotFound.
func (store *BadgeStore) Delete(ctx context.Context, badgeID string) error {
	result := store.database.WithContext(ctx).Delete(&model.TrustBadge{}, "id = ?", badgeID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return badge.ErrBadgeNotFound
	}
	return nil
}

func badgeRowFromRecord(record badge.Record) (model.TrustBadge, error) {
	websites := record.Websites
	if websites == nil {
		websites = []badge.Website{}
	}
	encodedWebsites, websitesErr := json.Marshal(websites)
	if websitesErr != nil {
		return model.TrustBadge{}, fmt.Errorf("%s: %w", errorMessageEncodeWebsites, websitesErr)
	}
	encodedConfig, configErr := json.Marshal(record.Config)
	if configErr != nil {
		return model.TrustBadge{}, fmt.Errorf("%s: %w", errorMessageEncodeConfig, configErr)
	}

	return model.TrustBadge{
		ID:           record.BadgeID,
		GridID:       record.GridID,
		Name:         record.Name,
		Description:  record.Description,
		Websites:     string(encodedWebsites),
		Config:       string(encodedConfig),
		HTMLDocument: record.HTMLDocument,
		GeneratedAt:  record.GeneratedAt,
		UpdatedAt:    record.UpdatedAt,
	}, nil
}

func recordFromBadgeRow(row model.TrustBadge) (badge.Record, error) {
	var websites []badge.Website
	if unmarshalErr := json.Unmarshal([]byte(row.Websites), &websites); unmarshalErr != nil {
		return badge.Record{}, fmt.Errorf("%s: %w", errorMessageDecodeWebsites, unmarshalErr)
	}
	var configuration badge.Config
	if unmarshalErr := json.Unmarshal([]byte(row.Config), &configuration); unmarshalErr != nil {
		return badge.Record{}, fmt.Errorf("%s: %w", errorMessageDecodeConfig, unmarshalErr)
	}

	return badge.Record{
		BadgeID:      row.ID,
		GridID:       row.GridID,
		Name:         row.Name,
		Description:  row.Description,
		Websites:     websites,
		Config:       configuration,
		HTMLDocument: row.HTMLDocument,
		GeneratedAt:  row.GeneratedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
