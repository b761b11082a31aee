package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/model"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/report"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/storage"
)

const (
	contentTypeCSV = "text/csv"

	errorValueEmptyOutlets = "empty_outlets"
)

// ReportHandlers serves distribution report ingestion and listing.
type ReportHandlers struct {
	database *gorm.DB
	catalog  *report.Catalog
	logger   *zap.Logger
}

// NewReportHandlers creates ReportHandlers.
func NewReportHandlers(database *gorm.DB, catalog *report.Catalog, logger *zap.Logger) *ReportHandlers {
	return &ReportHandlers{database: database, catalog: catalog, logger: logger}
}

type createReportRequest struct {
	Name    string               `json:"name"`
	Outlets []report.OutletInput `json:"outlets"`
}

type reportResponse struct {
	ReportID    string `json:"report_id"`
	Name        string `json:"name"`
	OwnerEmail  string `json:"owner_email"`
	OutletCount int    `json:"outlet_count"`
	CreatedAt   int64  `json:"created_at"`
}

type reportOutletResponse struct {
	ID           string `json:"id"`
	WebsiteName  string `json:"website_name"`
	PublishedURL string `json:"published_url,omitempty"`
	Domain       string `json:"domain,omitempty"`
}

type listReportOutletsResponse struct {
	ReportID string                 `json:"report_id"`
	Outlets  []reportOutletResponse `json:"outlets"`
}

// CreateReport ingests a distribution report. The body is either JSON with
// an outlets array or a raw CSV export posted as text/csv. The report name
// for CSV uploads comes from the name query parameter.
func (handlers *ReportHandlers) CreateReport(context *gin.Context) {
	currentUser, ok := CurrentUserFromContext(context)
	if !ok {
		context.JSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
		return
	}

	reportName := ""
	var outlets []report.OutletInput

	if strings.HasPrefix(context.ContentType(), contentTypeCSV) {
		parsed, parseErr := report.ParseOutletsCSV(context.Request.Body)
		if parseErr != nil {
			if errors.Is(parseErr, report.ErrEmptyCSV) {
				context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueEmptyOutlets})
				return
			}
			context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
			return
		}
		outlets = parsed
		reportName = strings.TrimSpace(context.Query("name"))
	} else {
		var payload createReportRequest
		if bindErr := context.BindJSON(&payload); bindErr != nil {
			context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
			return
		}
		outlets = payload.Outlets
		reportName = strings.TrimSpace(payload.Name)
	}

	if reportName == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingFields})
		return
	}
	if len(outlets) == 0 {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueEmptyOutlets})
		return
	}

	reportRow := model.Report{
		ID:         storage.NewID(),
		Name:       reportName,
		OwnerEmail: currentUser.normalizedEmail(),
	}
	outletRows := make([]model.ReportOutlet, 0, len(outlets))
	for position, outlet := range outlets {
		websiteName := strings.TrimSpace(outlet.WebsiteName)
		if websiteName == "" {
			continue
		}
		outletRows = append(outletRows, model.ReportOutlet{
			ID:           storage.NewID(),
			ReportID:     reportRow.ID,
			WebsiteName:  websiteName,
			PublishedURL: strings.TrimSpace(outlet.PublishedURL),
			Reach:        outlet.Reach,
			Position:     position,
		})
	}
	if len(outletRows) == 0 {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueEmptyOutlets})
		return
	}

	transactionErr := handlers.database.WithContext(context.Request.Context()).Transaction(func(transaction *gorm.DB) error {
		if createErr := transaction.Create(&reportRow).Error; createErr != nil {
			return createErr
		}
		return transaction.Create(&outletRows).Error
	})
	if transactionErr != nil {
		handlers.logger.Warn("create_report", zap.Error(transactionErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
		return
	}

	context.JSON(http.StatusCreated, reportResponse{
		ReportID:    reportRow.ID,
		Name:        reportRow.Name,
		OwnerEmail:  reportRow.OwnerEmail,
		OutletCount: len(outletRows),
		CreatedAt:   reportRow.CreatedAt.UTC().Unix(),
	})
}

// ListReportOutlets returns the outlets of a report in ingestion order, the
// candidate pool the dashboard presents for badge selection.
func (handlers *ReportHandlers) ListReportOutlets(context *gin.Context) {
	reportIdentifier := strings.TrimSpace(context.Param("id"))
	if reportIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingReport})
		return
	}

	currentUser, ok := CurrentUserFromContext(context)
	if !ok {
		context.JSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
		return
	}

	reportRow, reportErr := handlers.catalog.Report(context.Request.Context(), reportIdentifier)
	if reportErr != nil {
		if errors.Is(reportErr, report.ErrReportNotFound) {
			context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownReport})
			return
		}
		handlers.logger.Warn("load_report", zap.Error(reportErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	if !canManageReport(currentUser, reportRow) {
		context.JSON(http.StatusForbidden, gin.H{jsonKeyError: errorValueNotAuthorized})
		return
	}

	outlets, outletsErr := handlers.catalog.Outlets(context.Request.Context(), reportIdentifier)
	if outletsErr != nil {
		handlers.logger.Warn("load_report_outlets", zap.Error(outletsErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	responses := make([]reportOutletResponse, 0, len(outlets))
	for _, outlet := range outlets {
		responses = append(responses, reportOutletResponse{
			ID:           outlet.ID,
			WebsiteName:  outlet.WebsiteName,
			PublishedURL: outlet.PublishedURL,
			Domain:       outlet.Domain,
		})
	}
	context.JSON(http.StatusOK, listReportOutletsResponse{ReportID: reportIdentifier, Outlets: responses})
}
