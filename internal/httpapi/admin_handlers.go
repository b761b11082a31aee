package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/model"
)

// AdminHandlers serves operator endpoints for inspecting tenant data. These
// sit behind the bearer token middleware rather than the session.
type AdminHandlers struct {
	database *gorm.DB
	logger   *zap.Logger
}

// NewAdminHandlers creates AdminHandlers.
func NewAdminHandlers(database *gorm.DB, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{database: database, logger: logger}
}

type adminReportSummary struct {
	ReportID   string `json:"report_id"`
	Name       string `json:"name"`
	OwnerEmail string `json:"owner_email"`
	CreatedAt  int64  `json:"created_at"`
}

type adminBadgeSummary struct {
	BadgeID          string `json:"badge_id"`
	GridID           string `json:"grid_id"`
	Name             string `json:"name"`
	PreviewGenerated bool   `json:"preview_generated"`
	GeneratedAt      int64  `json:"generated_at"`
	UpdatedAt        int64  `json:"updated_at"`
}

// ListReports returns every ingested report across tenants.
func (handlers *AdminHandlers) ListReports(context *gin.Context) {
	var reports []model.Report
	if findErr := handlers.database.WithContext(context.Request.Context()).
		Order("created_at desc").
		Find(&reports).Error; findErr != nil {
		handlers.logger.Warn("admin_list_reports", zap.Error(findErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	summaries := make([]adminReportSummary, 0, len(reports))
	for _, reportRow := range reports {
		summaries = append(summaries, adminReportSummary{
			ReportID:   reportRow.ID,
			Name:       reportRow.Name,
			OwnerEmail: reportRow.OwnerEmail,
			CreatedAt:  reportRow.CreatedAt.UTC().Unix(),
		})
	}
	context.JSON(http.StatusOK, gin.H{"reports": summaries})
}

// ListBadges returns every badge across tenants.
func (handlers *AdminHandlers) ListBadges(context *gin.Context) {
	var badges []model.TrustBadge
	if findErr := handlers.database.WithContext(context.Request.Context()).
		Order("updated_at desc").
		Find(&badges).Error; findErr != nil {
		handlers.logger.Warn("admin_list_badges", zap.Error(findErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	summaries := make([]adminBadgeSummary, 0, len(badges))
	for _, badgeRow := range badges {
		summaries = append(summaries, adminBadgeSummary{
			BadgeID:          badgeRow.ID,
			GridID:           badgeRow.GridID,
			Name:             badgeRow.Name,
			PreviewGenerated: badgeRow.HTMLDocument != "",
			GeneratedAt:      badgeRow.GeneratedAt.UTC().Unix(),
			UpdatedAt:        badgeRow.UpdatedAt.UTC().Unix(),
		})
	}
	context.JSON(http.StatusOK, gin.H{"badges": summaries})
}
