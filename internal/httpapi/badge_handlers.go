package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/badge"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/model"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/report"
)

const (
	jsonKeyError  = "error"
	jsonKeyNeeded = "needed"
	jsonKeyCount  = "count"

	errorValueInvalidJSON      = "invalid_json"
	errorValueMissingFields    = "missing_fields"
	errorValueMissingReport    = "missing_report"
	errorValueUnknownReport    = "unknown_report"
	errorValueMissingBadge     = "missing_badge"
	errorValueNoBadge          = "no_badge"
	errorValueUnknownOutlet    = "unknown_outlet"
	errorValueSelectionInvalid = "selection_invalid"
	errorValueNotAuthorized    = "not_authorized"
	errorValueLoadFailed       = "load_failed"
	errorValueSaveFailed       = "save_failed"
	errorValueDeleteFailed     = "delete_failed"
	errorValueQueryFailed      = "query_failed"

	queryParameterBadgeID = "badge_id"
	queryParameterGridID  = "grid_id"
)

// BadgeHandlers serves the dashboard badge lifecycle API.
type BadgeHandlers struct {
	badgeStore    badge.Store
	catalog       *report.Catalog
	logger        *zap.Logger
	publicBaseURL string
}

// NewBadgeHandlers creates BadgeHandlers.
func NewBadgeHandlers(badgeStore badge.Store, catalog *report.Catalog, logger *zap.Logger, publicBaseURL string) *BadgeHandlers {
	return &BadgeHandlers{
		badgeStore:    badgeStore,
		catalog:       catalog,
		logger:        logger,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

type generateBadgeRequest struct {
	BadgeID     string   `json:"badge_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	OutletIDs   []string `json:"outlet_ids"`
}

type badgeWebsiteResponse struct {
	ID           string `json:"id"`
	WebsiteName  string `json:"website_name"`
	PublishedURL string `json:"published_url,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	Domain       string `json:"domain,omitempty"`
}

type badgeResponse struct {
	BadgeID          string                 `json:"badge_id"`
	GridID           string                 `json:"grid_id"`
	Name             string                 `json:"name"`
	Description      string                 `json:"description"`
	Websites         []badgeWebsiteResponse `json:"websites"`
	Config           badge.Config           `json:"config"`
	HTMLDocument     string                 `json:"html_document"`
	EmbedCode        string                 `json:"embed_code"`
	PreviewURL       string                 `json:"preview_url"`
	PreviewGenerated bool                   `json:"preview_generated"`
	GeneratedAt      int64                  `json:"generated_at"`
	UpdatedAt        int64                  `json:"updated_at"`
}

type listBadgesResponse struct {
	Badges []badgeResponse `json:"badges"`
}

// DiscoverBadge locates an existing badge for a report. An explicit badge id
// supplied via query parameter takes priority over the report lookup, but it
// must resolve to a badge of that same report; a badge belonging to another
// report is treated as a miss. A miss answers 404 with no_badge; it is an
// expected outcome, not a fault.
func (handlers *BadgeHandlers) DiscoverBadge(context *gin.Context) {
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
	if !handlers.authorizeReportAccess(context, currentUser, reportIdentifier) {
		return
	}

	lifecycle := badge.NewLifecycle(handlers.badgeStore, handlers.logger, badge.DiscoveryContext{
		ExplicitBadgeID: strings.TrimSpace(context.Query(queryParameterBadgeID)),
		GridID:          reportIdentifier,
	})

	state, discoverErr := lifecycle.Discover(context.Request.Context())
	if discoverErr != nil || state == badge.StateNoBadge {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueNoBadge})
		return
	}

	record, _ := lifecycle.PersistedRecord()
	if record.GridID != reportIdentifier {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueNoBadge})
		return
	}
	context.JSON(http.StatusOK, handlers.toBadgeResponse(record))
}

// GenerateBadge synthesizes and persists the badge for a report: create on
// first generation, update when a badge already exists. The selection must be
// valid; otherwise no store call happens and the needed count is reported.
func (handlers *BadgeHandlers) GenerateBadge(context *gin.Context) {
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
	if !handlers.authorizeReportAccess(context, currentUser, reportIdentifier) {
		return
	}

	var payload generateBadgeRequest
	if bindErr := context.BindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Description = strings.TrimSpace(payload.Description)
	if payload.Name == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingFields})
		return
	}

	outlets, outletsErr := handlers.catalog.Outlets(context.Request.Context(), reportIdentifier)
	if outletsErr != nil {
		handlers.logger.Warn("load_report_outlets", zap.Error(outletsErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueLoadFailed})
		return
	}
	outletsByID := make(map[string]badge.Outlet, len(outlets))
	for _, outlet := range outlets {
		outletsByID[outlet.ID] = outlet
	}

	lifecycle := badge.NewLifecycle(handlers.badgeStore, handlers.logger, badge.DiscoveryContext{
		KnownBadgeID: strings.TrimSpace(payload.BadgeID),
		GridID:       reportIdentifier,
	})
	if _, discoverErr := lifecycle.Discover(context.Request.Context()); discoverErr != nil {
		handlers.respondLifecycleError(context, discoverErr)
		return
	}
	// A caller-supplied badge id must resolve within the report being edited;
	// a badge of another report is treated as a miss so the update below can
	// never address a foreign record.
	if record, adopted := lifecycle.PersistedRecord(); adopted && record.GridID != reportIdentifier {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueNoBadge})
		return
	}

	lifecycle.ClearSelection()
	for _, outletIdentifier := range payload.OutletIDs {
		outlet, known := outletsByID[strings.TrimSpace(outletIdentifier)]
		if !known {
			context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueUnknownOutlet})
			return
		}
		lifecycle.ToggleOutlet(outlet)
	}

	record, generateErr := lifecycle.Generate(context.Request.Context(), payload.Name, payload.Description)
	if generateErr != nil {
		handlers.respondLifecycleError(context, generateErr)
		return
	}

	context.JSON(http.StatusOK, handlers.toBadgeResponse(record))
}

// RegeneratePreview refreshes the stored document of an existing badge
// without altering its identity or metadata.
func (handlers *BadgeHandlers) RegeneratePreview(context *gin.Context) {
	badgeIdentifier := strings.TrimSpace(context.Param("id"))
	if badgeIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingBadge})
		return
	}

	currentUser, ok := CurrentUserFromContext(context)
	if !ok {
		context.JSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
		return
	}

	lifecycle := badge.NewLifecycle(handlers.badgeStore, handlers.logger, badge.DiscoveryContext{
		ExplicitBadgeID: badgeIdentifier,
	})
	state, discoverErr := lifecycle.Discover(context.Request.Context())
	if discoverErr != nil || state == badge.StateNoBadge {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueNoBadge})
		return
	}

	record, _ := lifecycle.PersistedRecord()
	if !handlers.authorizeReportAccess(context, currentUser, record.GridID) {
		return
	}

	if _, regenerateErr := lifecycle.RegeneratePreview(context.Request.Context()); regenerateErr != nil {
		handlers.respondLifecycleError(context, regenerateErr)
		return
	}

	refreshed, _ := lifecycle.PersistedRecord()
	context.JSON(http.StatusOK, handlers.toBadgeResponse(refreshed))
}

// DeleteBadge removes a badge. Confirmation is obtained by the dashboard
// before this call; a failed deletion leaves the badge untouched.
func (handlers *BadgeHandlers) DeleteBadge(context *gin.Context) {
	badgeIdentifier := strings.TrimSpace(context.Param("id"))
	if badgeIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingBadge})
		return
	}

	currentUser, ok := CurrentUserFromContext(context)
	if !ok {
		context.JSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
		return
	}

	lifecycle := badge.NewLifecycle(handlers.badgeStore, handlers.logger, badge.DiscoveryContext{
		ExplicitBadgeID: badgeIdentifier,
	})
	state, discoverErr := lifecycle.Discover(context.Request.Context())
	if discoverErr != nil || state == badge.StateNoBadge {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueNoBadge})
		return
	}

	record, _ := lifecycle.PersistedRecord()
	if !handlers.authorizeReportAccess(context, currentUser, record.GridID) {
		return
	}

	if deleteErr := lifecycle.Delete(context.Request.Context()); deleteErr != nil {
		handlers.respondLifecycleError(context, deleteErr)
		return
	}

	context.Status(http.StatusNoContent)
	context.Writer.WriteHeaderNow()
}

// ListBadges returns the badges of a report for the management view.
func (handlers *BadgeHandlers) ListBadges(context *gin.Context) {
	gridIdentifier := strings.TrimSpace(context.Query(queryParameterGridID))
	if gridIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingReport})
		return
	}

	currentUser, ok := CurrentUserFromContext(context)
	if !ok {
		context.JSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
		return
	}
	if !handlers.authorizeReportAccess(context, currentUser, gridIdentifier) {
		return
	}

	records, listErr := handlers.badgeStore.ListByGridID(context.Request.Context(), gridIdentifier)
	if listErr != nil {
		handlers.logger.Warn("list_badges", zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	responses := make([]badgeResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, handlers.toBadgeResponse(record))
	}
	context.JSON(http.StatusOK, listBadgesResponse{Badges: responses})
}

// respondLifecycleError maps the badge error taxonomy onto HTTP responses.
// Validation failures never reached the store; store failures are retryable
// and answered without transport-level detail.
func (handlers *BadgeHandlers) respondLifecycleError(context *gin.Context, lifecycleErr error) {
	var validationErr *badge.ValidationError
	if errors.As(lifecycleErr, &validationErr) {
		context.JSON(http.StatusBadRequest, gin.H{
			jsonKeyError:  errorValueSelectionInvalid,
			jsonKeyCount:  validationErr.Status.Count,
			jsonKeyNeeded: validationErr.Status.Needed,
		})
		return
	}

	var storeErr *badge.StoreError
	if errors.As(lifecycleErr, &storeErr) {
		handlers.logger.Warn("badge_store_failure", zap.String("op", string(storeErr.Operation)), zap.Error(storeErr))
		switch storeErr.Operation {
		case badge.StoreOperationDelete:
			context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueDeleteFailed})
		case badge.StoreOperationLoad:
			context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueLoadFailed})
		default:
			context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
		}
		return
	}

	if errors.Is(lifecycleErr, badge.ErrOperationInFlight) {
		context.JSON(http.StatusConflict, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	handlers.logger.Error("badge_lifecycle_failure", zap.Error(lifecycleErr))
	context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
}

// authorizeReportAccess verifies the user may manage the given report. It
// writes the error response itself and reports whether the caller may proceed.
func (handlers *BadgeHandlers) authorizeReportAccess(context *gin.Context, currentUser *CurrentUser, reportIdentifier string) bool {
	reportRow, reportErr := handlers.catalog.Report(context.Request.Context(), reportIdentifier)
	if reportErr != nil {
		if errors.Is(reportErr, report.ErrReportNotFound) {
			context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownReport})
			return false
		}
		handlers.logger.Warn("load_report", zap.Error(reportErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return false
	}
	if !canManageReport(currentUser, reportRow) {
		context.JSON(http.StatusForbidden, gin.H{jsonKeyError: errorValueNotAuthorized})
		return false
	}
	return true
}

func canManageReport(currentUser *CurrentUser, reportRow model.Report) bool {
	if currentUser == nil {
		return false
	}
	if currentUser.IsAdmin {
		return true
	}
	return currentUser.normalizedEmail() == strings.ToLower(strings.TrimSpace(reportRow.OwnerEmail))
}

func (handlers *BadgeHandlers) toBadgeResponse(record badge.Record) badgeResponse {
	websites := make([]badgeWebsiteResponse, 0, len(record.Websites))
	for _, website := range record.Websites {
		websites = append(websites, badgeWebsiteResponse{
			ID:           website.OutletID,
			WebsiteName:  website.WebsiteName,
			PublishedURL: website.PublishedURL,
			LogoURL:      website.LogoURL,
			Domain:       website.Domain,
		})
	}

	return badgeResponse{
		BadgeID:          record.BadgeID,
		GridID:           record.GridID,
		Name:             record.Name,
		Description:      record.Description,
		Websites:         websites,
		Config:           record.Config,
		HTMLDocument:     record.HTMLDocument,
		EmbedCode:        badge.EmbedCode(handlers.publicBaseURL, record.BadgeID),
		PreviewURL:       badge.PreviewURL(handlers.publicBaseURL, record.BadgeID),
		PreviewGenerated: record.PreviewGenerated(),
		GeneratedAt:      record.GeneratedAt.UTC().Unix(),
		UpdatedAt:        record.UpdatedAt.UTC().Unix(),
	}
}
