package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/httpapi"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/model"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/report"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/storage"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/testutil"
)

const (
	testOwnerEmailAddress = "owner@example.com"
	testOtherEmailAddress = "other@example.com"
	testAdminEmailAddress = "admin@example.com"
	testSessionContextKey = "httpapi_current_user"
	testPublicBaseURL     = "https://badges.mprlab.com"
)

type badgeTestHarness struct {
	database       *gorm.DB
	badgeStore     *storage.BadgeStore
	catalog        *report.Catalog
	badgeHandlers  *httpapi.BadgeHandlers
	reportHandlers *httpapi.ReportHandlers
	embedHandlers  *httpapi.EmbedHandlers
}

func newBadgeTestHarness(testingT *testing.T) badgeTestHarness {
	testingT.Helper()

	gin.SetMode(gin.TestMode)
	sqliteDatabase := testutil.NewSQLiteTestDatabase(testingT)
	database, openErr := storage.OpenDatabase(sqliteDatabase.Configuration())
	require.NoError(testingT, openErr)
	database = testutil.ConfigureDatabaseLogger(testingT, database)
	require.NoError(testingT, storage.AutoMigrate(database))

	badgeStore := storage.NewBadgeStore(database)
	catalog := report.NewCatalog(database)

	return badgeTestHarness{
		database:       database,
		badgeStore:     badgeStore,
		catalog:        catalog,
		badgeHandlers:  httpapi.NewBadgeHandlers(badgeStore, catalog, zap.NewNop(), testPublicBaseURL),
		reportHandlers: httpapi.NewReportHandlers(database, catalog, zap.NewNop()),
		embedHandlers:  httpapi.NewEmbedHandlers(badgeStore, zap.NewNop()),
	}
}

// seedReportWithOutlets inserts a report owned by testOwnerEmailAddress with
// the given number of outlets and returns the report id plus the outlet ids in
// display order.
func (harness badgeTestHarness) seedReportWithOutlets(testingT *testing.T, outletCount int) (string, []string) {
	testingT.Helper()
	return harness.seedReportForOwner(testingT, testOwnerEmailAddress, outletCount)
}

func (harness badgeTestHarness) seedReportForOwner(testingT *testing.T, ownerEmail string, outletCount int) (string, []string) {
	testingT.Helper()

	reportRow := model.Report{
		ID:         storage.NewID(),
		Name:       "Seeded Report",
		OwnerEmail: ownerEmail,
	}
	require.NoError(testingT, harness.database.Create(&reportRow).Error)

	outletIdentifiers := make([]string, 0, outletCount)
	for index := 0; index < outletCount; index++ {
		outletRow := model.ReportOutlet{
			ID:           storage.NewID(),
			ReportID:     reportRow.ID,
			WebsiteName:  fmt.Sprintf("Outlet %d", index+1),
			PublishedURL: fmt.Sprintf("https://outlet-%d.example.com/story", index+1),
			Position:     index,
		}
		require.NoError(testingT, harness.database.Create(&outletRow).Error)
		outletIdentifiers = append(outletIdentifiers, outletRow.ID)
	}
	return reportRow.ID, outletIdentifiers
}

func newJSONContext(method string, path string, body any) (*httptest.ResponseRecorder, *gin.Context) {
	recorder := httptest.NewRecorder()
	var requestBody *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		requestBody = bytes.NewReader(encoded)
	} else {
		requestBody = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, requestBody)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	context, _ := gin.CreateTestContext(recorder)
	context.Request = request
	return recorder, context
}

func setOwnerUser(context *gin.Context) {
	context.Set(testSessionContextKey, &httpapi.CurrentUser{Email: testOwnerEmailAddress, Name: "Owner"})
}

func setOtherUser(context *gin.Context) {
	context.Set(testSessionContextKey, &httpapi.CurrentUser{Email: testOtherEmailAddress, Name: "Other"})
}

func setAdminUser(context *gin.Context) {
	context.Set(testSessionContextKey, &httpapi.CurrentUser{Email: testAdminEmailAddress, Name: "Admin", IsAdmin: true})
}

func decodeJSONBody(testingT *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	testingT.Helper()

	var payload map[string]any
	require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

// generateBadgeForReport drives the generate handler with the first
// outletCount outlets of the report and returns the decoded response.
func (harness badgeTestHarness) generateBadgeForReport(testingT *testing.T, reportID string, outletIdentifiers []string) map[string]any {
	testingT.Helper()

	recorder, context := newJSONContext(http.MethodPost, "/api/reports/"+reportID+"/badge", map[string]any{
		"name":       "Launch Badge",
		"outlet_ids": outletIdentifiers,
	})
	context.Params = gin.Params{{Key: "id", Value: reportID}}
	setOwnerUser(context)

	harness.badgeHandlers.GenerateBadge(context)
	require.Equal(testingT, http.StatusOK, recorder.Code)
	return decodeJSONBody(testingT, recorder)
}
