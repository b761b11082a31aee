package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/model"
)

func TestCreateReportFromJSON(t *testing.T) {
	harness := newBadgeTestHarness(t)

	recorder, context := newJSONContext(http.MethodPost, "/api/reports", map[string]any{
		"name": "Spring Launch",
		"outlets": []map[string]any{
			{"website_name": "Forbes", "published_url": "https://www.forbes.com/story", "reach": 1200000},
			{"website_name": "Reuters", "published_url": "https://www.reuters.com/story"},
			{"website_name": "The Example Gazette"},
		},
	})
	setOwnerUser(context)

	harness.reportHandlers.CreateReport(context)

	require.Equal(t, http.StatusCreated, recorder.Code)
	payload := decodeJSONBody(t, recorder)
	require.NotEmpty(t, payload["report_id"])
	require.Equal(t, "Spring Launch", payload["name"])
	require.Equal(t, testOwnerEmailAddress, payload["owner_email"])
	require.Equal(t, float64(3), payload["outlet_count"])

	var outletRows []model.ReportOutlet
	require.NoError(t, harness.database.Where("report_id = ?", payload["report_id"]).Order("position asc").Find(&outletRows).Error)
	require.Len(t, outletRows, 3)
	require.Equal(t, "Forbes", outletRows[0].WebsiteName)
	require.Equal(t, int64(1200000), outletRows[0].Reach)
	require.Equal(t, 2, outletRows[2].Position)
}

func TestCreateReportFromCSV(t *testing.T) {
	harness := newBadgeTestHarness(t)

	body := strings.Join([]string{
		"website,url,reach",
		"Forbes,https://www.forbes.com/story,1200000",
		"Reuters,https://www.reuters.com/story,800000",
	}, "\n")

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/reports?name=CSV+Upload", strings.NewReader(body))
	request.Header.Set("Content-Type", "text/csv")
	context, _ := gin.CreateTestContext(recorder)
	context.Request = request
	setOwnerUser(context)

	harness.reportHandlers.CreateReport(context)

	require.Equal(t, http.StatusCreated, recorder.Code)
	payload := decodeJSONBody(t, recorder)
	require.Equal(t, "CSV Upload", payload["name"])
	require.Equal(t, float64(2), payload["outlet_count"])
}

func TestCreateReportRequiresName(t *testing.T) {
	harness := newBadgeTestHarness(t)

	recorder, context := newJSONContext(http.MethodPost, "/api/reports", map[string]any{
		"outlets": []map[string]any{{"website_name": "Forbes"}},
	})
	setOwnerUser(context)

	harness.reportHandlers.CreateReport(context)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "missing_fields", decodeJSONBody(t, recorder)["error"])
}

func TestCreateReportRejectsEmptyOutlets(t *testing.T) {
	harness := newBadgeTestHarness(t)

	recorder, context := newJSONContext(http.MethodPost, "/api/reports", map[string]any{
		"name":    "Empty Report",
		"outlets": []map[string]any{},
	})
	setOwnerUser(context)

	harness.reportHandlers.CreateReport(context)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "empty_outlets", decodeJSONBody(t, recorder)["error"])
}

func TestListReportOutletsReturnsDisplayOrder(t *testing.T) {
	harness := newBadgeTestHarness(t)
	reportID, outletIdentifiers := harness.seedReportWithOutlets(t, 4)

	recorder, context := newJSONContext(http.MethodGet, "/api/reports/"+reportID+"/outlets", nil)
	context.Params = gin.Params{{Key: "id", Value: reportID}}
	setOwnerUser(context)

	harness.reportHandlers.ListReportOutlets(context)

	require.Equal(t, http.StatusOK, recorder.Code)
	payload := decodeJSONBody(t, recorder)
	require.Equal(t, reportID, payload["report_id"])
	outlets, _ := payload["outlets"].([]any)
	require.Len(t, outlets, 4)

	firstOutlet, _ := outlets[0].(map[string]any)
	require.Equal(t, outletIdentifiers[0], firstOutlet["id"])
	require.Equal(t, "Outlet 1", firstOutlet["website_name"])
	require.Equal(t, "outlet-1.example.com", firstOutlet["domain"])
}

func TestListReportOutletsRequiresOwnership(t *testing.T) {
	harness := newBadgeTestHarness(t)
	reportID, _ := harness.seedReportWithOutlets(t, 3)

	recorder, context := newJSONContext(http.MethodGet, "/api/reports/"+reportID+"/outlets", nil)
	context.Params = gin.Params{{Key: "id", Value: reportID}}
	setOtherUser(context)

	harness.reportHandlers.ListReportOutlets(context)

	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestListReportOutletsForUnknownReport(t *testing.T) {
	harness := newBadgeTestHarness(t)

	recorder, context := newJSONContext(http.MethodGet, "/api/reports/report-vanished/outlets", nil)
	context.Params = gin.Params{{Key: "id", Value: "report-vanished"}}
	setOwnerUser(context)

	harness.reportHandlers.ListReportOutlets(context)

	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "unknown_report", decodeJSONBody(t, recorder)["error"])
}
