package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/auth"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/httpapi"
)

const (
	apiRoutePrefix         = "/api"
	apiRouteReports        = "/reports"
	apiRouteReportOutlets  = "/reports/:id/outlets"
	apiRouteReportBadge    = "/reports/:id/badge"
	apiRouteBadges         = "/badges"
	apiRouteBadgePreview   = "/badges/:id/preview"
	apiRouteBadgeByID      = "/badges/:id"
	adminRoutePrefix       = "/api/admin"
	adminRouteReports      = "/reports"
	adminRouteBadges       = "/badges"
	publicRouteBadgeScript = "/trust-badges/:id"
	publicRouteBadgeFrame  = "/trust-badges/:id/preview"

	corsOriginWildcard      = "*"
	corsHeaderAuthorization = "Authorization"
	corsHeaderContentType   = "Content-Type"
)

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsAllowedHeaders = []string{corsHeaderAuthorization, corsHeaderContentType}
	corsExposedHeaders = []string{corsHeaderContentType}
)

type routerDependencies struct {
	logger         *zap.Logger
	authManager    *httpapi.AuthManager
	badgeHandlers  *httpapi.BadgeHandlers
	reportHandlers *httpapi.ReportHandlers
	embedHandlers  *httpapi.EmbedHandlers
	adminHandlers  *httpapi.AdminHandlers
	oauthHandlers  *auth.Handlers
	serverConfig   ServerConfig
}

func buildRouter(dependencies routerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(dependencies.logger))

	registerPublicRoutes(router, dependencies)
	registerDashboardRoutes(router, dependencies)
	registerAdminRoutes(router, dependencies)

	if dependencies.oauthHandlers != nil {
		oauthMux := http.NewServeMux()
		dependencies.oauthHandlers.RegisterRoutes(oauthMux)
		router.NoRoute(gin.WrapH(oauthMux))
	}

	return router
}

// registerPublicRoutes wires the embed endpoints customer pages load from any
// origin. The loader script route matches both /trust-badges/:id.js and the
// bare id; the handler strips the extension.
func registerPublicRoutes(router *gin.Engine, dependencies routerDependencies) {
	publicCORS := cors.New(cors.Config{
		AllowOrigins:     []string{corsOriginWildcard},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})

	publicGroup := router.Group("/")
	publicGroup.Use(publicCORS)
	publicGroup.GET(publicRouteBadgeScript, dependencies.embedHandlers.BadgeScript)
	publicGroup.GET(publicRouteBadgeFrame, dependencies.embedHandlers.BadgePreview)
}

func registerDashboardRoutes(router *gin.Engine, dependencies routerDependencies) {
	apiGroup := router.Group(apiRoutePrefix)
	apiGroup.Use(cors.New(cors.Config{
		AllowOrigins:     []string{dependencies.serverConfig.PublicBaseURL},
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	apiGroup.Use(dependencies.authManager.RequireAuthenticatedJSON())

	apiGroup.POST(apiRouteReports, dependencies.reportHandlers.CreateReport)
	apiGroup.GET(apiRouteReportOutlets, dependencies.reportHandlers.ListReportOutlets)
	apiGroup.GET(apiRouteReportBadge, dependencies.badgeHandlers.DiscoverBadge)
	apiGroup.POST(apiRouteReportBadge, dependencies.badgeHandlers.GenerateBadge)
	apiGroup.GET(apiRouteBadges, dependencies.badgeHandlers.ListBadges)
	apiGroup.POST(apiRouteBadgePreview, dependencies.badgeHandlers.RegeneratePreview)
	apiGroup.DELETE(apiRouteBadgeByID, dependencies.badgeHandlers.DeleteBadge)
}

func registerAdminRoutes(router *gin.Engine, dependencies routerDependencies) {
	adminGroup := router.Group(adminRoutePrefix)
	adminGroup.Use(httpapi.AdminAuthMiddleware(dependencies.serverConfig.AdminBearerToken))
	adminGroup.GET(adminRouteReports, dependencies.adminHandlers.ListReports)
	adminGroup.GET(adminRouteBadges, dependencies.adminHandlers.ListBadges)
}
