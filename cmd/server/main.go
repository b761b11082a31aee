package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/temirov/GAuss/pkg/gauss"
	"github.com/temirov/GAuss/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/auth"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/httpapi"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/report"
	"github.com/MarkoPoloResearchLab/pressbadge/internal/storage"
)

const (
	commandUseName              = "server"
	commandShortDescription     = "Run the trust badge server"
	commandLongDescription      = "Launch the trust badge dashboard and embed HTTP server"
	missingConfigurationMessage = "missing required configuration"
	loggerCreationErrorMessage  = "logger"
	logEventListening           = "listening"
	logFieldAddress             = "addr"

	flagNameApplicationAddress     = "app-addr"
	flagNameDatabaseDriverName     = "db-driver"
	flagNameDatabaseDataSourceName = "db-dsn"
	flagNamePublicBaseURL          = "public-base-url"
	flagNameAdminEmails            = "admin-emails"
	flagNameAdminBearerToken       = "admin-bearer-token"
	flagNameGoogleClientID         = "google-client-id"
	flagNameGoogleClientSecret     = "google-client-secret"
	flagNameSessionSecret          = "session-secret"

	flagUsageApplicationAddress     = "address for the HTTP server to listen on"
	flagUsageDatabaseDriverName     = "database driver name (sqlite)"
	flagUsageDatabaseDataSourceName = "database connection string"
	flagUsagePublicBaseURL          = "externally visible base URL used in embed codes and OAuth redirects"
	flagUsageAdminEmails            = "comma separated emails granted the administrator role"
	flagUsageAdminBearerToken       = "bearer token required for operator API access"
	flagUsageGoogleClientID         = "Google OAuth client id"
	flagUsageGoogleClientSecret     = "Google OAuth client secret"
	flagUsageSessionSecret          = "secret key for the dashboard session cookies"

	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyDatabaseDriverName = "DB_DRIVER"
	environmentKeyDatabaseDataSource = "DB_DSN"
	environmentKeyPublicBaseURL      = "PUBLIC_BASE_URL"
	environmentKeyAdminEmails        = "ADMIN_EMAILS"
	environmentKeyAdminBearerToken   = "ADMIN_BEARER_TOKEN"
	environmentKeyGoogleClientID     = "GOOGLE_CLIENT_ID"
	environmentKeyGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	environmentKeySessionSecret      = "SESSION_SECRET"

	defaultApplicationAddress = ":8080"
	defaultDatabaseDriverName = storage.DriverNameSQLite

	adminEmailSeparator   = ","
	postLoginRedirectPath = "/"

	loggerContextOpenDatabase = "open_db"
	loggerContextAutoMigrate  = "migrate"
	loggerContextOAuth        = "oauth"
	loggerContextServer       = "server"

	readHeaderTimeoutSeconds      = 5
	unexpectedArgumentsMessage    = "unexpected command arguments"
	commandInitializationFailure  = "failed to configure command"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"
)

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress     string
	DatabaseDriverName     string
	DatabaseDataSourceName string
	PublicBaseURL          string
	AdminEmails            []string
	AdminBearerToken       string
	GoogleClientID         string
	GoogleClientSecret     string
	SessionSecret          string
}

// DatabaseOpener opens a database connection from storage configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDriverName, defaultDatabaseDriverName)
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameDatabaseDriverName, defaultDatabaseDriverName, flagUsageDatabaseDriverName)
	commandFlags.String(flagNameDatabaseDataSourceName, "", flagUsageDatabaseDataSourceName)
	commandFlags.String(flagNamePublicBaseURL, "", flagUsagePublicBaseURL)
	commandFlags.String(flagNameAdminEmails, "", flagUsageAdminEmails)
	commandFlags.String(flagNameAdminBearerToken, "", flagUsageAdminBearerToken)
	commandFlags.String(flagNameGoogleClientID, "", flagUsageGoogleClientID)
	commandFlags.String(flagNameGoogleClientSecret, "", flagUsageGoogleClientSecret)
	commandFlags.String(flagNameSessionSecret, "", flagUsageSessionSecret)

	flagBindings := []struct {
		environmentKey string
		flagName       string
	}{
		{environmentKeyApplicationAddress, flagNameApplicationAddress},
		{environmentKeyDatabaseDriverName, flagNameDatabaseDriverName},
		{environmentKeyDatabaseDataSource, flagNameDatabaseDataSourceName},
		{environmentKeyPublicBaseURL, flagNamePublicBaseURL},
		{environmentKeyAdminEmails, flagNameAdminEmails},
		{environmentKeyAdminBearerToken, flagNameAdminBearerToken},
		{environmentKeyGoogleClientID, flagNameGoogleClientID},
		{environmentKeyGoogleClientSecret, flagNameGoogleClientSecret},
		{environmentKeySessionSecret, flagNameSessionSecret},
	}

	for _, binding := range flagBindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) loadConfiguration() ServerConfig {
	return ServerConfig{
		ApplicationAddress:     application.configurationLoader.GetString(environmentKeyApplicationAddress),
		DatabaseDriverName:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDriverName)),
		DatabaseDataSourceName: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDataSource)),
		PublicBaseURL:          strings.TrimSpace(application.configurationLoader.GetString(environmentKeyPublicBaseURL)),
		AdminEmails:            splitAdminEmails(application.configurationLoader.GetString(environmentKeyAdminEmails)),
		AdminBearerToken:       strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAdminBearerToken)),
		GoogleClientID:         strings.TrimSpace(application.configurationLoader.GetString(environmentKeyGoogleClientID)),
		GoogleClientSecret:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyGoogleClientSecret)),
		SessionSecret:          strings.TrimSpace(application.configurationLoader.GetString(environmentKeySessionSecret)),
	}
}

func splitAdminEmails(rawValue string) []string {
	var emails []string
	for _, segment := range strings.Split(rawValue, adminEmailSeparator) {
		trimmedSegment := strings.TrimSpace(segment)
		if trimmedSegment == "" {
			continue
		}
		emails = append(emails, trimmedSegment)
	}
	return emails
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig := application.loadConfiguration()
	if validationErr := ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     serverConfig.DatabaseDriverName,
		DataSourceName: serverConfig.DatabaseDataSourceName,
	})
	if databaseErr != nil {
		logger.Fatal(loggerContextOpenDatabase, zap.Error(databaseErr))
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		logger.Fatal(loggerContextAutoMigrate, zap.Error(migrateErr))
	}

	badgeStore := storage.NewBadgeStore(database)
	reportCatalog := report.NewCatalog(database)

	// The session store must exist before any session consumer is built.
	if serverConfig.SessionSecret != "" {
		session.NewSession([]byte(serverConfig.SessionSecret))
	}

	authManager := httpapi.NewAuthManager(logger, serverConfig.AdminEmails)
	badgeHandlers := httpapi.NewBadgeHandlers(badgeStore, reportCatalog, logger, serverConfig.PublicBaseURL)
	reportHandlers := httpapi.NewReportHandlers(database, reportCatalog, logger)
	embedHandlers := httpapi.NewEmbedHandlers(badgeStore, logger)
	adminHandlers := httpapi.NewAdminHandlers(database, logger)

	var oauthHandlers *auth.Handlers
	if serverConfig.GoogleClientID != "" && serverConfig.GoogleClientSecret != "" {
		builtHandlers, oauthErr := auth.NewHandlers(auth.Config{
			GoogleClientID:     serverConfig.GoogleClientID,
			GoogleClientSecret: serverConfig.GoogleClientSecret,
			PublicBaseURL:      serverConfig.PublicBaseURL,
			LocalRedirectPath:  postLoginRedirectPath,
			Scopes:             gauss.ScopeStrings(gauss.DefaultScopes),
			Logger:             logger,
		})
		if oauthErr != nil {
			logger.Fatal(loggerContextOAuth, zap.Error(oauthErr))
		}
		oauthHandlers = builtHandlers
	}

	router := buildRouter(routerDependencies{
		logger:         logger,
		authManager:    authManager,
		badgeHandlers:  badgeHandlers,
		reportHandlers: reportHandlers,
		embedHandlers:  embedHandlers,
		adminHandlers:  adminHandlers,
		oauthHandlers:  oauthHandlers,
		serverConfig:   serverConfig,
	})

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}

	return nil
}

func ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.DatabaseDataSourceName == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDataSourceName)
	}

	if configuration.PublicBaseURL == "" {
		missingParameters = append(missingParameters, flagNamePublicBaseURL)
	}

	if configuration.AdminBearerToken == "" {
		missingParameters = append(missingParameters, flagNameAdminBearerToken)
	}

	if len(missingParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
