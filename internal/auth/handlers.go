package auth

import (
	"fmt"
	"net/http"

	"github.com/temirov/GAuss/pkg/constants"
	"github.com/temirov/GAuss/pkg/gauss"
	"go.uber.org/zap"
)

const (
	createServiceError  = "create oauth service"
	createHandlersError = "create oauth handlers"
)

// Config captures dependencies for building OAuth handlers. PublicBaseURL is
// the single externally visible origin of the service; OAuth redirects always
// use it, so the service runs behind exactly one hostname.
type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	PublicBaseURL      string
	LocalRedirectPath  string
	Scopes             []string
	LoginTemplate      string
	Logger             *zap.Logger
}

// Handlers exposes the Google OAuth endpoints backed by GAuss.
type Handlers struct {
	gaussHandlers *gauss.Handlers
	loginServeMux *http.ServeMux
	logger        *zap.Logger
}

// NewHandlers constructs a Handlers instance using GAuss primitives.
func NewHandlers(configuration Config) (*Handlers, error) {
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	serviceInstance, serviceErr := gauss.NewService(
		configuration.GoogleClientID,
		configuration.GoogleClientSecret,
		configuration.PublicBaseURL,
		configuration.LocalRedirectPath,
		configuration.Scopes,
		configuration.LoginTemplate,
	)
	if serviceErr != nil {
		return nil, fmt.Errorf("%s: %w", createServiceError, serviceErr)
	}

	gaussHandlers, handlersErr := gauss.NewHandlers(serviceInstance)
	if handlersErr != nil {
		return nil, fmt.Errorf("%s: %w", createHandlersError, handlersErr)
	}

	loginServeMux := http.NewServeMux()
	gaussHandlers.RegisterRoutes(loginServeMux)

	return &Handlers{gaussHandlers: gaussHandlers, loginServeMux: loginServeMux, logger: logger}, nil
}

// RegisterRoutes wires the OAuth endpoints to the provided ServeMux. The
// login page itself is rendered by GAuss, so that path delegates to the mux
// GAuss populated.
func (handlers *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(constants.LoginPath, handlers.loginServeMux.ServeHTTP)
	mux.HandleFunc(constants.GoogleAuthPath, handlers.gaussHandlers.Login)
	mux.HandleFunc(constants.CallbackPath, handlers.gaussHandlers.Callback)
	mux.HandleFunc(constants.LogoutPath, handlers.gaussHandlers.Logout)
}
