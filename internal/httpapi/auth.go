package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/temirov/GAuss/pkg/constants"
	"github.com/temirov/GAuss/pkg/session"
	"go.uber.org/zap"
)

const (
	contextKeyCurrentUser = "httpapi_current_user"
	authErrorUnauthorized = "unauthorized"
	authErrorForbidden    = "forbidden"
	logEventLoadSession   = "load_session"
)

// CurrentUser is the authenticated dashboard account resolved from the
// session. Authentication itself is owned by the OAuth collaborator; this
// package only reads the established session.
type CurrentUser struct {
	Email   string
	Name    string
	IsAdmin bool
}

func (currentUser *CurrentUser) normalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(currentUser.Email))
}

// AuthManager resolves the current user from the shared session store and
// enforces authentication on dashboard routes.
type AuthManager struct {
	logger       *zap.Logger
	sessionStore *sessions.CookieStore
	adminEmails  map[string]struct{}
}

// NewAuthManager creates an AuthManager. The provided emails are granted the
// service administrator role.
func NewAuthManager(logger *zap.Logger, adminEmails []string) *AuthManager {
	store := session.Store()
	adminMap := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		trimmedEmail := strings.ToLower(strings.TrimSpace(email))
		if trimmedEmail == "" {
			continue
		}
		adminMap[trimmedEmail] = struct{}{}
	}

	return &AuthManager{
		logger:       logger,
		sessionStore: store,
		adminEmails:  adminMap,
	}
}

// RequireAuthenticatedJSON rejects unauthenticated requests with a JSON error.
func (authManager *AuthManager) RequireAuthenticatedJSON() gin.HandlerFunc {
	return func(context *gin.Context) {
		if _, ok := authManager.ensureUser(context); !ok {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
			return
		}
		context.Next()
	}
}

// RequireAdminJSON rejects requests whose user lacks the administrator role.
func (authManager *AuthManager) RequireAdminJSON() gin.HandlerFunc {
	return func(context *gin.Context) {
		currentUser, ok := authManager.ensureUser(context)
		if !ok {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
			return
		}
		if !currentUser.IsAdmin {
			context.AbortWithStatusJSON(http.StatusForbidden, gin.H{jsonKeyError: authErrorForbidden})
			return
		}
		context.Next()
	}
}

// CurrentUserFromContext returns the resolved user attached to the request.
func CurrentUserFromContext(context *gin.Context) (*CurrentUser, bool) {
	value, exists := context.Get(contextKeyCurrentUser)
	if !exists {
		return nil, false
	}
	currentUser, ok := value.(*CurrentUser)
	return currentUser, ok
}

func (authManager *AuthManager) ensureUser(context *gin.Context) (*CurrentUser, bool) {
	if currentUser, exists := CurrentUserFromContext(context); exists {
		return currentUser, true
	}

	sessionInstance, sessionErr := authManager.sessionStore.Get(context.Request, constants.SessionName)
	if sessionErr != nil {
		authManager.logger.Warn(logEventLoadSession, zap.Error(sessionErr))
		return nil, false
	}

	email := extractSessionString(sessionInstance.Values[constants.SessionKeyUserEmail])
	if email == "" {
		return nil, false
	}

	name := extractSessionString(sessionInstance.Values[constants.SessionKeyUserName])
	_, isAdmin := authManager.adminEmails[strings.ToLower(email)]

	currentUser := &CurrentUser{
		Email:   email,
		Name:    name,
		IsAdmin: isAdmin,
	}

	context.Set(contextKeyCurrentUser, currentUser)
	return currentUser, true
}

func extractSessionString(value interface{}) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
