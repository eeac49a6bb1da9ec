package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/config"
)

// Context keys for subject data
const (
	ContextKeySubject  = "auth_subject"
	ContextKeyAuthType = "auth_type" // "session" or "none"
)

// AuthType indicates how the subject was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
)

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	publicPaths := map[string]bool{
		"/health":          true,
		"/ping":            true,
		"/metrics":         true,
		"/api/auth/login":  true,
		"/api/auth/signup": true,
		"/api/auth/csrf":   true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode != config.AuthModeLocal {
		return m.noAuthHandler()
	}
	return m.authHandler()
}

// noAuthHandler treats every request as the anonymous super admin.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	anonymous := AnonymousSubject()
	return func(c *gin.Context) {
		c.Set(ContextKeySubject, anonymous)
		c.Set(ContextKeyAuthType, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		if subject := m.trySessionAuth(c); subject != nil {
			c.Set(ContextKeySubject, *subject)
			c.Set(ContextKeyAuthType, AuthTypeSession)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"code":  "UNAUTHORIZED",
		})
	}
}

// trySessionAuth resolves the session's subject, rejecting sessions whose
// account has since been deleted.
func (m *Middleware) trySessionAuth(c *gin.Context) *Subject {
	if m.sessionManager == nil {
		return nil
	}

	id := m.sessionManager.GetSubjectID(c.Request)
	if id == "" {
		return nil
	}

	subject, err := m.service.Subject(id, m.sessionManager.GetRole(c.Request))
	if err != nil {
		return nil
	}
	return subject
}

func (m *Middleware) isPublicPath(path string) bool {
	if m.publicPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// RequireRole returns a middleware that admits only the given roles.
func (m *Middleware) RequireRole(roles ...Role) gin.HandlerFunc {
	roleSet := make(map[Role]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if m.config.Mode != config.AuthModeLocal {
			c.Next()
			return
		}

		if !roleSet[GetRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
				"code":  "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin admits both admin roles.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(RoleAdmin, RoleSuperAdmin)
}

// GetSubject retrieves the authenticated subject from the context.
func GetSubject(c *gin.Context) (Subject, bool) {
	if v, exists := c.Get(ContextKeySubject); exists {
		if subject, ok := v.(Subject); ok {
			return subject, true
		}
	}
	return Subject{}, false
}

// GetSubjectID returns "" for unauthenticated requests.
func GetSubjectID(c *gin.Context) string {
	subject, _ := GetSubject(c)
	return subject.ID
}

func GetRole(c *gin.Context) Role {
	subject, _ := GetSubject(c)
	return subject.Role
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
