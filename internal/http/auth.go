package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/audit"
	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/catalog"
)

// AuthController handles login, logout and self-registration.
type AuthController struct {
	service  *auth.Service
	sessions *auth.SessionManager
	catalog  *catalog.Catalog
	audit    *audit.Service
}

func NewAuthController(service *auth.Service, sessions *auth.SessionManager, cat *catalog.Catalog, auditSvc *audit.Service) *AuthController {
	return &AuthController{service: service, sessions: sessions, catalog: cat, audit: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Admin    bool   `json:"admin" form:"admin"`
}

// Login handles POST /api/auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	subject, err := ac.service.Authenticate(req.Email, req.Password, req.Admin)
	if err != nil {
		ac.logAuth(req.Email, "login_failed", "Failed login for "+req.Email, err)
		respondDomainError(c, err, "login")
		return
	}

	if err := ac.sessions.CreateSession(c.Request, subject); err != nil {
		respondInternalError(c, err, "create session")
		return
	}
	ac.logAuth(subject.ID, "login", subject.Name+" logged in", nil)

	c.JSON(http.StatusOK, gin.H{"subject": subject})
}

// Logout handles POST /api/auth/logout.
func (ac *AuthController) Logout(c *gin.Context) {
	id := auth.GetSubjectID(c)
	if err := ac.sessions.DestroySession(c.Request); err != nil {
		respondInternalError(c, err, "destroy session")
		return
	}
	ac.logAuth(id, "logout", "Logged out", nil)
	respondSuccess(c, "logged out")
}

// Signup handles POST /api/auth/signup: students register themselves and are
// logged in straight away.
func (ac *AuthController) Signup(c *gin.Context) {
	var in catalog.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	student, err := ac.catalog.CreateStudent(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, err, "signup")
		return
	}

	subject, err := ac.service.Subject(student.ID, auth.RoleStudent)
	if err != nil {
		respondInternalError(c, err, "load new student")
		return
	}
	if err := ac.sessions.CreateSession(c.Request, subject); err != nil {
		respondInternalError(c, err, "create session")
		return
	}
	ac.logAuth(student.ID, "signup", student.Name+" registered", nil)

	respondCreated(c, gin.H{"subject": subject, "student": student.Public()})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles POST /api/auth/password.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	subject, _ := auth.GetSubject(c)

	err := ac.service.ChangePassword(subject.ID, subject.Role, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			respondError(c, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		respondDomainError(c, err, "change password")
		return
	}
	ac.logAuth(subject.ID, "password_change", "Changed password", nil)
	respondSuccess(c, "password updated")
}

func (ac *AuthController) logAuth(actorID, action, description string, err error) {
	if ac.audit != nil {
		ac.audit.LogAuth(actorID, action, description, err)
	}
}

// Me handles GET /api/auth/me.
func Me(c *gin.Context) {
	subject, ok := auth.GetSubject(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject":   subject,
		"auth_type": auth.GetAuthType(c),
	})
}

// CSRFToken handles GET /api/auth/csrf. The token is empty when CSRF
// protection is off.
func CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": auth.GetCSRFToken(c)})
}
