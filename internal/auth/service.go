package auth

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/database/admins"
	"github.com/mrlokans/libraryhub/internal/database/students"
	"github.com/mrlokans/libraryhub/internal/entities"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSubjectNotFound    = errors.New("account not found")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidRole        = errors.New("invalid role")
)

// Role is the authorization level carried by a session.
type Role string

const (
	RoleStudent    Role = "student"
	RoleAdmin      Role = Role(entities.AdminRoleAdmin)
	RoleSuperAdmin Role = Role(entities.AdminRoleSuperAdmin)
)

// IsAdmin reports whether the role belongs to library staff.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Subject is an authenticated student or admin.
type Subject struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// AnonymousSubjectID identifies the implicit super admin used when auth is disabled.
const AnonymousSubjectID = "anonymous"

// AnonymousSubject is injected into every request in "none" mode.
func AnonymousSubject() Subject {
	return Subject{ID: AnonymousSubjectID, Name: "Anonymous", Role: RoleSuperAdmin}
}

// LockedError carries the remaining lockout time.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrAccountLocked, e.RetryAfter.Round(time.Second))
}

func (e *LockedError) Unwrap() error {
	return ErrAccountLocked
}

// Service authenticates students and admins against stored bcrypt hashes.
type Service struct {
	db      *gorm.DB
	config  config.Auth
	limiter *RateLimiter
}

// NewService creates a new authentication service. Failed logins are throttled
// per email using the configured attempt window and lockout.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
		limiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// Stop releases the throttle's background cleanup.
func (s *Service) Stop() {
	s.limiter.Stop()
}

// Authenticate verifies credentials for a student (admin=false) or an admin.
func (s *Service) Authenticate(email, password string, admin bool) (*Subject, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	if allowed, retryAfter := s.limiter.Allow(email); !allowed {
		return nil, &LockedError{RetryAfter: retryAfter}
	}

	subject, hash, err := s.lookupByEmail(email, admin)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			s.recordFailure(email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(password, hash); err != nil {
		s.recordFailure(email)
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	s.limiter.RecordSuccess(email)
	return subject, nil
}

func (s *Service) recordFailure(email string) {
	if locked, lockout := s.limiter.RecordFailure(email); locked {
		log.Printf("Auth: %s locked out for %s after repeated failed logins", email, lockout)
	}
}

func (s *Service) lookupByEmail(email string, admin bool) (*Subject, string, error) {
	if admin {
		a, err := admins.NewRepository(s.db).GetByEmail(email)
		if err != nil {
			return nil, "", notFound(err)
		}
		return adminSubject(a), a.PasswordHash, nil
	}
	st, err := students.NewRepository(s.db).GetByEmail(email)
	if err != nil {
		return nil, "", notFound(err)
	}
	return studentSubject(st), st.PasswordHash, nil
}

// Subject reloads a subject by identity, as stored in a session.
func (s *Service) Subject(id string, role Role) (*Subject, error) {
	if role == RoleStudent {
		st, err := students.NewRepository(s.db).GetByID(id)
		if err != nil {
			return nil, notFound(err)
		}
		return studentSubject(st), nil
	}
	if !role.IsAdmin() {
		return nil, ErrInvalidRole
	}
	a, err := admins.NewRepository(s.db).GetByID(id)
	if err != nil {
		return nil, notFound(err)
	}
	return adminSubject(a), nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(id string, role Role, oldPassword, newPassword string) error {
	subject, err := s.Subject(id, role)
	if err != nil {
		return err
	}
	_, hash, err := s.lookupByEmail(subject.Email, role.IsAdmin())
	if err != nil {
		return err
	}
	if err := CheckPassword(oldPassword, hash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	model := any(&entities.Student{})
	if role.IsAdmin() {
		model = &entities.Admin{}
	}
	return s.db.Model(model).Where("id = ?", id).Update("password_hash", newHash).Error
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// GetAuthMode returns the current authentication mode.
func (s *Service) GetAuthMode() config.AuthMode {
	return s.config.Mode
}

func studentSubject(st *entities.Student) *Subject {
	return &Subject{ID: st.ID, Name: st.Name, Email: st.Email, Role: RoleStudent}
}

func adminSubject(a *entities.Admin) *Subject {
	return &Subject{ID: a.ID, Name: a.Name, Email: a.Email, Role: Role(a.Role)}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSubjectNotFound
	}
	return err
}
