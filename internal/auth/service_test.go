package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Student{}, &entities.Admin{}))
	return db
}

func seedAccounts(t *testing.T, db *gorm.DB) {
	t.Helper()
	studentHash, err := HashPassword("password", bcrypt.MinCost)
	require.NoError(t, err)
	adminHash, err := HashPassword("admin123", bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, db.Create(&entities.Student{
		ID: "s-1", Name: "John Doe", Email: "email@student.com", StudentNumber: "STU-2025-001", PasswordHash: studentHash,
	}).Error)
	require.NoError(t, db.Create(&entities.Admin{
		ID: "a-1", Name: "Super Admin", Email: "admin@library.com", PasswordHash: adminHash, Role: entities.AdminRoleSuperAdmin,
	}).Error)
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	svc := NewService(db, config.Auth{BcryptCost: bcrypt.MinCost, MaxLoginAttempts: 5})
	t.Cleanup(svc.Stop)
	return svc
}

func TestService_Authenticate(t *testing.T) {
	db := setupTestDB(t)
	seedAccounts(t, db)

	t.Run("student logs in by email", func(t *testing.T) {
		svc := newTestService(t, db)
		subject, err := svc.Authenticate("Email@Student.com", "password", false)
		require.NoError(t, err)
		assert.Equal(t, "s-1", subject.ID)
		assert.Equal(t, RoleStudent, subject.Role)
	})

	t.Run("admin logs in with their stored role", func(t *testing.T) {
		svc := newTestService(t, db)
		subject, err := svc.Authenticate("admin@library.com", "admin123", true)
		require.NoError(t, err)
		assert.Equal(t, RoleSuperAdmin, subject.Role)
		assert.True(t, subject.Role.IsAdmin())
	})

	t.Run("student credentials do not open the admin door", func(t *testing.T) {
		svc := newTestService(t, db)
		_, err := svc.Authenticate("email@student.com", "password", true)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		svc := newTestService(t, db)
		_, err := svc.Authenticate("email@student.com", "nope-nope", false)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = svc.Authenticate("ghost@student.com", "password", false)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := newTestService(t, db)
		_, err := svc.Authenticate("", "password", false)
		assert.ErrorIs(t, err, ErrEmailRequired)
		_, err = svc.Authenticate("email@student.com", "", false)
		assert.ErrorIs(t, err, ErrPasswordRequired)
	})

	t.Run("five failures lock the email even for the right password", func(t *testing.T) {
		svc := newTestService(t, db)
		for i := 0; i < 5; i++ {
			_, err := svc.Authenticate("email@student.com", "wrong-password", false)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}

		_, err := svc.Authenticate("email@student.com", "password", false)
		assert.ErrorIs(t, err, ErrAccountLocked)
		var locked *LockedError
		require.True(t, errors.As(err, &locked))
		assert.Greater(t, locked.RetryAfter, 29*time.Minute)

		_, err = svc.Authenticate("admin@library.com", "admin123", true)
		assert.NoError(t, err, "lockout is per email")
	})
}

func TestService_Subject(t *testing.T) {
	db := setupTestDB(t)
	seedAccounts(t, db)
	svc := newTestService(t, db)

	subject, err := svc.Subject("s-1", RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", subject.Name)

	subject, err = svc.Subject("a-1", RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin@library.com", subject.Email)

	_, err = svc.Subject("missing", RoleStudent)
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	_, err = svc.Subject("a-1", Role("librarian"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestService_ChangePassword(t *testing.T) {
	db := setupTestDB(t)
	seedAccounts(t, db)
	svc := newTestService(t, db)

	err := svc.ChangePassword("s-1", RoleStudent, "not-current", "newsecret")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, svc.ChangePassword("s-1", RoleStudent, "password", "newsecret"))

	_, err = svc.Authenticate("email@student.com", "password", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate("email@student.com", "newsecret", false)
	assert.NoError(t, err)

	err = svc.ChangePassword("a-1", RoleSuperAdmin, "admin123", "123")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
