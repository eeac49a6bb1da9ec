package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{circulation.ErrStudentNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("issue: %w", circulation.ErrBookNotFound), http.StatusNotFound, "NOT_FOUND"},
		{circulation.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND"},
		{catalog.ErrAdminNotFound, http.StatusNotFound, "NOT_FOUND"},
		{store.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{circulation.ErrInsufficientCopies, http.StatusConflict, "INSUFFICIENT_COPIES"},
		{fmt.Errorf("%w: record r-1", circulation.ErrAlreadyReturned), http.StatusConflict, "ALREADY_RETURNED"},
		{circulation.ErrInvalidDateRange, http.StatusBadRequest, "INVALID_DATE_RANGE"},
		{circulation.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
		{&catalog.ValidationError{Fields: map[string]string{"title": "Title is required"}}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{catalog.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
		{fmt.Errorf("%w: b-1 has 1 outstanding", store.ErrBookOnLoan), http.StatusConflict, "BOOK_ON_LOAN"},
		{fmt.Errorf("%w: book b-1 has negative copies", store.ErrInvalidRecord), http.StatusBadRequest, "VALIDATION_FAILED"},
		{&auth.LockedError{RetryAfter: time.Minute}, http.StatusTooManyRequests, "ACCOUNT_LOCKED"},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, code := statusFor(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestRespondDomainError(t *testing.T) {
	t.Run("internal errors are hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondDomainError(c, errors.New("secret detail"), "test")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret detail")
	})

	t.Run("lockout sets Retry-After", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondDomainError(c, &auth.LockedError{RetryAfter: 90 * time.Second}, "login")

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "90", w.Header().Get("Retry-After"))
	})
}

func TestParseIntQuery(t *testing.T) {
	t.Run("missing uses default", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		n, ok := parseIntQuery(c, "limit", 7)
		assert.True(t, ok)
		assert.Equal(t, 7, n)
	})

	t.Run("negative is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?limit=-1", nil)

		_, ok := parseIntQuery(c, "limit", 7)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid limit")
	})
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDate("2024-01-15T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	d, err = parseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("15/01/2024")
	assert.Error(t, err)
}
