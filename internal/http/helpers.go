package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backup"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/ledger"
	"github.com/mrlokans/libraryhub/internal/store"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// errorKind maps a domain sentinel onto an HTTP status and error code.
type errorKind struct {
	target error
	status int
	code   string
}

// Order matters: more specific sentinels come before the families they wrap.
var errorKinds = []errorKind{
	{catalog.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
	{circulation.ErrInvalidDateRange, http.StatusBadRequest, "INVALID_DATE_RANGE"},
	{circulation.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{ledger.ErrInvalidCount, http.StatusBadRequest, "INVALID_QUANTITY"},
	{store.ErrUnknownCollection, http.StatusBadRequest, "UNKNOWN_COLLECTION"},
	{store.ErrInvalidRecord, http.StatusBadRequest, "VALIDATION_FAILED"},

	{circulation.ErrInsufficientCopies, http.StatusConflict, "INSUFFICIENT_COPIES"},
	{circulation.ErrAlreadyReturned, http.StatusConflict, "ALREADY_RETURNED"},
	{circulation.ErrRenewalLimit, http.StatusConflict, "RENEWAL_LIMIT"},
	{catalog.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{catalog.ErrBookHasOutstanding, http.StatusConflict, "BOOK_ON_LOAN"},
	{store.ErrBookOnLoan, http.StatusConflict, "BOOK_ON_LOAN"},
	{catalog.ErrStudentHasOutstanding, http.StatusConflict, "STUDENT_HAS_LOANS"},
	{catalog.ErrLastSuperAdmin, http.StatusConflict, "LAST_SUPER_ADMIN"},
	{circulation.ErrNotEligible, http.StatusForbidden, "NOT_ELIGIBLE"},

	{circulation.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ledger.ErrBookNotFound, http.StatusNotFound, "NOT_FOUND"},
	{store.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{auth.ErrSubjectNotFound, http.StatusNotFound, "NOT_FOUND"},
	{backup.ErrNoBackups, http.StatusNotFound, "NOT_FOUND"},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{auth.ErrInvalidPassword, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{auth.ErrEmailRequired, http.StatusBadRequest, "VALIDATION_FAILED"},
	{auth.ErrPasswordRequired, http.StatusBadRequest, "VALIDATION_FAILED"},
	{auth.ErrPasswordTooShort, http.StatusBadRequest, "VALIDATION_FAILED"},
	{auth.ErrAccountLocked, http.StatusTooManyRequests, "ACCOUNT_LOCKED"},
}

// statusFor returns the HTTP status and code for err; unknown errors are 500.
func statusFor(err error) (int, string) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.target) {
			return kind.status, kind.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// respondDomainError translates a service error into a JSON error response.
// Internal errors are logged and hidden from the client.
func respondDomainError(c *gin.Context, err error, context string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		respondInternalError(c, err, context)
		return
	}

	resp := ErrorResponse{Error: err.Error(), Code: code}
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "validation failed"
		resp.Details = verr.Fields
	}
	var locked *auth.LockedError
	if errors.As(err, &locked) {
		c.Header("Retry-After", strconv.Itoa(int(locked.RetryAfter.Seconds())))
	}
	c.JSON(status, resp)
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "BAD_REQUEST"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL"})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIntQuery reads a non-negative integer query parameter, falling back to def
// when it is absent. Invalid values respond 400 and return false.
func parseIntQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}

// parseDate accepts RFC 3339 timestamps or plain 2006-01-02 dates.
// An empty string yields the zero time.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
