package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/smallfirm/fakturo/internal/client/domain"
	invoicedomain "github.com/smallfirm/fakturo/internal/invoice/domain"
	profiledomain "github.com/smallfirm/fakturo/internal/profile/domain"
	recurringdomain "github.com/smallfirm/fakturo/internal/recurring/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, invoicedomain.ErrNumberConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "document number conflict, retry the request",
		}
	case errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, invoicedomain.ErrTrashed),
		errors.Is(err, invoicedomain.ErrNotTrashed),
		errors.Is(err, invoicedomain.ErrNotQuote),
		errors.Is(err, recurringdomain.ErrNotActive):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidKind),
		errors.Is(err, invoicedomain.ErrInvalidIssueDate),
		errors.Is(err, invoicedomain.ErrInvalidTermsDays),
		errors.Is(err, invoicedomain.ErrInvalidTaxRate),
		errors.Is(err, invoicedomain.ErrInvalidQuantity),
		errors.Is(err, invoicedomain.ErrNoItems),
		errors.Is(err, clientdomain.ErrInvalidID),
		errors.Is(err, clientdomain.ErrInvalidName),
		errors.Is(err, clientdomain.ErrInvalidCurrency),
		errors.Is(err, clientdomain.ErrInvalidTermsDays),
		errors.Is(err, clientdomain.ErrInvalidTaxRate),
		errors.Is(err, profiledomain.ErrInvalidCompanyName),
		errors.Is(err, profiledomain.ErrInvalidCurrency),
		errors.Is(err, profiledomain.ErrInvalidTermsDays),
		errors.Is(err, profiledomain.ErrInvalidTaxRate),
		errors.Is(err, recurringdomain.ErrInvalidID),
		errors.Is(err, recurringdomain.ErrInvalidName),
		errors.Is(err, recurringdomain.ErrInvalidFrequency),
		errors.Is(err, recurringdomain.ErrInvalidDay),
		errors.Is(err, recurringdomain.ErrInvalidMonth),
		errors.Is(err, recurringdomain.ErrNoItems):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, recurringdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
