package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	documentdomain "github.com/solobill/solobill/internal/document/domain"
	draftdomain "github.com/solobill/solobill/internal/draft/domain"
	emaildomain "github.com/solobill/solobill/internal/email/domain"
	invoicedomain "github.com/solobill/solobill/internal/invoice/domain"
	paymentdomain "github.com/solobill/solobill/internal/payment/domain"
	proposaldomain "github.com/solobill/solobill/internal/proposal/domain"
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
	ErrUnauthorized   = errors.New("unauthorized")
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
		code := validationErrorCode(err)
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
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, clientdomain.ErrInvalidOwner),
		errors.Is(err, invoicedomain.ErrInvalidOwner),
		errors.Is(err, proposaldomain.ErrInvalidOwner),
		errors.Is(err, paymentdomain.ErrInvalidOwner),
		errors.Is(err, emaildomain.ErrInvalidOwner),
		errors.Is(err, documentdomain.ErrInvalidOwner):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, draftdomain.ErrServiceUnavailable),
		errors.Is(err, emaildomain.ErrSendFailed):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: err.Error(),
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
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isClientValidationError(err),
		isInvoiceValidationError(err),
		isProposalValidationError(err),
		isPaymentValidationError(err),
		isEmailValidationError(err),
		isDocumentValidationError(err),
		isDraftValidationError(err):
		return true
	default:
		return false
	}
}

// isConflictError covers state-machine refusals: mutating a paid
// invoice, sending twice, deciding an expired proposal.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrDuplicateNumber),
		errors.Is(err, invoicedomain.ErrInvoicePaid),
		errors.Is(err, invoicedomain.ErrInvalidTransition),
		errors.Is(err, proposaldomain.ErrInvalidTransition),
		errors.Is(err, proposaldomain.ErrProposalExpired):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, proposaldomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrInvoiceNotFound),
		errors.Is(err, documentdomain.ErrPresetNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func isClientValidationError(err error) bool {
	switch {
	case errors.Is(err, clientdomain.ErrInvalidName),
		errors.Is(err, clientdomain.ErrInvalidEmail),
		errors.Is(err, clientdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isInvoiceValidationError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvalidClient),
		errors.Is(err, invoicedomain.ErrInvalidTitle),
		errors.Is(err, invoicedomain.ErrInvalidDates),
		errors.Is(err, invoicedomain.ErrInvalidItems),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isProposalValidationError(err error) bool {
	switch {
	case errors.Is(err, proposaldomain.ErrInvalidClient),
		errors.Is(err, proposaldomain.ErrInvalidTitle),
		errors.Is(err, proposaldomain.ErrInvalidValidUntil),
		errors.Is(err, proposaldomain.ErrInvalidItems),
		errors.Is(err, proposaldomain.ErrInvalidID),
		errors.Is(err, proposaldomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isPaymentValidationError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrInvalidInvoiceID),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isEmailValidationError(err error) bool {
	switch {
	case errors.Is(err, emaildomain.ErrInvalidRecipient),
		errors.Is(err, emaildomain.ErrInvalidTemplateType),
		errors.Is(err, emaildomain.ErrInvalidTemplate),
		errors.Is(err, emaildomain.ErrNotConfigured):
		return true
	default:
		return false
	}
}

func isDocumentValidationError(err error) bool {
	switch {
	case errors.Is(err, documentdomain.ErrInvalidTemplate),
		errors.Is(err, documentdomain.ErrInvalidColor),
		errors.Is(err, documentdomain.ErrInvalidFont),
		errors.Is(err, documentdomain.ErrInvalidPresetName):
		return true
	default:
		return false
	}
}

func isDraftValidationError(err error) bool {
	switch {
	case errors.Is(err, draftdomain.ErrMissingFields),
		errors.Is(err, draftdomain.ErrInvalidAmount):
		return true
	default:
		return false
	}
}
