package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-assign/internal/filter"
	"github.com/adanyl0v/go-task-assign/internal/services"
)

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errInvalidDeadline    = errors.New("deadline must be an RFC 3339 timestamp or a date")
	errActorNotFound      = errors.New("no actor found in context")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

// newServiceError maps a service failure onto its status code. Errors
// that aren't part of the service contract become a bare 500.
func newServiceError(err error) apiError {
	var filterErr *filter.Error
	switch {
	case errors.Is(err, services.ErrValidation), errors.As(err, &filterErr):
		return newBadRequestError(err.Error())
	case errors.Is(err, services.ErrForbidden):
		return newStatusTextError(http.StatusForbidden)
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrAttachmentNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return newAPIError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrStorage):
		return newStatusTextError(http.StatusBadGateway)
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}
