package response

import (
	"errors"
	"fmt"
	"net/http"

	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/ratelimiter"
	"consultlink.id/forum/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Envelope is the shape of every JSON body the API returns.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ParseID parses a uuid path parameter, answering 400 on failure.
func ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		ResponseError(c, apperror.New(http.StatusBadRequest, "invalid "+param+" format", apperror.ErrInvalidInput))
		return uuid.Nil, false
	}
	return id, true
}

// Success writes a wrapped success response.
func Success(c *gin.Context, code int, data any, message string) {
	c.JSON(code, Envelope{StatusCode: code, Data: data, Message: message})
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)
	message := apperror.Message(err)

	// Binding failures from gin carry validator.ValidationErrors
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		code = http.StatusBadRequest
		message = validator.FormatValidationError(verrs)
	}

	var rateErr *ratelimiter.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateErr.RetryAfter.Seconds()))
		message = rateErr.Message
	}

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("internal error")
		message = "internal server error"
	}

	c.JSON(code, Envelope{StatusCode: code, Data: nil, Message: message})
}

// BindError answers a malformed request body or query.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ResponseError(c, err)
		return
	}
	ResponseError(c, apperror.New(http.StatusBadRequest, "malformed request: "+err.Error(), apperror.ErrBadRequest))
}
