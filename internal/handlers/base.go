package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"devqa/internal/middleware"
	"devqa/internal/models"
	"devqa/internal/services"
	"devqa/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// validation details name fields the way clients send them
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			}
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	}
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse acknowledges a delete.
type MessageResponse struct {
	Message string `json:"message"`
}

func abortError(c *gin.Context, code int, message string, details ...string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message, Details: strings.Join(details, "; ")})
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var serr *services.StatusError
	switch {
	case errors.As(err, &verr):
		abortError(c, http.StatusBadRequest, verr.Message, verr.Details...)
	case errors.Is(err, services.ErrUnauthorized):
		abortError(c, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, services.ErrForbidden):
		message := "forbidden"
		if errors.As(err, &serr) {
			message = serr.Message
		}
		abortError(c, http.StatusForbidden, message)
	case errors.Is(err, services.ErrNotFound):
		message := "not found"
		if errors.As(err, &serr) {
			message = serr.Message
		}
		abortError(c, http.StatusNotFound, message)
	default:
		_ = c.Error(err)
		slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		abortError(c, http.StatusInternalServerError, "internal server error")
	}
}

// bindJSON decodes the body into req and answers 400 itself on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request", bindingDetails(err)...)
		return false
	}
	return true
}

func bindingDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"malformed JSON body"}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			details = append(details, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "max":
			details = append(details, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "email":
			details = append(details, fmt.Sprintf("%s must be a valid email", fe.Field()))
		case "oneof":
			details = append(details, fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
		default:
			details = append(details, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return details
}

// pathID parses the named path parameter; it answers 400 itself on failure.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		abortError(c, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// currentUser is set by middleware.AuthRequired on every protected route.
func currentUser(c *gin.Context) *models.User {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, "authentication required")
		return nil
	}
	return user
}
