package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
)

// ErrorHandler renders the last error recorded on the context as an envelope
func ErrorHandler(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		apiErr := Classify(c.Errors.Last().Err)
		log := logging.FromContext(c.Request.Context(), logger)
		if apiErr.Status() >= http.StatusInternalServerError {
			metrics.RecordError("api", apiErr.Kind.String())
			log.WithField("path", c.FullPath()).ErrorWithErr(apiErr.Message, apiErr)
		} else {
			log.WithField("path", c.FullPath()).Debugf("request rejected: %v", apiErr)
		}

		response.Error(c, apiErr.Status(), apiErr.Message)
	}
}

// Classify maps any error onto the API taxonomy
func Classify(err error) *apierror.Error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, database.ErrNotFound):
		return &apierror.Error{Kind: apierror.KindNotFound, Message: "Resource not found", Cause: err}
	case errors.Is(err, database.ErrConflict):
		return &apierror.Error{Kind: apierror.KindConflict, Message: "Resource already exists", Cause: err}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &apierror.Error{Kind: apierror.KindValidation, Message: ValidationMessage(verrs), Cause: err}
	}

	return apierror.Internal(err)
}

// ValidationMessage renders binding errors as one readable sentence
func ValidationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "alphanum":
			msgs = append(msgs, fmt.Sprintf("%s must be alphanumeric", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Recovery converts panics into a 500 envelope
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		metrics.RecordError("api", "panic")
		logging.FromContext(c.Request.Context(), logger).
			WithField("panic", fmt.Sprint(recovered)).
			WithField("path", c.Request.URL.Path).
			Error("recovered from panic")
		response.Error(c, http.StatusInternalServerError, "Something went wrong")
	})
}
