package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
)

func serveError(t *testing.T, handler gin.HandlerFunc) (int, response.Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Recovery(logging.Nop()), ErrorHandler(logging.Nop()))
	router.GET("/test", handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestErrorHandlerStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apierror.Validation("title is required"), http.StatusBadRequest, "title is required"},
		{"forbidden", apierror.Forbidden("not yours"), http.StatusForbidden, "not yours"},
		{"store not found", fmt.Errorf("load: %w", database.ErrNotFound), http.StatusNotFound, "Resource not found"},
		{"store conflict", fmt.Errorf("insert: %w", database.ErrConflict), http.StatusConflict, "Resource already exists"},
		{"unclassified", errors.New("pq: connection refused"), http.StatusInternalServerError, "Something went wrong"},
		{"dependency", apierror.Dependency(errors.New("minio down"), "Failed to upload video"), http.StatusInternalServerError, "Failed to upload video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := serveError(t, func(c *gin.Context) {
				c.Error(tt.err)
			})
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.status, env.StatusCode)
			assert.Equal(t, tt.message, env.Message)
			assert.False(t, env.Success)
			assert.Nil(t, env.Data)
		})
	}
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	code, env := serveError(t, func(c *gin.Context) {
		response.OK(c, "done", "ok")
		c.Error(errors.New("late failure"))
	})
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestRecoveryRendersEnvelope(t *testing.T) {
	code, env := serveError(t, func(c *gin.Context) {
		panic("boom")
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Something went wrong", env.Message)
	assert.False(t, env.Success)
}

func TestClassifyValidationErrors(t *testing.T) {
	type input struct {
		Email    string `validate:"required,email"`
		Username string `validate:"required,min=3"`
	}

	err := validator.New().Struct(input{Email: "nope", Username: "ab"})
	require.Error(t, err)

	apiErr := Classify(err)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
	assert.Equal(t, "email must be a valid email, username must be at least 3 characters", apiErr.Message)
}
