package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// New builds an envelope. Success is derived from the status code.
func New(statusCode int, data interface{}, message string) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < http.StatusBadRequest,
	}
}

// JSON writes data wrapped in an envelope
func JSON(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, New(statusCode, data, message))
}

// OK writes a 200 envelope
func OK(c *gin.Context, data interface{}, message string) {
	JSON(c, http.StatusOK, data, message)
}

// Created writes a 201 envelope
func Created(c *gin.Context, data interface{}, message string) {
	JSON(c, http.StatusCreated, data, message)
}

// Error writes an error envelope and aborts the chain
func Error(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, New(statusCode, nil, message))
}
