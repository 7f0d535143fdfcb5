// Package response renders the API's uniform envelopes. Every body, success
// or error, carries the request ID so a money movement can be traced from the
// HTTP log back to the audit trail.
package response

import (
	"errors"
	"net/http"
	"time"

	"clinic-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the success envelope.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// OK sends a 200 envelope with data.
func OK(c *gin.Context, data interface{}) {
	envelope(c, http.StatusOK, data)
}

// Created sends a 201 envelope with data.
func Created(c *gin.Context, data interface{}) {
	envelope(c, http.StatusCreated, data)
}

func envelope(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: requestID(c),
		Timestamp: stamp(),
	})
}

// Error maps an *apperror.AppError onto its HTTP status and code. Anything
// else is masked as an opaque 500 so internal detail never reaches clients.
func Error(c *gin.Context, err error) {
	code, message, status := "SYS_000", "Internal server error", http.StatusInternalServerError
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code, message, status = appErr.Code, appErr.Message, appErr.HTTPStatus
	}
	c.JSON(status, ErrorResponse{
		ErrorCode: code,
		Message:   message,
		RequestID: requestID(c),
		Timestamp: stamp(),
	})
}

// requestID pulls the middleware-assigned request ID, minting one for
// responses written before that middleware ran.
func requestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
