package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/logger"
)

// ErrorCode is the machine-readable code in the error envelope
type ErrorCode string

const (
	errCodeBadRequest       ErrorCode = "bad_request"
	errCodeNotFound         ErrorCode = "not_found"
	errCodeValidationFailed ErrorCode = "validation_failed"

	errCodeDatabaseError      ErrorCode = "database_error"
	errCodeServiceUnavailable ErrorCode = "service_unavailable"
)

// errorResponse is the envelope for every non-2xx response: {"error":{"code","message","details"}}
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	detail := errorDetail{Code: code, Message: message}
	if len(details) > 0 {
		detail.Details = details[0]
	}
	c.AbortWithStatusJSON(statusCode, errorResponse{Error: detail})
}

func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message)
}

func respondValidationError(c *gin.Context, details string) {
	respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", details)
}

func respondServiceUnavailable(c *gin.Context, message string) {
	respondWithError(c, http.StatusServiceUnavailable, errCodeServiceUnavailable, message)
}

// respondStoreError maps a failed store read onto the envelope.
// Validation errors are the caller's fault; a read cut short by the request
// context is reported as unavailable; anything else is logged as a database error.
func respondStoreError(c *gin.Context, err error, message string, fields ...zap.Field) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, domain.ErrValidation):
		respondBadRequest(c, message, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WarnCtx(ctx, "Store read interrupted", append(fields, zap.Error(err))...)
		respondServiceUnavailable(c, message)
	default:
		logger.ErrorCtx(ctx, err, fields...)
		respondWithError(c, http.StatusInternalServerError, errCodeDatabaseError, message)
	}
}
