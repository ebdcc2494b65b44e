package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	"github.com/example/assessly-billing/internal/core"
	"github.com/example/assessly-billing/internal/middleware"
)

var callableStatus = map[codes.Code]string{
	codes.Unauthenticated:    "UNAUTHENTICATED",
	codes.InvalidArgument:    "INVALID_ARGUMENT",
	codes.PermissionDenied:   "PERMISSION_DENIED",
	codes.NotFound:           "NOT_FOUND",
	codes.FailedPrecondition: "FAILED_PRECONDITION",
	codes.Internal:           "INTERNAL",
}

var httpStatus = map[codes.Code]int{
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.Internal:           http.StatusInternalServerError,
}

// codeFor maps service errors to canonical codes. Anything unrecognized is Internal.
func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, core.ErrInvalidArgument):
		return codes.InvalidArgument
	case errors.Is(err, core.ErrPermissionDenied):
		return codes.PermissionDenied
	case errors.Is(err, core.ErrOrganizationNotFound), errors.Is(err, core.ErrUserNotFound):
		return codes.NotFound
	case errors.Is(err, core.ErrNoPaymentCustomer):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// respondError writes the callable error for err. Internal errors are logged
// and answered with a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code := codeFor(err)
	message := err.Error()
	if code == codes.Internal {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
			zap.Error(err),
		)
		message = "An internal error occurred."
	}
	writeError(c, code, message)
}

func writeError(c *gin.Context, code codes.Code, message string) {
	c.AbortWithStatusJSON(httpStatus[code], ErrorResponse{
		Error: CallableError{Status: callableStatus[code], Message: message},
	})
}
