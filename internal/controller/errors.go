package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/errs"
)

// ErrorHandler writes the failure envelope for the last error pushed with
// c.Error. It is the only place errors become status codes.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("errors")

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := translate(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}
		c.AbortWithStatusJSON(status, body)
	}
}

func translate(err error) (int, dto.ErrorResponse) {
	var (
		validationErr *errs.ValidationError
		conflictErr   *errs.ConflictError
		tooLarge      *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, dto.ErrorResponse{
			Message: "Validation Error",
			Errors:  validationErr.Fields,
		}
	case errors.As(err, &conflictErr):
		return http.StatusConflict, dto.ErrorResponse{
			Message: conflictErr.Message(),
			Errors:  dto.ConflictDetail{Field: conflictErr.Field, Value: conflictErr.Value},
		}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Message: err.Error()}
	case errors.Is(err, errs.ErrInvalidID):
		return http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid id: " + invalidValue(err)}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, dto.ErrorResponse{Message: "Request body too large"}
	}
	return http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal Server Error"}
}

func invalidValue(err error) string {
	return strings.TrimPrefix(err.Error(), errs.ErrInvalidID.Error()+": ")
}
