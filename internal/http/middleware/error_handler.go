package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/dispute-backend/internal/logger"
	"github.com/ignatzorin/dispute-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки, добавленные через c.Error.
// Ошибки приложения отдаются с их кодом, остальные маскируются как 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
			return
		}

		logger.L().WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Request error")

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
			"code":  apperror.ErrCodeInternal,
		})
	}
}
