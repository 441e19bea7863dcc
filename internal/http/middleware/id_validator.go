package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
)

// IDValidator проверяет, что параметр - положительный целый идентификатор.
// Использование: router.GET("/disputes/:id", IDValidator("id"), handler.GetDispute)
func IDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "parameter " + paramName + " is required",
			})
			return
		}

		if id, err := strconv.ParseInt(idStr, 10, 64); err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "parameter " + paramName + " must be a positive integer",
			})
			return
		}

		c.Next()
	}
}

// CaseNumberValidator проверяет формат номера дела DIS-YYYY-NNNNN.
func CaseNumberValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !vo.IsCaseNumber(c.Param(paramName)) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "parameter " + paramName + " must match DIS-YYYY-NNNNN",
			})
			return
		}
		c.Next()
	}
}
