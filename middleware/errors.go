package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
)

// RespondError writes a domain error with its mapped status and code
func RespondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal server error", "code": apperrors.Code(err)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperrors.Code(err)})
}
