package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuslink/placement-api/internal/middleware"
	"github.com/campuslink/placement-api/internal/models"
)

func orgFromContext(c *gin.Context) string {
	value, exists := c.Get(middleware.ContextClaimsKey)
	if !exists {
		return ""
	}
	claims, ok := value.(*models.OrgClaims)
	if !ok {
		return ""
	}
	return claims.OrgID
}
