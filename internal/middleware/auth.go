package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campuslink/placement-api/internal/models"
	appErrors "github.com/campuslink/placement-api/pkg/errors"
	"github.com/campuslink/placement-api/pkg/response"
)

// ContextClaimsKey is the gin context key storing the caller's org claims.
const ContextClaimsKey = "orgClaims"

// OrgAuth requires a bearer token carrying the caller's organization id.
// Issuing tokens is an upstream concern; the only rule enforced here is that
// every request is bound to exactly one organization.
func OrgAuth(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims := &models.OrgClaims{}
		options := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
		if issuer != "" {
			options = append(options, jwt.WithIssuer(issuer))
		}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		}, options...)
		if err != nil || !token.Valid {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
			c.Abort()
			return
		}
		if claims.OrgID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token carries no organization"))
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}
