package models

import "github.com/golang-jwt/jwt/v5"

// OrgClaims are the token claims this service consumes. Authentication is
// handled upstream; the only claim enforced here is the caller's owning
// organization.
type OrgClaims struct {
	OrgID string `json:"org_id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}
