package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the identity attached to requests. Tokens are issued by
// the external auth provider; this service only validates them.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
