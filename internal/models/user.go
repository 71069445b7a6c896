package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the access-token claims this service trusts; token issuance
// lives in the auth service upstream.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
