package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the authenticated identity supplied by the identity
// provider. The ledger engine trusts these claims without re-verifying
// credentials.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID        uint   `json:"user_id"`
	Email         string `json:"email"`
	AccountNumber string `json:"account_number"`
	Role          string `json:"role"`
}
