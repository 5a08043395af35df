package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims scoping a token to one test session
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}
