package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type TokenClaims struct {
	UserID     string
	UserName   string
	Role       string
	Department string
}

// IssueToken signs claims with HS256; used by tenantctl and tests.
func IssueToken(secret string, tc TokenClaims, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":        tc.UserID,
		"user_name": tc.UserName,
		"role":      tc.Role,
		"exp":       time.Now().Add(ttl).Unix(),
		"iat":       time.Now().Unix(),
	}
	if tc.Department != "" {
		claims["department"] = tc.Department
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
