// Package utils holds token helpers shared by the API and the operator CLI.
package utils

import (
	"errors"
	"strconv"
	"time"

	"crewpay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "crewpay-api"

var ErrMissingSecret = errors.New("JWT secret not configured")

// IssueToken signs an HS256 access token for the given claims. Login and
// refresh live outside this service; this is used by the operator CLI and
// tests.
func IssueToken(secret string, claims models.UserClaims, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates tokenStr and returns its claims. Only HS256 is
// accepted.
func ParseToken(secret []byte, tokenStr string) (*models.UserClaims, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
