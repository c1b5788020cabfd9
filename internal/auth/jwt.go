package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "quest-market"
	tokenTTL    = 24 * time.Hour
)

var signingKey []byte

// InitJWT sets the HMAC key tokens are signed and checked with
func InitJWT(secret string) {
	signingKey = []byte(secret)
}

// GenerateToken issues a session token whose subject is username
func GenerateToken(username string) (string, error) {
	if len(signingKey) == 0 {
		return "", errors.New("JWT secret not initialized")
	}
	if username == "" {
		return "", errors.New("token subject is empty")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})

	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, issuer and expiry and returns the username
// the token was issued to.
func ValidateToken(tokenString string) (string, error) {
	if len(signingKey) == 0 {
		return "", errors.New("JWT secret not initialized")
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (interface{}, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}
