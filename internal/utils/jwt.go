package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// SetJWTSecret sets the secret used to sign and verify identity tokens.
// Must be called once at startup before any token operation.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// Claims carries the identity asserted by the identity provider. The user ID
// is opaque to this service; building roles come from the membership store,
// not from the token.
type Claims struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed identity token for the given user.
func GenerateToken(userID uint, displayName, email string, expireHours int) (string, error) {
	claims := Claims{
		UserID:      userID,
		DisplayName: displayName,
		Email:       email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "boardroom",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken validates a token string and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
