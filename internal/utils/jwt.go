// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const jwtIssuer = "assetdesk"

type JWTClaims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Scope     string `json:"scope"`
	Branch    string `json:"branch"`
	Workspace string `json:"workspace"`
	jwt.RegisteredClaims
}

// TokenSubject is the identity embedded in an access token.
type TokenSubject struct {
	UserID    uuid.UUID
	Role      string
	Scope     string
	Branch    string
	Workspace string
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func GenerateJWT(subject TokenSubject, ttlHours int) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:    subject.UserID.String(),
		Role:      subject.Role,
		Scope:     subject.Scope,
		Branch:    subject.Branch,
		Workspace: subject.Workspace,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
			Subject:   subject.UserID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
