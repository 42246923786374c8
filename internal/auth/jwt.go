package auth

import (
	"errors"
	"time"

	"chirp/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carry the identity-provider subject. The backend never issues
// credentials itself in production; tokens come from the provider and are
// verified with the shared secret. GenerateToken exists for local
// development and tests.
type Claims struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

func GenerateToken(cfg *config.JWTConfig, externalID, email, username string) (string, error) {
	claims := Claims{
		ExternalID: externalID,
		Email:      email,
		Username:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   externalID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.Expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

func ParseToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExternalID == "" {
		claims.ExternalID = claims.Subject
	}
	if claims.ExternalID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
