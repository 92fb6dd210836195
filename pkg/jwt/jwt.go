package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"jamm/backend/internal/config"
)

// GenerateToken creates a new JWT for a given account ID.
func GenerateToken(accountID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": accountID,
		"exp": time.Now().Add(time.Hour * 24 * 7).Unix(), // Token expires in 7 days
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}
