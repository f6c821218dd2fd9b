package utils

import (
	"errors"
	"time"

	"petcare/config"

	"github.com/golang-jwt/jwt"
)

// Claims is the token payload: the subject's ID, their role and, for managers, their store.
type Claims struct {
	Role    string `json:"role"`
	StoreID string `json:"storeId,omitempty"`
	jwt.StandardClaims
}

func secretKey() []byte {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		// Only reachable outside production; LoadConfig refuses an empty secret there.
		secret = "petcare-dev-secret"
	}
	return []byte(secret)
}

// GenerateToken creates a signed HS256 token for subject that expires after duration.
func GenerateToken(subject, role, storeID string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:    role,
		StoreID: storeID,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ParseToken validates tokenString and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}
	return claims, nil
}
