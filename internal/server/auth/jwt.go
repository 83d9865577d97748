package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/indiarose/sync-server/internal/common"
)

// Claims includes the registered claims plus the authenticated user and the
// device the token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64
	DeviceID int64
}

func GenerateToken(userID, deviceID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:   userID,
		DeviceID: deviceID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken returns the UserID and DeviceID baked into the token.
func ParseToken(tokenString string, secretKey []byte) (int64, int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return 0, 0, err
	}

	if !token.Valid {
		return 0, 0, common.ErrInvalidToken
	}

	return claims.UserID, claims.DeviceID, nil
}
