package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

const issuer = "nyumbakumi"

// Claims represents the JWT claims
type Claims struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	ZoneID      string `json:"zone_id,omitempty"`
	HouseholdID string `json:"household_id,omitempty"`
	jwt.RegisteredClaims
}

// Subject is the identity carried by an access token
type Subject struct {
	UserID      string
	Role        string
	ZoneID      string
	HouseholdID string
}

// GenerateAccessToken generates a new access token
func GenerateAccessToken(sub Subject, secret string, expiryMinutes int) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      sub.UserID,
		Role:        sub.Role,
		ZoneID:      sub.ZoneID,
		HouseholdID: sub.HouseholdID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiryMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   sub.UserID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates an access token and returns claims
func ValidateAccessToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}
