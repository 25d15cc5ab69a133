package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"

	audienceAdmin = "bif-admin"
	audienceForm  = "bif-form"
	issuer        = "bif_backend"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims - токен администратора
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// FormClaims - короткоживущий токен формы, заменяет nonce страницы.
// Subject - id формы, поэтому токен одной формы не подходит к другой.
type FormClaims struct {
	FormID uint64 `json:"form_id"`
	jwt.RegisteredClaims
}

func GenerateToken(secret, email, role string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audienceAdmin},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return signed, expiresAt, err
}

func ParseToken(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parse(secret, tokenStr, audienceAdmin, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func GenerateFormToken(secret string, formID uint64, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("form token secret is not configured")
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := FormClaims{
		FormID: formID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(formID, 10),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audienceForm},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return signed, expiresAt, err
}

// ParseFormToken проверяет подпись, срок и соответствие форме
func ParseFormToken(secret, tokenStr string, formID uint64) (*FormClaims, error) {
	claims := &FormClaims{}
	if err := parse(secret, tokenStr, audienceForm, claims); err != nil {
		return nil, err
	}
	if claims.FormID != formID {
		return nil, fmt.Errorf("%w: token issued for form %d", ErrInvalidToken, claims.FormID)
	}
	return claims, nil
}

func parse(secret, tokenStr, audience string, claims jwt.Claims) error {
	if secret == "" || tokenStr == "" {
		return ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
