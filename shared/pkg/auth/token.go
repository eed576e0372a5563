package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"delivery-order-system/shared/pkg/models"
)

type Claims struct {
	UserID string
	Role   models.Role
	Email  string
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(userID string, role models.Role, email string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"role":  string(role),
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	})
	return tok.SignedString(t.secret)
}

func (t *Tokens) Verify(tokenString string) (Claims, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, fmt.Errorf("invalid token: %w", err)
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("unexpected claims type")
	}
	sub, _ := mc["sub"].(string)
	role, _ := mc["role"].(string)
	email, _ := mc["email"].(string)
	if sub == "" {
		return Claims{}, fmt.Errorf("token has no subject")
	}
	return Claims{UserID: sub, Role: models.Role(role), Email: email}, nil
}
