package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/user"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims mirrors the token issued by the auth service: {id, role}.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID string
	Role   user.Role
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify parses an HS256 token and returns the principal it carries.
func (v *Verifier) Verify(raw string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	if claims.UserID == "" {
		return Principal{}, ErrInvalidToken
	}

	role := user.RoleCustomer
	if claims.Role != "" {
		if role, err = user.ParseRole(claims.Role); err != nil {
			return Principal{}, ErrInvalidToken
		}
	}
	return Principal{UserID: claims.UserID, Role: role}, nil
}

// Sign issues a token for the given principal. Used by tests and local tooling.
func (v *Verifier) Sign(p Principal, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		UserID: p.UserID,
		Role:   p.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
