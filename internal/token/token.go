// Package token issues and verifies the HS256 bearer tokens that carry a
// customer identity and role set. Verification only produces a principal;
// authorization is a separate stage that always runs.
package token

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cartwheel/storefront/internal/domain/auth"
)

// Verification failures.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the registered claims plus the role set. The subject is the
// customer identity.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Service signs and verifies tokens with a shared HMAC secret.
type Service struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewService creates a token Service. expiration bounds the lifetime of
// issued tokens.
func NewService(secret []byte, issuer string, expiration time.Duration) *Service {
	return &Service{
		secret:     secret,
		expiration: expiration,
		issuer:     issuer,
	}
}

// Issue signs a token for the given customer identity and roles.
func (s *Service) Issue(customerID string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   customerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Roles: roles,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify parses and validates the token and returns the principal it carries.
func (s *Service) Verify(tokenString string) (*auth.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &auth.Principal{
		ID:    claims.Subject,
		Roles: claims.Roles,
	}, nil
}
