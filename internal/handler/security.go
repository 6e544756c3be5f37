package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/cartwheel/storefront/internal/domain/auth"
	"github.com/cartwheel/storefront/internal/token"
)

// principalKey is the context key for the resolved principal.
type principalKey struct{}

// PrincipalFromContext returns the authenticated principal for the request,
// or nil when the caller is anonymous.
func PrincipalFromContext(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalKey{}).(*auth.Principal)
	return p
}

// Security resolves a request principal from either a bearer token or an
// api_key header. It only authenticates; it never authorizes, and it lets
// anonymous requests through so the domain guard can report unauthenticated
// distinctly from forbidden.
type Security struct {
	tokens  *token.Service
	apikeys auth.APIKeyRepository
	pepper  []byte
}

// NewSecurity creates a Security with the given verifier and key repository.
func NewSecurity(tokens *token.Service, apikeys auth.APIKeyRepository, pepper []byte) *Security {
	return &Security{
		tokens:  tokens,
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// ResolvePrincipal is middleware that attaches the caller's principal to the
// request context when credentials are present and valid. Invalid credentials
// resolve to no principal rather than an immediate reject, so every endpoint
// reports the same unauthenticated shape through the guard.
func (s *Security) ResolvePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := s.authenticate(r); p != nil {
			ctx := context.WithValue(r.Context(), principalKey{}, p)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Security) authenticate(r *http.Request) *auth.Principal {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		p, err := s.tokens.Verify(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return nil
		}
		return p
	}

	if key := r.Header.Get("api_key"); key != "" {
		return s.verifyAPIKey(r.Context(), key)
	}

	return nil
}

// verifyAPIKey computes the HMAC-SHA256 of the presented key, looks it up,
// and performs a constant-time comparison to prevent timing attacks.
func (s *Security) verifyAPIKey(ctx context.Context, key string) *auth.Principal {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	hash := mac.Sum(nil)

	info, err := s.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return nil
	}

	// The lookup already matched, but the stored hash could differ from what
	// we computed if the repository returns a stale/wrong row.
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil
	}
	if subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil
	}

	return info.Principal()
}
