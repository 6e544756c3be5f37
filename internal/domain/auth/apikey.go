package auth

import "context"

// APIKeyInfo holds the identity bound to a validated API key.
type APIKeyInfo struct {
	ID         string
	KeyHash    string
	CustomerID string
	Name       string
	Roles      []string
}

// Principal converts the key's bound identity into a request principal.
func (k *APIKeyInfo) Principal() *Principal {
	return &Principal{ID: k.CustomerID, Roles: k.Roles}
}

// APIKeyRepository provides lookup of active API keys by their HMAC hash.
type APIKeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
