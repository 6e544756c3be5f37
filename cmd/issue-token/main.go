// Command issue-token mints a signed bearer token for a customer or admin.
// Intended for demos and local testing.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cartwheel/storefront/internal/domain/auth"
	"github.com/cartwheel/storefront/internal/token"
)

func main() {
	var (
		secret     string
		issuer     string
		subject    string
		admin      bool
		expiration time.Duration
	)

	flag.StringVar(&secret, "jwt-secret", "", "HMAC signing secret (or STORE_JWT_SECRET env)")
	flag.StringVar(&issuer, "jwt-issuer", "storefront", "issuer claim")
	flag.StringVar(&subject, "subject", "", "customer ID to mint the token for")
	flag.BoolVar(&admin, "admin", false, "grant the admin role")
	flag.DurationVar(&expiration, "expiration", 24*time.Hour, "token lifetime")
	flag.Parse()

	if secret == "" {
		secret = os.Getenv("STORE_JWT_SECRET")
	}
	if secret == "" {
		slog.Error("signing secret is required: set --jwt-secret or STORE_JWT_SECRET")
		os.Exit(1)
	}
	if subject == "" {
		slog.Error("--subject is required")
		os.Exit(1)
	}

	var roles []string
	if admin {
		roles = append(roles, auth.RoleAdmin)
	}

	svc := token.NewService([]byte(secret), issuer, expiration)
	signed, err := svc.Issue(subject, roles)
	if err != nil {
		slog.Error("issue token failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(signed)
	if len(roles) > 0 {
		slog.Info("token minted", slog.String("subject", subject), slog.String("roles", strings.Join(roles, ",")))
	} else {
		slog.Info("token minted", slog.String("subject", subject))
	}
}
