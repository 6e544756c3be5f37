// Command seed-db loads the product catalog and API keys into the database.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cartwheel/storefront/internal/domain/auth"
	"github.com/cartwheel/storefront/internal/domain/product"
	"github.com/cartwheel/storefront/internal/repository"
)

type productJSON struct {
	ID     string          `json:"id"`
	SKU    string          `json:"sku"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Active bool            `json:"active"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		adminKey     string
		customerID   string
		customerKey  string
		pepper       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed (or STORE_SEED_ADMIN_KEY env)")
	flag.StringVar(&customerID, "customer-id", "", "customer to seed an API key for")
	flag.StringVar(&customerKey, "customer-key", "", "customer API key to seed (or STORE_SEED_CUSTOMER_KEY env)")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STORE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminKey == "" {
		adminKey = os.Getenv("STORE_SEED_ADMIN_KEY")
	}
	if customerKey == "" {
		customerKey = os.Getenv("STORE_SEED_CUSTOMER_KEY")
	}
	if pepper == "" {
		pepper = os.Getenv("STORE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminKey, customerID, customerKey, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminKey, customerID, customerKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	apikeys := repository.NewAPIKeyRepository(pool)
	if adminKey != "" {
		info := auth.APIKeyInfo{
			ID:      "seed-admin",
			KeyHash: hashKey(adminKey, pepper),
			Name:    "seeded admin key",
			Roles:   []string{auth.RoleAdmin},
		}
		if err := apikeys.Upsert(ctx, info); err != nil {
			return errors.Wrap(err, "seed admin key")
		}
		slog.Info("seeded admin API key")
	}
	if customerKey != "" {
		if customerID == "" {
			return errors.New("--customer-id is required when seeding a customer key")
		}
		info := auth.APIKeyInfo{
			ID:         "seed-customer-" + customerID,
			KeyHash:    hashKey(customerKey, pepper),
			CustomerID: customerID,
			Name:       "seeded customer key",
		}
		if err := apikeys.Upsert(ctx, info); err != nil {
			return errors.Wrap(err, "seed customer key")
		}
		slog.Info("seeded customer API key", slog.String("customer_id", customerID))
	}

	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, p := range products {
		g.Go(func() error {
			return repo.Upsert(ctx, product.Product{
				ID:     p.ID,
				SKU:    p.SKU,
				Name:   p.Name,
				Price:  p.Price,
				Active: p.Active,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("seeded products", slog.Int("count", len(products)))
	return nil
}

func hashKey(key, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}
