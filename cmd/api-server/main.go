// Command api-server serves the storefront API: catalog reads, per-customer
// carts, checkout, and order queries on a single HTTP listener.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	storefront "github.com/cartwheel/storefront/internal/app"
)

func main() {
	// app.Run owns signal handling, logger and telemetry setup; everything
	// storefront-specific happens behind LoadConfig and Run.
	app.Run(func(ctx context.Context, lg *zap.Logger, telemetry *app.Telemetry) error {
		cfg, err := storefront.LoadConfig()
		if err != nil {
			return err
		}
		return storefront.Run(ctx, lg, telemetry, cfg)
	})
}
