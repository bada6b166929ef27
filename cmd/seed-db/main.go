package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/modelado-pao/db"
	"github.com/xenking/modelado-pao/internal/domain/auth"
	"github.com/xenking/modelado-pao/internal/domain/coupon"
	"github.com/xenking/modelado-pao/internal/domain/product"
	"github.com/xenking/modelado-pao/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (default: built-in catalog)")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or PAO_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or PAO_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("PAO_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or PAO_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("PAO_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	data := db.SeedProducts
	if productsFile != "" {
		slog.Info("reading products file", slog.String("path", productsFile))

		var err error
		if data, err = os.ReadFile(productsFile); err != nil {
			return errors.Wrap(err, "read products file")
		}
	}
	products, err := product.DecodeList(jx.DecodeBytes(data))
	if err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	repo := postgres.NewProductRepository(pool)
	for i := range products {
		p := &products[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if err := repo.Upsert(ctx, p); err != nil {
			return err
		}
		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo coupons")

	now := time.Now().UTC()
	expired := now.AddDate(0, 0, -1)
	coupons := []coupon.Coupon{
		{Code: "SAVE20", Kind: coupon.KindPercentage, Value: decimal.NewFromInt(20), Active: true, Description: "20% de descuento"},
		{Code: "BIENVENIDA10", Kind: coupon.KindPercentage, Value: decimal.NewFromInt(10), Active: true, Description: "10% en tu primera compra"},
		{Code: "FLAT50", Kind: coupon.KindFixed, Value: decimal.NewFromInt(50), Active: true, Description: "$50 de descuento"},
		{Code: "PAUSADO", Kind: coupon.KindPercentage, Value: decimal.NewFromInt(15), Active: false, Description: "Cupón desactivado"},
		{Code: "VENCIDO", Kind: coupon.KindPercentage, Value: decimal.NewFromInt(25), Active: true, ExpiresAt: &expired, Description: "Cupón vencido"},
	}

	repo := postgres.NewCouponRepository(pool)
	for i := range coupons {
		c := &coupons[i]
		c.ID = uuid.New().String()
		c.CreatedAt, c.UpdatedAt = now, now
		if err := repo.Upsert(ctx, c); err != nil {
			return err
		}
		slog.Info("upserted coupon", slog.String("code", c.Code), slog.String("description", c.Description))
	}
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	info := auth.APIKeyInfo{
		ID:      "default-admin",
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "Default admin key",
		Scopes:  []string{auth.ScopeAdmin},
	}
	if err := postgres.NewAPIKeyRepository(pool).Upsert(ctx, info); err != nil {
		return err
	}

	slog.Info("upserted API key", slog.String("id", info.ID), slog.String("name", info.Name))
	return nil
}
