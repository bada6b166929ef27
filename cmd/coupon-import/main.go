package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/modelado-pao/internal/couponimport"
	"github.com/xenking/modelado-pao/internal/domain/coupon"
	"github.com/xenking/modelado-pao/internal/storage/postgres"
)

func main() {
	var (
		dataDir     string
		databaseURL string
		opts        couponimport.Options
	)

	flag.StringVar(&dataDir, "data-dir", "", "import every *.csv.gz file in this directory (in addition to arguments)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&opts.Workers, "workers", 8, "concurrent database writes")
	flag.UintVar(&opts.ExpectedCodes, "expected-codes", 1_000_000, "expected number of distinct codes, sizes the bloom filter")
	flag.BoolVar(&opts.Strict, "strict", false, "abort on the first malformed row")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "parse and deduplicate without writing")
	flag.Parse()

	files := flag.Args()
	if dataDir != "" {
		matches, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
		if err != nil {
			slog.Error("list data dir", slog.String("error", err.Error()))
			os.Exit(1)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		slog.Error("no input files: pass paths as arguments or set --data-dir")
		os.Exit(1)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !opts.DryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files, opts); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, opts couponimport.Options) error {
	var store couponimport.Store = dryRunStore{}
	if !opts.DryRun {
		slog.Info("connecting to database")

		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		store = postgres.NewCouponRepository(pool)
	}

	stats, err := couponimport.New(store, slog.Default(), opts).Run(ctx, files...)
	if err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Int("files", stats.Files),
		slog.Int("rows", stats.Rows),
		slog.Int("invalid", stats.Invalid),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("written", stats.Written),
	)
	return nil
}

// dryRunStore is never written to; the importer skips writes in dry-run mode.
type dryRunStore struct{}

func (dryRunStore) Upsert(context.Context, *coupon.Coupon) error {
	return errors.New("dry run")
}
