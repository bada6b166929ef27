// Package couponimport loads coupon definitions from gzipped CSV files.
//
// Each file carries a header row naming its columns; recognised columns are
// code, type (or kind), value, active, expires_at and description. Files are
// parsed concurrently, merged in argument order and deduplicated by
// normalized code: the first definition of a code wins.
package couponimport

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/modelado-pao/internal/domain/coupon"
)

const (
	defaultWorkers   = 8
	defaultBloomSize = 1_000_000
	bloomFPR         = 0.001
	progressEvery    = 10_000
)

// Store persists imported coupons. Upsert overwrites the rule of an
// existing coupon with the same code.
type Store interface {
	Upsert(ctx context.Context, c *coupon.Coupon) error
}

// Options tunes an import run.
type Options struct {
	// Workers bounds concurrent writes to the store.
	Workers int
	// ExpectedCodes sizes the bloom filter used for deduplication.
	ExpectedCodes uint
	// Strict aborts on the first malformed row instead of skipping it.
	Strict bool
	// DryRun parses and deduplicates without writing.
	DryRun bool
}

// Stats summarises an import run.
type Stats struct {
	Files      int
	Rows       int
	Invalid    int
	Duplicates int
	Written    int
}

// RowError reports a malformed CSV row.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return e.File + ":" + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e *RowError) Unwrap() error { return e.Err }

// Importer reads coupon files and upserts them into a Store.
type Importer struct {
	store Store
	opts  Options
	lg    *slog.Logger
	now   func() time.Time
	newID func() string
}

// New creates an Importer.
func New(store Store, lg *slog.Logger, opts Options) *Importer {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.ExpectedCodes == 0 {
		opts.ExpectedCodes = defaultBloomSize
	}
	return &Importer{
		store: store,
		opts:  opts,
		lg:    lg,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

type parsedFile struct {
	coupons []coupon.Coupon
	invalid int
}

// Run imports every file in paths.
func (im *Importer) Run(ctx context.Context, paths ...string) (Stats, error) {
	stats := Stats{Files: len(paths)}
	if len(paths) == 0 {
		return stats, errors.New("no input files")
	}

	// Pass 1: parse all files concurrently.
	parsed := make([]parsedFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			pf, err := im.parseFile(gctx, path)
			if err != nil {
				return err
			}
			parsed[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	// Pass 2: merge in argument order, first definition wins.
	unique := im.dedupe(parsed, &stats)
	im.lg.Info("parsed coupon files",
		slog.Int("files", stats.Files),
		slog.Int("rows", stats.Rows),
		slog.Int("invalid", stats.Invalid),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("unique", len(unique)),
	)
	if im.opts.DryRun || len(unique) == 0 {
		return stats, nil
	}

	written, err := im.write(ctx, unique)
	stats.Written = written
	return stats, err
}

func (im *Importer) dedupe(parsed []parsedFile, stats *Stats) []coupon.Coupon {
	filter := bloom.NewWithEstimates(im.opts.ExpectedCodes, bloomFPR)
	seen := make(map[string]struct{})

	var unique []coupon.Coupon
	for _, pf := range parsed {
		stats.Invalid += pf.invalid
		stats.Rows += len(pf.coupons) + pf.invalid
		for _, c := range pf.coupons {
			// A bloom miss proves the code is new; only hits need the exact set.
			if filter.TestOrAddString(c.Code) {
				if _, dup := seen[c.Code]; dup {
					stats.Duplicates++
					continue
				}
			}
			seen[c.Code] = struct{}{}
			unique = append(unique, c)
		}
	}
	return unique
}

func (im *Importer) write(ctx context.Context, coupons []coupon.Coupon) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Workers)

	var (
		progress = make(chan struct{}, len(coupons))
		written  int
	)
	for i := range coupons {
		c := &coupons[i]
		g.Go(func() error {
			if err := im.store.Upsert(ctx, c); err != nil {
				return errors.Wrapf(err, "upsert %s", c.Code)
			}
			progress <- struct{}{}
			return nil
		})
	}
	err := g.Wait()
	close(progress)
	for range progress {
		written++
		if written%progressEvery == 0 {
			im.lg.Info("write progress", slog.Int("written", written), slog.Int("total", len(coupons)))
		}
	}
	if err != nil {
		return written, err
	}
	im.lg.Info("coupons written", slog.Int("count", written))
	return written, nil
}

func (im *Importer) parseFile(ctx context.Context, path string) (parsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return parsedFile{}, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return parsedFile{}, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	pf, err := im.parse(ctx, path, gz)
	if err != nil {
		return parsedFile{}, err
	}
	im.lg.Info("parsed file",
		slog.String("path", path),
		slog.Int("coupons", len(pf.coupons)),
		slog.Int("invalid", pf.invalid),
	)
	return pf, nil
}

func (im *Importer) parse(ctx context.Context, name string, r io.Reader) (parsedFile, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return parsedFile{}, errors.Wrapf(err, "read header of %s", name)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return parsedFile{}, errors.Wrapf(err, "header of %s", name)
	}

	var pf parsedFile
	now := im.now().UTC()
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return parsedFile{}, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err == nil {
			var c coupon.Coupon
			c, err = cols.coupon(rec)
			if err == nil {
				c.ID = im.newID()
				c.CreatedAt, c.UpdatedAt = now, now
				pf.coupons = append(pf.coupons, c)
				continue
			}
		}

		rowErr := &RowError{File: name, Line: line, Err: err}
		if im.opts.Strict {
			return parsedFile{}, rowErr
		}
		im.lg.Warn("skipping row", slog.String("error", rowErr.Error()))
		pf.invalid++
	}
	return pf, nil
}

type columns struct {
	code, kind, value, active, expiresAt, description int
}

func columnIndex(header []string) (columns, error) {
	cols := columns{code: -1, kind: -1, value: -1, active: -1, expiresAt: -1, description: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "code":
			cols.code = i
		case "type", "kind":
			cols.kind = i
		case "value":
			cols.value = i
		case "active", "is_active":
			cols.active = i
		case "expires_at", "expiry":
			cols.expiresAt = i
		case "description":
			cols.description = i
		}
	}
	if cols.code < 0 || cols.kind < 0 || cols.value < 0 {
		return cols, errors.New("code, type and value columns are required")
	}
	return cols, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// coupon converts one record, applying the same rules as admin creation.
func (cols columns) coupon(rec []string) (coupon.Coupon, error) {
	value, err := decimal.NewFromString(field(rec, cols.value))
	if err != nil {
		return coupon.Coupon{}, errors.Wrap(coupon.ErrInvalidRule, "value is not a number")
	}
	cmd := coupon.CreateCommand{
		Code:        field(rec, cols.code),
		Kind:        coupon.Kind(strings.ToLower(field(rec, cols.kind))),
		Value:       value,
		Description: field(rec, cols.description),
	}
	if err := cmd.Validate(); err != nil {
		return coupon.Coupon{}, err
	}

	c := coupon.Coupon{
		Code:        coupon.NormalizeCode(cmd.Code),
		Kind:        cmd.Kind,
		Value:       cmd.Value,
		Active:      true,
		Description: cmd.Description,
	}
	if v := field(rec, cols.active); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return coupon.Coupon{}, errors.Wrapf(coupon.ErrInvalidRule, "active %q is not a boolean", v)
		}
		c.Active = active
	}
	if v := field(rec, cols.expiresAt); v != "" {
		at, err := parseExpiry(v)
		if err != nil {
			return coupon.Coupon{}, err
		}
		c.ExpiresAt = &at
	}
	return c, nil
}

func parseExpiry(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Wrapf(coupon.ErrInvalidRule, "expires_at %q is not a date", v)
}
