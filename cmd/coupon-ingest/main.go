// Command coupon-ingest bulk-imports promotional coupon codes for a
// restaurant from gzip-compressed code dumps (one code per line).
//
// Marketing campaigns deliver codes as large gzipped files that routinely
// overlap. A per-file bloom filter keeps cross-file deduplication cheap:
// only codes the filters flag as possible duplicates are confirmed against
// an exact set, so memory stays bounded by the duplicate count rather than
// the full code volume.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mealcart/checkout/internal/domain/coupon"
	"github.com/mealcart/checkout/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minCodeLen    = 4
	maxCodeLen    = 24
)

func main() {
	var (
		databaseURL  string
		restaurantID string
		discountType string
		value        string
		minOrder     string
		usageLimit   int
		perUserLimit int
		expiresIn    time.Duration
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&restaurantID, "restaurant", "", "restaurant id that owns the imported coupons")
	flag.StringVar(&discountType, "discount-type", "PERCENTAGE", "PERCENTAGE or FLAT")
	flag.StringVar(&value, "value", "10", "discount value")
	flag.StringVar(&minOrder, "min-order", "0", "minimum order amount")
	flag.IntVar(&usageLimit, "usage-limit", 1, "total uses per code (0 = unlimited)")
	flag.IntVar(&perUserLimit, "per-user-limit", 1, "uses per user per code")
	flag.DurationVar(&expiresIn, "expires-in", 0, "validity window from now (0 = no expiry)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if restaurantID == "" {
		slog.Error("--restaurant is required")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one code file (.gz) is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	template := coupon.CreateRequest{
		RestaurantID: restaurantID,
		DiscountType: coupon.DiscountType(discountType),
		UsageLimit:   usageLimit,
		PerUserLimit: perUserLimit,
	}

	var err error
	if template.Value, err = decimal.NewFromString(value); err != nil {
		slog.Error("invalid --value", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if template.MinOrderAmount, err = decimal.NewFromString(minOrder); err != nil {
		slog.Error("invalid --min-order", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if expiresIn > 0 {
		expiry := time.Now().Add(expiresIn)
		template.ExpiresAt = &expiry
	}

	if err := run(ctx, databaseURL, files, template); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, template coupon.CreateRequest) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("scanning code files", slog.Int("files", len(files)))

	codes, err := collectCodes(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}
	slog.Info("unique codes found", slog.Int("count", len(codes)))

	if len(codes) == 0 {
		slog.Info("nothing to import")
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return importCodes(ctx, coupon.NewService(postgres.NewCouponRepository(pool)), codes, template)
}

// fileCodes holds the deduplicated codes found in one file.
type fileCodes struct {
	codes map[string]struct{}
}

// collectCodes scans all files concurrently, deduplicating within each
// file via a bloom filter, then merges the per-file sets.
func collectCodes(ctx context.Context, files []string) ([]string, error) {
	results := make([]fileCodes, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(scanFile(ctx, i, f, results))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]struct{})
	for _, r := range results {
		for code := range r.codes {
			merged[code] = struct{}{}
		}
	}

	codes := make([]string, 0, len(merged))
	for code := range merged {
		codes = append(codes, code)
	}
	return codes, nil
}

func scanFile(ctx context.Context, idx int, path string, results []fileCodes) func() error {
	return func() error {
		// The filter answers "definitely new" cheaply; only possible
		// repeats hit the exact set.
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		codes := make(map[string]struct{})
		var total uint64

		if err := streamGzFile(ctx, path, func(line string) {
			code := strings.ToUpper(strings.TrimSpace(line))
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}
			total++
			if total%progressEvery == 0 {
				slog.Info("scan progress", slog.Int("file", idx+1), slog.Uint64("lines", total))
			}
			if filter.TestAndAddString(code) {
				if _, seen := codes[code]; seen {
					return
				}
			}
			codes[code] = struct{}{}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d", idx+1)
		}

		slog.Info("scan complete",
			slog.Int("file", idx+1),
			slog.Uint64("lines", total),
			slog.Int("unique", len(codes)),
		)

		results[idx] = fileCodes{codes: codes}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// importCodes creates one coupon per code from the template. Codes already
// present in the system are skipped, so re-running an import is safe.
func importCodes(ctx context.Context, svc *coupon.Service, codes []string, template coupon.CreateRequest) error {
	slog.Info("importing coupons", slog.Int("count", len(codes)))

	var skipped int
	for i, code := range codes {
		req := template
		req.Code = code

		if _, err := svc.Create(ctx, req); err != nil {
			if errors.Is(err, coupon.ErrDuplicateCode) {
				skipped++
				continue
			}
			return errors.Wrapf(err, "import coupon %s", code)
		}

		if (i+1)%1000 == 0 || i+1 == len(codes) {
			slog.Info("import progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}

	slog.Info("import finished", slog.Int("imported", len(codes)-skipped), slog.Int("skipped", skipped))
	return nil
}
