// Command seed-db loads demo coupons from a JSON file and prints a signed
// session cookie for a demo user, for local development against a fresh
// database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mealcart/checkout/internal/domain/coupon"
	"github.com/mealcart/checkout/internal/handler"
	"github.com/mealcart/checkout/internal/storage/postgres"
)

type couponJSON struct {
	Code           string           `json:"code"`
	RestaurantID   string           `json:"restaurantId"`
	DiscountType   string           `json:"discountType"`
	Value          decimal.Decimal  `json:"value"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount"`
	MinOrderAmount decimal.Decimal  `json:"minOrderAmount"`
	UsageLimit     int              `json:"usageLimit"`
	PerUserLimit   int              `json:"perUserLimit"`
	ExpiresInDays  int              `json:"expiresInDays"`
}

func main() {
	var (
		databaseURL   string
		couponsFile   string
		sessionSecret string
		demoUser      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&couponsFile, "coupons-file", "db/seed/coupons.json", "path to coupons JSON file")
	flag.StringVar(&sessionSecret, "session-secret", "", "session signing secret (or CHECKOUT_SESSION_SECRET env)")
	flag.StringVar(&demoUser, "demo-user", "demo-user", "user id to print a session cookie for")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if sessionSecret == "" {
		sessionSecret = os.Getenv("CHECKOUT_SESSION_SECRET")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, couponsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if sessionSecret != "" {
		cookie := handler.NewSessions([]byte(sessionSecret)).Token(demoUser)
		slog.Info("demo session", slog.String("user", demoUser), slog.String("cookie", handler.SessionCookie+"="+cookie))
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, couponsFile string) error {
	data, err := os.ReadFile(couponsFile)
	if err != nil {
		return errors.Wrapf(err, "read %s", couponsFile)
	}

	var seeds []couponJSON
	if err := json.Unmarshal(data, &seeds); err != nil {
		return errors.Wrapf(err, "parse %s", couponsFile)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	svc := coupon.NewService(postgres.NewCouponRepository(pool))

	for _, seed := range seeds {
		req := coupon.CreateRequest{
			Code:           seed.Code,
			RestaurantID:   seed.RestaurantID,
			DiscountType:   coupon.DiscountType(seed.DiscountType),
			Value:          seed.Value,
			MaxDiscount:    seed.MaxDiscount,
			MinOrderAmount: seed.MinOrderAmount,
			UsageLimit:     seed.UsageLimit,
			PerUserLimit:   seed.PerUserLimit,
		}
		if seed.ExpiresInDays > 0 {
			expiry := time.Now().AddDate(0, 0, seed.ExpiresInDays)
			req.ExpiresAt = &expiry
		}

		if _, err := svc.Create(ctx, req); err != nil {
			if errors.Is(err, coupon.ErrDuplicateCode) {
				slog.Info("coupon exists, skipping", slog.String("code", seed.Code))
				continue
			}
			return errors.Wrapf(err, "seed coupon %s", seed.Code)
		}
		slog.Info("seeded coupon", slog.String("code", seed.Code))
	}

	return nil
}
