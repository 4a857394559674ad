package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/orbitpay/orbitpay/internal/cache"
	"github.com/orbitpay/orbitpay/internal/config"
	"github.com/orbitpay/orbitpay/internal/events"
	"github.com/orbitpay/orbitpay/internal/fx"
	"github.com/orbitpay/orbitpay/internal/identity"
	"github.com/orbitpay/orbitpay/internal/ledger"
	"github.com/orbitpay/orbitpay/internal/lock"
	"github.com/orbitpay/orbitpay/internal/middleware"
	"github.com/orbitpay/orbitpay/internal/policy"
	"github.com/orbitpay/orbitpay/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	AMQP   *amqp.Channel
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Postgres, Redis and
// the broker may each be absent in development; the service then falls back to
// in-memory equivalents (and a log publisher) so the full transfer path stays
// exercisable locally.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewInMemory()
	}

	var users identity.Repository
	if d.DB != nil {
		users = identity.NewPostgresRepository(d.DB)
	} else {
		users = identity.NewMemoryRepository()
	}

	var locks lock.Coordinator
	if d.Cache != nil {
		locks = lock.NewRedisCoordinator(d.Cache)
	} else {
		locks = lock.NewMemoryCoordinator()
	}

	var gate policy.Gate = policy.StaticGate{}
	if d.Cfg.PolicyURL != "" {
		gate = policy.NewHTTPGate(d.Cfg.PolicyURL, d.Cfg.PolicyTimeout)
	}

	var publisher events.Publisher = events.NewLogPublisher(d.Logger)
	if d.AMQP != nil {
		amqpPublisher, err := events.NewAMQPPublisher(d.AMQP)
		if err != nil {
			return fmt.Errorf("declare event exchange: %w", err)
		}
		publisher = amqpPublisher
	}

	balances := cache.New(d.Cache, d.Cfg.BalanceCacheTTL, d.Logger)
	svc := transfer.NewService(store, users, locks, gate, fx.NewConverter(), balances, publisher, d.Logger, d.Cfg.LockTTL)
	handler := transfer.NewHandler(svc)

	api := app.Group("/api/v1")
	RegisterTransferRoutes(api, handler)
	RegisterWalletRoutes(api, handler)

	return nil
}
