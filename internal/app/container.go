package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vahire/internal/config"
	"vahire/internal/database"
	dbpostgres "vahire/internal/database/postgres"
	"vahire/internal/domain/payment"
	"vahire/internal/domain/profile"
	"vahire/internal/infrastructure/broker"
	"vahire/internal/infrastructure/cache"
	"vahire/internal/infrastructure/metrics"
	"vahire/internal/infrastructure/paymentprovider"
	"vahire/internal/notify"
	"vahire/internal/pkg/circuitbreaker"
	"vahire/internal/pkg/docschema"
	"vahire/internal/pkg/jwt"
	"vahire/internal/repository"
	"vahire/internal/repository/memory"
	"vahire/internal/usecase/engagement"
	"vahire/internal/usecase/identity"
	"vahire/internal/usecase/payments"
	"vahire/internal/usecase/postings"
	"vahire/internal/usecase/profiles"
	"vahire/internal/usecase/proposals"
	"vahire/internal/usecase/reconcile"
	"vahire/internal/usecase/worklog"
	"vahire/internal/ws"
)

type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB        database.DB
	Store     repository.Store
	Cache     *cache.Redis
	Publisher *broker.Publisher
	Hub       *ws.Hub
	Tokens    jwt.Service
	Sandbox   *paymentprovider.Sandbox

	Identity   *identity.Service
	Profiles   *profiles.Service
	Postings   *postings.Service
	Proposals  *proposals.Service
	Engagement *engagement.Service
	Worklog    *worklog.Service
	Payments   *payments.Service
	Reconcile  *reconcile.Service

	stopHub context.CancelFunc
}

func NewLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func NewContainer(cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.openStore(); err != nil {
		return nil, err
	}

	c.Cache = cache.NewRedis(cfg.Redis, logger.Named("cache"))

	if cfg.Broker.URL != "" {
		pub, err := broker.Dial(cfg.Broker.URL, cfg.Broker.Exchange, logger.Named("broker"))
		if err != nil {
			// Notifications still reach websocket clients and the log.
			logger.Warn("broker unavailable, publishing disabled", zap.Error(err))
		} else {
			c.Publisher = pub
		}
	}

	hubCtx, stop := context.WithCancel(context.Background())
	c.stopHub = stop
	c.Hub = ws.NewHub(logger.Named("ws"))
	go c.Hub.Run(hubCtx)

	var publisher notify.Publisher
	if c.Publisher != nil {
		publisher = c.Publisher
	}
	sink := notify.NewDispatcher(c.Hub, publisher, logger.Named("notify"))

	docs, err := docschema.New()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load document schemas: %w", err)
	}

	c.Tokens = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiresIn, cfg.JWT.RefreshExpiresIn)

	c.Sandbox = paymentprovider.NewSandbox()
	provider := paymentprovider.NewGuarded(
		c.Sandbox,
		circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.Payment.BreakerFailureThreshold,
			Timeout:          cfg.Payment.BreakerOpenTimeout,
		}),
		logger.Named("payment_provider"),
	)
	fees := payment.FeePolicy{
		PlatformRate:    cfg.Payment.PlatformFeeRate,
		ProviderPercent: cfg.Payment.ProviderPercent,
		ProviderFixed:   cfg.Payment.ProviderFixed,
	}
	rec := metrics.Recorder{}

	c.Identity = identity.NewService(c.Store, c.Tokens, logger.Named("identity"))
	c.Profiles = profiles.NewService(c.Store, c.Cache, sink, rec, profiles.Config{
		MaxRatingRetries: cfg.Rating.MaxRetries,
		RatingLockTTL:    cfg.Rating.LockTTL,
	}, logger.Named("profiles"))
	c.Postings = postings.NewService(c.Store, c.Cache, rec, logger.Named("postings"))
	c.Engagement = engagement.NewService(c.Store, docs, sink, rec, cfg.Payment.Currency, logger.Named("engagement"))
	c.Proposals = proposals.NewService(c.Store, c.Engagement, c.Cache, sink, rec, logger.Named("proposals"))
	c.Worklog = worklog.NewService(c.Store, sink, rec, cfg.Worklog.HoursTolerance, logger.Named("worklog"))
	c.Payments = payments.NewService(c.Store, provider, fees, cfg.Payment.Currency, sink, rec, logger.Named("payments"))
	c.Payments.EnableSettlement(c.Sandbox)
	c.Reconcile = reconcile.NewService(c.Store, c.Engagement, logger.Named("reconcile"))

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Identity.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("seed admin account: %w", err)
		}
	}

	return c, nil
}

func (c *Container) openStore() error {
	switch c.Config.Database.Driver {
	case config.StoreDriverMemory:
		c.Logger.Warn("using in-memory store, data is lost on restart")
		c.Store = memory.New(profile.DefaultSkillCatalog)
		return nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := dbpostgres.Connect(ctx, c.Config.Database)
		if err != nil {
			return err
		}
		c.DB = db
		c.Store = repository.NewPostgresStore(db)
		return nil
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.stopHub != nil {
		c.stopHub()
	}
	if c.Publisher != nil {
		c.Publisher.Close()
	}

	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
	return errors.Join(errs...)
}
