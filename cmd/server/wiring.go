package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	dealhandler "dealroom/internal/deal/handler"
	dealmetrics "dealroom/internal/deal/metrics"
	dealservice "dealroom/internal/deal/service"
	dealstore "dealroom/internal/deal/store"
	jwttoken "dealroom/internal/jwt_token"
	listinghandler "dealroom/internal/listing/handler"
	listingmetrics "dealroom/internal/listing/metrics"
	listingservice "dealroom/internal/listing/service"
	listingstore "dealroom/internal/listing/store"
	matchinghandler "dealroom/internal/matching/handler"
	matchingservice "dealroom/internal/matching/service"
	matchingstore "dealroom/internal/matching/store"
	messaginghandler "dealroom/internal/messaging/handler"
	messagingservice "dealroom/internal/messaging/service"
	messagingstore "dealroom/internal/messaging/store"
	ndahandler "dealroom/internal/nda/handler"
	ndametrics "dealroom/internal/nda/metrics"
	ndaservice "dealroom/internal/nda/service"
	ndastore "dealroom/internal/nda/store"
	"dealroom/internal/notification/email"
	notificationhandler "dealroom/internal/notification/handler"
	notificationservice "dealroom/internal/notification/service"
	notificationstore "dealroom/internal/notification/store"
	"dealroom/internal/platform/config"
	"dealroom/internal/platform/kafka"
	"dealroom/internal/platform/postgres"
	"dealroom/internal/platform/redis"
	userhandler "dealroom/internal/user/handler"
	userservice "dealroom/internal/user/service"
	userstore "dealroom/internal/user/store"
	"dealroom/pkg/platform/circuit"
	"dealroom/pkg/platform/middleware/auth"
	"dealroom/pkg/platform/tx"
)

// Infra holds the optional external connections. A nil field means the
// corresponding backend is not configured and in-process fallbacks are used.
type Infra struct {
	DB       *sql.DB
	Redis    *redis.Client
	Asynq    *asynq.Client
	Producer *kafka.Producer
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*Infra, error) {
	infra := &Infra{}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, postgres.Options{
			DSN:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		infra.DB = db
		if err := postgres.Migrate(ctx, db); err != nil {
			infra.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		infra.Close()
		return nil, err
	}
	if rc != nil {
		infra.Redis = rc
		infra.Asynq = asynq.NewClient(rc.AsynqOpt())
	} else {
		log.Warn("REDIS_URL not set, counting views in memory and sending email inline")
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID, cfg.Kafka.ActivityTopic)
	if err != nil {
		infra.Close()
		return nil, err
	}
	if producer != nil {
		infra.Producer = producer
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("ensure activity topic failed", "topic", cfg.Kafka.ActivityTopic, "error", err)
		}
	}
	return infra, nil
}

// Backend names the storage backend for the startup log line.
func (i *Infra) Backend() string {
	if i.DB != nil {
		return "postgres"
	}
	return "memory"
}

// Health pings every configured backend.
func (i *Infra) Health(ctx context.Context) map[string]error {
	checks := map[string]error{}
	if i.DB != nil {
		checks["postgres"] = i.DB.PingContext(ctx)
	}
	if i.Redis != nil {
		checks["redis"] = i.Redis.Health(ctx)
	}
	if i.Producer != nil {
		checks["kafka"] = i.Producer.Health(ctx)
	}
	return checks
}

func (i *Infra) Close() {
	if i.Producer != nil {
		i.Producer.Close()
	}
	if i.Asynq != nil {
		_ = i.Asynq.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
}

// App is the set of mounted HTTP handlers.
type App struct {
	validator auth.JWTValidator
	log       *slog.Logger

	users         *userhandler.Handler
	listings      *listinghandler.Handler
	matching      *matchinghandler.Handler
	ndas          *ndahandler.Handler
	messages      *messaginghandler.Handler
	notifications *notificationhandler.Handler
	deals         *dealhandler.Handler
}

type stores struct {
	users         userservice.Store
	listings      listingStore
	profiles      matchingservice.ProfileStore
	ndas          ndaservice.Store
	messages      messagingservice.Store
	notifications notificationservice.Store
	deals         dealservice.Store
	activities    dealservice.ActivityLog
	runner        dealservice.TxRunner
	views         listingservice.ViewCounter
}

// listingStore is the union of what the listing, matching, NDA and deal
// services read from listings.
type listingStore interface {
	listingservice.Store
	matchingservice.ListingReader
}

func newStores(infra *Infra) stores {
	var s stores
	if infra.DB != nil {
		s = stores{
			users:         userstore.NewPostgres(infra.DB),
			listings:      listingstore.NewPostgres(infra.DB),
			profiles:      matchingstore.NewPostgres(infra.DB),
			ndas:          ndastore.NewPostgres(infra.DB),
			messages:      messagingstore.NewPostgres(infra.DB),
			notifications: notificationstore.NewPostgres(infra.DB),
			deals:         dealstore.NewPostgres(infra.DB),
			activities:    dealstore.NewPostgresActivityLog(infra.DB),
			runner:        tx.NewRunner(infra.DB),
		}
	} else {
		s = stores{
			users:         userstore.NewInMemory(),
			listings:      listingstore.NewInMemory(),
			profiles:      matchingstore.NewInMemory(),
			ndas:          ndastore.NewInMemory(),
			messages:      messagingstore.NewInMemory(),
			notifications: notificationstore.NewInMemory(),
			deals:         dealstore.NewInMemory(),
			activities:    dealstore.NewInMemoryActivityLog(),
			runner:        tx.NoopRunner{},
		}
	}
	if infra.Redis != nil {
		s.views = listingstore.NewRedisViewCounter(infra.Redis.Client)
	} else {
		s.views = listingstore.NewInMemoryViewCounter()
	}
	return s
}

func emailQueue(cfg config.Config, infra *Infra, log *slog.Logger) email.Queue {
	if infra.Asynq != nil {
		return email.NewAsynqQueue(infra.Asynq, cfg.Email.Queue, cfg.Email.MaxRetry)
	}
	return email.NewDirectQueue(email.NewSender(email.SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUser,
		Password: cfg.Email.SMTPPass,
		From:     cfg.Email.From,
	}, log))
}

func buildApp(cfg config.Config, infra *Infra, log *slog.Logger) *App {
	st := newStores(infra)

	users := userservice.New(st.users, userservice.WithLogger(log))
	notifications := notificationservice.New(st.notifications, st.users, emailQueue(cfg, infra, log),
		notificationservice.WithLogger(log))
	messages := messagingservice.New(st.messages)
	matching := matchingservice.New(st.listings, st.profiles,
		matchingservice.WithLogger(log),
		matchingservice.WithThreshold(cfg.Matching.Threshold))
	ndas := ndaservice.New(st.ndas, st.listings, messages, notifications,
		ndaservice.WithLogger(log),
		ndaservice.WithMetrics(ndametrics.New()),
		ndaservice.WithSideEffectTimeout(cfg.Server.SideEffectTimeout))
	listings := listingservice.New(st.listings, st.views, ndas, st.profiles,
		listingservice.WithLogger(log),
		listingservice.WithMetrics(listingmetrics.New()))

	dealOpts := []dealservice.Option{
		dealservice.WithLogger(log),
		dealservice.WithMetrics(dealmetrics.New()),
		dealservice.WithNotifier(notifications),
		dealservice.WithSideEffectTimeout(cfg.Server.SideEffectTimeout),
	}
	if infra.Producer != nil {
		breaker := circuit.New("deal-activities", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second))
		dealOpts = append(dealOpts, dealservice.WithPublisher(kafka.NewGuardedPublisher(infra.Producer, breaker, log)))
	}
	deals := dealservice.New(st.deals, st.activities, st.runner, st.listings, users, dealOpts...)

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	return &App{
		validator:     jwt.Validator(),
		log:           log,
		users:         userhandler.New(users, log),
		listings:      listinghandler.New(listings, log),
		matching:      matchinghandler.New(matching, log),
		ndas:          ndahandler.New(ndas, log),
		messages:      messaginghandler.New(messages, log),
		notifications: notificationhandler.New(notifications, log),
		deals:         dealhandler.New(deals, log),
	}
}

// Register mounts public routes behind optional authentication and everything
// else behind a required bearer token.
func (a *App) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(a.validator, a.log))
		a.listings.RegisterPublic(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(a.validator, a.log))
		a.users.Register(r)
		a.listings.Register(r)
		a.matching.Register(r)
		a.ndas.Register(r)
		a.messages.Register(r)
		a.notifications.Register(r)
		a.deals.Register(r)
	})
}
