package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/meshiya/membership/modules/auth"
	"github.com/meshiya/membership/modules/profile"
	"github.com/meshiya/membership/modules/webhook"
	"github.com/meshiya/membership/pkg/config"
	"github.com/meshiya/membership/pkg/email"
	"github.com/meshiya/membership/pkg/httpserver"
	"github.com/meshiya/membership/pkg/pg"
	"github.com/meshiya/membership/pkg/redis"
	"github.com/meshiya/membership/pkg/session"
	"github.com/meshiya/membership/svc/account"
	"github.com/meshiya/membership/svc/billing"
)

type appConfig struct {
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"` // Public origin used in verification links.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// AdminEmails lists the accounts that sign in with admin privileges,
	// comma separated. The role-override endpoint is unusable without it.
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	TokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`
}

func main() {
	var (
		appCfg     appConfig
		pgCfg      pg.Config
		redisCfg   redis.Config
		sessionCfg session.Config
		emailCfg   email.Config
		billingCfg billing.Config
		httpCfg    httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&sessionCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&billingCfg)
	config.MustLoad(&httpCfg)

	log := newLogger(appCfg.LogLevel)

	ctx := context.Background()

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		log.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	sessions := session.NewManager(session.NewRedisStore(redisClient), sessionCfg)

	var mailer email.Sender
	if emailCfg.PostmarkServerToken != "" {
		mailer, err = email.NewPostmarkSender(emailCfg)
		if err != nil {
			log.Error("failed to configure postmark", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("postmark not configured, emails go to the log")
		mailer = email.NewLogSender(log)
	}

	accounts := account.NewService(
		account.NewPGStorage(pool),
		mailer,
		account.WithLogger(log),
		account.WithBaseURL(appCfg.BaseURL),
		account.WithTokenTTL(appCfg.TokenTTL),
	)
	gateway := billing.NewStripeGateway(billingCfg, log)
	events := billing.NewWebhookHandler(billingCfg, accounts, log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))

	r.Mount("/", auth.NewService(accounts, sessions, nil, log,
		auth.WithAdminEmails(appCfg.AdminEmails)).Handle())
	r.Mount("/user", profile.NewService(accounts, gateway, sessions, nil, log).Handle())
	r.Mount("/webhook", webhook.NewHandler(events, log).Handle())

	if err := httpserver.New(httpCfg, log).Run(ctx, r); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func healthHandler(log *slog.Logger, probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, probe := range probes {
			if err := probe(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "healthcheck failed", "error", err)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
