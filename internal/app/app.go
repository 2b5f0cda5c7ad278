package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"DigestMailer/internal/config"
	"DigestMailer/internal/domain"
	"DigestMailer/internal/infrastructure/feed"
	"DigestMailer/internal/infrastructure/mail"
	"DigestMailer/internal/infrastructure/render"
	"DigestMailer/internal/infrastructure/storage"
	"DigestMailer/internal/logging"
	"DigestMailer/internal/usecase"
)

// Application wires configs to the digest pipeline and owns the database
// handle for the process lifetime.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	db       *sql.DB
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	policy := cfg.Retry.Policy()

	fetcher := feed.NewFetcher(&http.Client{Timeout: cfg.Feed.Timeout()}, policy)
	parser := feed.NewParser(cfg.Feed)

	var db *sql.DB
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
	}

	store, err := storage.NewPostgresSeenStore(ctx, db, cfg.Subscriber.SeenSetKey())
	if err != nil {
		return nil, fmt.Errorf("init seen store: %w", err)
	}

	renderer, err := render.NewRenderer(cfg.Digest.SubjectPrefix)
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	registry := mail.NewRegistry()
	registry.Register(mail.NewSendGridProvider(cfg.Delivery.SendGrid, cfg.Delivery.FromEmail, policy))
	registry.Register(mail.NewSMTPProvider(cfg.Delivery.SMTP, cfg.Delivery.FromEmail, policy))

	sesProvider, err := mail.NewSESProvider(ctx, cfg.Delivery.SES, cfg.Delivery.FromEmail)
	if err != nil {
		return nil, fmt.Errorf("init ses provider: %w", err)
	}
	registry.Register(sesProvider)

	providers, err := registry.ResolveOrder(cfg.Delivery.Providers)
	if err != nil {
		return nil, fmt.Errorf("resolve providers: %w", err)
	}

	dispatcher := usecase.NewDispatcher(providers, baseLogger.With("component", "dispatcher"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:    fetcher,
		Parser:     parser,
		Store:      store,
		Renderer:   renderer,
		Dispatcher: dispatcher,
		Logger:     baseLogger.With("component", "pipeline"),
	}, cfg.Feed.URL, cfg.Subscriber.Recipient, cfg.Digest.Location())

	return &Application{cfg: cfg, pipeline: pipeline, db: db}, nil
}

// Run performs a single digest run for the current trigger time.
func (a *Application) Run(ctx context.Context) (domain.RunResult, error) {
	now := time.Now().In(a.cfg.Digest.Location())
	return a.pipeline.Run(ctx, now)
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
