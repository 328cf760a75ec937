package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"

	"IdeaScanner/internal/config"
	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/infrastructure/httpapi"
	"IdeaScanner/internal/infrastructure/llm"
	"IdeaScanner/internal/infrastructure/mailer"
	"IdeaScanner/internal/infrastructure/reddit"
	"IdeaScanner/internal/infrastructure/rediscache"
	"IdeaScanner/internal/infrastructure/scheduler"
	"IdeaScanner/internal/infrastructure/storage"
	"IdeaScanner/internal/infrastructure/telegram"
	"IdeaScanner/internal/infrastructure/temporalx"
	"IdeaScanner/internal/observability"
	"IdeaScanner/internal/ports"
	"IdeaScanner/internal/scanner"
	"IdeaScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	store    *storage.Store
	cache    *rediscache.ItemCache
	mailer   ports.Mailer
	reporter ports.RunReporter
	notifier *usecase.Notifier
	stages   *usecase.Stages

	temporal        client.Client
	shutdownTracing func(context.Context) error
}

// New opens the store, picks the live or mock strategies once and builds the
// pipeline stages. ctx bounds startup only.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	}, baseLogger.With("component", "tracing"))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracing = shutdown

	a.store, err = storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		a.cache, err = rediscache.New(ctx, rediscache.Options{
			Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB, Prefix: cfg.Redis.Prefix,
		})
		if err != nil {
			// the hot tier is optional
			baseLogger.Warn("redis unavailable, continuing without hot cache", "addr", cfg.Redis.Addr, "err", err)
		}
	}

	source, model, err := a.strategies()
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		a.reporter = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	a.notifier = usecase.NewNotifier(usecase.NotifierDeps{
		Subscribers: a.store,
		Mailer:      a.mailer,
		From:        cfg.Email.From,
		Concurrency: cfg.Notifications.Concurrency,
		Logger:      baseLogger.With("component", "notifier"),
	})
	a.stages = usecase.NewStages(usecase.StagesDeps{
		Topics:    a.store,
		Source:    source,
		Analyzer:  usecase.NewAnalyzer(model, baseLogger.With("component", "analysis")),
		Generator: usecase.NewGenerator(model),
		Persister: usecase.NewPersister(a.store),
		Notifier:  a.notifier,
		Logger:    baseLogger.With("component", "stages"),
	})

	if cfg.Mode.Workflow == config.WorkflowTemporal {
		a.temporal, err = temporalx.Dial(ctx, temporalx.ClientOptions{
			Address:   cfg.Temporal.Address,
			Namespace: cfg.Temporal.Namespace,
			MaxWait:   30 * time.Second,
		}, baseLogger)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}
	return a, nil
}

// strategies selects the item source, model and mailer variants from mode.mock.
func (a *Application) strategies() (ports.ItemSource, ports.IdeaModel, error) {
	cfg := a.cfg
	if cfg.Mode.Mock {
		a.logger.Info("mock mode: file source, canned model, log mailer", "items_file", cfg.Mock.ItemsFile)
		a.mailer = mailer.NewLogMailer(a.logger.With("component", "mailer"))
		return reddit.NewFileSource(cfg.Mock.ItemsFile), llm.MockModel{}, nil
	}

	rc := reddit.NewClient(reddit.ClientOptions{
		BaseURL:           cfg.Source.BaseURL,
		UserAgent:         cfg.Source.UserAgent,
		Timeout:           cfg.Source.RequestTimeout(),
		RequestsPerMinute: cfg.Source.RequestsPerMinute,
	})
	registry := scanner.NewRegistry(
		reddit.NewListingScanner(rc, reddit.SortRising),
		reddit.NewListingScanner(rc, reddit.SortHot),
		reddit.NewListingScanner(rc, reddit.SortNew),
		reddit.NewAtomScanner(rc),
	)
	deps := usecase.GatewayDeps{
		Store:        a.store,
		Registry:     registry,
		Variants:     cfg.Source.Variants,
		TTL:          cfg.Source.TTL(),
		StaleLimit:   cfg.Source.StaleLimit,
		ListingLimit: cfg.Source.ListingLimit,
		Logger:       a.logger.With("component", "gateway"),
	}
	if a.cache != nil {
		deps.Cache = a.cache
	}
	gateway, err := usecase.NewGateway(deps)
	if err != nil {
		return nil, nil, err
	}

	a.mailer = mailer.NewResendMailer(cfg.Email.Endpoint, cfg.Email.APIKey)
	model := llm.NewChatGPTClient(llm.Config{
		Endpoint:            cfg.OpenAI.Endpoint,
		Model:               cfg.OpenAI.Model,
		APIKey:              cfg.OpenAI.APIKey,
		AnalyzeTemperature:  cfg.OpenAI.AnalyzeTemperature,
		GenerateTemperature: cfg.OpenAI.GenerateTemperature,
	}, nil)
	return gateway, model, nil
}

// Runner is a dispatcher that can also run synchronously.
type Runner interface {
	ports.Dispatcher
	RunNow(ctx context.Context, topic string) (domain.RunSummary, error)
	Wait()
}

// Dispatcher returns the configured substrate. base outlives triggered runs.
func (a *Application) Dispatcher(base context.Context) Runner {
	log := a.logger.With("component", "dispatcher")
	if a.temporal != nil {
		return temporalx.NewDispatcher(base, a.temporal, a.cfg.Temporal.TaskQueue, a.reporter, log)
	}
	return usecase.NewLocalDispatcher(base, a.stages, usecase.DefaultRetryPolicy, a.reporter, log)
}

// Serve runs the HTTP API and the cron triggers until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	dispatcher := a.Dispatcher(ctx)
	defer dispatcher.Wait()

	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(), a.logger.With("component", "cron"))
	if err != nil {
		return err
	}
	sched := usecase.NewScheduler(driver, dispatcher, a.cfg.Scheduler.DefaultTopic, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.stopScheduler(sched)

	if spec := a.cfg.Notifications.Digest.CronExpression; spec != "" {
		digestCron, err := scheduler.NewCronScheduler(spec, a.cfg.Scheduler.Location(), a.logger.With("component", "digest-cron"))
		if err != nil {
			return err
		}
		if err := digestCron.Start(ctx, func(time.Time) { a.runDigest(ctx) }); err != nil {
			return fmt.Errorf("start digest schedule: %w", err)
		}
		defer a.stopScheduler(digestCron)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Dispatcher:     dispatcher,
		Topics:         a.store,
		Concepts:       a.store,
		Subscribers:    a.store,
		Health:         a.store,
		Mailer:         a.mailer,
		From:           a.cfg.Email.From,
		DefaultTopic:   a.cfg.Scheduler.DefaultTopic,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		ServiceName:    a.cfg.Tracing.ServiceName,
		Logger:         a.logger,
	})
	return httpapi.Serve(ctx, a.cfg.HTTP.Addr, router, a.logger.With("component", "http"))
}

func (a *Application) stopScheduler(s interface{ Stop(context.Context) error }) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop", "err", err)
	}
}

// Worker polls the Temporal task queue until ctx is done.
func (a *Application) Worker(ctx context.Context) error {
	if a.temporal == nil {
		return errors.New("worker requires mode.workflow: temporal")
	}
	w, err := temporalx.NewWorker(a.temporal, a.cfg.Temporal.TaskQueue, &temporalx.Activities{Stages: a.stages},
		a.cfg.Notifications.Concurrency, a.logger.With("component", "worker"))
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Digest mails the concepts of the last digest interval.
func (a *Application) Digest(ctx context.Context) (usecase.DigestResult, error) {
	interval := time.Duration(a.cfg.Notifications.Digest.IntervalHours) * time.Hour
	return usecase.NewDigestJob(a.store, a.notifier, interval, nil).Run(ctx)
}

func (a *Application) runDigest(ctx context.Context) {
	res, err := a.Digest(ctx)
	if err != nil {
		a.logger.Error("digest failed", "err", err)
		return
	}
	a.logger.Info("digest processed", "ideas", res.IdeasFound, "sent", res.EmailsSent, "failed", res.EmailsFailed)
}

// SyncMocks writes the newest stored items to the mock file and returns how many.
func (a *Application) SyncMocks(ctx context.Context, limit int) (int, error) {
	items, err := a.store.RecentItems(ctx, "", limit)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, errors.New("no stored items to export; run a live sync first")
	}
	if err := reddit.WriteMockFile(a.cfg.Mock.ItemsFile, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// DefaultTopic is the topic scheduled runs and bare CLI syncs use.
func (a *Application) DefaultTopic() string { return a.cfg.Scheduler.DefaultTopic }

// Store exposes the row store to read-only CLI commands.
func (a *Application) Store() *storage.Store { return a.store }

// Close releases every resource New acquired.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.temporal != nil {
		a.temporal.Close()
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}
