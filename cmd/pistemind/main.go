package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/pistemind/internal/cli"
	"github.com/alexanderramin/pistemind/internal/config"
	"github.com/alexanderramin/pistemind/internal/db"
	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/events"
	"github.com/alexanderramin/pistemind/internal/intelligence"
	"github.com/alexanderramin/pistemind/internal/llm"
	"github.com/alexanderramin/pistemind/internal/logging"
	"github.com/alexanderramin/pistemind/internal/prompt"
	"github.com/alexanderramin/pistemind/internal/repository"
	"github.com/alexanderramin/pistemind/internal/service"
	"github.com/alexanderramin/pistemind/internal/tactics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	if err := domain.ValidateCatalog(); err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	sessionRepo := repository.NewSQLiteSessionRepo(database)
	eventRepo := repository.NewSQLiteEventRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		observer = llm.NewLogObserver(log)
	}
	client, err := llm.NewClient(ctx, cfg.LLM, observer)
	if err != nil {
		return fmt.Errorf("building llm client: %w", err)
	}
	gateway := intelligence.NewGateway(client, cfg.LLM.Model)
	prompts := prompt.NewLoader(cfg.TemplateDir)
	sampler := tactics.NewSampler()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithSampler(sampler),
		service.WithObservers(service.NewLogUseCaseObserver(log)),
		service.WithTemperatures(service.Temperatures{
			Scenario: cfg.LLM.Temperature(llm.TaskScenario),
			Choices:  cfg.LLM.Temperature(llm.TaskChoices),
			Feedback: cfg.LLM.Temperature(llm.TaskFeedback),
		}),
	}

	app := &cli.App{
		Presenter: service.NewPresenter(gateway, prompts),
		Sampler:   sampler,
		Config:    *cfg,
		Log:       log,
	}

	if cfg.Redis.Addr != "" {
		bus, err := events.NewRedisPublisher(ctx, cfg.Redis.Addr, cfg.Redis.Channel, log)
		if err != nil {
			log.Warn("message bus unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer bus.Close()
			opts = append(opts, service.WithPublisher(bus))
			app.Bus = bus
		}
	}

	app.Sessions = service.NewSessionService(sessionRepo, eventRepo, uow, gateway, prompts, opts...)
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	err = cli.NewRootCmd(app).ExecuteContext(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
