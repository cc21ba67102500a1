package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/middleware"
	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/poller"
	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/routes"
	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/routes/contest"
	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/taskrunner"
	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/config"
	"github.com/algotester-tools/ccs-eventfeed/internal/contestpkg"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
	"github.com/algotester-tools/ccs-eventfeed/internal/mapping"
	"github.com/algotester-tools/ccs-eventfeed/internal/otel"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
	"github.com/algotester-tools/ccs-eventfeed/internal/state"
)

const name string = "github.com/algotester-tools/ccs-eventfeed/server"

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	store        *state.Store
	poller       *poller.Poller
	taskRunner   *taskrunner.Client
	otelShutdown func(context.Context) error
	pollerCancel func()
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	useOTLP := cfg.Logging != nil && cfg.Logging.UseOTLP
	shutdownOTel, err := otel.SetupOTelSDK(ctx, useOTLP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	if cfg.Logging != nil {
		logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))
	}

	if cfg.Data.ResetOnStart {
		if err = os.RemoveAll(cfg.Data.Dir); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to reset data directory")
			return nil, fmt.Errorf("failed to reset data directory: %w", err)
		}
		logger.Logger.Warn("cleared data directory", "dir", cfg.Data.Dir)
	}

	pkg, err := contestpkg.Load(cfg.ContestPackagePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load contest package")
		return nil, fmt.Errorf("failed to load contest package: %w", err)
	}

	span.AddEvent("loaded contest package")

	teamMapping, err := mapping.Load(cfg.TeamMappingFile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load team mapping")
		return nil, fmt.Errorf("failed to load team mapping: %w", err)
	}
	problemMapping, err := mapping.Load(cfg.ProblemMappingFile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load problem mapping")
		return nil, fmt.Errorf("failed to load problem mapping: %w", err)
	}

	if len(teamMapping) == 0 || len(problemMapping) == 0 {
		logger.Logger.Warn("mappings are empty, scoreboard rows will be skipped until generated",
			"team_mapping_file", cfg.TeamMappingFile,
			"problem_mapping_file", cfg.ProblemMappingFile,
		)
	}

	span.AddEvent("loaded mappings")

	contestStart, hasStart := pkg.StartTime()
	if !hasStart {
		contestStart = time.Now().UTC()
		logger.Logger.Warn("contest package has no start_time, using current time",
			"start", contestStart)
	}

	store, err := state.New(cfg.Data.Dir, teamMapping, problemMapping, contestStart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize state store")
		return nil, fmt.Errorf("failed to initialize state store: %w", err)
	}

	err = store.InitializeStaticEvents(
		pkg.Contest(),
		ccs.DefaultJudgementTypes(),
		ccs.DefaultLanguages(),
		pkg.Problems(),
		pkg.Teams(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize static events")
		return nil, fmt.Errorf("failed to initialize static events: %w", err)
	}
	if err = store.Flush(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist initial state")
		return nil, fmt.Errorf("failed to persist initial state: %w", err)
	}

	span.AddEvent("initialized state store")

	fetcher := scoreboard.New(
		scoreboard.DefaultHTTPClient(),
		scoreboard.BaseURL(cfg.Algotester.Subdomain),
		cfg.Algotester.APIKey,
		cfg.Algotester.ContestID,
		cfg.Algotester.ShowUnofficial,
	)

	e, err := routes.BuildEcho(logger.Logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error building router")
		return nil, fmt.Errorf("error building router: %w", err)
	}

	span.AddEvent("created echo router")

	middlewareHandler := servermiddleware.Handler{Auth: cfg.Auth}
	contestHandler := contest.Create(pkg, store)

	var feedMiddleware []echo.MiddlewareFunc
	if cfg.RateLimit != nil && cfg.RateLimit.RedisHost != "" && cfg.RateLimit.FeedPerMinute > 0 {
		feedMiddleware = append(feedMiddleware, echomiddleware.RateLimiterWithConfig(
			contest.NewRedisLimiter(
				cfg.RateLimit.RedisHost,
				"feed",
				cfg.RateLimit.FeedPerMinute,
				cfg.RateLimit.FailOpen,
			),
		))
	}

	contestHandler.AddRoutes(e, &middlewareHandler, feedMiddleware...)

	server.otelShutdown = shutdownOTel
	server.router = e
	server.store = store
	server.poller = poller.Create(
		fetcher,
		store,
		time.Second*time.Duration(cfg.PollingIntervalSecs),
	)
	server.taskRunner = taskrunner.Create()

	return server, nil
}

func (s *server) Start(ctx context.Context) error {
	pollerCtx, pollerCancel := context.WithCancel(ctx)
	s.pollerCancel = pollerCancel

	// a poller error means state can no longer be persisted; stop serving the
	// feed and surface the error from Start
	pollerErr := make(chan error, 1)
	s.taskRunner.Run(ctx, func(context.Context) {
		err := s.poller.Run(pollerCtx)
		if err == nil {
			return
		}
		logger.Logger.Error("poller stopped, shutting down", "error", err)
		pollerErr <- err

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Second*time.Duration(s.config.GracefulShutdownSecs),
		)
		defer cancel()
		if shutdownErr := s.router.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Logger.Error("failed to shutdown router after poller error", "error", shutdownErr)
		}
	})

	logger.Logger.Info("Starting services...")

	err := s.router.Start(s.config.ListenAddress)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	select {
	case err := <-pollerErr:
		return err
	default:
		return nil
	}
}

func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	s.pollerCancel()

	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if err := s.taskRunner.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to shutdown taskRunner gracefully: %w", err))
	}

	if err := s.store.Flush(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to flush state on shutdown: %w", err))
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	logger.InitSlog()

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(ctx); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}
