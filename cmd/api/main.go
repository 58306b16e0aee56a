package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/kconnect-service/internal/api/http"
	"github.com/spec-kit/kconnect-service/internal/api/http/handlers"
	"github.com/spec-kit/kconnect-service/internal/auth"
	"github.com/spec-kit/kconnect-service/internal/config"
	"github.com/spec-kit/kconnect-service/internal/events"
	"github.com/spec-kit/kconnect-service/internal/observability"
	"github.com/spec-kit/kconnect-service/internal/persistence"
	"github.com/spec-kit/kconnect-service/internal/queue"
	"github.com/spec-kit/kconnect-service/internal/repository"
	"github.com/spec-kit/kconnect-service/internal/service"
	"github.com/spec-kit/kconnect-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	employeeRepo := repository.NewEmployeeRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	publisher := queue.NewPublisher(cfg.Broker, logger)
	var sink service.EventSink
	if publisher != nil {
		sink = publisher
	}
	notificationService := service.NewNotificationService(dispatcher, logger, sink)
	stopWorker := worker.StartNotificationWorker(notificationService, publisher, logger)
	defer stopWorker()

	authService, err := service.NewAuthService(*cfg, service.AuthDependencies{
		EmployeeRepo:   employeeRepo,
		DepartmentRepo: departmentRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}

	orgDeps := service.OrgDependencies{
		EmployeeRepo:   employeeRepo,
		DepartmentRepo: departmentRepo,
		ReportRepo:     reportRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	}
	if err := service.NewSeeder(*cfg, orgDeps).Seed(ctx); err != nil {
		logger.Fatal("failed to seed initial data", zap.Error(err))
	}

	policy, err := auth.PolicyFromFile(cfg.Auth.AccessRulesFile)
	if err != nil {
		logger.Fatal("failed to load access rules", zap.Error(err))
	}

	app := httptransport.NewApp(cfg.App)
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.AllowedOrigins())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:        handlers.NewAuthHandler(authService),
		Employees:   handlers.NewEmployeesHandler(service.NewEmployeeService(*cfg, orgDeps)),
		Departments: handlers.NewDepartmentsHandler(service.NewDepartmentService(orgDeps)),
		Reports:     handlers.NewReportsHandler(service.NewReportService(orgDeps)),
		Gate:        auth.NewGate(authService.TokenManager(), logger),
		Policy:      policy,
		RateLimit:   httptransport.RateLimit(cfg.RateLimit, redis.Client, logger),
		Logger:      logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
