package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dokterku/clinic-finance/internal"
	"github.com/dokterku/clinic-finance/internal/audit"
	"github.com/dokterku/clinic-finance/internal/auth"
	authPostgres "github.com/dokterku/clinic-finance/internal/auth/postgres"
	"github.com/dokterku/clinic-finance/internal/budget"
	"github.com/dokterku/clinic-finance/internal/category"
	categoryPostgres "github.com/dokterku/clinic-finance/internal/category/postgres"
	"github.com/dokterku/clinic-finance/internal/core/events"
	"github.com/dokterku/clinic-finance/internal/notification"
	"github.com/dokterku/clinic-finance/internal/transaction"
	transactionPostgres "github.com/dokterku/clinic-finance/internal/transaction/postgres"
	"github.com/dokterku/clinic-finance/internal/transport"
	"github.com/dokterku/clinic-finance/internal/transport/rest"
	"github.com/dokterku/clinic-finance/internal/user"
	userPostgres "github.com/dokterku/clinic-finance/internal/user/postgres"
	"github.com/dokterku/clinic-finance/pkg/logger"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	gormSqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := validateOpenAPISpec("./api/openapi.yml"); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid OpenAPI spec: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := internal.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	lg := deps.Logger
	gormDB := deps.GormDB
	cfg := deps.Config

	transactionRepo := transactionPostgres.NewTransactionRepository(gormDB)

	categoryRepo := categoryPostgres.NewCategoryRepository(gormDB)
	categoryService := category.NewService(categoryRepo, lg)
	categoryHandler := category.NewHandler(transport.NewBaseHandler(lg), categoryService)

	// the registry limit wins over configured limits, the transaction
	// table is the spend source
	budgetService := budget.NewService(transactionRepo, categoryService, cfg.Budget, lg)
	budgetHandler := budget.NewHandler(budgetService)

	auditRecorder := audit.NewRecorder(gormDB, lg)

	eventBus := events.NewEventBus(lg)
	notifier := notification.NewSlogNotifier(lg)
	notification.NewEventHandler(notifier, lg).RegisterEventHandlers(eventBus)

	transactionService := transaction.NewService(transactionRepo, budgetService, auditRecorder, eventBus, cfg.Workflow, lg)
	transactionHandler := transaction.NewHandler(transactionService)

	tokenGenerator := auth.NewJWTTokenGenerator(cfg.Security.AccessTokenSecret, cfg.Security.RefreshTokenSecret)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGenerator)
	authHandler := auth.NewHandler(authService)

	userRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, authHandler, authService, userHandler, transactionHandler, categoryHandler, budgetHandler, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if lc := config.Observability.Logging; lc.Level != "" || lc.Format != "" {
		logger.Setup(lc.Level, lc.Format)
	} else {
		logger.Init(os.Getenv("APP_ENV"))
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	router := chi.NewRouter()

	return &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper(),
		DB:     db,
		GormDB: gormDB,
		Router: router,
	}, nil
}

// initDB opens the plain SQL connection used by the health endpoint.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm opens the ORM connection the repositories share. The sqlite
// driver exists for local development and the test seeder.
func initGorm(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = gormSqlite.Open(cfg.Source)
	default:
		dialector = gormPostgres.Open(cfg.Source)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return gormDB, nil
}

// validateOpenAPISpec fails startup when the served contract no longer
// parses, so a broken spec never reaches the dashboard team.
func validateOpenAPISpec(path string) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("load spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return fmt.Errorf("validate spec: %w", err)
	}
	return nil
}
