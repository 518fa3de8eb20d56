package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devexchange-service/internal/app"
	"devexchange-service/internal/auth"
	"devexchange-service/internal/config"
	"devexchange-service/internal/infra/blob"
	"devexchange-service/internal/infra/mail"
	"devexchange-service/internal/infra/memory"
	"devexchange-service/internal/infra/postgres"
	redisinfra "devexchange-service/internal/infra/redis"
	"devexchange-service/internal/notify"
	transport "devexchange-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const devJWTSecret = "devexchange-dev-secret"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func jwtSecret(configured string, logger *slog.Logger) string {
	if configured != "" {
		return configured
	}
	if logger != nil {
		logger.Warn("auth.jwt_secret not set, using the development secret")
	}
	return devJWTSecret
}

// repositories groups the storage adapters picked from the config.
type repositories struct {
	categories app.CategoryRepository
	images     app.ImageRepository
	accounts   app.VerificationRepository
	websites   app.WebsiteRepository
	votes      app.VoteRepository
	tracker    app.RespondentTracker
	closers    []func()
}

func (r *repositories) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func openRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (*repositories, error) {
	repos := &repositories{}
	if cfg.Postgres.URL == "" {
		logger.Info("postgres url not configured, using in-memory storage")
		store := memory.NewStore()
		repos.categories, repos.images, repos.accounts, repos.websites = store, store, store, store
		repos.votes = memory.NewVoteRepository()
	} else {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return nil, err
		}
		db := openBunDB(cfg.Postgres.URL)
		repos.closers = append(repos.closers, func() { db.Close() })
		store := postgres.NewStore(db)
		repos.categories, repos.images, repos.accounts, repos.websites = store, store, store, store

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			repos.close()
			return nil, err
		}
		repos.closers = append(repos.closers, pool.Close)
		repos.votes = postgres.NewVoteRepository(pool)
	}
	repos.tracker = memory.NewRespondentTracker()
	return repos, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := newLogger()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		repos.tracker = redisinfra.NewRespondentTracker(redisClient)
	}

	assembler := app.NewQuizAssembler(repos.categories, repos.images)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var cache app.QuizCache
	if redisClient != nil {
		cache = redisinfra.NewQuizRepository(redisClient, assembler, quizTTL, logger)
	} else {
		cache = memory.NewQuizRepository(assembler, quizTTL)
	}

	var blobs blob.Store
	var memBlobs *memory.BlobStore
	if cfg.Storage.URL != "" {
		blobs = blob.NewSupabase(cfg.Storage.URL, cfg.Storage.Key, cfg.Storage.Bucket)
	} else {
		base := cfg.Storage.BaseURL
		if base == "" {
			base = "http://localhost:" + finalPort + "/blobs"
		}
		logger.Info("storage url not configured, keeping blobs in memory")
		memBlobs = memory.NewBlobStore(base)
		blobs = memBlobs
	}
	blobs = blob.NewRetrying(blobs, logger)

	var sender notify.Sender
	if cfg.Mail.Host != "" {
		sender = mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	} else {
		sender = mail.NewLog(logger)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Notify.Workers, cfg.Notify.Buffer, logger)
	defer dispatcher.Close()

	stats := app.NewStatisticsService(repos.categories, repos.images, repos.votes, repos.tracker, app.NewStatisticsHub(), logger)
	services := transport.Services{
		Categories: app.NewCategoryService(repos.categories, repos.votes, repos.accounts, blobs, cache, logger),
		Images:     app.NewImageService(repos.categories, repos.images, blobs, cache, logger),
		Quizzes:    app.NewQuizService(cache),
		Answers:    app.NewAnswerService(repos.categories, repos.images, repos.votes, repos.tracker, stats, logger),
		Statistics: stats,
		Verification: app.NewVerificationService(repos.accounts, dispatcher, app.VerificationConfig{
			TTL:        config.TTLDuration(cfg.Verification.TTL, 24*time.Hour),
			BaseURL:    cfg.Verification.BaseURL,
			AdminEmail: cfg.Mail.AdminEmail,
		}, logger),
		Showcase: app.NewShowcaseService(repos.websites, repos.accounts, blobs, dispatcher, cfg.Mail.AdminEmail, logger),
	}
	handler := transport.NewHandler(services, auth.NewAuthenticator(jwtSecret(cfg.Auth.JWTSecret, logger)), logger)
	routes := handler.Routes()
	if memBlobs != nil {
		mux := http.NewServeMux()
		mux.Handle(memory.BlobRoute, memBlobs)
		mux.Handle("/", routes)
		routes = mux
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      routes,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting devexchange service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
