package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/inspecasa/internal/api"
	"github.com/erazemk/inspecasa/internal/config"
	"github.com/erazemk/inspecasa/internal/db"
	"github.com/erazemk/inspecasa/internal/imagestore"
	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
	"github.com/erazemk/inspecasa/internal/mongostore"
	"github.com/erazemk/inspecasa/internal/notify"
	"github.com/erazemk/inspecasa/internal/report"
	"github.com/erazemk/inspecasa/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Parse(os.Args[1:], os.Getenv, os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN to stdout, ERROR to stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// run wires the backends selected by cfg and serves until SIGINT/SIGTERM.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	if n, err := store.PruneRevokedTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to prune revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("pruned revoked tokens", "count", n)
	}

	docs, closeDocs, err := openDocuments(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closeDocs()

	sink, err := openSink(ctx, cfg, database)
	if err != nil {
		return err
	}

	events, closeEvents, err := openPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	staging, err := imagestore.NewStaging(cfg.StagingDir)
	if err != nil {
		return err
	}

	svc := inspection.NewService(docs, &imagestore.Uploader{Staging: staging, Sink: sink}, events)
	svc.UploadTimeout = cfg.UploadTimeout

	if err := pruneStaging(ctx, svc, staging); err != nil {
		slog.Warn("failed to prune staged uploads", "error", err)
	}

	renderer, err := report.NewRenderer()
	if err != nil {
		return fmt.Errorf("loading report template: %w", err)
	}

	sweeper := &notify.Sweeper{
		Docs:     docs,
		DB:       database,
		Events:   events,
		Interval: cfg.SweepInterval,
	}
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	handler := api.LoggingMiddleware(api.NewRouter(api.Options{
		DB:        database,
		JWTSecret: jwtSecret,
		Service:   svc,
		Staging:   staging,
		Renderer:  renderer,
	}))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "documents", cfg.Documents, "images", cfg.Images)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	stop()
	<-sweepDone
	slog.Info("server stopped, closing database")
	return nil
}

// stagingMaxAge is how long an upload nobody refers to is kept before it
// is removed on startup.
const stagingMaxAge = 7 * 24 * time.Hour

// pruneStaging removes old staged uploads that no open inspection refers to.
func pruneStaging(ctx context.Context, svc *inspection.Service, staging *imagestore.Staging) error {
	keep, err := svc.PendingImageRefs(ctx)
	if err != nil {
		return err
	}
	n, err := staging.Prune(stagingMaxAge, keep)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("pruned staged uploads", "count", n, "kept", len(keep))
	}
	return nil
}

func openDocuments(ctx context.Context, cfg *config.Config, database *sql.DB) (inspection.DocumentStore, func(), error) {
	if cfg.Documents != config.BackendMongo {
		return &store.Documents{DB: database}, func() {}, nil
	}

	docs, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("document store ready", "backend", "mongo", "database", cfg.MongoDB)
	return docs, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := docs.Close(ctx); err != nil {
			slog.Error("failed to disconnect from mongo", "error", err)
		}
	}, nil
}

func openSink(ctx context.Context, cfg *config.Config, database *sql.DB) (imagestore.Sink, error) {
	if cfg.Images != config.BackendS3 {
		return &imagestore.SQLiteSink{DB: database, PublicURL: cfg.PublicURL}, nil
	}

	sink, err := imagestore.NewS3Sink(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	slog.Info("image store ready", "backend", "s3", "bucket", cfg.S3.Bucket)
	return sink, nil
}

func openPublisher(ctx context.Context, cfg *config.Config) (inspection.Publisher, func(), error) {
	if cfg.RedisURL == "" {
		return notify.LogPublisher{}, func() {}, nil
	}

	pub, err := notify.NewRedisPublisher(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("publishing events to redis", "channel", notify.Channel)
	return pub, func() { pub.Close() }, nil
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("ensuring schema: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	ctx := context.Background()
	_, err = store.CreateUser(ctx, database, adminUsername, "Administrator", string(hash), model.RoleAdmin)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("Change it after logging in, then create inspector accounts.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
