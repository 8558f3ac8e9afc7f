// Package config reads the server configuration from flags, environment
// variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/erazemk/inspecasa/internal/imagestore"
	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/notify"
)

// Backends.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendS3     = "s3"
)

// Config is the server configuration.
type Config struct {
	DBPath     string
	Addr       string
	AdminUser  string
	LogPath    string
	PublicURL  string
	StagingDir string

	// Documents selects where properties and reports are kept.
	Documents string
	MongoURI  string
	MongoDB   string

	// Images selects where uploaded images end up.
	Images string
	S3     imagestore.S3Config

	// RedisURL enables event publishing when set.
	RedisURL string

	UploadTimeout time.Duration
	SweepInterval time.Duration
}

const usage = `Usage: inspecasa [flags]

Flags:
  -d, -db <path>          SQLite database path (default: inspecasa.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -public-url <url>       base URL images are served from (default: http://localhost:8080)
  -staging <dir>          directory for uploads awaiting completion (default: staging)
  -documents <backend>    property/report store: sqlite or mongo (default: sqlite)
  -mongo-uri <uri>        MongoDB connection string
  -mongo-db <name>        MongoDB database (default: inspecasa)
  -images <backend>       image store: sqlite or s3 (default: sqlite)
  -s3-bucket <name>       S3 bucket
  -s3-region <region>     S3 region (default: us-east-1)
  -s3-endpoint <url>      S3-compatible endpoint, e.g. MinIO
  -s3-public-url <url>    base URL of stored objects
  -redis <url>            publish events to Redis, e.g. redis://localhost:6379/0
  -upload-timeout <dur>   timeout per image upload (default: 30s)
  -sweep <dur>            due-inspection check interval (default: 1h)
  -h, -help               show this help and exit

Every flag defaults to an INSPECASA_* environment variable (INSPECASA_DB,
INSPECASA_MONGO_URI, ...), which may also be set in a .env file. S3
credentials are read from INSPECASA_S3_ACCESS_KEY and INSPECASA_S3_SECRET_KEY.
`

// LoadEnv loads variables from a .env file into the environment. Variables
// that are already set win. A missing file is not an error.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Parse builds the configuration from args, falling back to getenv and
// then to built-in defaults. It returns flag.ErrHelp for -h.
func Parse(args []string, getenv func(string) string, out io.Writer) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv("INSPECASA_" + key); v != "" {
			return v
		}
		return def
	}

	flags := flag.NewFlagSet("inspecasa", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage) }

	cfg := &Config{}
	stringFlag := func(p *string, def string, names ...string) {
		for _, name := range names {
			flags.StringVar(p, name, def, "")
		}
	}

	stringFlag(&cfg.DBPath, env("DB", "inspecasa.sqlite3"), "db", "d")
	stringFlag(&cfg.Addr, env("ADDR", ":8080"), "addr", "a")
	stringFlag(&cfg.AdminUser, env("ADMIN_USER", "Admin"), "user", "u")
	stringFlag(&cfg.LogPath, env("LOG", ""), "log", "l")
	stringFlag(&cfg.PublicURL, env("PUBLIC_URL", "http://localhost:8080"), "public-url")
	stringFlag(&cfg.StagingDir, env("STAGING_DIR", "staging"), "staging")
	stringFlag(&cfg.Documents, env("DOCUMENTS", BackendSQLite), "documents")
	stringFlag(&cfg.MongoURI, env("MONGO_URI", ""), "mongo-uri")
	stringFlag(&cfg.MongoDB, env("MONGO_DB", "inspecasa"), "mongo-db")
	stringFlag(&cfg.Images, env("IMAGES", BackendSQLite), "images")
	stringFlag(&cfg.S3.Bucket, env("S3_BUCKET", ""), "s3-bucket")
	stringFlag(&cfg.S3.Region, env("S3_REGION", "us-east-1"), "s3-region")
	stringFlag(&cfg.S3.Endpoint, env("S3_ENDPOINT", ""), "s3-endpoint")
	stringFlag(&cfg.S3.PublicURL, env("S3_PUBLIC_URL", ""), "s3-public-url")
	stringFlag(&cfg.RedisURL, env("REDIS_URL", ""), "redis")
	cfg.S3.AccessKey = env("S3_ACCESS_KEY", "")
	cfg.S3.SecretKey = env("S3_SECRET_KEY", "")

	uploadTimeout, err := time.ParseDuration(env("UPLOAD_TIMEOUT", inspection.DefaultUploadTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("INSPECASA_UPLOAD_TIMEOUT: %w", err)
	}
	sweep, err := time.ParseDuration(env("SWEEP_INTERVAL", notify.DefaultSweepInterval.String()))
	if err != nil {
		return nil, fmt.Errorf("INSPECASA_SWEEP_INTERVAL: %w", err)
	}
	flags.DurationVar(&cfg.UploadTimeout, "upload-timeout", uploadTimeout, "")
	flags.DurationVar(&cfg.SweepInterval, "sweep", sweep, "")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends are configured.
func (c *Config) Validate() error {
	switch c.Documents {
	case BackendSQLite:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("-documents mongo requires -mongo-uri")
		}
	default:
		return fmt.Errorf("unknown document backend %q", c.Documents)
	}

	switch c.Images {
	case BackendSQLite:
	case BackendS3:
		if c.S3.Bucket == "" {
			return errors.New("-images s3 requires -s3-bucket")
		}
	default:
		return fmt.Errorf("unknown image backend %q", c.Images)
	}

	if c.UploadTimeout <= 0 {
		return errors.New("upload timeout must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	return nil
}
