package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/adanyl0v/go-task-assign/internal/models"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	DatabasePostgres = "postgres"
	DatabaseMongo    = "mongo"
	DatabaseMemory   = "memory"
)

const (
	AttachmentsLocal  = "local"
	AttachmentsGCS    = "gcs"
	AttachmentsMemory = "memory"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env         string `env:"ENV" env-required:"true"`
	HTTP        HTTPConfig
	JWT         JWTConfig
	Database    DatabaseConfig
	Postgres    PostgresConfig
	Mongo       MongoConfig
	Memory      MemoryConfig
	Attachments AttachmentsConfig
	Tasks       TasksConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	CORSOrigins     []string      `env:"HTTP_CORS_ORIGINS" env-separator:","`
}

type JWTConfig struct {
	Issuer     string `env:"JWT_ISSUER"`
	SigningKey string `env:"JWT_SIGNING_KEY" env-required:"true"`
}

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" env-default:"postgres"`
}

// PostgresConfig is only read when DATABASE_DRIVER is postgres.
type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-default:"localhost"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME"`
	Password       string        `env:"POSTGRES_PASSWORD"`
	Database       string        `env:"POSTGRES_DATABASE"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DATABASE" env-default:"task_assign"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

// MemoryConfig seeds the user directory of the memory driver. Each entry
// is "id:name:email"; name and email may be left out.
type MemoryConfig struct {
	Users []string `env:"MEMORY_USERS" env-separator:","`
}

func (c MemoryConfig) UserRefs() ([]models.UserRef, error) {
	refs := make([]models.UserRef, 0, len(c.Users))
	seen := make(map[string]bool, len(c.Users))
	for _, entry := range c.Users {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		ref := models.UserRef{ID: strings.TrimSpace(parts[0])}
		if ref.ID == "" {
			return nil, fmt.Errorf("memory user %q has no id", entry)
		}
		if seen[ref.ID] {
			return nil, fmt.Errorf("memory user %q is listed twice", ref.ID)
		}
		seen[ref.ID] = true
		if len(parts) > 1 {
			ref.Name = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			ref.Email = strings.TrimSpace(parts[2])
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

type AttachmentsConfig struct {
	Driver          string        `env:"ATTACHMENTS_DRIVER" env-default:"local"`
	Dir             string        `env:"ATTACHMENTS_DIR" env-default:"uploads"`
	Bucket          string        `env:"ATTACHMENTS_BUCKET"`
	CredentialsFile string        `env:"ATTACHMENTS_CREDENTIALS_FILE"`
	MaxFiles        int           `env:"ATTACHMENTS_MAX_FILES" env-default:"5"`
	MaxFileSize     int64         `env:"ATTACHMENTS_MAX_FILE_SIZE" env-default:"10485760"`
	OrphanMinAge    time.Duration `env:"ATTACHMENTS_ORPHAN_MIN_AGE" env-default:"24h"`
}

// MaxRequestSize bounds a create or update request: every file at its
// maximum size plus room for the form fields.
func (c AttachmentsConfig) MaxRequestSize() int64 {
	if c.MaxFiles <= 0 || c.MaxFileSize <= 0 {
		return 0
	}
	const formOverhead = 1 << 20
	return int64(c.MaxFiles)*c.MaxFileSize + formOverhead
}

type TasksConfig struct {
	DefaultLimit int `env:"TASKS_DEFAULT_LIMIT" env-default:"10"`
	MaxLimit     int `env:"TASKS_MAX_LIMIT" env-default:"0"`
}
