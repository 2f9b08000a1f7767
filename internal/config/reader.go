package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

// EnvReader reads the configuration from environment variables only.
type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.check()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) check() error {
	switch c.Database.Driver {
	case DatabasePostgres:
		if c.Postgres.Username == "" || c.Postgres.Database == "" {
			return fmt.Errorf("postgres driver needs POSTGRES_USERNAME and POSTGRES_DATABASE")
		}
	case DatabaseMemory:
		_, err := c.Memory.UserRefs()
		if err != nil {
			return fmt.Errorf("invalid MEMORY_USERS: %w", err)
		}
	case DatabaseMongo:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Attachments.Driver {
	case AttachmentsGCS:
		if c.Attachments.Bucket == "" {
			return fmt.Errorf("gcs attachments driver needs ATTACHMENTS_BUCKET")
		}
	case AttachmentsLocal, AttachmentsMemory:
	default:
		return fmt.Errorf("unknown attachments driver %q", c.Attachments.Driver)
	}
	return nil
}
