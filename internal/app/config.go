package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-task-assign/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("database_driver", cfg.Database.Driver).
		Str("attachments_driver", cfg.Attachments.Driver).
		Msg("read env")

	config.SetGlobal(cfg)
}
