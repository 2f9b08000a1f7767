package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/config"
)

var globalLogger zerolog.Logger

func InitDefaultLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	globalLogger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger()

	globalLogger.Info().Msg("initialized default logger")
}

func MustInitApplicationLogger() {
	env := config.Global().Env
	level, w, err := loggerOutput(env, os.Stdout)
	if err != nil {
		globalLogger.Error().
			Str("env", env).
			Msg("unknown env")
		panic(err)
	}

	zerolog.SetGlobalLevel(level)
	globalLogger = globalLogger.Output(w)
	globalLogger.Info().Msg("initialized application logger")
}

// loggerOutput returns the level and writer for env. Local runs get
// human-readable console output.
func loggerOutput(env string, out io.Writer) (zerolog.Level, io.Writer, error) {
	switch env {
	case config.EnvDev:
		return zerolog.DebugLevel, out, nil
	case config.EnvProd:
		return zerolog.InfoLevel, out, nil
	case config.EnvLocal:
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = out
		return zerolog.TraceLevel, consoleWriter, nil
	default:
		return zerolog.NoLevel, nil, fmt.Errorf("unknown env: %s", env)
	}
}

// component returns the application logger tagged with the component name.
func component(name string) zerolog.Logger {
	return globalLogger.With().Str("component", name).Logger()
}
