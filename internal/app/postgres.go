package app

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/go-task-assign/internal/config"
	"github.com/adanyl0v/go-task-assign/internal/repository"
)

var globalPostgresPool *pgxpool.Pool

func mustConnectPostgres() {
	cfg := config.Global().Postgres
	connURL := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}

	poolCfg, err := pgxpool.ParseConfig(connURL.String())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	globalPostgresPool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping postgres")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")

	tasks := repository.NewPostgresTaskRepository(component("postgres"), globalPostgresPool)
	err = tasks.EnsureSchema(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ensure postgres schema")
		panic(err)
	}

	users := repository.NewPostgresUserDirectory(component("postgres"), globalPostgresPool)
	err = users.CheckSchema(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("users table is required; it is provided by the identity service")
		panic(err)
	}

	globalTaskRepository = tasks
	globalUserDirectory = users
}

func disconnectPostgres() {
	globalPostgresPool.Close()
	globalLogger.Info().Msg("disconnected from postgres")
}
