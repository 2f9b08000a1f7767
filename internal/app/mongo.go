package app

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/adanyl0v/go-task-assign/internal/config"
	"github.com/adanyl0v/go-task-assign/internal/repository"
)

var globalMongoClient *mongo.Client

func mustConnectMongo() {
	cfg := config.Global().Mongo

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	var err error
	globalMongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to mongo")
		panic(err)
	}

	err = globalMongoClient.Ping(ctx, readpref.Primary())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping mongo")
		panic(err)
	}
	globalLogger.Info().
		Str("database", cfg.Database).
		Msg("connected to mongo")

	db := globalMongoClient.Database(cfg.Database)
	tasks := repository.NewMongoTaskRepository(component("mongo"), db)
	err = tasks.EnsureIndexes(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ensure mongo indexes")
		panic(err)
	}

	globalTaskRepository = tasks
	globalUserDirectory = repository.NewMongoUserDirectory(component("mongo"), db)
}

func disconnectMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), config.Global().Mongo.ConnectTimeout)
	defer cancel()

	err := globalMongoClient.Disconnect(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to disconnect from mongo")
		return
	}
	globalLogger.Info().Msg("disconnected from mongo")
}
