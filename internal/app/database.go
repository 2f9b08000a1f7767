package app

import (
	"github.com/adanyl0v/go-task-assign/internal/config"
	"github.com/adanyl0v/go-task-assign/internal/repository"
)

var (
	globalTaskRepository repository.TaskRepository
	globalUserDirectory  repository.UserDirectory
)

// MustConnectDatabase opens the configured task store. The memory driver
// starts without tasks and resolves the users listed in MEMORY_USERS.
func MustConnectDatabase() {
	switch driver := config.Global().Database.Driver; driver {
	case config.DatabasePostgres:
		mustConnectPostgres()
	case config.DatabaseMongo:
		mustConnectMongo()
	default:
		mustOpenMemoryDatabase(driver)
	}
}

func mustOpenMemoryDatabase(driver string) {
	users, err := config.Global().Memory.UserRefs()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read memory users")
		panic(err)
	}

	globalTaskRepository = repository.NewMemoryTaskRepository()
	globalUserDirectory = repository.NewMemoryUserDirectory(users...)

	event := globalLogger.Warn()
	if len(users) > 0 {
		event = globalLogger.Info()
	}
	event.
		Str("driver", driver).
		Int("users", len(users)).
		Msg("using in-memory task repository")
}

func DisconnectDatabase() {
	switch config.Global().Database.Driver {
	case config.DatabasePostgres:
		disconnectPostgres()
	case config.DatabaseMongo:
		disconnectMongo()
	}
}
