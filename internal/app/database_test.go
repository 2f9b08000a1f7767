package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/config"
	"github.com/adanyl0v/go-task-assign/internal/models"
	"github.com/adanyl0v/go-task-assign/internal/services"
	"github.com/adanyl0v/go-task-assign/internal/storage"
)

func TestMustConnectDatabase_MemoryDriverResolvesConfiguredUsers(t *testing.T) {
	prevConfig, prevLogger := config.Global(), globalLogger
	t.Cleanup(func() {
		config.SetGlobal(prevConfig)
		globalLogger = prevLogger
		globalTaskRepository = nil
		globalUserDirectory = nil
	})

	globalLogger = zerolog.Nop()
	config.SetGlobal(&config.Config{
		Env:      config.EnvDev,
		Database: config.DatabaseConfig{Driver: config.DatabaseMemory},
		Memory: config.MemoryConfig{Users: []string{
			"u1:User One:u1@example.com",
			"u2:User Two:u2@example.com",
		}},
	})
	MustConnectDatabase()
	t.Cleanup(DisconnectDatabase)

	mutations := services.NewTaskMutationService(
		zerolog.Nop(),
		globalTaskRepository,
		globalUserDirectory,
		storage.NewMemoryStore(),
		services.AttachmentLimits{MaxFiles: 5},
	)
	u1 := models.Actor{ID: "u1", Role: models.RoleUser}

	for _, assignee := range []string{"u1", "u2"} {
		view, err := mutations.CreateTask(context.Background(), u1, services.CreateTaskParams{
			Title:       "Prepare demo",
			Description: "Slides and a short script",
			Deadline:    time.Now().Add(24 * time.Hour),
			AssignedTo:  assignee,
		})
		if err != nil {
			t.Fatalf("CreateTask assigned to %s: %v", assignee, err)
		}
		if view.AssignedTo.ID != assignee || view.AssignedTo.Email == "" {
			t.Fatalf("assignee = %+v, want resolved %s", view.AssignedTo, assignee)
		}
	}

	_, err := mutations.CreateTask(context.Background(), u1, services.CreateTaskParams{
		Title:       "Prepare demo",
		Description: "Slides and a short script",
		Deadline:    time.Now().Add(24 * time.Hour),
		AssignedTo:  "u9",
	})
	if !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("unlisted assignee: got %v, want ErrUserNotFound", err)
	}
}
