package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvReader_Defaults(t *testing.T) {
	t.Setenv("ENV", EnvLocal)
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("POSTGRES_USERNAME", "tasks")
	t.Setenv("POSTGRES_DATABASE", "tasks")

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Database.Driver != DatabasePostgres || cfg.Attachments.Driver != AttachmentsLocal {
		t.Fatalf("drivers = %q/%q", cfg.Database.Driver, cfg.Attachments.Driver)
	}
	if cfg.Attachments.MaxFiles != 5 || cfg.Tasks.DefaultLimit != 10 || cfg.Tasks.MaxLimit != 0 {
		t.Fatalf("unexpected limits: %+v %+v", cfg.Attachments, cfg.Tasks)
	}
	if cfg.HTTP.ShutdownTimeout != 5*time.Second || cfg.Attachments.OrphanMinAge != 24*time.Hour {
		t.Fatalf("unexpected durations: %v %v", cfg.HTTP.ShutdownTimeout, cfg.Attachments.OrphanMinAge)
	}
	if cfg.JWT.SigningKey != "secret" {
		t.Fatalf("signing key = %q", cfg.JWT.SigningKey)
	}
}

func TestEnvReader_RequiresEnv(t *testing.T) {
	t.Setenv("ENV", EnvDev)
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("DATABASE_DRIVER", DatabaseMemory)
	if err := os.Unsetenv("ENV"); err != nil {
		t.Fatalf("Unsetenv: %v", err)
	}

	if _, err := NewEnvReader().Read(); err == nil {
		t.Fatalf("Read succeeded without ENV")
	}
}

func TestEnvReader_CORSOrigins(t *testing.T) {
	t.Setenv("ENV", EnvDev)
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("DATABASE_DRIVER", DatabaseMemory)
	t.Setenv("HTTP_CORS_ORIGINS", "http://localhost:3000,https://tasks.example.com")

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://tasks.example.com" {
		t.Fatalf("CORSOrigins = %v", cfg.HTTP.CORSOrigins)
	}
}

func TestEnvReader_MemoryUsers(t *testing.T) {
	t.Setenv("ENV", EnvDev)
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("DATABASE_DRIVER", DatabaseMemory)
	t.Setenv("MEMORY_USERS", "u1:Ann Lee:ann@example.com, u2:Bob")

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	users, err := cfg.Memory.UserRefs()
	if err != nil {
		t.Fatalf("UserRefs: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
	if u := users[0]; u.ID != "u1" || u.Name != "Ann Lee" || u.Email != "ann@example.com" {
		t.Fatalf("first user = %+v", u)
	}
	if u := users[1]; u.ID != "u2" || u.Name != "Bob" || u.Email != "" {
		t.Fatalf("second user = %+v", u)
	}
}

func TestMemoryConfig_UserRefsRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name  string
		users []string
	}{
		{"empty id", []string{":Ann:ann@example.com"}},
		{"duplicate id", []string{"u1:Ann", "u1:Bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (MemoryConfig{Users: tt.users}).UserRefs(); err == nil {
				t.Fatalf("UserRefs(%v) succeeded", tt.users)
			}
		})
	}
}

func TestAttachmentsConfig_MaxRequestSize(t *testing.T) {
	if got := (AttachmentsConfig{MaxFiles: 5, MaxFileSize: 100}).MaxRequestSize(); got != 500+1<<20 {
		t.Fatalf("MaxRequestSize = %d", got)
	}
	if got := (AttachmentsConfig{MaxFiles: 0, MaxFileSize: 100}).MaxRequestSize(); got != 0 {
		t.Fatalf("MaxRequestSize without file limit = %d, want 0", got)
	}
}

func TestEnvReader_RejectsUnknownDrivers(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"database", map[string]string{"DATABASE_DRIVER": "sqlite"}},
		{"attachments", map[string]string{"DATABASE_DRIVER": DatabaseMemory, "ATTACHMENTS_DRIVER": "s3"}},
		{"gcs without bucket", map[string]string{"DATABASE_DRIVER": DatabaseMemory, "ATTACHMENTS_DRIVER": AttachmentsGCS}},
		{"memory user without id", map[string]string{"DATABASE_DRIVER": DatabaseMemory, "MEMORY_USERS": "u1,:nobody"}},
		{"postgres without credentials", map[string]string{"DATABASE_DRIVER": DatabasePostgres, "POSTGRES_USERNAME": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", EnvDev)
			t.Setenv("JWT_SIGNING_KEY", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := NewEnvReader().Read(); err == nil {
				t.Fatalf("Read succeeded")
			}
		})
	}
}
