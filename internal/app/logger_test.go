package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/config"
)

func TestLoggerOutput(t *testing.T) {
	tests := []struct {
		env     string
		level   zerolog.Level
		console bool
	}{
		{config.EnvDev, zerolog.DebugLevel, false},
		{config.EnvProd, zerolog.InfoLevel, false},
		{config.EnvLocal, zerolog.TraceLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			level, w, err := loggerOutput(tt.env, &buf)
			if err != nil {
				t.Fatalf("loggerOutput: %v", err)
			}
			if level != tt.level {
				t.Fatalf("level = %v, want %v", level, tt.level)
			}
			_, isConsole := w.(zerolog.ConsoleWriter)
			if isConsole != tt.console {
				t.Fatalf("console writer = %v, want %v", isConsole, tt.console)
			}
		})
	}

	if _, _, err := loggerOutput("staging", &bytes.Buffer{}); err == nil {
		t.Fatalf("loggerOutput accepted an unknown env")
	}
}

func TestNewCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(newCORS([]string{"http://localhost:3000"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign origin: status = %d, want 403", rec.Code)
	}
}
