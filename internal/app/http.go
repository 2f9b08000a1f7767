package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-assign/internal/config"
	"github.com/adanyl0v/go-task-assign/internal/delivery/http/v1"
	"github.com/adanyl0v/go-task-assign/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(newCORS(httpCfg.CORSOrigins))
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

// newCORS allows every origin when none are configured.
func newCORS(origins []string) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	corsCfg.AddAllowHeaders("Authorization")
	corsCfg.AddExposeHeaders("Content-Disposition")
	corsCfg.MaxAge = 12 * time.Hour
	return cors.New(corsCfg)
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()

	queryService := services.NewTaskQueryService(
		component("tasks"),
		globalTaskRepository,
		globalUserDirectory,
		globalAttachmentStore,
		services.PageLimits{
			DefaultLimit: cfg.Tasks.DefaultLimit,
			MaxLimit:     cfg.Tasks.MaxLimit,
		},
	)
	mutationService := services.NewTaskMutationService(
		component("tasks"),
		globalTaskRepository,
		globalUserDirectory,
		globalAttachmentStore,
		services.AttachmentLimits{
			MaxFiles:    cfg.Attachments.MaxFiles,
			MaxFileSize: cfg.Attachments.MaxFileSize,
		},
	)

	userService := services.NewUserQueryService(
		component("users"),
		globalUserDirectory,
		services.PageLimits{
			DefaultLimit: cfg.Tasks.DefaultLimit,
			MaxLimit:     cfg.Tasks.MaxLimit,
		},
	)

	v1Handler := v1.New(
		component("http"),
		cfg.JWT.Issuer,
		[]byte(cfg.JWT.SigningKey),
		queryService,
		mutationService,
		userService,
		cfg.Attachments.MaxRequestSize(),
		cfg.Attachments.OrphanMinAge,
	)
	v1.RegisterRoutes(router, v1Handler)
}
