package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-assign/internal/services"
)

type Handler interface {
	HandleAuthMiddleware(c *gin.Context)

	HandleListTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleDownloadAttachment(c *gin.Context)
	HandleDeleteAttachment(c *gin.Context)
	HandleSweepAttachments(c *gin.Context)

	HandleListUsers(c *gin.Context)
	HandleGetUser(c *gin.Context)
}

type handlerImpl struct {
	logger        zerolog.Logger
	jwtIssuer     string
	jwtSigningKey []byte
	queries       services.TaskQueryService
	mutations     services.TaskMutationService
	users         services.UserQueryService
	// maxBodySize limits create and update requests; zero disables it.
	maxBodySize int64
	sweepMinAge time.Duration
}

func New(
	logger zerolog.Logger,
	jwtIssuer string,
	jwtSigningKey []byte,
	queryService services.TaskQueryService,
	mutationService services.TaskMutationService,
	userService services.UserQueryService,
	maxBodySize int64,
	sweepMinAge time.Duration,
) Handler {
	return &handlerImpl{
		logger:        logger,
		jwtIssuer:     jwtIssuer,
		jwtSigningKey: jwtSigningKey,
		queries:       queryService,
		mutations:     mutationService,
		users:         userService,
		maxBodySize:   maxBodySize,
		sweepMinAge:   sweepMinAge,
	}
}

// RegisterRoutes mounts the task API on router.
func RegisterRoutes(router gin.IRouter, h Handler) {
	router = router.Group("/api/v1", h.HandleAuthMiddleware)

	tasksRouter := router.Group("/tasks")
	tasksRouter.GET("", h.HandleListTasks)
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.GET("/:id", h.HandleGetTask)
	tasksRouter.PUT("/:id", h.HandleUpdateTask)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)
	tasksRouter.GET("/:id/files/:fileId", h.HandleDownloadAttachment)
	tasksRouter.DELETE("/:id/files/:fileId", h.HandleDeleteAttachment)

	adminRouter := router.Group("/admin")
	adminRouter.POST("/attachments/sweep", h.HandleSweepAttachments)
	adminRouter.GET("/users", h.HandleListUsers)
	adminRouter.GET("/users/:id", h.HandleGetUser)
}
