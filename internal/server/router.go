package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"task-manager/api/internal/handlers"
	"task-manager/api/internal/middleware"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/validation"
)

const (
	serviceName    = "Task Manager API"
	serviceVersion = "1.0.0"
)

func NewRouter(app *App) *gin.Engine {
	validation.Init()

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RecoveryWithLog(app.Logger),
		middleware.RequestLogger(app.Logger),
		app.Metrics.Middleware(),
		cors.New(corsConfig(app.Config.CORS.AllowedOrigins)),
	)

	authHandler := handlers.NewAuthHandler(app.Credentials, app.Tokens, app.Logger)
	taskHandler := handlers.NewTaskHandler(app.TaskService, app.Logger)
	requireUser := middleware.RequireUser(app.Guard, app.Logger)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": serviceName,
			"version": serviceVersion,
			"health":  "/health",
			"metrics": "/metrics",
		})
	})
	router.GET("/health", app.Health.Handler(app.Metrics))
	router.GET("/metrics", app.Metrics.Handler(map[string]monitoring.StatsFunc{
		"cache":  func() interface{} { return app.ProfileCache.Stats() },
		"worker": func() interface{} { return app.Pool.Stats() },
	}))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/login/json", authHandler.LoginJSON)
		auth.GET("/me", requireUser, authHandler.Me)

		tasks := api.Group("/tasks", requireUser)
		tasks.POST("/", taskHandler.CreateTask)
		tasks.GET("/", taskHandler.GetTasks)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	return router
}

// corsConfig allows any origin without credentials for "*", otherwise the
// listed origins with credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
