package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/tcc/task-manager-api/docs"
	"github.com/tcc/task-manager-api/internal/api/handler"
	"github.com/tcc/task-manager-api/internal/api/middleware"
	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/service"
	"github.com/tcc/task-manager-api/internal/core/token"
	mongorepo "github.com/tcc/task-manager-api/internal/infrastructure/db/mongo"
)

// Dependencies carries everything the router needs that is owned by main:
// connections, the token codec, and the already-running activity dispatcher.
type Dependencies struct {
	Log        zerolog.Logger
	Codec      *token.Codec
	Mongo      *mongo.Database
	Redis      *redis.Client
	Dispatcher service.ActivityDispatcher
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("taskmanager"))

	// --- Repositories ---
	userRepo := mongorepo.NewUserRepository(deps.Mongo)
	taskRepo := mongorepo.NewTaskRepository(deps.Mongo)
	projectRepo := mongorepo.NewProjectRepository(deps.Mongo)
	activityRepo := mongorepo.NewActivityRepository(deps.Mongo)

	// --- Services ---
	authService := service.NewAuthService(userRepo, deps.Codec, deps.Log)
	userService := service.NewUserService(userRepo, deps.Codec, deps.Log)
	taskService := service.NewTaskService(taskRepo, userRepo, projectRepo, deps.Dispatcher, deps.Log)
	projectService := service.NewProjectService(projectRepo, userRepo, deps.Log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	taskHandler := handler.NewTaskHandler(taskService, activityRepo)
	projectHandler := handler.NewProjectHandler(projectService)
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	// --- Public routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Authenticated API ---
	v1 := e.Group("/v1", middleware.Auth(deps.Codec, deps.Log))

	v1.GET("/users/me", userHandler.GetProfile)
	v1.PUT("/users/me", userHandler.UpdateProfile)
	v1.PUT("/users/me/password", userHandler.ChangePassword)

	v1.GET("/tasks", taskHandler.List)
	v1.POST("/tasks", taskHandler.Create)
	v1.GET("/tasks/stats", taskHandler.Stats)
	v1.GET("/tasks/:id", taskHandler.Get)
	v1.PUT("/tasks/:id", taskHandler.Update)
	v1.PATCH("/tasks/:id/status", taskHandler.UpdateStatus)
	v1.DELETE("/tasks/:id", taskHandler.Delete)
	v1.GET("/tasks/:id/activity", taskHandler.Activity)

	// Project reads are open to every authenticated user; writes require
	// elevated roles and deletes are admin only.
	managerOnly := middleware.RBAC(domain.RoleAdmin, domain.RoleManager)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	v1.GET("/projects", projectHandler.List)
	v1.GET("/projects/:id", projectHandler.Get)
	v1.POST("/projects", projectHandler.Create, managerOnly)
	v1.PUT("/projects/:id", projectHandler.Update, managerOnly)
	v1.DELETE("/projects/:id", projectHandler.Delete, adminOnly)

	return e
}
