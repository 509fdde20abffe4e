package routes

import (
	"slices"

	"todo-api/internal/controller"
	"todo-api/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Auth   *controller.AuthController
	Todos  *controller.TodoController
	Health *controller.HealthController
	Tokens middleware.TokenVerifier

	// BasePath prefixes the /auth and /todos groups, e.g. "/api".
	BasePath    string
	CORSOrigins []string
}

func Router(d Deps) *gin.Engine {
	controller.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(corsConfig(d.CORSOrigins)))

	// Health for load balancers and K8s probes
	router.GET("/", d.Health.Root)
	router.GET("/health", d.Health.Health)
	router.GET("/ready", d.Health.Ready)

	api := router.Group(d.BasePath)

	// Public: no auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", d.Auth.Register)
		auth.POST("/token", d.Auth.Token)
	}

	// Protected: JWT required
	todos := api.Group("/todos")
	todos.Use(middleware.RequireAuth(d.Tokens))
	{
		todos.GET("", d.Todos.List)
		todos.POST("", d.Todos.Create)
		todos.GET("/:id", d.Todos.Get)
		todos.PUT("/:id", d.Todos.Update)
		todos.PATCH("/:id/toggle", d.Todos.Toggle)
		todos.DELETE("/:id", d.Todos.Delete)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID}
	cfg.ExposeHeaders = []string{middleware.HeaderRequestID}
	return cfg
}
