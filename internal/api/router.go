package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/accounthq/accounts-api/docs"
	"github.com/accounthq/accounts-api/internal/api/handler"
	"github.com/accounthq/accounts-api/internal/api/middleware"
	"github.com/accounthq/accounts-api/internal/core/ports"
	healthhandlers "github.com/accounthq/accounts-api/internal/infrastructure/http/handlers"
)

// RouterConfig carries the wired dependencies the router needs.
type RouterConfig struct {
	Accounts  ports.AccountService
	Hasher    ports.PasswordHasher
	JWTSecret string
	Mongo     *mongo.Database
	Redis     *redis.Client
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(rc RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(rc.Logger)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts_http"))

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := healthhandlers.NewHealthHandler()
	readinessHandler := healthhandlers.NewReadinessHandler(rc.Mongo, rc.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Account routes ---
	accountHandler := handler.NewAccountHandler(rc.Accounts)
	authMiddleware := middleware.Auth(rc.JWTSecret, rc.Accounts, rc.Hasher)

	g := e.Group("/accounts", authMiddleware)
	g.POST("", accountHandler.Create)
	g.GET("", accountHandler.List, middleware.RBAC("ADMIN"))
	g.GET("/:id", accountHandler.GetByID)
	g.GET("/username/:username", accountHandler.GetByUsername)
	g.GET("/email/:email", accountHandler.GetByEmail)
	g.PUT("/:id", accountHandler.UpdateByID)
	g.PUT("/username/:username", accountHandler.UpdateByUsername)
	g.DELETE("/:id", accountHandler.Delete, middleware.RBAC("ADMIN"))

	return e
}
