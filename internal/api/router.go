package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/estatehub/marketplace-api/internal/api/handler"
	"github.com/estatehub/marketplace-api/internal/api/middleware"
	"github.com/estatehub/marketplace-api/internal/core/policy"
	"github.com/estatehub/marketplace-api/internal/core/service"
	"github.com/estatehub/marketplace-api/internal/core/token"
	"github.com/estatehub/marketplace-api/internal/infrastructure/config"
	mongodb "github.com/estatehub/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/estatehub/marketplace-api/internal/infrastructure/db/redis"
	"github.com/estatehub/marketplace-api/internal/infrastructure/http/handlers"
	"github.com/estatehub/marketplace-api/internal/infrastructure/queue"
)

// NewRouter builds the Echo instance with all routes registered. The identity
// middleware runs on every route; protected groups add the authentication
// guard, and every handler path still consults the policy engine, so
// authorization does not depend on a route being wired into the right group.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, dispatcher *queue.Dispatcher, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	verifier := token.NewVerifier(cfg.JWTSecret)
	e.Use(middleware.Identity(verifier, log))

	// --- Dependencies ---
	engine := policy.NewEngine(cfg.AdminEmails)
	cache := redisdb.NewListingCache(rdb, log)

	listingRepo := mongodb.NewListingRepository(db)
	postRepo := mongodb.NewPostRepository(db)
	userRepo := mongodb.NewUserRepository(db)

	listingService := service.NewListingService(listingRepo, engine, cache, dispatcher, log)
	postService := service.NewPostService(postRepo, engine, dispatcher, log)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)

	listingHandler := handler.NewListingHandler(listingService)
	postHandler := handler.NewPostHandler(postService)
	authHandler := handler.NewAuthHandler(authService)

	requireAuth := middleware.RequireAuthenticated()

	// --- Auth routes ---
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)

	// --- Listings ---
	e.GET("/v1/listings", listingHandler.List)
	e.GET("/v1/listings/mine", listingHandler.ListMine, requireAuth)
	e.GET("/v1/listings/:id", listingHandler.Get)
	e.POST("/v1/listings", listingHandler.Create, requireAuth)
	e.PUT("/v1/listings/:id", listingHandler.Update, requireAuth)
	e.DELETE("/v1/listings/:id", listingHandler.Delete, requireAuth)
	e.POST("/v1/listings/:id/moderation", listingHandler.Moderate, requireAuth)

	// --- Posts ---
	e.GET("/v1/posts", postHandler.List)
	e.GET("/v1/posts/mine", postHandler.ListMine, requireAuth)
	e.GET("/v1/posts/:id", postHandler.Get)
	e.POST("/v1/posts", postHandler.Create, requireAuth)
	e.PUT("/v1/posts/:id", postHandler.Update, requireAuth)
	e.DELETE("/v1/posts/:id", postHandler.Delete, requireAuth)
	e.POST("/v1/posts/:id/moderation", postHandler.Moderate, requireAuth)

	// --- Moderation queues (admin; policy engine enforces the role) ---
	e.GET("/v1/moderation/listings", listingHandler.ModerationQueue, requireAuth)
	e.GET("/v1/moderation/posts", postHandler.ModerationQueue, requireAuth)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
