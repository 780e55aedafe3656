package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/http/handlers"
	"nyumbakumi/internal/adapters/http/middleware"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/config"
	"nyumbakumi/internal/core/services"
)

// publicCacheAge bounds how long the public pick lists stay cached
const publicCacheAge = time.Minute

// Deps holds what the routes are built from
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Store    *repositories.Store
	Locker   services.KeyedLocker
	Notifier *services.AlertNotifier
	PingDB   func() error
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Deps) {
	cfg, log, store := deps.Config, deps.Log, deps.Store

	// Initialize services
	authService := services.NewAuthService(store, cfg, log)
	userService := services.NewUserService(store.Users, log)
	zoneService := services.NewZoneService(store, log)
	leaderService := services.NewLeaderService(store.Users, zoneService, log)
	householdService := services.NewHouseholdService(store, log)
	alertService := services.NewAlertService(store, deps.Notifier, log)
	aggregator := services.NewRatingAggregator(store.Households, store.Ratings, deps.Locker, log)
	ratingService := services.NewRatingService(store, aggregator, log)
	taskService := services.NewTaskService(store, ratingService, log)
	reportService := services.NewReportService(store, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, deps.PingDB)
	authHandler := handlers.NewAuthHandler(authService, userService, cfg)
	leaderHandler := handlers.NewLeaderHandler(leaderService)
	zoneHandler := handlers.NewZoneHandler(zoneService)
	householdHandler := handlers.NewHouseholdHandler(householdService)
	alertHandler := handlers.NewAlertHandler(alertService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	taskHandler := handlers.NewTaskHandler(taskService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	requireAuth := middleware.AuthMiddleware(authService)
	leaderOrAdmin := middleware.LeaderOrAdmin()
	publicCache := middleware.PublicCache(publicCacheAge)

	api := app.Group("/api/v1")
	api.Get("/", healthHandler.APIInfo)

	// Auth routes
	auth := api.Group("/auth", middleware.NoCacheHeaders())
	auth.Post("/register", middleware.AuthRateLimiter(cfg.Auth.RateLimit), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimiter(cfg.Auth.RateLimit), authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Put("/me", requireAuth, authHandler.UpdateMe)
	auth.Put("/password", requireAuth, authHandler.ChangePassword)

	// Leader routes
	leaders := api.Group("/leaders")
	leaders.Get("/", publicCache, leaderHandler.List)
	leaders.Get("/:id", leaderHandler.Get)
	leaders.Get("/:id/zones", leaderHandler.Zones)
	leaders.Post("/:id/zones", requireAuth, middleware.AdminOnly(), leaderHandler.CreateZone)
	leaders.Put("/:id", requireAuth, leaderOrAdmin, leaderHandler.Update)

	// Zone routes
	zones := api.Group("/zones")
	zones.Get("/public", publicCache, zoneHandler.ListPublic)
	zones.Get("/", requireAuth, zoneHandler.List)
	zones.Get("/:id", requireAuth, zoneHandler.Get)
	zones.Post("/", requireAuth, zoneHandler.Create)
	zones.Put("/:id", requireAuth, zoneHandler.Update)
	zones.Delete("/:id", requireAuth, zoneHandler.Delete)

	// Household routes
	households := api.Group("/households")
	households.Get("/public", publicCache, householdHandler.ListPublic)
	households.Get("/", requireAuth, householdHandler.List)
	households.Get("/mine", requireAuth, householdHandler.Mine)
	households.Get("/:id", requireAuth, householdHandler.Get)
	households.Post("/", requireAuth, leaderOrAdmin, householdHandler.Create)
	households.Put("/:id", requireAuth, leaderOrAdmin, householdHandler.Update)
	households.Delete("/:id", requireAuth, leaderOrAdmin, householdHandler.Delete)
	households.Post("/:id/members", requireAuth, leaderOrAdmin, householdHandler.AddMember)
	households.Delete("/:id/members/:userId", requireAuth, leaderOrAdmin, householdHandler.RemoveMember)

	// Alert routes
	alerts := api.Group("/alerts", requireAuth)
	alerts.Get("/", alertHandler.List)
	alerts.Get("/:id", alertHandler.Get)
	alerts.Post("/", leaderOrAdmin, alertHandler.Create)
	alerts.Put("/:id", leaderOrAdmin, alertHandler.Update)
	alerts.Delete("/:id", leaderOrAdmin, alertHandler.Delete)

	// Rating routes
	ratings := api.Group("/ratings", requireAuth)
	ratings.Get("/", ratingHandler.List)
	ratings.Get("/:id", ratingHandler.Get)
	ratings.Post("/", leaderOrAdmin, ratingHandler.Create)
	ratings.Put("/:id", leaderOrAdmin, ratingHandler.Update)
	ratings.Delete("/:id", leaderOrAdmin, ratingHandler.Delete)

	// Task routes
	tasks := api.Group("/tasks", requireAuth)
	tasks.Get("/", taskHandler.List)
	tasks.Get("/:id", taskHandler.Get)
	tasks.Get("/:id/ratings", taskHandler.RatingHistory)
	tasks.Post("/", taskHandler.Create)
	tasks.Put("/:id/rate", taskHandler.Rate)
	tasks.Put("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)

	// Report routes
	reports := api.Group("/reports", requireAuth, leaderOrAdmin, middleware.NoCacheHeaders())
	reports.Get("/households.xlsx", reportHandler.HouseholdRatings)
}
