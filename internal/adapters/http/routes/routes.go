package routes

import (
	"time"

	"chamanexus/internal/adapters/http/handlers"
	"chamanexus/internal/adapters/http/middleware"
	"chamanexus/internal/adapters/persistence/repositories"
	"chamanexus/internal/config"
	"chamanexus/internal/core/services"
	"chamanexus/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup configures all routes for the application.
// storage backs the auth rate limiters; nil keeps counters in memory.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, log *zap.Logger, storage fiber.Storage) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	groupRepo := repositories.NewGroupRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)

	// Initialize services
	balanceService := services.NewBalanceService(transactionRepo, memberRepo, groupRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, memberRepo, cfg, log)
	userService := services.NewUserService(userRepo, memberRepo, log)
	memberService := services.NewMemberService(memberRepo, userRepo, transactionRepo, balanceService, log)
	groupService := services.NewGroupService(groupRepo, balanceService, log)
	transactionService := services.NewTransactionService(transactionRepo, memberRepo, log)
	dashboardService := services.NewDashboardService(transactionRepo, memberRepo, balanceService)
	actorResolver := services.NewActorResolver(userRepo, memberRepo)

	// Initialize handlers
	clock := handlers.Clock(time.Now)
	healthHandler := handlers.NewHealthHandler(cfg, func() error { return config.Ping(db) })
	authHandler := handlers.NewAuthHandler(authService, cfg, log, clock)
	userHandler := handlers.NewUserHandler(userService, authService, log, clock)
	memberHandler := handlers.NewMemberHandler(memberService, log, clock)
	groupHandler := handlers.NewGroupHandler(groupService, log)
	transactionHandler := handlers.NewTransactionHandler(transactionService, log, clock)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, log, clock)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg, storage)

	// Everything below needs a valid token and a loaded actor
	protected := []fiber.Handler{
		middleware.AuthMiddleware(cfg),
		middleware.ActorMiddleware(actorResolver),
	}

	// User management routes (Staff only)
	userRoutes := apiV1.Group("/users", append(protected, middleware.StaffOnly())...)
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	profileRoutes := apiV1.Group("/profile", protected...)
	setupProfileRoutes(profileRoutes, userHandler)

	// Ledger routes
	memberRoutes := apiV1.Group("/members", protected...)
	setupMemberRoutes(memberRoutes, memberHandler)

	groupRoutes := apiV1.Group("/groups", protected...)
	setupGroupRoutes(groupRoutes, groupHandler)

	transactionRoutes := apiV1.Group("/transactions", protected...)
	setupTransactionRoutes(transactionRoutes, transactionHandler)

	dashboardRoutes := apiV1.Group("/dashboard", append(protected, middleware.NoCacheHeaders())...)
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config, storage fiber.Storage) {
	// 5 req/min/IP for credential endpoints
	authLimiter := middleware.AuthRateLimiter(storage)
	router.Post("/register", authLimiter, handler.Register)
	router.Post("/login", authLimiter, handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// 3 req/min/IP
	strictLimiter := middleware.StrictRateLimiter(storage)
	router.Post("/password-reset", strictLimiter, handler.RequestPasswordReset)
	router.Post("/password-reset/confirm", strictLimiter, handler.ConfirmPasswordReset)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures user management routes (Staff only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", handler.ChangePassword)
}

// setupMemberRoutes configures member registry routes.
// Writes are checked against the actor in the service layer.
func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Put("/:id/link", middleware.ManagerOnly(), handler.LinkUser)

	router.Get("/:id/statement", middleware.NoCacheHeaders(), handler.Statement)
	router.Get("/:id/payment-status", middleware.NoCacheHeaders(), handler.PaymentStatus)
}

// setupGroupRoutes configures chama group routes
func setupGroupRoutes(router fiber.Router, handler *handlers.GroupHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Create)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Get("/:id/balance", middleware.NoCacheHeaders(), handler.Balance)
}

// setupTransactionRoutes configures ledger entry routes
func setupTransactionRoutes(router fiber.Router, handler *handlers.TransactionHandler) {
	router.Get("/", handler.List)
	router.Get("/pending", handler.Pending)
	router.Post("/", handler.Submit)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Update)
	router.Post("/:id/verify", middleware.ManagerOnly(), handler.Verify)
	router.Post("/:id/reject", middleware.ManagerOnly(), handler.Reject)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	router.Get("/summary", handler.Summary)
	router.Get("/member", handler.Member)
	router.Get("/treasurer", handler.Treasurer)
}
