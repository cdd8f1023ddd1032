// Package server contains the HTTP handlers for the TourismCam REST API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tourismcam/internal/auth"
	"tourismcam/internal/config"
	"tourismcam/internal/featureflags"
	"tourismcam/internal/middleware"
	"tourismcam/internal/models"
	"tourismcam/internal/repository"
	"tourismcam/internal/routegate"
	"tourismcam/internal/service"
)

// Deps are the already-initialized dependencies a Server runs on. DB and
// Redis are optional.
type Deps struct {
	Config   *config.Config
	Store    repository.Store
	Sessions auth.SessionStore
	DB       *gorm.DB
	Redis    *redis.Client
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	store          repository.Store
	featureFlags   *featureflags.Manager
	gate           *routegate.Gate
	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServer wires services over the given dependencies.
func NewServer(d Deps) (*Server, error) {
	if d.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if d.Store.Users == nil || d.Store.Posts == nil || d.Store.Comments == nil {
		return nil, errors.New("server: store is incomplete")
	}
	if d.Sessions == nil {
		d.Sessions = auth.NewMemorySessionStore()
	}

	cfg := d.Config
	flags := featureflags.NewManager(cfg.FeatureFlags)
	isAdmin := service.AdminFromUsers(d.Store.Users)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL())

	s := &Server{
		config:         cfg,
		db:             d.DB,
		redis:          d.Redis,
		promMiddleware: middleware.InitMetrics("tourismcam-api"),
		store:          d.Store,
		featureFlags:   flags,
		gate:           routegate.New(config.SplitList(cfg.ProtectedPaths), config.SplitList(cfg.AuthPages)),
	}
	s.authService = service.NewAuthService(d.Store.Users, d.Sessions, tokens, service.AuthConfig{
		SessionTTL:       cfg.SessionTTL(),
		ResetTokenTTL:    cfg.ResetTokenTTL(),
		ExposeResetToken: !cfg.IsProduction(),
	})
	s.postService = service.NewPostService(d.Store.Posts, d.Store.Users, flags, isAdmin)
	s.commentService = service.NewCommentService(d.Store.Comments, d.Store.Posts, isAdmin)
	s.userService = service.NewUserService(d.Store.Users)
	return s, nil
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:               "TourismCam API",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: s.config.Env == "test",
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	log.Printf("Error: %v", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.Respond(c, models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))

	app.Use(middleware.PageGate(s.gate))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/", s.HealthCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "TourismCam API Metrics",
	}))
	api.Get("/feature-flags", s.GetFeatureFlags)

	authRequired := s.AuthRequired()

	authRoutes := api.Group("/auth")
	limits := middleware.NewLimiter(s.redis, s.config.IsProduction())
	authRoutes.Post("/register", limits.Handler(middleware.Limit{
		Name: "register", Max: 3, Window: 10 * time.Minute, Key: middleware.KeyByIP}), s.Register)
	authRoutes.Post("/login", limits.Handler(middleware.Limit{
		Name: "login", Max: 10, Window: 5 * time.Minute, Key: middleware.KeyByIP}), s.Login)
	authRoutes.Post("/logout", s.Logout)
	authRoutes.Get("/me", authRequired, s.Me)
	authRoutes.Put("/profile", authRequired, s.UpdateProfile)
	authRoutes.Post("/forgot-password", limits.Handler(middleware.Limit{
		Name: "forgot_password", Max: 5, Window: 15 * time.Minute, Key: middleware.KeyByIP}), s.ForgotPassword)
	authRoutes.Post("/reset-password", s.ResetPassword)

	// Specific paths before /:id.
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/search", s.SearchPosts)
	posts.Get("/saved", authRequired, s.GetSavedPosts)
	posts.Post("/", authRequired, s.CreatePost)
	posts.Post("/:id/like", authRequired, s.ToggleLike)
	posts.Post("/:id/save", authRequired, s.ToggleSave)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", authRequired, limits.Handler(middleware.Limit{
		Name: "create_comment", Max: 10, Window: time.Minute}), s.CreateComment)
	posts.Put("/:id/comments/:commentId", authRequired, s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", authRequired, s.DeleteComment)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", authRequired, s.UpdatePost)
	posts.Delete("/:id", authRequired, s.DeletePost)

	users := api.Group("/users")
	users.Get("/search", s.SearchUsers)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", s.GetUserProfile)

	if s.config.StaticDir != "" {
		app.Static("/", s.config.StaticDir, fiber.Static{Index: "index.html"})
	}
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server and closes its connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				errs = append(errs, fmt.Errorf("sql db: %w", cerr))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("redis: %w", rerr))
		}
	}

	log.Println("Server shutdown complete")
	return errors.Join(errs...)
}
