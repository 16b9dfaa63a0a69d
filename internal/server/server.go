// Package server wires the HTTP surface: routing, middleware, session
// authentication and the request handlers.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"unihub/internal/cache"
	"unihub/internal/config"
	"unihub/internal/database"
	"unihub/internal/mail"
	"unihub/internal/middleware"
	"unihub/internal/repository"
	"unihub/internal/service"
	"unihub/internal/session"
	"unihub/web"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides the HTTP handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       session.Store
	mailer         mail.Mailer

	userRepo      repository.UserRepository
	tokenRepo     repository.TokenRepository
	communityRepo repository.CommunityRepository
	postRepo      repository.PostRepository

	authService      *service.AuthService
	userService      *service.UserService
	communityService *service.CommunityService
	postService      *service.PostService
}

// NewServer creates a server instance, establishing its own database and
// Redis connections from the config.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	var sessions session.Store
	ttl := time.Duration(cfg.SessionTTLMins) * time.Minute
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient, ttl)
	} else {
		sessions = session.NewMemoryStore(ttl)
	}

	return NewServerWithDeps(cfg, db, redisClient, sessions, mail.FromConfig(cfg))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with a sqlite DB, a memory session store and a fake mailer.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, sessions session.Store, mailer mail.Mailer) (*Server, error) {
	prom := middleware.InitMetrics("unihub")

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		sessions:       sessions,
		mailer:         mailer,
		userRepo:       repository.NewUserRepository(db),
		tokenRepo:      repository.NewTokenRepository(db),
		communityRepo:  repository.NewCommunityRepository(db),
		postRepo:       repository.NewPostRepository(db),
	}

	s.authService = service.NewAuthService(s.userRepo, s.tokenRepo, s.mailer)
	s.userService = service.NewUserService(s.userRepo)
	s.communityService = service.NewCommunityService(s.communityRepo, s.userService.IsAdmin)
	s.postService = service.NewPostService(s.postRepo, s.communityRepo, s.userService.IsAdmin)

	return s, nil
}

// newApp builds the Fiber app with the embedded view engine.
func (s *Server) newApp() *fiber.App {
	views, err := fs.Sub(web.Views, "views")
	if err != nil {
		panic(fmt.Sprintf("embedded views missing: %v", err))
	}
	engine := html.NewFileSystem(http.FS(views), ".html")

	return fiber.New(fiber.Config{
		Views:     engine,
		BodyLimit: (s.config.MaxUploadMB + 1) * 1024 * 1024,
	})
}

// SetupMiddleware configures the middleware stack for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so browser clients
	// still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limit, per IP.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Uploaded post images.
	app.Static("/uploads", s.config.UploadDir)

	// Public routes.
	app.Get("/welcome", s.Welcome)
	app.Get("/test", s.TestRedirect)
	app.Get("/", s.RootRedirect)
	app.Get("/login", s.GetLogin)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.PostLogin)
	app.Get("/register", s.GetRegister)
	app.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.PostRegister)
	app.Get("/verify-email", s.VerifyEmail)
	app.Get("/logout", s.Logout)

	// Everything below requires a session.
	protected := app.Group("", s.AuthRequired())

	protected.Get("/home", s.Home)
	protected.Get("/activity", s.Activity)
	protected.Get("/explore", s.Explore)

	protected.Get("/profile", s.GetProfile)
	protected.Post("/profile", s.UpdateProfile)
	protected.Post("/profile/change-password", s.ChangePassword)
	protected.Get("/users", s.ListUsers)

	communities := protected.Group("/communities")
	communities.Get("/", s.ListCommunities)
	communities.Post("/new", s.CreateCommunity)
	// Specific routes before the generic /:id.
	communities.Post("/create-post", s.CreatePost)
	communities.Post("/:id/delete", s.DeleteCommunity)
	communities.Post("/:id/join", s.JoinCommunity)
	communities.Post("/:id/leave", s.LeaveCommunity)
	communities.Get("/:id", s.GetCommunity)

	posts := protected.Group("/posts")
	posts.Post("/:id/like", s.LikePost)
	posts.Post("/:id/delete", s.DeletePost)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Sessions fall back to memory without Redis; degraded, not down.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App returns the configured Fiber app, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app == nil {
		s.app = s.newApp()
		s.SetupMiddleware(s.app)
		s.SetupRoutes(s.app)
	}
	return s.app
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}
