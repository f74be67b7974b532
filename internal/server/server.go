package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/config"
	"github.com/emilythestrangee/postboard/backend/internal/database"
	"github.com/emilythestrangee/postboard/backend/internal/handlers"
	"github.com/emilythestrangee/postboard/backend/internal/middleware"
	"github.com/emilythestrangee/postboard/backend/internal/service"
)

// Deps are the collaborators the HTTP layer is built from. DB and Redis may
// be nil; the health check and rate limiter then degrade.
type Deps struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Accounts *service.AccountService
	Content  *service.ContentService
	Tokens   middleware.TokenVerifier
	DB       database.Service
	Redis    *redis.Client
}

type Server struct {
	deps    Deps
	handler *handlers.Handler
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	return &Server{
		deps:    deps,
		handler: handlers.NewHandler(deps.Accounts, deps.Content, deps.Logger),
	}
}

// HTTPServer wraps the router in an http.Server listening on the configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.deps.Config.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	// Without trusted proxies ClientIP ignores X-Forwarded-For, so a client
	// cannot pick its own rate-limit bucket.
	if err := r.SetTrustedProxies(s.deps.Config.TrustedProxyList()); err != nil {
		s.deps.Logger.WithError(err).Warn("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(s.deps.Logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.deps.Config.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled: s.deps.Config.RateLimitEnabled,
		Max:     s.deps.Config.RateLimitMax,
		Window:  s.deps.Config.RateLimitWindow,
		Prefix:  s.deps.Config.AppName + ":rl",
	}, s.deps.Redis, s.deps.Logger)

	api := r.Group("/api")
	{
		// Auth routes (public, throttled)
		api.POST("/register", limit, s.handler.Auth.Register)
		api.POST("/login", limit, s.handler.Auth.Login)

		// Post routes (public reads)
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)

		// Comment routes (public reads)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth(s.deps.Tokens, s.deps.Logger))
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/upvote", s.handler.Post.Upvote)
			protected.POST("/posts/:id/downvote", s.handler.Post.Downvote)

			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	if s.deps.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	stats := s.deps.DB.Health()
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": stats})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": stats})
}
