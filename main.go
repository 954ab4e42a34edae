package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Avishkar-x/Video-Streaming/blob"
	"github.com/Avishkar-x/Video-Streaming/config"
	"github.com/Avishkar-x/Video-Streaming/controllers"
	"github.com/Avishkar-x/Video-Streaming/db"
	"github.com/Avishkar-x/Video-Streaming/forms"
	"github.com/Avishkar-x/Video-Streaming/kv"
	"github.com/Avishkar-x/Video-Streaming/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/requestid"
	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// CORS (Cross-Origin Resource Sharing)
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Origin, Authorization, Accept, Client-Security-Token, Accept-Encoding, x-access-token")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
		} else {
			c.Next()
		}
	}
}

func SlogMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rlog := logger.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
			"request_id", requestid.Get(c),
		)

		start := time.Now()
		rlog.Debug("request started")
		c.Next()
		duration := time.Since(start)
		rlog.Info("request completed", "status", c.Writer.Status(), "duration", duration)
	}
}

func main() {
	//Load the .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			slog.Error("failed to load the env file")
			os.Exit(1)
		}
	}

	cfg := config.Load()

	var logger *slog.Logger
	if cfg.Env == "PRODUCTION" {
		gin.SetMode(gin.ReleaseMode)
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	ctx := context.Background()

	database, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		slog.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	if err := database.EnsureIndexes(ctx); err != nil {
		slog.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	redisKV, err := kv.NewRedisKV(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Error("failed to connect to key-value store", "error", err)
		os.Exit(1)
	}

	uploader, err := blob.NewS3(ctx, cfg)
	if err != nil {
		slog.Error("failed to configure blob storage", "error", err)
		os.Exit(1)
	}

	tokenService := service.NewTokenService(cfg)
	userService := service.NewUserService(database, tokenService, uploader, redisKV)

	//Start the default gin server
	r := gin.Default()

	//Custom form validator
	binding.Validator = new(forms.DefaultValidator)

	r.Use(CORSMiddleware(cfg.CORSOrigin))
	r.Use(requestid.New(requestid.WithCustomHeaderStrKey("X-Request-Id")))
	r.Use(SlogMiddleware(logger))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	health := controllers.NewHealthController()
	r.GET("/health", health.Health)

	auth := controllers.NewAuthController(userService, tokenService, cfg)
	user := controllers.NewUserController(userService, cfg)

	users := r.Group("/api/v1/users")
	users.POST("/register", user.Register)
	users.POST("/login", user.Login)
	users.POST("/refresh", auth.Refresh)

	authed := users.Group("", auth.RequireAuth())
	authed.POST("/logout", user.Logout)
	authed.POST("/change-password", user.ChangePassword)
	authed.PATCH("/account", user.UpdateAccount)
	authed.PATCH("/avatar", user.UpdateAvatar)
	authed.PATCH("/cover-image", user.UpdateCoverImage)
	authed.GET("/current-user", user.CurrentUser)

	slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)

	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
