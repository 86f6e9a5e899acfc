package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/domain"
	"taskflow/internal/middleware"
	"taskflow/internal/modules/auth"
	"taskflow/internal/modules/tasks"
	jwtsvc "taskflow/internal/pkg/jwt"
	"taskflow/internal/pkg/response"
	"taskflow/internal/repository"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}
	if cfg.AppEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}, &domain.Task{}); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	j := jwtsvc.New(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	authHandler := auth.NewHandler(auth.NewService(userRepo, tokenRepo, j))
	taskHandler := tasks.NewHandler(tasks.NewService(taskRepo))

	r := gin.New()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/api/health", func(c *gin.Context) {
		response.Success(c, 200, "Server is running", gin.H{"environment": cfg.AppEnv})
	})

	root := r.Group("/")
	{
		authHandler.RegisterPublicRoutes(root)

		protected := root.Group("/")
		protected.Use(middleware.Auth(j, userRepo))
		{
			authHandler.RegisterProtectedRoutes(protected)
			taskHandler.RegisterRoutes(protected)
		}
	}

	logger.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("starting server")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
