package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"consultlink.id/forum/internal/config"
	"consultlink.id/forum/internal/jobs"
	"consultlink.id/forum/internal/middleware"

	commentHttp "consultlink.id/forum/internal/modules/comment/delivery/http"
	commentRepo "consultlink.id/forum/internal/modules/comment/repository"
	commentService "consultlink.id/forum/internal/modules/comment/service"

	contentRepo "consultlink.id/forum/internal/modules/content/repository"

	karmaHttp "consultlink.id/forum/internal/modules/karma/delivery/http"
	karmaService "consultlink.id/forum/internal/modules/karma/service"

	moderationHttp "consultlink.id/forum/internal/modules/moderation/delivery/http"
	moderationRepo "consultlink.id/forum/internal/modules/moderation/repository"
	moderationService "consultlink.id/forum/internal/modules/moderation/service"

	reportHttp "consultlink.id/forum/internal/modules/report/delivery/http"
	reportRepo "consultlink.id/forum/internal/modules/report/repository"
	reportService "consultlink.id/forum/internal/modules/report/service"

	searchService "consultlink.id/forum/internal/modules/search/service"

	statHttp "consultlink.id/forum/internal/modules/stat/delivery/http"
	statRepo "consultlink.id/forum/internal/modules/stat/repository"
	statService "consultlink.id/forum/internal/modules/stat/service"

	threadHttp "consultlink.id/forum/internal/modules/thread/delivery/http"
	threadRepo "consultlink.id/forum/internal/modules/thread/repository"
	threadService "consultlink.id/forum/internal/modules/thread/service"

	userHttp "consultlink.id/forum/internal/modules/user/delivery/http"
	userRepo "consultlink.id/forum/internal/modules/user/repository"
	userService "consultlink.id/forum/internal/modules/user/service"

	voteHttp "consultlink.id/forum/internal/modules/vote/delivery/http"
	voteRepo "consultlink.id/forum/internal/modules/vote/repository"
	voteService "consultlink.id/forum/internal/modules/vote/service"

	"consultlink.id/forum/pkg/ratelimiter"
	"consultlink.id/forum/pkg/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Server struct {
	engine    *gin.Engine
	http      *http.Server
	db        *gorm.DB
	scheduler *jobs.Scheduler
}

// NewServer wires every module. redisClient and search may be nil; cooldowns, the
// leaderboard cache and search indexing are then disabled.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, search searchService.SearchService) *Server {
	cooldowns := ratelimiter.NewCooldowns(redisClient, cfg.RateLimitGlobal, map[ratelimiter.Scope]time.Duration{
		ratelimiter.ScopeThread:  cfg.RateLimitThread,
		ratelimiter.ScopeComment: cfg.RateLimitComment,
		ratelimiter.ScopeReport:  cfg.RateLimitReport,
	})

	userRepo := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, search)
	authHandler := userHttp.NewAuthHandler(authSvc)

	moderationRepo := moderationRepo.NewModerationRepository(db)
	moderationSvc := moderationService.NewModerationService(moderationRepo)
	moderationHandler := moderationHttp.NewModerationHandler(moderationSvc)

	karmaSvc := karmaService.NewKarmaService(db, userRepo, moderationSvc, redisClient)
	karmaHandler := karmaHttp.NewKarmaHandler(karmaSvc)

	contentRepo := contentRepo.NewContentRepository(db)
	threadRepo := threadRepo.NewRepository(db)
	voteRepo := voteRepo.NewVoteRepository(db)
	commentRepo := commentRepo.NewCommentRepository(db)

	threadSvc := threadService.NewService(db, threadRepo, commentRepo, voteRepo, userRepo, moderationSvc, search, cooldowns)
	threadHandler := threadHttp.NewThreadHandler(threadSvc)

	commentSvc := commentService.NewCommentService(db, commentRepo, threadRepo, userRepo, moderationSvc, cooldowns)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	voteSvc := voteService.NewVoteService(db, voteRepo, contentRepo, karmaSvc, threadRepo, search)
	voteHandler := voteHttp.NewVoteHandler(voteSvc)

	reportRepo := reportRepo.NewReportRepository(db)
	reportSvc := reportService.NewReportService(db, reportRepo, contentRepo, cooldowns)
	reportHandler := reportHttp.NewReportHandler(reportSvc)

	statHandler := statHttp.NewStatHandler(statService.NewStatService(statRepo.NewStatRepository(db)))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.Origins())

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
	})

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)
	writeLimiter := middleware.WriteLimiter(middleware.NewIPRateLimiter(cfg.WriteRPS, cfg.WriteBurst))

	api := router.Group("/api")
	api.Use(writeLimiter)

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	forum := api.Group("/forum")
	{
		forum.GET("/threads", threadHandler.ListThreads)
		forum.GET("/thread/:id", threadHandler.GetThread)
		forum.GET("/users/:id/karma", karmaHandler.GetKarma)
		forum.GET("/karma/leaderboard", karmaHandler.GetLeaderboard)
	}

	protected := forum.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/thread", threadHandler.CreateThread)
		protected.PUT("/thread/:id", threadHandler.UpdateThread)
		protected.DELETE("/thread/:id", threadHandler.DeleteThread)

		protected.POST("/comment", commentHandler.CreateComment)
		protected.PUT("/comment/:id", commentHandler.UpdateComment)
		protected.DELETE("/comment/:id", commentHandler.DeleteComment)

		protected.POST("/vote", voteHandler.CastVote)
		protected.POST("/report", reportHandler.FileReport)

		admin := protected.Group("")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.POST("/thread/:id/lock", threadHandler.ToggleLock)
			admin.POST("/thread/:id/pin", threadHandler.TogglePin)
			admin.GET("/reports", reportHandler.ListReports)
			admin.PUT("/reputation", karmaHandler.AdjustKarma)
			admin.GET("/moderation-logs", moderationHandler.ListLogs)
			admin.GET("/stats", statHandler.GetOverview)
		}
	}

	return &Server{
		engine:    router,
		db:        db,
		scheduler: jobs.NewScheduler(voteSvc, cfg.ReconcileSchedule),
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the background jobs and blocks serving HTTP until Shutdown is called.
func (s *Server) Run(ctx context.Context, addr string) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithField("addr", addr).Info("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
