package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/api/handler"
	"github.com/timmy/mirai/internal/api/middleware"
	"github.com/timmy/mirai/internal/logger"
	"github.com/timmy/mirai/internal/service"
	"github.com/timmy/mirai/internal/storage"
)

// Services bundles the service dependencies of the router.
type Services struct {
	Generation *service.GenerationService
	Images     *service.ImageService
	Social     *service.SocialService
	Users      *service.UserService
	Explore    *service.ExploreService
	Store      storage.ObjectStorage
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	svc *Services,
	log *logger.Logger,
	cors middleware.CORSConfig,
	mode string,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cors))
	r.Use(middleware.Identity())

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	generateHandler := handler.NewGenerateHandler(svc.Generation)
	imageHandler := handler.NewImageHandler(svc.Images)
	serveHandler := handler.NewServeHandler(svc.Store)
	socialHandler := handler.NewSocialHandler(svc.Social)
	userHandler := handler.NewUserHandler(svc.Users)
	exploreHandler := handler.NewExploreHandler(svc.Explore)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Generation
		v1.POST("/generate", generateHandler.Submit)
		v1.GET("/generate/status/:jobId", generateHandler.Status)
		v1.GET("/generate/jobs", generateHandler.ListJobs)

		// Blob serving
		v1.GET("/serve/*key", serveHandler.Serve)

		// Images
		v1.POST("/images/remix", generateHandler.Remix)
		v1.GET("/images/:id", imageHandler.Get)
		v1.DELETE("/images/:id", imageHandler.Delete)
		v1.POST("/images/:id/like", socialHandler.Like)
		v1.DELETE("/images/:id/like", socialHandler.Unlike)
		v1.GET("/images/:id/comments", socialHandler.ListComments)
		v1.POST("/images/:id/comments", socialHandler.CreateComment)

		// Comments
		v1.DELETE("/comments/:id", socialHandler.DeleteComment)

		// Users
		v1.PATCH("/users/:id", userHandler.Update)
		v1.GET("/users/:id", userHandler.Get)
		v1.GET("/users/:id/images", userHandler.ListImages)
		v1.POST("/users/:id/follow", socialHandler.Follow)
		v1.DELETE("/users/:id/follow", socialHandler.Unfollow)

		// Explore
		v1.GET("/explore", exploreHandler.Feed)
		v1.GET("/search", exploreHandler.Search)
	}

	return r
}
