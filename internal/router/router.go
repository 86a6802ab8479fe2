package router

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"devqa/internal/auth"
	"devqa/internal/config"
	"devqa/internal/handlers"
	"devqa/internal/middleware"
	"devqa/internal/services"
	"devqa/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the long-lived objects the routes are built from.
type Dependencies struct {
	DB      *gorm.DB
	Config  config.Config
	Issuer  *auth.Issuer
	Revoker auth.Revoker
	Avatars storage.Storage
	Logger  *slog.Logger
}

// New builds the engine with global middleware and every route.
func New(deps Dependencies) (*gin.Engine, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(deps.Config.CORSOrigin, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if deps.Config.AvatarStorage == "local" {
		r.Static("/uploads", deps.Config.UploadDir)
	}

	if err := RegisterRoutes(r, deps); err != nil {
		return nil, err
	}
	return r, nil
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) error {
	// Services
	tagService, err := services.NewTagService(deps.DB)
	if err != nil {
		return err
	}
	userService := services.NewUserService(deps.DB, deps.Issuer, deps.Revoker)
	activityService := services.NewActivityService(deps.DB)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	questionHandler := handlers.NewQuestionHandler(services.NewQuestionService(deps.DB, tagService))
	answerHandler := handlers.NewAnswerHandler(services.NewAnswerService(deps.DB, deps.Config.AcceptMode))
	commentHandler := handlers.NewCommentHandler(services.NewCommentService(deps.DB))
	voteHandler := handlers.NewVoteHandler(services.NewVoteService(deps.DB))
	userHandler := handlers.NewUserHandler(userService, activityService, deps.Avatars)
	tagHandler := handlers.NewTagHandler(tagService)

	requireAuth := middleware.AuthRequired(deps.Issuer, deps.Revoker, userService)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", requireAuth, authHandler.Logout)
	}

	questions := api.Group("/questions")
	{
		questions.GET("", questionHandler.List)
		questions.GET("/search/:query", questionHandler.Search)
		questions.GET("/:id", questionHandler.Get)
		questions.POST("", requireAuth, questionHandler.Create)
		questions.PUT("/:id", requireAuth, questionHandler.Update)
		questions.DELETE("/:id", requireAuth, questionHandler.Delete)
		questions.GET("/:id/vote", requireAuth, voteHandler.State(services.TargetQuestion))
		questions.POST("/:id/vote", requireAuth, voteHandler.Vote(services.TargetQuestion))
	}

	answers := api.Group("/answers")
	{
		answers.GET("", answerHandler.List)
		answers.GET("/question/:questionId", answerHandler.ListForQuestion)
		answers.GET("/:id", answerHandler.Get)
		answers.POST("", requireAuth, answerHandler.Create)
		answers.PUT("/:id", requireAuth, answerHandler.Update)
		answers.DELETE("/:id", requireAuth, answerHandler.Delete)
		answers.PATCH("/:id/accept", requireAuth, answerHandler.Accept)
		answers.GET("/:id/vote", requireAuth, voteHandler.State(services.TargetAnswer))
		answers.POST("/:id/vote", requireAuth, voteHandler.Vote(services.TargetAnswer))
	}

	comments := api.Group("/comments")
	{
		comments.GET("", commentHandler.List)
		comments.POST("", requireAuth, commentHandler.Create)
		comments.PUT("/:id", requireAuth, commentHandler.Update)
		comments.DELETE("/:id", requireAuth, commentHandler.Delete)
	}

	users := api.Group("/users")
	{
		users.GET("", userHandler.List)
		users.GET("/profile", requireAuth, userHandler.Profile)
		users.PUT("/profile", requireAuth, userHandler.UpdateProfile)
		users.POST("/avatar", requireAuth, userHandler.UploadAvatar)
		users.GET("/:id", userHandler.Get)
		users.GET("/:id/activity", requireAuth, userHandler.Activity)
	}

	api.GET("/tags", tagHandler.List)

	return nil
}
