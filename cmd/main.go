package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/codequizhub/codequizhub/config"
	"github.com/codequizhub/codequizhub/database"
	_ "github.com/codequizhub/codequizhub/docs" // Swagger docs - auto-generated
	adminctrl "github.com/codequizhub/codequizhub/internal/controller/admin"
	orgctrl "github.com/codequizhub/codequizhub/internal/controller/org"
	studentctrl "github.com/codequizhub/codequizhub/internal/controller/student"
	"github.com/codequizhub/codequizhub/internal/logger"
	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/codequizhub/codequizhub/internal/repository"
	"github.com/codequizhub/codequizhub/internal/service"
)

// @title CodeQuizHub API
// @version 1.0
// @description Educational quiz platform: organizations invite teachers and students, teachers compose quizzes from a question bank, students run timed attempts that are graded per question type.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,         // Provides *gin.Engine
			func() service.Clock { return time.Now },
		),

		// Repositories Layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewOrganizationRepository,
			repository.NewInvitationRepository,
			repository.NewQuestionRepository,
			repository.NewQuizRepository,
			repository.NewAttemptRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewOrganizationService,
			func(
				invRepo repository.InvitationRepository,
				orgRepo repository.OrganizationRepository,
				userRepo repository.UserRepository,
				cfg *config.Config,
				clock service.Clock,
			) service.InvitationService {
				ttl := time.Duration(cfg.Quiz.InvitationTTLHours) * time.Hour
				return service.NewInvitationService(invRepo, orgRepo, userRepo, clock, ttl)
			},
			service.NewQuestionService,
			service.NewQuizService,
			func(cfg *config.Config) service.GradingService {
				timeout := time.Duration(cfg.Quiz.JudgeCaseTimeoutMs) * time.Millisecond
				return service.NewGradingService(service.NewUnavailableCodeExecutor(), timeout)
			},
			func(cfg *config.Config, attemptRepo repository.AttemptRepository) (service.FeedbackService, error) {
				return service.NewFeedbackService(cfg, attemptRepo)
			},
			service.NewAttemptService,
		),

		// API Controllers Layer
		fx.Provide(
			adminctrl.NewPlatformAdminController,
			orgctrl.NewOrganizationController,
			orgctrl.NewContentController,
			studentctrl.NewStudentController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminCtrl *adminctrl.PlatformAdminController,
	organizationCtrl *orgctrl.OrganizationController,
	contentCtrl *orgctrl.ContentController,
	studentCtrl *studentctrl.StudentController,
) {
	// Platform admin routes
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		orgsAdminGroup := adminAPIGroup.Group("/organizations")
		orgsAdminGroup.GET("", adminCtrl.ListOrganizations)
		orgsAdminGroup.POST("/:org_id/approve", adminCtrl.ApproveOrganization)
		orgsAdminGroup.POST("/:org_id/reject", adminCtrl.RejectOrganization)
		orgsAdminGroup.POST("/:org_id/reset", adminCtrl.ResetRejectedOrganization)
		orgsAdminGroup.POST("/:org_id/activate-members", adminCtrl.ActivateMembers)
	}

	// Organization admin routes
	orgAPIGroup := router.Group("/api/v1/org")
	{
		invitationsGroup := orgAPIGroup.Group("/invitations")
		invitationsGroup.POST("", organizationCtrl.CreateInvitation)
		invitationsGroup.GET("", organizationCtrl.ListInvitations)
		invitationsGroup.POST("/:invitation_id/cancel", organizationCtrl.CancelInvitation)

		questionsGroup := orgAPIGroup.Group("/questions")
		questionsGroup.POST("", contentCtrl.CreateQuestion)
		questionsGroup.GET("", contentCtrl.ListOrganizationQuestions)
		questionsGroup.GET("/:question_id", contentCtrl.GetQuestion)
		questionsGroup.DELETE("/:question_id", contentCtrl.DeleteQuestion)

		quizzesGroup := orgAPIGroup.Group("/quizzes")
		quizzesGroup.POST("", contentCtrl.ComposeQuiz)
		quizzesGroup.GET("", contentCtrl.ListOrganizationQuizzes)
		quizzesGroup.GET("/:quiz_id", contentCtrl.GetQuiz)
		quizzesGroup.POST("/:quiz_id/publish", contentCtrl.PublishQuiz)
		quizzesGroup.POST("/:quiz_id/archive", contentCtrl.ArchiveQuiz)
	}

	apiGroup := router.Group("/api/v1")
	{
		// Registration and joining
		apiGroup.POST("/organizations/register", organizationCtrl.RegisterOrganization)
		apiGroup.GET("/organizations/:org_id", organizationCtrl.GetOrganization)
		apiGroup.GET("/invitations/:token", studentCtrl.ResolveInvitation)
		apiGroup.POST("/invitations/accept", studentCtrl.AcceptInvitation)

		// Public question bank
		apiGroup.GET("/questions", contentCtrl.ListPublicQuestions)

		// Published quizzes and attempts
		apiGroup.GET("/quizzes", studentCtrl.ListPublishedQuizzes)
		apiGroup.POST("/quizzes/:quiz_id/attempts", studentCtrl.StartAttempt)
		apiGroup.GET("/quizzes/:quiz_id/my-attempts", studentCtrl.ListMyAttempts)
		apiGroup.GET("/attempts/:attempt_id", studentCtrl.GetAttempt)
		apiGroup.POST("/attempts/:attempt_id/responses", studentCtrl.SubmitAnswer)
		apiGroup.POST("/attempts/:attempt_id/finalize", studentCtrl.FinalizeAttempt)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("CodeQuizHub API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Credentials{},
		&model.User{},
		&model.Organization{},
		&model.Invitation{},
		&model.Question{},
		&model.QuestionOption{},
		&model.TestCase{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.Attempt{},
		&model.Response{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
