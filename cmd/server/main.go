// @title           Storybook Production Backend API
// @version         1.0.0
// @description     Backend API for producing personalized illustrated books: project intake, AI character and page illustration generation, staged customer review rounds and the revision feedback protocol.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"
	"net/url"

	"storybook-backend/docs"
	"storybook-backend/internal/config"
	"storybook-backend/internal/database"
	"storybook-backend/internal/genai"
	"storybook-backend/internal/handlers"
	"storybook-backend/internal/middleware"
	"storybook-backend/internal/notify"
	"storybook-backend/internal/services"
	"storybook-backend/internal/supabase"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Update Swagger docs with dynamic base URL
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err == nil {
			docs.SwaggerInfo.Host = baseURL.Host
			if baseURL.Scheme == "https" {
				docs.SwaggerInfo.Schemes = []string{"https", "http"}
			} else {
				docs.SwaggerInfo.Schemes = []string{"http", "https"}
			}
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database client: %v", err)
	}
	defer dbClient.Close()

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(); err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	migrator.Close()
	log.Println("Migrations completed successfully")

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}
	realtimeClient := supabase.NewRealtimeClient(supabaseClient)

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	genClient := genai.NewClient(cfg.GenAIBaseURL, cfg.GenAIAPIKey, cfg.GenAIModel, cfg.GenAISketchModel)
	notifier := notify.NewEdgeNotifier(cfg.NotifyEndpoint, cfg.NotifyAPIKey)

	projectService := services.NewProjectService(dbClient, storageClient)
	generationService := services.NewGenerationService(dbClient, storageClient, genClient, realtimeClient)
	reviewService := services.NewReviewService(dbClient, notifier, realtimeClient, cfg.ReviewBaseURL)

	projectsHandler := handlers.NewProjectsHandler(projectService, reviewService)
	generationHandler := handlers.NewGenerationHandler(generationService, dbClient)
	reviewHandler := handlers.NewReviewHandler(reviewService, dbClient)
	customerHandler := handlers.NewCustomerHandler(projectService, reviewService)
	uploadHandler := handlers.NewUploadHandler(dbClient, storageClient)

	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// Admin routes (Supabase JWT)
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)
	api.GET("/projects/:project_id/status", projectsHandler.GetStatus)
	api.POST("/projects/:project_id/review-token/rotate", projectsHandler.RotateToken)

	api.POST("/projects/:project_id/characters/generate", generationHandler.GenerateCharacters)
	api.POST("/projects/:project_id/send", reviewHandler.SendToCustomer)

	api.POST("/characters/:character_id/generate", generationHandler.RegenerateCharacter)
	api.POST("/characters/:character_id/reference-photo", uploadHandler.UploadReferencePhoto)
	api.DELETE("/characters/:character_id", projectsHandler.DeleteCharacter)
	api.POST("/characters/:character_id/resolve", reviewHandler.ResolveCharacterFeedback)
	api.POST("/characters/:character_id/reply", reviewHandler.ReplyToCharacter)
	api.POST("/characters/:character_id/comments", reviewHandler.CommentOnCharacter)
	api.PUT("/characters/:character_id/comments", reviewHandler.EditCharacterComment)
	api.DELETE("/characters/:character_id/comments", reviewHandler.RemoveCharacterComment)

	api.POST("/pages/:page_id/generate", generationHandler.GeneratePage)
	api.POST("/pages/:page_id/sketch/retry", generationHandler.RetrySketch)
	api.GET("/pages/:page_id/history", projectsHandler.PageHistory)
	api.POST("/pages/:page_id/resolve", reviewHandler.ResolvePageFeedback)
	api.POST("/pages/:page_id/reply", reviewHandler.ReplyToPage)
	api.PUT("/pages/:page_id/thread/last", reviewHandler.EditAdminThreadEntry)
	api.POST("/pages/:page_id/comments", reviewHandler.CommentOnPage)
	api.PUT("/pages/:page_id/comments", reviewHandler.EditPageComment)
	api.DELETE("/pages/:page_id/comments", reviewHandler.RemovePageComment)

	api.POST("/comparisons/:comparison_id/resolve", generationHandler.ResolveComparison)

	// Customer routes (review token is the credential)
	review := router.Group("/review/:token")
	review.GET("", customerHandler.GetReview)
	review.POST("/pages/:page_id/feedback", customerHandler.SubmitPageFeedback)
	review.POST("/pages/:page_id/accept", customerHandler.AcceptPageReply)
	review.POST("/pages/:page_id/follow-up", customerHandler.FollowUpPage)
	review.PUT("/pages/:page_id/thread/last", customerHandler.EditPageThreadEntry)
	review.POST("/characters/:character_id/feedback", customerHandler.SubmitCharacterFeedback)
	review.POST("/characters/:character_id/accept", customerHandler.AcceptCharacterReply)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
