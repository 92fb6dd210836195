package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"jamm/backend/internal/auth"
	"jamm/backend/internal/config"
	"jamm/backend/internal/database"
	"jamm/backend/internal/handler"
	"jamm/backend/internal/models"
	"jamm/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

func init() {
	config.LoadConfig()
}

// @title           Jamm API
// @version         1.0
// @description     This is the API for the Jamm service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	if config.AppConfig.S3Bucket != "" {
		media, err := storage.NewS3Client(context.Background(), config.AppConfig.S3Bucket)
		if err != nil {
			log.Fatalf("Failed to initialize media storage: %v", err)
		}
		handler.Media = media
	} else {
		log.Println("Warning: S3_BUCKET not set, image uploads are disabled")
	}

	router := gin.Default()

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.Register)
			authRoutes.GET("/activate/:token", handler.Activate)
			authRoutes.POST("/login", handler.Login)
			authRoutes.POST("/password-reset", handler.RequestPasswordReset)
			authRoutes.POST("/password-reset-confirm", handler.ConfirmPasswordReset)
		}

		// Profile routes (protected)
		meRoutes := apiV1.Group("/me")
		meRoutes.Use(auth.AuthMiddleware())
		{
			meRoutes.GET("", handler.GetMe)
			meRoutes.PATCH("/persona", auth.RequireKind(models.KindPersona), handler.UpdateMyPersona)
			meRoutes.PATCH("/locale", auth.RequireKind(models.KindLocale), handler.UpdateMyLocale)
			meRoutes.POST("/profile-image", handler.UploadProfileImage)
			meRoutes.POST("/location", handler.SaveMyLocation)

			meRoutes.GET("/privacy/persona", auth.RequireKind(models.KindPersona), handler.GetPersonaPrivacy)
			meRoutes.PATCH("/privacy/persona", auth.RequireKind(models.KindPersona), handler.UpdatePersonaPrivacy)
			meRoutes.GET("/privacy/locale", auth.RequireKind(models.KindLocale), handler.GetLocalePrivacy)
			meRoutes.PATCH("/privacy/locale", auth.RequireKind(models.KindLocale), handler.UpdateLocalePrivacy)
		}

		// Public profile routes (viewer-aware when a token is present)
		utentiRoutes := apiV1.Group("/utenti")
		utentiRoutes.Use(auth.OptionalAuthMiddleware())
		{
			utentiRoutes.GET("/:id", handler.GetUtenteByID)
		}

		personeRoutes := apiV1.Group("/persone")
		personeRoutes.Use(auth.OptionalAuthMiddleware())
		{
			personeRoutes.GET("", handler.ListPersone)
		}

		personeAuthRoutes := apiV1.Group("/persone")
		personeAuthRoutes.Use(auth.AuthMiddleware())
		{
			personeAuthRoutes.GET("/friendship", handler.ListPersoneFriendship)
		}

		// Friendship routes. Any authenticated account may send, cancel or
		// unfriend; only the recipient side is restricted to persona, and
		// that check lives in the friends service.
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(auth.AuthMiddleware())
		{
			friendRoutes.GET("", handler.MyFriends)
			friendRoutes.DELETE("/:id", handler.Unfriend)
			friendRoutes.POST("/requests", handler.SendFriendRequest)
			friendRoutes.GET("/requests/pending", handler.PendingRequests)
			friendRoutes.POST("/requests/:id/respond", handler.RespondFriendRequest)
			friendRoutes.POST("/requests/:id/cancel", handler.CancelFriendRequest)
		}

		peopleRoutes := apiV1.Group("/people")
		peopleRoutes.Use(auth.AuthMiddleware())
		{
			peopleRoutes.GET("/friends-and-suggested", handler.FriendsAndSuggested)
		}

		// Venue routes
		localiRoutes := apiV1.Group("/locali")
		localiRoutes.Use(auth.OptionalAuthMiddleware())
		{
			localiRoutes.GET("", handler.ListLocali)
			localiRoutes.GET("/:id/eventi", handler.EventiPerLocale)
		}

		// Event routes
		eventiRoutes := apiV1.Group("/eventi")
		eventiRoutes.Use(auth.OptionalAuthMiddleware())
		{
			eventiRoutes.GET("", handler.ListEventi)
			eventiRoutes.GET("/:id", handler.GetEvento)
		}

		eventiWriteRoutes := apiV1.Group("/eventi")
		eventiWriteRoutes.Use(auth.AuthMiddleware())
		{
			eventiWriteRoutes.POST("", auth.RequireKind(models.KindLocale), handler.CreateEvento)
			eventiWriteRoutes.PATCH("/:id", auth.RequireKind(models.KindLocale), handler.UpdateEvento)
			eventiWriteRoutes.DELETE("/:id", auth.RequireKind(models.KindLocale), handler.DeleteEvento)
			eventiWriteRoutes.POST("/:id/immagine", auth.RequireKind(models.KindLocale), handler.UploadEventoImage)
			eventiWriteRoutes.POST("/:id/toggle-like", auth.RequireKind(models.KindPersona), handler.ToggleEventLike)
		}
	}

	fmt.Printf("Server is running on %s\n", config.AppConfig.ServerAddr)
	log.Fatal(router.Run(config.AppConfig.ServerAddr))
}
