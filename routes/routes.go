package routes

import (
	"tunecards-api/controllers"
	"tunecards-api/middleware"
	"tunecards-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/register", controllers.Register)
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "TuneCards API is running",
				})
			})

			// Content
			public.GET("/blogs", controllers.GetBlogs)
			public.GET("/blogs/:slug", controllers.GetBlog)
			public.GET("/quizzes", controllers.GetQuizzes)
			public.GET("/quizzes/:id", controllers.GetQuiz)
			public.GET("/top40", controllers.GetTop40Chart)
			public.GET("/settings", controllers.GetPublicSettings)

			// Music metadata
			public.GET("/tracks/:spotify_id/year", controllers.GetTrackYear)
			public.GET("/artists/bio", controllers.GetArtistBio)
			public.GET("/apple-music/token", controllers.GetAppleMusicToken)

			// Checkout. Orders work without an account; an authenticated
			// user gets the order attached to their profile.
			public.POST("/orders", middleware.OptionalAuth(), controllers.CreateOrder)
			public.GET("/orders/:number", controllers.GetOrder)
			public.POST("/payments/webhook", controllers.MollieWebhook)

			// Quiz game rooms (players join by code, no account needed)
			games := public.Group("/games")
			{
				games.POST("", controllers.CreateRoom)
				games.POST("/:code/join", controllers.JoinRoom)
				games.GET("/:code", controllers.GetRoom)
				games.POST("/:code/start", controllers.StartGame)
				games.POST("/:code/answer", controllers.SubmitAnswer)
				games.POST("/:code/next", controllers.NextQuestion)
			}
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)
			protected.GET("/my/orders", controllers.GetMyOrders)

			// Vibe campaigns (company members)
			lists := protected.Group("/lists", middleware.RequireRole(models.RoleCompany, models.RoleAdmin))
			{
				lists.GET("", controllers.GetCompanyLists)
				lists.POST("", controllers.CreateCompanyList)
				lists.GET("/:id", controllers.GetCompanyList)
				lists.POST("/:id/questions", controllers.AddListQuestion)
				lists.POST("/:id/advance", controllers.AdvanceList)
				lists.POST("/:id/submissions", controllers.SubmitListTrack)
				lists.POST("/:id/votes", controllers.VoteListTrack)
				lists.GET("/:id/ranking", controllers.GetListRanking)
				lists.POST("/:id/freeze", controllers.FreezeListRanking)
				lists.POST("/:id/export", controllers.ExportListPlaylist)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(), middleware.RequireAdmin())
		{
			// Content management. The listing handlers include drafts for
			// admins via ?all=true.
			admin.GET("/blogs", controllers.GetBlogs)
			admin.GET("/quizzes", controllers.GetQuizzes)
			admin.POST("/blogs", controllers.CreateBlog)
			admin.PUT("/blogs/:id", controllers.UpdateBlog)
			admin.DELETE("/blogs/:id", controllers.DeleteBlog)
			admin.POST("/blogs/generate", controllers.GenerateBlog)
			admin.POST("/blogs/:id/translate", controllers.TranslateBlog)

			admin.POST("/quizzes", controllers.CreateQuiz)
			admin.POST("/quizzes/:id/questions", controllers.AddQuestion)
			admin.DELETE("/quizzes/:id/questions/:question_id", controllers.DeleteQuestion)
			admin.POST("/quizzes/:id/publish", controllers.PublishQuiz)
			admin.DELETE("/quizzes/:id", controllers.DeleteQuiz)
			admin.POST("/quizzes/generate", controllers.GenerateQuiz)

			// Companies and campaign resets
			admin.POST("/companies", controllers.CreateCompany)
			admin.POST("/lists/:id/reset", controllers.ResetList)

			// Orders and printer invoices
			admin.GET("/orders", controllers.GetOrders)
			admin.GET("/invoices", controllers.GetInvoices)
			admin.POST("/invoices/generate", controllers.GenerateInvoice)
			admin.POST("/invoices/:id/paid", controllers.MarkInvoicePaid)

			// Resellers
			admin.GET("/resellers", controllers.GetResellers)
			admin.POST("/resellers", controllers.CreateReseller)
			admin.POST("/resellers/:id/rotate", controllers.RotateResellerSecret)
			admin.PUT("/resellers/:id/active", controllers.SetResellerActive)

			// Operations
			admin.GET("/settings", controllers.GetSettings)
			admin.PUT("/settings/:key", controllers.UpdateSetting)
			admin.POST("/top40/ingest", controllers.IngestTop40Week)
			admin.GET("/spotify/link", controllers.GetSpotifyAuthLink)
			admin.POST("/cdn/invalidate", controllers.InvalidateCardCache)
		}

		// Spotify redirects here after account authorization; state cookie
		// protects the exchange.
		v1.GET("/spotify/callback", controllers.SpotifyAuthCallback)

		// Reseller API (key + secret headers)
		reseller := v1.Group("/reseller")
		reseller.Use(middleware.ResellerAuth())
		{
			reseller.POST("/orders", controllers.SubmitResellerOrder)
			reseller.GET("/orders", controllers.GetResellerOrders)
			reseller.GET("/orders/:number", controllers.GetResellerOrder)
		}
	}
}
