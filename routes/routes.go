package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/controllers"
	"github.com/knowway/knowway-backend/middleware"
	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
	"github.com/knowway/knowway-backend/ws"
)

// Deps is everything the router needs. Services are built by the caller so
// tests can swap the external clients.
type Deps struct {
	DB     *gorm.DB
	Tokens *utils.TokenManager
	Roles  *services.RoleResolver
	Log    *utils.Logger

	Auth       *services.AuthService
	Users      *services.UserService
	Categories *services.CategoryService
	Courses    *services.CourseService
	Lessons    *services.LessonService
	Points     *services.PointsService
	Progress   *services.ProgressService
	Quizzes    *services.QuizService
	Favorites  *services.FavoriteService
	Chat       *services.ChatService
	Uploads    *services.UploadService
	Scraping   *services.ScrapingService
	AI         *services.AIChatService
	SearchLogs *services.SearchLogService

	Hub         *ws.Hub
	ChatSockets *ws.ChatHandler
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = utils.NopLogger()
	}

	authCtl := controllers.NewAuthController(d.Auth, log)
	userCtl := controllers.NewUserController(d.Users, log)
	categoryCtl := controllers.NewCategoryController(d.Categories, log)
	courseCtl := controllers.NewCourseController(d.Courses, log)
	lessonCtl := controllers.NewLessonController(d.Lessons, log)
	pointsCtl := controllers.NewPointsController(d.Points, log)
	progressCtl := controllers.NewProgressController(d.Progress, log)
	quizCtl := controllers.NewQuizController(d.Quizzes, log)
	favoriteCtl := controllers.NewFavoriteController(d.Favorites, log)
	chatCtl := controllers.NewChatController(d.Chat, log)
	uploadCtl := controllers.NewUploadController(d.Uploads, log)
	scrapingCtl := controllers.NewScrapingController(d.Scraping, log)
	aiCtl := controllers.NewAIChatController(d.AI, log)
	searchLogCtl := controllers.NewSearchLogController(d.SearchLogs, log)
	healthCtl := controllers.NewHealthController(d.DB, d.Hub)

	requireAuth := middleware.AuthMiddleware(d.Tokens, d.DB)
	superAdmin := middleware.RequireRoles(d.Roles, models.RoleSuperAdmin)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	if d.ChatSockets != nil {
		r.GET("/ws/chat/:courseId", d.ChatSockets.ServeChat)
	}

	api := r.Group("/api")
	api.GET("/health", healthCtl.Check)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.POST("/google", authCtl.GoogleLogin)
		auth.GET("/me", requireAuth, authCtl.Me)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("", superAdmin, userCtl.List)
		users.GET("/my-role", userCtl.MyRole)
		users.PUT("/:id/role", superAdmin, userCtl.UpdateRole)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryCtl.List)
		categories.POST("", requireAuth, superAdmin, categoryCtl.Create)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", courseCtl.List)
		courses.GET("/:id", courseCtl.Get)
		courses.POST("", requireAuth, courseCtl.Create)
		courses.PUT("/:id", requireAuth, courseCtl.Update)
		courses.DELETE("/:id", requireAuth, courseCtl.Delete)
	}

	lessons := api.Group("/lessons")
	{
		lessons.GET("/course/:courseId", lessonCtl.ListByCourse)
		lessons.GET("/:id", lessonCtl.Get)
		lessons.POST("", requireAuth, lessonCtl.Create)
		lessons.PUT("/:id", requireAuth, lessonCtl.Update)
		lessons.DELETE("/:id", requireAuth, lessonCtl.Delete)
	}

	purchases := api.Group("/purchases", requireAuth)
	{
		purchases.GET("/my-purchases", pointsCtl.MyPurchases)
		purchases.GET("/my-purchase-ids", pointsCtl.MyPurchaseIDs)
		purchases.POST("/:courseId", pointsCtl.Enroll)
	}

	points := api.Group("/points", requireAuth)
	{
		points.GET("/balance", pointsCtl.Balance)
		points.GET("/history", pointsCtl.History)
		points.POST("/purchase/:courseId", pointsCtl.Enroll)
		points.POST("/complete/:courseId", pointsCtl.Complete)
	}

	progress := api.Group("/progress", requireAuth)
	{
		progress.GET("/course/:courseId", progressCtl.CourseProgress)
		progress.POST("/lesson/:lessonId/complete", progressCtl.MarkComplete)
		progress.DELETE("/lesson/:lessonId/complete", progressCtl.MarkIncomplete)
	}

	quiz := api.Group("/quiz")
	{
		quiz.GET("/course/:courseId", quizCtl.GetByCourse)
		quiz.POST("/course/:courseId", requireAuth, quizCtl.Save)
		quiz.PUT("/course/:courseId", requireAuth, quizCtl.Save)
		quiz.POST("/:quizId/submit", requireAuth, quizCtl.Submit)
		quiz.GET("/attempts/:courseId", requireAuth, quizCtl.Attempts)
	}

	favorites := api.Group("/favorites", requireAuth)
	{
		favorites.GET("/my-favorites", favoriteCtl.List)
		favorites.GET("/my-favorite-ids", favoriteCtl.IDs)
		favorites.POST("/:courseId", favoriteCtl.Add)
		favorites.DELETE("/:courseId", favoriteCtl.Remove)
	}

	chat := api.Group("/chat", requireAuth)
	{
		chat.GET("/:courseId", chatCtl.Messages)
		chat.POST("/:courseId", chatCtl.Send)
	}

	api.POST("/uploads/image", requireAuth, uploadCtl.Image)

	scraping := api.Group("/scraping")
	{
		scraping.GET("", scrapingCtl.List)
		scraping.POST("/webhook", scrapingCtl.Webhook)
		scraping.POST("/trigger", requireAuth, scrapingCtl.Trigger)
		scraping.GET("/my-data", requireAuth, scrapingCtl.Mine)
		scraping.DELETE("/:id", requireAuth, scrapingCtl.Delete)
	}

	// anonymous callers allowed; a token only tags the request log
	api.POST("/ai-chat/completions", middleware.OptionalAuthMiddleware(d.Tokens), aiCtl.Completions)
	api.GET("/search-logs", requireAuth, superAdmin, searchLogCtl.List)

	return r
}
