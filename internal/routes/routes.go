package routes

import (
	"github.com/gin-gonic/gin"

	"wordnest/internal/authz"
	"wordnest/internal/handlers"
	"wordnest/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	wordHandler *handlers.WordHandler,
	categoryHandler *handlers.CategoryHandler,
	quizHandler *handlers.QuizHandler,
	teachingHandler *handlers.TeachingHandler,
	statsHandler *handlers.StatsHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public: машина авторизации живёт на браузерной сессии
	auth := r.Group("/auth")
	{
		auth.GET("", authHandler.Reset)
		auth.POST("/code", authHandler.RequestCode)
		auth.POST("/verify", authHandler.VerifyCode)
		auth.POST("/resend", authHandler.ResendCode)
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	r.POST("/refresh", authHandler.RefreshToken)

	// ---- protected
	r.Use(middleware.AuthMiddleware())

	r.POST("/logout", authHandler.Logout)

	// PROFILE
	r.GET("/me", userHandler.Me)
	r.PUT("/me", userHandler.Update)
	r.POST("/me/telegram", userHandler.LinkTelegram)

	// WORDS
	words := r.Group("/words")
	{
		words.POST("", wordHandler.Create)
		words.GET("", wordHandler.List)
		words.GET("/:id", wordHandler.GetByID)
		words.PUT("/:id", wordHandler.Update)
		words.DELETE("/:id", wordHandler.Delete)
		words.POST("/:id/learned", wordHandler.SetLearned)
	}

	// CATEGORIES
	categories := r.Group("/categories")
	{
		categories.POST("", categoryHandler.Create)
		categories.GET("", categoryHandler.List)
		categories.PUT("/:id", categoryHandler.Rename)
		categories.DELETE("/:id", categoryHandler.Delete)
	}

	// TESTS
	tests := r.Group("/tests")
	{
		tests.POST("/start", quizHandler.Start)
		tests.GET("/question", quizHandler.Question)
		tests.POST("/answer", quizHandler.SubmitAnswer)
		tests.GET("/results", quizHandler.Results)
		tests.GET("/history", quizHandler.History)
	}

	// TEACHING
	teaching := r.Group("/teaching")
	{
		teaching.POST("/requests", teachingHandler.CreateRequest)
		teaching.GET("/requests", teachingHandler.ListRequests)
		teaching.POST("/requests/:id/respond", teachingHandler.RespondRequest)
		teaching.POST("/requests/:id/cancel", teachingHandler.CancelRequest)
		teaching.GET("/teachers", teachingHandler.ListTeachers)

		// операции, доступные только учителю
		teaching.GET("/students", middleware.RequireRoles(authz.RoleTeacher), teachingHandler.ListStudents)
		teaching.POST("/students/end", middleware.RequireRoles(authz.RoleTeacher), teachingHandler.EndTutoring)
		teaching.POST("/share", middleware.RequireRoles(authz.RoleTeacher), teachingHandler.ShareCategory)

		// входящие предложения категорий — у ученика
		teaching.GET("/share", teachingHandler.ListShareRequests)
		teaching.POST("/share/:id/respond", teachingHandler.RespondShare)
	}

	// HOMEWORK
	homework := r.Group("/homework")
	{
		homework.POST("", middleware.RequireRoles(authz.RoleTeacher), teachingHandler.AssignHomework)
		homework.POST("/:id/feedback", middleware.RequireRoles(authz.RoleTeacher), teachingHandler.ReviewHomework)
		homework.GET("", teachingHandler.ListHomework)
		homework.POST("/:id/complete", teachingHandler.CompleteHomework)
	}

	// STATISTICS
	stats := r.Group("/stats")
	{
		stats.GET("/dashboard", statsHandler.Dashboard)
		stats.POST("/study", statsHandler.RecordStudy)
	}

	// REPORTS
	reports := r.Group("/reports")
	{
		reports.POST("/tests/:id", reportHandler.TestReport)
		reports.POST("/progress", reportHandler.ProgressReport)
	}

	return r
}
