package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/oguzk/tutorhub/internal/app/controllers"
	"github.com/oguzk/tutorhub/internal/app/models"
	"github.com/oguzk/tutorhub/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	courseController *controllers.CourseController,
	enrollmentController *controllers.EnrollmentController,
	jobController *controllers.JobController,
	authMiddleware *middleware.AuthMiddleware,
	jobSecret string,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
		auth.GET("/verify-email", authController.VerifyEmail)
		auth.POST("/verify-email", authController.VerifyEmail)
		auth.POST("/resend-verification", authController.ResendVerification)
	}

	// --- Public course browsing ---
	v1.GET("/courses", courseController.ListCourses)
	v1.GET("/courses/:id", courseController.GetCourse)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)

		// Profile
		profile := authenticated.Group("/profile")
		{
			profile.GET("", userController.GetProfile)
			profile.PUT("", userController.UpdateProfile)
			profile.PUT("/discord", userController.LinkDiscord)
		}

		// Enrollment requests, student side
		authenticated.POST("/courses/:id/enrollments", enrollmentController.RequestEnrollment)
		authenticated.GET("/enrollments", enrollmentController.ListMyEnrollments)

		// Course management, tutor side. The founder manages courses too.
		tutorOnly := authenticated.Group("")
		tutorOnly.Use(authMiddleware.RoleRequired(models.RoleTutor, models.RoleFounder))
		{
			tutorOnly.POST("/courses", courseController.CreateCourse)
			tutorOnly.PUT("/courses/:id", courseController.UpdateCourse)
			tutorOnly.DELETE("/courses/:id", courseController.DeleteCourse)
			tutorOnly.POST("/courses/:id/complete", courseController.CompleteCourse)

			tutorOnly.POST("/courses/:id/classes", courseController.AddClass)
			tutorOnly.PUT("/courses/:id/classes/:classId", courseController.UpdateClass)
			tutorOnly.DELETE("/courses/:id/classes/:classId", courseController.DeleteClass)

			tutorOnly.GET("/courses/:id/enrollments", enrollmentController.ListCourseEnrollments)
			tutorOnly.POST("/enrollments/:id/approve", enrollmentController.ApproveEnrollment)
			tutorOnly.POST("/enrollments/:id/reject", enrollmentController.RejectEnrollment)
		}
	}

	// --- Maintenance jobs, shared-secret guarded ---
	jobs := v1.Group("/jobs")
	jobs.Use(middleware.JobAuth(jobSecret))
	{
		jobs.POST("/discord-sync", jobController.DiscordSync)
		jobs.POST("/class-reminders", jobController.ClassReminders)
		jobs.POST("/token-cleanup", jobController.TokenCleanup)
	}
}
