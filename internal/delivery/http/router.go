package http

import (
	"SkillMarket/internal/delivery/http/controllers"
	"SkillMarket/internal/delivery/http/controllers/auth"
	"SkillMarket/internal/delivery/http/controllers/course"
	"SkillMarket/internal/delivery/http/controllers/middleware"
	"SkillMarket/internal/models"
	"SkillMarket/internal/service"
	"SkillMarket/pkg/logger"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitRoutes(l logger.Log, u service.Collection) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	config := cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	r.Use(cors.New(config))

	statusController := controllers.NewStatusHandler()
	authController := auth.NewAuthHandler(l, u.AuthService)
	authMw := middleware.NewAuthMiddlewareProvider(l, u.AuthService)
	queryController := course.NewQueryHandler(l, u.CourseQueries)
	enrollmentController := course.NewEnrollmentHandler(l, u.Enrollments)

	v1 := r.Group("/v1", middleware.LoggingMiddleware(l))
	{
		v1.GET("/status", statusController.Status)

		v1.GET("/me", authMw.AuthMiddleware, authController.Me)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authController.Login)
			authGroup.POST("/register", authController.Register)
			authGroup.POST("/refresh", authController.Refresh)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", queryController.ListCoursePreview)
			courses.GET("/:course_id/preview", queryController.CourseByID)

			client := courses.Group("", authMw.AuthMiddleware, middleware.RequireRoles(models.ClientRole))
			{
				client.POST("/:course_id/enroll", enrollmentController.EnrollCourse)
				client.POST("/:course_id/verify-payment", enrollmentController.VerifyPayment)
				client.GET("/enrollments", queryController.GetEnrolledCourses)
			}
		}
	}
	return r
}
