package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mohamedmahmoud95/scms-api/internal/middleware"
	"github.com/mohamedmahmoud95/scms-api/internal/models"
	"github.com/mohamedmahmoud95/scms-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth               *AuthHandler
	Students           *StudentHandler
	Administrators     *AdministratorHandler
	Courses            *CourseHandler
	Enrollments        *EnrollmentHandler
	Grades             *GradeHandler
	Notifications      *NotificationHandler
	AdminNotifications *AdminNotificationHandler
	Reports            *ReportHandler
}

// RegisterRoutes mounts the API under the given prefix. Students reach their
// own resources through the SELF rule; everything administrative requires the
// ADMIN role.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	admin := string(models.RoleAdmin)
	student := string(models.RoleStudent)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/students/register", h.Students.Register)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.GET("/auth/me", h.Auth.Me)

	students := protected.Group("/students")
	{
		students.GET("", middleware.RBAC(admin), h.Students.List)
		students.GET("/:id", middleware.RBAC(admin, "SELF"), h.Students.Get)
		students.PUT("/:id", middleware.RBAC(admin, "SELF"), h.Students.Update)
		students.DELETE("/:id", middleware.RBAC(admin), h.Students.Delete)
		students.GET("/:id/enrollments", middleware.RBAC(admin, "SELF"), h.Students.Enrollments)
		students.GET("/:id/grades", middleware.RBAC(admin, "SELF"), h.Students.Grades)
		students.GET("/:id/gpa", middleware.RBAC(admin, "SELF"), h.Students.GPA)
		students.GET("/:id/notifications", middleware.RBAC(admin, "SELF"), h.Notifications.ListForStudent)
		students.GET("/:id/notifications/unread-count", middleware.RBAC(admin, "SELF"), h.Notifications.UnreadCount)
		students.PUT("/:id/notifications/read-all", middleware.RBAC(admin, "SELF"), h.Notifications.MarkAllRead)
		students.DELETE("/:id/notifications", middleware.RBAC(admin, "SELF"), h.Notifications.DeleteAllForStudent)
	}

	admins := protected.Group("/admins", middleware.RBAC(admin))
	{
		admins.GET("", h.Administrators.List)
		admins.POST("", h.Administrators.Create)
		admins.GET("/:id", h.Administrators.Get)
		admins.PUT("/:id", h.Administrators.Update)
		admins.DELETE("/:id", h.Administrators.Delete)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", middleware.RBAC(admin, student), h.Courses.List)
		courses.GET("/available", middleware.RBAC(admin, student), h.Courses.Available)
		courses.GET("/full", middleware.RBAC(admin, student), h.Courses.Full)
		courses.GET("/:id", middleware.RBAC(admin, student), h.Courses.Get)
		courses.POST("", middleware.RBAC(admin), h.Courses.Create)
		courses.PUT("/:id", middleware.RBAC(admin), h.Courses.Update)
		courses.DELETE("/:id", middleware.RBAC(admin), h.Courses.Delete)
		courses.GET("/:id/enrollments", middleware.RBAC(admin), h.Courses.Enrollments)
		courses.GET("/:id/grades", middleware.RBAC(admin), h.Courses.Grades)
		courses.GET("/:id/average", middleware.RBAC(admin), h.Courses.Average)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", middleware.RBAC(admin), h.Enrollments.List)
		enrollments.GET("/pending", middleware.RBAC(admin), h.Enrollments.Pending)
		enrollments.GET("/:id", middleware.RBAC(admin), h.Enrollments.Get)
		enrollments.POST("", middleware.RBAC(admin, student), h.Enrollments.Enroll)
		enrollments.PUT("/:id/status", middleware.RBAC(admin), h.Enrollments.UpdateStatus)
		enrollments.POST("/:id/approve", middleware.RBAC(admin), h.Enrollments.Approve)
		enrollments.POST("/:id/reject", middleware.RBAC(admin), h.Enrollments.Reject)
		enrollments.DELETE("/students/:studentId/courses/:courseId", middleware.RBAC(admin, "SELF"), h.Enrollments.Withdraw)
	}

	grades := protected.Group("/grades")
	{
		grades.POST("", middleware.RBAC(admin), h.Grades.Record)
		grades.PUT("/:id", middleware.RBAC(admin), h.Grades.Update)
		grades.DELETE("/:id", middleware.RBAC(admin), h.Grades.Delete)
		grades.GET("/students/:studentId/courses/:courseId", middleware.RBAC(admin, "SELF"), h.Grades.Get)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", middleware.RBAC(admin), h.Notifications.ListAll)
		notifications.PUT("/:id/read", h.Notifications.MarkRead)
		notifications.DELETE("/:id", h.Notifications.Delete)
	}

	adminNotifications := protected.Group("/admin/notifications", middleware.RBAC(admin))
	{
		adminNotifications.GET("", h.AdminNotifications.List)
		adminNotifications.GET("/all", h.AdminNotifications.ListAll)
		adminNotifications.GET("/unread-count", h.AdminNotifications.UnreadCount)
		adminNotifications.PUT("/:id/read", h.AdminNotifications.MarkRead)
		adminNotifications.PUT("/read-all", h.AdminNotifications.MarkAllRead)
	}

	reports := protected.Group("/reports", middleware.RBAC(admin))
	{
		reports.GET("/enrollments", h.Reports.Enrollments)
		reports.GET("/enrollments/export", h.Reports.ExportEnrollments)
		reports.GET("/grades", h.Reports.Grades)
		reports.GET("/grades/export", h.Reports.ExportGrades)
		reports.GET("/students/:id", h.Reports.Student)
		reports.GET("/students/:id/export", h.Reports.ExportStudent)
	}
}
