package routes

import (
	"time"

	"petcare/handlers"
	"petcare/middleware"
	"petcare/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes registers unauthenticated endpoints.
func RegisterPublicRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/health", handlers.HealthHandler)
	api.GET("/service-types", hb.ServiceType.ListServiceTypes)
	api.GET("/service-types/:id", hb.ServiceType.GetServiceType)
}

// RegisterUserRoutes registers pet owner endpoints.
func RegisterUserRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	user := api.Group("/user")
	user.Use(middleware.JWTAuthMiddleware(models.RoleUser))
	{
		user.POST("/bookings", hb.Booking.CreateBooking)
		user.POST("/bookings/quote", hb.Booking.QuotePrice)
		user.GET("/bookings", hb.Booking.ListBookings)
		user.GET("/bookings/:id", hb.Booking.GetBooking)
		user.GET("/bookings/:id/timeline", hb.Booking.Timeline)
		user.GET("/bookings/:id/stream", hb.Booking.Stream)
		user.POST("/bookings/:id/cancel", hb.Booking.CancelBooking)
		user.POST("/bookings/:id/verify-handover", hb.Booking.VerifyHandover)
		user.POST("/bookings/:id/review", hb.Booking.SubmitReview)
	}
}

// RegisterManagerRoutes registers store staff endpoints. Admins may use them too.
func RegisterManagerRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	manager := api.Group("/manager")
	manager.Use(middleware.JWTAuthMiddleware(models.RoleManager, models.RoleAdmin))
	{
		manager.GET("/bookings", hb.Booking.ListBookings)
		manager.GET("/bookings/today", hb.Booking.TodaySchedule)
		manager.GET("/bookings/:id", hb.Booking.GetBooking)
		manager.GET("/bookings/:id/timeline", hb.Booking.Timeline)
		manager.POST("/bookings/:id/dropoff-otp", hb.Booking.GenerateOTP(models.HandoverDropOff))
		manager.POST("/bookings/:id/dropoff-verify", hb.Booking.VerifyOTP(models.HandoverDropOff))
		manager.POST("/bookings/:id/pickup-otp", hb.Booking.GenerateOTP(models.HandoverPickup))
		manager.POST("/bookings/:id/pickup-verify", hb.Booking.VerifyOTP(models.HandoverPickup))
		manager.POST("/bookings/:id/activities", hb.Booking.AddActivity)
		manager.POST("/bookings/:id/caregivers", hb.Booking.AssignCaregiver)
		manager.DELETE("/bookings/:id/caregivers/:caregiverId", hb.Booking.RemoveCaregiver)
		manager.POST("/bookings/:id/cancel", hb.Booking.CancelBooking)

		manager.GET("/caregivers", hb.Caregiver.ListCaregivers)
		manager.GET("/caregivers/available", hb.Caregiver.ListAvailable)
		manager.GET("/caregivers/:id", hb.Caregiver.GetCaregiver)
		manager.POST("/caregivers", hb.Caregiver.CreateCaregiver)
		manager.PUT("/caregivers/:id", hb.Caregiver.UpdateCaregiver)
		manager.PUT("/caregivers/:id/availability", hb.Caregiver.UpdateAvailability)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(models.RoleAdmin))
	{
		admin.GET("/bookings", hb.Booking.ListBookings)
		admin.GET("/bookings/:id", hb.Booking.GetBooking)
		admin.PUT("/bookings/:id/status", hb.Booking.UpdateStatus)
		admin.POST("/bookings/:id/caregivers", hb.Booking.AssignCaregiver)
		admin.DELETE("/bookings/:id/caregivers/:caregiverId", hb.Booking.RemoveCaregiver)
		admin.POST("/bookings/:id/payments", hb.Booking.RecordPayment)
		admin.POST("/bookings/:id/refund", hb.Booking.ProcessRefund)

		admin.GET("/caregivers", hb.Caregiver.ListCaregivers)
		admin.POST("/caregivers", hb.Caregiver.CreateCaregiver)
		admin.PUT("/caregivers/:id", hb.Caregiver.UpdateCaregiver)
		admin.PUT("/caregivers/:id/availability", hb.Caregiver.UpdateAvailability)
		admin.DELETE("/caregivers/:id", hb.Caregiver.DeleteCaregiver)

		admin.POST("/service-types", hb.ServiceType.CreateServiceType)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	RegisterPublicRoutes(api, hb)
	RegisterUserRoutes(api, hb)
	RegisterManagerRoutes(api, hb)
	RegisterAdminRoutes(api, hb)
}
