package routes

import (
	"net/http"
	"time"

	"coachly/handlers"
	"coachly/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/booking")
	{
		bookingGroup.POST("/session", hb.Booking.InitiateSession)
		bookingGroup.PUT("/session/:sessionID/type", hb.Booking.SelectType)
		bookingGroup.PUT("/session/:sessionID/date", hb.Booking.SelectDate)
		bookingGroup.PUT("/session/:sessionID/slot", hb.Booking.SelectSlot)
		bookingGroup.POST("/session/:sessionID/confirm", hb.Booking.ConfirmBooking)
		bookingGroup.DELETE("/session/:sessionID", hb.Booking.CancelSession)
	}
}

// RegisterFeedbackRoutes registers the feedback endpoint.
func RegisterFeedbackRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/feedback", hb.Feedback.SubmitFeedback)
}

// RegisterCoachRoutes sets up the coach-only endpoints.
func RegisterCoachRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	coachGroup := r.Group("/api/coach")
	{
		coachGroup.POST("/login", hb.Coach.Login)

		protected := coachGroup.Group("")
		protected.Use(middleware.CoachAuthMiddleware())
		protected.GET("/bookings", hb.Coach.ListBookings)
		protected.DELETE("/bookings/:id", hb.Coach.CancelBooking)
		protected.POST("/clients/:id/notes", hb.Coach.AddClientNote)
		protected.GET("/clients/:id/notes", hb.Coach.GetClientNotes)
		protected.GET("/stats", hb.Coach.Stats)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Coachly"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterFeedbackRoutes(r, hb)
	RegisterCoachRoutes(r, hb)
}
