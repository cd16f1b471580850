package feedbackRepo

import "coachly/models"

// FeedbackRepository defines methods for feedback data access.
type FeedbackRepository interface {
	// Create stores feedback for a booking. At most one per booking.
	Create(feedback *models.Feedback) error
	// GetByBooking retrieves feedback for a booking, nil when absent.
	GetByBooking(bookingID string) (*models.Feedback, error)
}
