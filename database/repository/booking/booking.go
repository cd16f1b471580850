package bookingRepo

import (
	"time"

	"coachly/models"
)

// BookingRepository defines methods for booking data access. It carries no
// business logic: conflict detection stays with the calendar, and
// FindBySlot exists for diagnostics only.
type BookingRepository interface {
	// Create inserts a new booking record.
	Create(booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID, nil when absent.
	GetByID(id string) (*models.Booking, error)
	// UpdateStatus moves a booking to the given status.
	UpdateStatus(id string, status string) error
	// FindBySlot looks up a booking occupying the given slot, if any.
	FindBySlot(slot models.Slot) (*models.Booking, error)
	// ListUpcoming returns confirmed bookings starting after the given instant.
	ListUpcoming(after time.Time) ([]models.Booking, error)
	// ListEndedBefore returns confirmed bookings whose slot ended before the
	// given instant; the background sweep marks them completed.
	ListEndedBefore(cutoff time.Time) ([]models.Booking, error)
	// Stats aggregates booking counts by status and session type.
	Stats() (*models.BookingStats, error)
}
