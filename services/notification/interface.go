package notification

import (
	"context"

	"coachly/models"
)

// NotificationService is the boundary to the chat/notification layer. The
// lifecycle emits outcomes through it; rendering and transport live outside
// this system.
type NotificationService interface {
	NotifyBookingConfirmed(ctx context.Context, booking models.Booking) error
	NotifyBookingFailed(ctx context.Context, requesterID, reason string) error
	NotifyBookingCancelled(ctx context.Context, booking models.Booking) error
}
