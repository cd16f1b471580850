package notification

import (
	"context"

	"coachly/models"
	"coachly/utils"

	"go.uber.org/zap"
)

// LogNotificationService records outcomes to the application log. The chat
// integration consumes the same interface in production; this default keeps
// the lifecycle honest about emitting every outcome without owning delivery.
type LogNotificationService struct{}

func NewLogNotificationService() *LogNotificationService {
	return &LogNotificationService{}
}

func (s *LogNotificationService) NotifyBookingConfirmed(ctx context.Context, booking models.Booking) error {
	utils.GetLogger().Info("booking confirmed",
		zap.String("bookingID", booking.ID),
		zap.String("requesterID", booking.RequesterID),
		zap.String("sessionType", booking.SessionType),
		zap.Time("start", booking.Slot.Start),
	)
	return nil
}

func (s *LogNotificationService) NotifyBookingFailed(ctx context.Context, requesterID, reason string) error {
	utils.GetLogger().Warn("booking failed",
		zap.String("requesterID", requesterID),
		zap.String("reason", reason),
	)
	return nil
}

func (s *LogNotificationService) NotifyBookingCancelled(ctx context.Context, booking models.Booking) error {
	utils.GetLogger().Info("booking cancelled",
		zap.String("bookingID", booking.ID),
		zap.String("requesterID", booking.RequesterID),
	)
	return nil
}
