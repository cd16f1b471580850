package cron

import (
	"time"

	bookingRepo "coachly/database/repository/booking"
	"coachly/models"
	"coachly/utils"

	cronlib "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartSweeper runs the periodic booking sweep in the background: confirmed
// bookings whose slot has ended flip to completed, and records that look
// inconsistent get a reconciliation log line for the operator. Returns the
// scheduler so main can stop it on shutdown.
func StartSweeper(bookings bookingRepo.BookingRepository) *cronlib.Cron {
	c := cronlib.New()
	c.AddFunc("@every 10m", func() { sweep(bookings) })
	c.Start()
	return c
}

func sweep(bookings bookingRepo.BookingRepository) {
	logger := utils.GetLogger()

	ended, err := bookings.ListEndedBefore(time.Now())
	if err != nil {
		logger.Error("sweep: failed to list ended bookings", zap.Error(err))
		return
	}

	completed := 0
	for _, bk := range ended {
		// A confirmed booking without an event reference means a past
		// compensation path went wrong; flag it instead of silently completing.
		if bk.CalendarEventID == "" {
			logger.Warn("sweep: confirmed booking has no calendar event",
				zap.String("bookingID", bk.ID),
				zap.Time("slotStart", bk.Slot.Start),
			)
		}
		if err := bookings.UpdateStatus(bk.ID, models.BookingStatusCompleted); err != nil {
			logger.Error("sweep: failed to complete booking",
				zap.String("bookingID", bk.ID), zap.Error(err))
			continue
		}
		completed++
	}

	if completed > 0 {
		logger.Info("sweep: completed elapsed bookings", zap.Int("count", completed))
	}
}
