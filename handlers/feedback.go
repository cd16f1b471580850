package handlers

import (
	"net/http"
	"time"

	bookingRepo "coachly/database/repository/booking"
	feedbackRepo "coachly/database/repository/feedback"
	"coachly/models"
	"coachly/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FeedbackHandler accepts post-session ratings from clients.
type FeedbackHandler struct {
	Feedback feedbackRepo.FeedbackRepository
	Bookings bookingRepo.BookingRepository
}

func NewFeedbackHandler(feedback feedbackRepo.FeedbackRepository, bookings bookingRepo.BookingRepository) *FeedbackHandler {
	return &FeedbackHandler{Feedback: feedback, Bookings: bookings}
}

// SubmitFeedback stores a rating for a booking. One rating per booking; a
// second submission is rejected rather than overwritten.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var input struct {
		BookingID string `json:"bookingId" binding:"required"`
		Rating    int    `json:"rating" binding:"required"`
		Comment   string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Rating < 1 || input.Rating > 5 {
		utils.JSONError(c, http.StatusBadRequest, "rating must be between 1 and 5", "")
		return
	}

	bk, err := h.Bookings.GetByID(input.BookingID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to look up booking", err.Error())
		return
	}
	if bk == nil {
		utils.JSONError(c, http.StatusNotFound, "booking not found", "")
		return
	}
	if bk.Status != models.BookingStatusConfirmed && bk.Status != models.BookingStatusCompleted {
		utils.JSONError(c, http.StatusConflict, "booking is not in a ratable state", "")
		return
	}

	existing, err := h.Feedback.GetByBooking(input.BookingID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to check existing feedback", err.Error())
		return
	}
	if existing != nil {
		utils.JSONError(c, http.StatusConflict, "feedback already submitted for this booking", "")
		return
	}

	fb := &models.Feedback{
		ID:        uuid.New().String(),
		BookingID: input.BookingID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}
	if err := h.Feedback.Create(fb); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to store feedback", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": fb})
}
