package handlers

import (
	"net/http"
	"time"

	"coachly/services/booking"
	"coachly/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking lifecycle over HTTP. It is glue only:
// every decision lives in the flow service, and each handler maps one
// requester interaction onto one lifecycle step.
type BookingHandler struct {
	Flow booking.FlowService
}

func NewBookingHandler(flow booking.FlowService) *BookingHandler {
	return &BookingHandler{Flow: flow}
}

// InitiateSession starts a new booking session.
func (h *BookingHandler) InitiateSession(c *gin.Context) {
	var input struct {
		RequesterID   string `json:"requesterId" binding:"required"`
		RequesterName string `json:"requesterName"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	resp, err := h.Flow.InitiateSession(c.Request.Context(), input.RequesterID, input.RequesterName)
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SelectType records the session type for a session.
func (h *BookingHandler) SelectType(c *gin.Context) {
	var input struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	resp, err := h.Flow.SelectType(c.Request.Context(), c.Param("sessionID"), input.Type)
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SelectDate records the chosen day and returns the offered slots.
func (h *BookingHandler) SelectDate(c *gin.Context) {
	var input struct {
		Date string `json:"date" binding:"required"` // "2006-01-02"
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	resp, err := h.Flow.SelectDate(c.Request.Context(), c.Param("sessionID"), input.Date)
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SelectSlot records the requester's pick among the offered slots,
// identified by its start time.
func (h *BookingHandler) SelectSlot(c *gin.Context) {
	var input struct {
		Start time.Time `json:"start" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	resp, err := h.Flow.SelectSlot(c.Request.Context(), c.Param("sessionID"), input.Start)
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmBooking runs the reserving step and finalizes the booking.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	resp, err := h.Flow.Confirm(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelSession aborts an in-flight session.
func (h *BookingHandler) CancelSession(c *gin.Context) {
	if err := h.Flow.CancelSession(c.Request.Context(), c.Param("sessionID")); err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// respondFlowError maps lifecycle failure reasons onto HTTP statuses.
func respondFlowError(c *gin.Context, err error) {
	reason := booking.ReasonOf(err)
	if reason == "" {
		utils.JSONError(c, http.StatusInternalServerError, "booking step failed", err.Error())
		return
	}

	var status int
	switch reason {
	case booking.ReasonSessionNotFound:
		status = http.StatusNotFound
	case booking.ReasonInvalidSelection:
		status = http.StatusBadRequest
	case booking.ReasonInvalidTransition, booking.ReasonSlotTaken:
		status = http.StatusConflict
	case booking.ReasonCalendarUnavailable:
		status = http.StatusServiceUnavailable
	case booking.ReasonGatewayPermanent:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	utils.JSONReasonError(c, status, err.Error(), reason, booking.Recoverable(err))
}
