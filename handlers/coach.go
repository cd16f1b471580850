package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"coachly/config"
	bookingRepo "coachly/database/repository/booking"
	clientRepo "coachly/database/repository/client"
	"coachly/models"
	"coachly/services/calendar"
	"coachly/services/notification"
	"coachly/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statsCacheKey holds the rendered stats payload between dashboard loads.
const statsCacheKey = "coach:stats"

// statsCacheTTL bounds how stale the dashboard may get between aggregations.
const statsCacheTTL = 5 * time.Minute

// CoachHandler serves the coach-only surface: upcoming bookings, booking
// cancellation, client notes, and the stats dashboard.
type CoachHandler struct {
	Bookings bookingRepo.BookingRepository
	Clients  clientRepo.ClientRepository
	Gateway  calendar.Gateway
	Notifier notification.NotificationService
	Cache    utils.ByteCache
}

func NewCoachHandler(
	bookings bookingRepo.BookingRepository,
	clients clientRepo.ClientRepository,
	gateway calendar.Gateway,
	notifier notification.NotificationService,
	cache utils.ByteCache,
) *CoachHandler {
	return &CoachHandler{Bookings: bookings, Clients: clients, Gateway: gateway, Notifier: notifier, Cache: cache}
}

// Login exchanges the coach access key for a bearer token.
func (h *CoachHandler) Login(c *gin.Context) {
	var input struct {
		AccessKey string `json:"accessKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	key := config.AppConfig.CoachAccessKey
	if key == "" || input.AccessKey != key {
		utils.JSONError(c, http.StatusUnauthorized, "invalid access key", "")
		return
	}

	token, err := utils.GenerateToken("coach", 12*time.Hour)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to issue token", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListBookings returns confirmed bookings that have not started yet.
func (h *CoachHandler) ListBookings(c *gin.Context) {
	bookings, err := h.Bookings.ListUpcoming(time.Now())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list bookings", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// CancelBooking cancels a confirmed booking: the calendar event goes first,
// then the record flips to cancelled. Deleting an already-gone event is fine,
// so a retry after a partial failure converges.
func (h *CoachHandler) CancelBooking(c *gin.Context) {
	id := c.Param("id")

	bk, err := h.Bookings.GetByID(id)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to look up booking", err.Error())
		return
	}
	if bk == nil {
		utils.JSONError(c, http.StatusNotFound, "booking not found", "")
		return
	}
	if bk.Status != models.BookingStatusConfirmed {
		utils.JSONError(c, http.StatusConflict, "only confirmed bookings can be cancelled", "")
		return
	}

	if bk.CalendarEventID != "" {
		if err := h.Gateway.DeleteEvent(c.Request.Context(), bk.CalendarEventID); err != nil {
			utils.JSONError(c, http.StatusBadGateway, "failed to remove calendar event", err.Error())
			return
		}
	}
	if err := h.Bookings.UpdateStatus(id, models.BookingStatusCancelled); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to update booking", err.Error())
		return
	}

	if err := h.Notifier.NotifyBookingCancelled(c.Request.Context(), *bk); err != nil {
		utils.GetLogger().Warn("cancellation notification failed",
			zap.String("bookingID", bk.ID), zap.Error(err))
	}
	h.invalidateStats(c)

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// AddClientNote attaches a note to a client record.
func (h *CoachHandler) AddClientNote(c *gin.Context) {
	clientID := c.Param("id")
	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	client, err := h.Clients.GetByID(clientID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to look up client", err.Error())
		return
	}
	if client == nil {
		utils.JSONError(c, http.StatusNotFound, "client not found", "")
		return
	}

	note := &models.Note{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Content:   input.Content,
		CreatedBy: c.GetString("coachID"),
		CreatedAt: time.Now(),
	}
	if err := h.Clients.AddNote(note); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to store note", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": note})
}

// GetClientNotes lists a client's notes, newest first.
func (h *CoachHandler) GetClientNotes(c *gin.Context) {
	notes, err := h.Clients.GetNotes(c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list notes", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// Stats returns booking counts by status and session type. The aggregation
// hits every booking document, so the rendered payload is cached for a few
// minutes; coach-side cancellations invalidate it early.
func (h *CoachHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	if h.Cache != nil {
		if data, err := h.Cache.Get(ctx, statsCacheKey); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
			return
		}
	}

	stats, err := h.Bookings.Stats()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to aggregate stats", err.Error())
		return
	}

	if h.Cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := h.Cache.Set(ctx, statsCacheKey, data, statsCacheTTL); err != nil {
				utils.GetLogger().Warn("failed to cache stats", zap.Error(err))
			}
		}
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CoachHandler) invalidateStats(c *gin.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Del(c.Request.Context(), statsCacheKey); err != nil {
		utils.GetLogger().Warn("failed to invalidate stats cache", zap.Error(err))
	}
}
