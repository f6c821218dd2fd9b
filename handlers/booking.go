package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"petcare/middleware"
	"petcare/models"
	"petcare/services/booking"
	"petcare/services/notification"
	"petcare/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler serves the booking endpoints of every role.
type BookingHandler struct {
	Service booking.BookingService
	Hub     *notification.Hub
}

func NewBookingHandler(svc booking.BookingService, hub *notification.Hub) *BookingHandler {
	return &BookingHandler{Service: svc, Hub: hub}
}

func actor(c *gin.Context) models.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req booking.CreateBookingInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.Service.CreateBooking(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Booking created successfully", b)
}

func (h *BookingHandler) QuotePrice(c *gin.Context) {
	var req booking.QuoteInput
	if !bindJSON(c, &req) {
		return
	}
	pricing, err := h.Service.QuotePrice(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", pricing)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", b)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	in := booking.ListBookingsInput{
		OwnerID:     c.Query("ownerId"),
		StoreID:     c.Query("storeId"),
		PetID:       c.Query("petId"),
		CaregiverID: c.Query("caregiverId"),
	}
	if raw := c.Query("status"); raw != "" {
		in.Statuses = strings.Split(raw, ",")
	}
	fields := map[string]string{}
	for key, dst := range map[string]**time.Time{"from": &in.From, "to": &in.To} {
		if raw := c.Query(key); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				fields[key] = key + " must be an RFC3339 timestamp"
				continue
			}
			*dst = &t
		}
	}
	in.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	in.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if len(fields) > 0 {
		respondError(c, booking.FieldErrors(fields))
		return
	}

	list, total, err := h.Service.ListBookings(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	utils.SuccessWithMeta(c, "", list, utils.NewMeta(in.Page, in.Limit, total))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.Service.UpdateStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Booking status updated successfully", b)
}

type assignRequest struct {
	CaregiverID string               `json:"caregiverId" binding:"required"`
	Role        models.CaregiverRole `json:"role"`
}

func (h *BookingHandler) AssignCaregiver(c *gin.Context) {
	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RolePrimary
	}
	b, err := h.Service.AssignCaregiver(c.Request.Context(), actor(c), c.Param("id"), req.CaregiverID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Caregiver assigned successfully", b)
}

func (h *BookingHandler) RemoveCaregiver(c *gin.Context) {
	b, err := h.Service.RemoveCaregiver(c.Request.Context(), actor(c), c.Param("id"), c.Param("caregiverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Caregiver removed successfully", b)
}

func (h *BookingHandler) RecordPayment(c *gin.Context) {
	var req booking.PaymentInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.Service.RecordPayment(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Payment recorded successfully", b)
}

func (h *BookingHandler) AddActivity(c *gin.Context) {
	var req booking.ActivityInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.Service.AddActivity(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Activity added successfully", b)
}

// GenerateOTP issues the drop-off or pickup code.
func (h *BookingHandler) GenerateOTP(kind models.HandoverKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		issued, err := h.Service.GenerateHandoverOTP(c.Request.Context(), actor(c), c.Param("id"), kind)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "OTP generated successfully", issued)
	}
}

type verifyRequest struct {
	OTP   string `json:"otp" binding:"required"`
	Notes string `json:"notes"`
}

// VerifyOTP confirms the drop-off or pickup code and moves the booking on.
func (h *BookingHandler) VerifyOTP(kind models.HandoverKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyRequest
		if !bindJSON(c, &req) {
			return
		}
		h.verify(c, kind, req.OTP, req.Notes)
	}
}

func (h *BookingHandler) verify(c *gin.Context, kind models.HandoverKind, otp, notes string) {
	b, err := h.Service.VerifyHandoverOTP(c.Request.Context(), actor(c), c.Param("id"), kind, otp, notes)
	if err != nil {
		respondError(c, err)
		return
	}
	message := "Drop-off verified successfully"
	if kind == models.HandoverPickup {
		message = "Pickup verified successfully"
	}
	utils.Success(c, http.StatusOK, message, b)
}

type verifyHandoverRequest struct {
	Type  string `json:"type" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
	Notes string `json:"notes"`
}

// VerifyHandover lets the owner enter the code themselves. The handover type comes from the body.
func (h *BookingHandler) VerifyHandover(c *gin.Context) {
	var req verifyHandoverRequest
	if !bindJSON(c, &req) {
		return
	}
	kind, err := models.ParseHandoverKind(req.Type)
	if err != nil {
		respondError(c, booking.FieldErrors(map[string]string{"type": "type must be dropOff or pickup"}))
		return
	}
	h.verify(c, kind, req.OTP, req.Notes)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req cancelRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.Service.CancelBooking(c.Request.Context(), actor(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Booking cancelled successfully", b)
}

// TodaySchedule returns the day's check-ins, check-outs and stays for the actor's store.
func (h *BookingHandler) TodaySchedule(c *gin.Context) {
	day, err := h.Service.TodaySchedule(c.Request.Context(), actor(c), c.Query("storeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Schedule retrieved successfully", day)
}

type refundRequest struct {
	Amount *float64 `json:"amount"`
}

func (h *BookingHandler) ProcessRefund(c *gin.Context) {
	var req refundRequest
	// An empty body means "refund the computed amount".
	if !bindOptionalJSON(c, &req) {
		return
	}
	b, err := h.Service.ProcessRefund(c.Request.Context(), actor(c), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Refund processed successfully", b)
}

func (h *BookingHandler) SubmitReview(c *gin.Context) {
	var req booking.ReviewInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.Service.SubmitReview(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Review submitted successfully", b)
}

func (h *BookingHandler) Timeline(c *gin.Context) {
	entries, err := h.Service.Timeline(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "", entries)
}

// Stream upgrades to a websocket that receives this booking's events.
func (h *BookingHandler) Stream(c *gin.Context) {
	a := actor(c)
	b, err := h.Service.GetBooking(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	conn, err := notification.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		getLogger(c).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.Hub.ServeWS(conn, a.ID, []string{notification.BookingRoom(b.ID)})
}
