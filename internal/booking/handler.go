package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/seva-counter-backend/internal/apperrors"
	"github.com/sharath018/seva-counter-backend/middleware"
)

// ReceiptRenderer produces the printable receipt for a reprint.
type ReceiptRenderer interface {
	RenderReceipt(b *Booking) ([]byte, error)
}

type Handler struct {
	service  Service
	slots    SlotReader
	receipts ReceiptRenderer
}

func NewHandler(service Service, slots SlotReader, receipts ReceiptRenderer) *Handler {
	return &Handler{service: service, slots: slots, receipts: receipts}
}

// ========================= REQUEST STRUCTS =============================

type DevoteeRequest struct {
	Name              string `json:"name" binding:"required"`
	Phone             string `json:"phone"`
	IdentityAttribute string `json:"identity_attribute"`
	PartySize         int    `json:"party_size" binding:"required,min=1"`
	IsRegular         bool   `json:"is_regular"`
}

type CreateBookingRequest struct {
	SlotID              uint           `json:"slot_id" binding:"required"`
	ExpectedSlotVersion int            `json:"expected_slot_version" binding:"required,min=1"`
	Devotee             DevoteeRequest `json:"devotee" binding:"required"`
	Payment             *PaymentInput  `json:"payment"`
	BookingType         string         `json:"booking_type" binding:"required,oneof=WALK_IN PRE_BOOKED"`
	CounterID           string         `json:"counter_id"`
	Shift               string         `json:"shift"`
	OverrideReserve     bool           `json:"override_reserve"`
	PriceOverride       *float64       `json:"price_override"`
	OverrideReason      string         `json:"override_reason"`
	RetryOnConflict     bool           `json:"retry_on_conflict"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ReprintRequest struct {
	ApproverID string `json:"approver_id"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return 0, false
	}
	return uint(id), true
}

// resolveCounter prefers the counter bound to the caller's token.
func resolveCounter(c *gin.Context, ac middleware.AccessContext, requested string) (string, bool) {
	if ac.CounterID != "" {
		if requested != "" && requested != ac.CounterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "token is bound to counter " + ac.CounterID})
			return "", false
		}
		return ac.CounterID, true
	}
	if requested == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "counter_id is required"})
		return "", false
	}
	return requested, true
}

// CreateBooking godoc
// @Summary Book one unit of a slot
// @Description Optimistic: expected_slot_version must match the slot. With retry_on_conflict the
// @Description request is retried once against a fresh read of the slot.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param body body CreateBookingRequest true "booking"
// @Success 201 {object} Booking
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 423 {object} map[string]string
// @Router /api/v1/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	counterID, ok := resolveCounter(c, accessContext, req.CounterID)
	if !ok {
		return
	}

	in := CreateInput{
		SlotID:              req.SlotID,
		ExpectedSlotVersion: req.ExpectedSlotVersion,
		Devotee: Devotee{
			Name:              req.Devotee.Name,
			Phone:             req.Devotee.Phone,
			IdentityAttribute: req.Devotee.IdentityAttribute,
			PartySize:         req.Devotee.PartySize,
			IsRegular:         req.Devotee.IsRegular,
		},
		Payment:         req.Payment,
		BookingType:     req.BookingType,
		CounterID:       counterID,
		Shift:           req.Shift,
		UserID:          accessContext.UserID,
		OverrideReserve: req.OverrideReserve,
		PriceOverride:   req.PriceOverride,
		OverrideReason:  req.OverrideReason,
	}

	b, err := h.service.CreateBooking(c.Request.Context(), in)
	if err != nil && req.RetryOnConflict && errors.Is(err, apperrors.ErrConcurrentModification) {
		fresh, readErr := h.slots.GetSlot(c.Request.Context(), req.SlotID)
		if readErr != nil {
			middleware.RespondError(c, readErr)
			return
		}
		in.ExpectedSlotVersion = fresh.Version
		b, err = h.service.CreateBooking(c.Request.Context(), in)
	}
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// GetBooking godoc
// @Summary Get a booking with its audit trail
// @Tags Bookings
// @Produce json
// @Param id path int true "booking id"
// @Success 200 {object} Booking
// @Router /api/v1/bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetAuditTrail godoc
// @Summary Booking state history, oldest first
// @Tags Bookings
// @Produce json
// @Param id path int true "booking id"
// @Success 200 {array} AuditEntry
// @Router /api/v1/bookings/{id}/audit [get]
func (h *Handler) GetAuditTrail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entries, err := h.service.GetAuditTrail(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func filterFromQuery(c *gin.Context) Filter {
	serviceID, _ := strconv.ParseUint(c.Query("service_id"), 10, 32)
	return Filter{
		CounterID:    c.Query("counter_id"),
		BusinessDate: c.Query("business_date"),
		Shift:        c.Query("shift"),
		Status:       c.Query("status"),
		BookingType:  c.Query("booking_type"),
		ServiceID:    uint(serviceID),
		SlotDate:     c.Query("slot_date"),
		Search:       c.Query("search"),
	}
}

// ListBookings godoc
// @Summary Search bookings
// @Tags Bookings
// @Produce json
// @Param counter_id query string false "counter"
// @Param business_date query string false "YYYY-MM-DD"
// @Param shift query string false "shift"
// @Param status query string false "status"
// @Param booking_type query string false "WALK_IN or PRE_BOOKED"
// @Param search query string false "devotee name, phone or receipt number"
// @Param limit query int false "page size"
// @Param page query int false "page"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	filter := filterFromQuery(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	bookings, total, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bookings, "total": total, "page": page, "limit": limit})
}

// StatusCounts godoc
// @Summary Booking counts per status for a dashboard
// @Tags Bookings
// @Produce json
// @Success 200 {object} StatusCounts
// @Router /api/v1/bookings/counts [get]
func (h *Handler) StatusCounts(c *gin.Context) {
	counts, err := h.service.StatusCounts(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// RecordPayment godoc
// @Summary Collect payment for a pending booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path int true "booking id"
// @Param body body PaymentInput true "payment"
// @Success 200 {object} Booking
// @Router /api/v1/bookings/{id}/payment [post]
func (h *Handler) RecordPayment(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	b, err := h.service.RecordPayment(c.Request.Context(), id, in, accessContext.UserID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CompleteService godoc
// @Summary Mark the service rendered
// @Tags Bookings
// @Param id path int true "booking id"
// @Success 200 {object} Booking
// @Router /api/v1/bookings/{id}/complete [post]
func (h *Handler) CompleteService(c *gin.Context) {
	h.simpleTransition(c, h.service.CompleteService)
}

// MarkNoShow godoc
// @Summary Mark a past booking as no-show
// @Tags Bookings
// @Param id path int true "booking id"
// @Success 200 {object} Booking
// @Router /api/v1/bookings/{id}/no-show [post]
func (h *Handler) MarkNoShow(c *gin.Context) {
	h.simpleTransition(c, h.service.MarkNoShow)
}

func (h *Handler) simpleTransition(c *gin.Context, fn func(context.Context, uint, string) (*Booking, error)) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := fn(c.Request.Context(), id, accessContext.UserID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking godoc
// @Summary Cancel a booking before its slot starts; capacity is not released
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path int true "booking id"
// @Param body body CancelRequest true "reason"
// @Success 200 {object} Booking
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), id, req.Reason, accessContext.UserID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ReprintReceipt godoc
// @Summary Reprint a receipt with supervisor approval
// @Description Returns the receipt PDF, or the booking as JSON with ?format=json.
// @Tags Bookings
// @Accept json
// @Produce application/pdf
// @Param id path int true "booking id"
// @Param body body ReprintRequest false "approver; must be the caller, who must be a supervisor or temple admin"
// @Success 200 {file} file
// @Failure 403 {object} map[string]string
// @Router /api/v1/bookings/{id}/reprint [post]
func (h *Handler) ReprintReceipt(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ReprintRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
	}

	// The approver is always the authenticated caller.
	if !accessContext.CanApprove() {
		c.JSON(http.StatusForbidden, gin.H{"error": "reprint must be approved by a supervisor or temple admin"})
		return
	}
	if req.ApproverID != "" && req.ApproverID != accessContext.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "approver_id must match the authenticated user"})
		return
	}
	approverID := accessContext.UserID

	b, err := h.service.ReprintReceipt(c.Request.Context(), id, approverID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	if c.Query("format") == "json" || h.receipts == nil {
		c.JSON(http.StatusOK, b)
		return
	}

	pdf, err := h.receipts.RenderReceipt(b)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	filename := fmt.Sprintf("receipt_%s_%s_%s.pdf", b.CounterID, b.BusinessDate, b.ReceiptNumber)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
