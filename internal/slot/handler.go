package slot

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/seva-counter-backend/middleware"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type GenerateRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type VersionRequest struct {
	ExpectedVersion int `json:"expected_version" binding:"required,min=1"`
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// GenerateSlots godoc
// @Summary Materialise slots for a service over a date range
// @Tags Slots
// @Accept json
// @Produce json
// @Param id path int true "service id"
// @Param body body GenerateRequest true "inclusive YYYY-MM-DD range"
// @Success 200 {object} GenerationResult
// @Router /api/v1/services/{id}/slots/generate [post]
func (h *Handler) GenerateSlots(c *gin.Context) {
	serviceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	result, err := h.service.GenerateSlots(c.Request.Context(), serviceID, req.From, req.To)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GenerateHorizon godoc
// @Summary Generate the rolling slot horizon for all active services
// @Tags Slots
// @Produce json
// @Success 200 {array} GenerationResult
// @Router /api/v1/slots/horizon [post]
func (h *Handler) GenerateHorizon(c *gin.Context) {
	results, err := h.service.GenerateHorizon(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// ListSlots godoc
// @Summary List a service's slots on a date
// @Tags Slots
// @Produce json
// @Param id path int true "service id"
// @Param date query string true "YYYY-MM-DD"
// @Param available query bool false "exclude FULL and CLOSED"
// @Success 200 {array} Slot
// @Router /api/v1/services/{id}/slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	serviceID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	date := c.Query("date")

	var (
		slots []Slot
		err   error
	)
	if c.Query("available") == "true" {
		slots, err = h.service.ListAvailableSlots(c.Request.Context(), serviceID, date)
	} else {
		slots, err = h.service.ListSlots(c.Request.Context(), serviceID, date)
	}
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GetSlot godoc
// @Summary Get a slot with its live occupancy
// @Tags Slots
// @Produce json
// @Param id path int true "slot id"
// @Success 200 {object} Slot
// @Router /api/v1/slots/{id} [get]
func (h *Handler) GetSlot(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	s, err := h.service.GetSlot(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// CloseSlot godoc
// @Summary Close a slot to further bookings
// @Tags Slots
// @Accept json
// @Produce json
// @Param id path int true "slot id"
// @Param body body VersionRequest true "version last read"
// @Success 200 {object} Slot
// @Router /api/v1/slots/{id}/close [post]
func (h *Handler) CloseSlot(c *gin.Context) {
	h.toggle(c, true)
}

// ReopenSlot godoc
// @Summary Reopen a closed slot
// @Tags Slots
// @Accept json
// @Produce json
// @Param id path int true "slot id"
// @Param body body VersionRequest true "version last read"
// @Success 200 {object} Slot
// @Router /api/v1/slots/{id}/reopen [post]
func (h *Handler) ReopenSlot(c *gin.Context) {
	h.toggle(c, false)
}

func (h *Handler) toggle(c *gin.Context, closed bool) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req VersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var (
		s   *Slot
		err error
	)
	if closed {
		s, err = h.service.CloseSlot(c.Request.Context(), id, req.ExpectedVersion, accessContext.UserID)
	} else {
		s, err = h.service.ReopenSlot(c.Request.Context(), id, req.ExpectedVersion, accessContext.UserID)
	}
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
