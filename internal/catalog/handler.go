package catalog

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

// ========================= REQUEST STRUCTS =============================

type CreateServiceRequest struct {
	EntityID                  uint         `json:"entity_id"`
	Name                      string       `json:"name" binding:"required"`
	LocalizedName             string       `json:"localized_name"`
	Category                  string       `json:"category" binding:"required"`
	Description               string       `json:"description"`
	Price                     float64      `json:"price"`
	DurationMinutes           int          `json:"duration_minutes"`
	Capacity                  int          `json:"capacity" binding:"required"`
	Weekdays                  []int        `json:"weekdays" binding:"required"`
	TimeWindows               []TimeWindow `json:"time_windows" binding:"required"`
	MinDevotees               int          `json:"min_devotees"`
	MaxDevotees               int          `json:"max_devotees"`
	RequiresIdentityAttribute bool         `json:"requires_identity_attribute"`
	IdentityAttributeLabel    string       `json:"identity_attribute_label"`
	AdvanceBookingRequired    bool         `json:"advance_booking_required"`
	AdvanceBookingDaysAhead   int          `json:"advance_booking_days_ahead"`
	WalkInAllowed             *bool        `json:"walk_in_allowed"`
	WalkInReservedPercentage  int          `json:"walk_in_reserved_percentage"`
	IsPriority                bool         `json:"is_priority"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return 0, false
	}
	return uint(id), true
}

// CreateService godoc
// @Summary Create a bookable service
// @Tags Services
// @Accept json
// @Produce json
// @Param body body CreateServiceRequest true "service definition"
// @Success 201 {object} ServiceDefinition
// @Failure 400 {object} map[string]string
// @Router /api/v1/services [post]
func (h *Handler) CreateService(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	var input CreateServiceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	walkIn := true
	if input.WalkInAllowed != nil {
		walkIn = *input.WalkInAllowed
	}

	def := ServiceDefinition{
		EntityID:                  accessContext.EntityIDOr(input.EntityID),
		Name:                      input.Name,
		LocalizedName:             input.LocalizedName,
		Category:                  input.Category,
		Description:               input.Description,
		Price:                     input.Price,
		DurationMinutes:           input.DurationMinutes,
		Capacity:                  input.Capacity,
		Weekdays:                  input.Weekdays,
		TimeWindows:               input.TimeWindows,
		MinDevotees:               input.MinDevotees,
		MaxDevotees:               input.MaxDevotees,
		RequiresIdentityAttribute: input.RequiresIdentityAttribute,
		IdentityAttributeLabel:    input.IdentityAttributeLabel,
		AdvanceBookingRequired:    input.AdvanceBookingRequired,
		AdvanceBookingDaysAhead:   input.AdvanceBookingDaysAhead,
		WalkInAllowed:             walkIn,
		WalkInReservedPercentage:  input.WalkInReservedPercentage,
		IsPriority:                input.IsPriority,
	}

	if err := h.service.CreateService(c.Request.Context(), &def, accessContext.UserID); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, def)
}

// UpdateService godoc
// @Summary Patch a service; existing slots keep their snapshot
// @Tags Services
// @Accept json
// @Produce json
// @Param id path int true "service id"
// @Param body body ServicePatch true "fields to change"
// @Success 200 {object} ServiceDefinition
// @Router /api/v1/services/{id} [put]
func (h *Handler) UpdateService(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var patch ServicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	def, err := h.service.UpdateService(c.Request.Context(), id, patch, accessContext.UserID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// DeactivateService godoc
// @Summary Stop generating slots for a service
// @Tags Services
// @Param id path int true "service id"
// @Success 200 {object} map[string]string
// @Router /api/v1/services/{id}/deactivate [post]
func (h *Handler) DeactivateService(c *gin.Context) {
	h.setActive(c, false)
}

// ActivateService godoc
// @Summary Resume slot generation for a service
// @Tags Services
// @Param id path int true "service id"
// @Success 200 {object} map[string]string
// @Router /api/v1/services/{id}/activate [post]
func (h *Handler) ActivateService(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var err error
	if active {
		err = h.service.ActivateService(c.Request.Context(), id, accessContext.UserID)
	} else {
		err = h.service.DeactivateService(c.Request.Context(), id, accessContext.UserID)
	}
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "service updated", "is_active": active})
}

// GetService godoc
// @Summary Get a service
// @Tags Services
// @Produce json
// @Param id path int true "service id"
// @Success 200 {object} ServiceDefinition
// @Failure 404 {object} map[string]string
// @Router /api/v1/services/{id} [get]
func (h *Handler) GetService(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	def, err := h.service.GetService(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// ListActiveServices godoc
// @Summary List active services of the caller's temple
// @Tags Services
// @Produce json
// @Success 200 {array} ServiceDefinition
// @Router /api/v1/services/active [get]
func (h *Handler) ListActiveServices(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}
	defs, err := h.service.ListActiveServices(c.Request.Context(), accessContext.EntityIDOr(0))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, defs)
}

// ListServices godoc
// @Summary List services with filters and pagination
// @Tags Services
// @Produce json
// @Param category query string false "category"
// @Param search query string false "name/code search"
// @Param active query bool false "only active"
// @Param limit query int false "page size"
// @Param page query int false "page"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/services [get]
func (h *Handler) ListServices(c *gin.Context) {
	accessContext, ok := middleware.GetAccessContext(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	filter := ServiceFilter{
		EntityID:   accessContext.EntityIDOr(0),
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		ActiveOnly: c.Query("active") == "true",
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	defs, total, err := h.service.ListServices(c.Request.Context(), filter)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  defs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
