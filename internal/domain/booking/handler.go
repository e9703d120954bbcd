package booking

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"studiobooking/internal/pkg/response"
	"studiobooking/internal/pkg/validator"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// principalFrom reads the identity set by the JWT middleware.
func principalFrom(c *gin.Context) Principal {
	return Principal{
		UserID: c.GetInt64("user_id"),
		Role:   Role(c.GetString("role")),
	}
}

func parseBookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return uuid.Nil, false
	}
	return id, true
}

// ListBookings godoc
// @Summary List bookings visible to the caller
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ListBookingsResponse
// @Router /bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.service.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ListBookingsResponse{Bookings: bookings, Total: len(bookings)})
}

// GetBooking godoc
// @Summary Get a booking with room and equipment details
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} Details
// @Router /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := parseBookingID(c)
	if !ok {
		return
	}
	details, err := h.service.Get(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, details)
}

// CreateBooking godoc
// @Summary Book a room
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body CreateBookingRequest true "Booking"
// @Success 201 {object} Details
// @Router /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request", errs)
		return
	}

	details, err := h.service.Create(c.Request.Context(), principalFrom(c), req.toInput())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, details)
}

// UpdateBooking godoc
// @Summary Update a booking
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param body body UpdateBookingRequest true "Fields to change"
// @Success 200 {object} Booking
// @Router /bookings/{id} [put]
// @Router /bookings/{id} [patch]
func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := parseBookingID(c)
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking update", errs)
		return
	}

	b, err := h.service.Update(c.Request.Context(), principalFrom(c), id, req.toPatch())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param body body CancelBookingRequest false "Reason"
// @Success 200 {object} Booking
// @Router /bookings/{id}/cancel [patch]
func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := parseBookingID(c)
	if !ok {
		return
	}
	var req CancelBookingRequest
	// Body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid cancellation", errs)
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), principalFrom(c), id, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// DeleteBooking godoc
// @Summary Delete a booking
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} DeleteBookingResponse
// @Router /bookings/{id} [delete]
func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := parseBookingID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), principalFrom(c), id); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, DeleteBookingResponse{
		ID:      id.String(),
		Message: "Booking deleted successfully",
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, ErrStaffNotAssigned):
		response.Error(c, http.StatusForbidden, "STAFF_NOT_ASSIGNED", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", err.Error())
	default:
		_ = c.Error(err)
		h.log.Error("booking request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
