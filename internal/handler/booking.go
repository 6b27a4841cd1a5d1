package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookRideRequest is the HTTP request body for booking seats.
type BookRideRequest struct {
	RideID          string `json:"ride_id"`
	UserID          string `json:"user_id"`
	Seats           int    `json:"seats"`
	SpecialRequests string `json:"special_requests,omitempty"`
	PickupLocation  string `json:"pickup_location,omitempty"`
	DropoffLocation string `json:"dropoff_location,omitempty"`
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID              string `json:"id"`
	RideID          string `json:"ride_id"`
	UserID          string `json:"user_id"`
	Seats           int    `json:"seats"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	SpecialRequests string `json:"special_requests,omitempty"`
	PickupLocation  string `json:"pickup_location,omitempty"`
	DropoffLocation string `json:"dropoff_location,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		RideID:          b.RideID,
		UserID:          b.UserID,
		Seats:           b.Seats,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		SpecialRequests: b.SpecialRequests,
		PickupLocation:  b.PickupLocation,
		DropoffLocation: b.DropoffLocation,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}

// BookRide handles POST /v1/bookings
func (h *BookingHandler) BookRide(c *gin.Context) {
	var req BookRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.BookRide(c.Request.Context(), service.BookRideRequest{
		RideID:          req.RideID,
		UserID:          req.UserID,
		Seats:           req.Seats,
		SpecialRequests: req.SpecialRequests,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// CancelBookingRequest identifies the passenger cancelling.
type CancelBookingRequest struct {
	UserID string `json:"user_id"`
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// ListUserBookings handles GET /v1/users/:id/bookings
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	bookings, err := h.bookingService.ListUserBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	respondJSON(c, http.StatusOK, out)
}
