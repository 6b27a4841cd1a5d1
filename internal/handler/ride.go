package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService     *service.RideService
	locationService *service.LocationService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, locationService *service.LocationService) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		locationService: locationService,
	}
}

// CreateRideRequest is the HTTP request body for publishing a ride.
type CreateRideRequest struct {
	DriverID          string  `json:"driver_id"`
	Origin            string  `json:"origin"`
	Destination       string  `json:"destination"`
	DepartureTime     string  `json:"departure_time"` // RFC 3339
	Seats             int     `json:"seats"`
	Price             float64 `json:"price"`
	CarModel          string  `json:"car_model,omitempty"`
	CarColor          string  `json:"car_color,omitempty"`
	LicensePlate      string  `json:"license_plate,omitempty"`
	Preferences       string  `json:"preferences,omitempty"`
	RouteDetails      string  `json:"route_details,omitempty"`
	EstimatedDuration string  `json:"estimated_duration,omitempty"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID                string  `json:"id"`
	DriverID          string  `json:"driver_id"`
	Origin            string  `json:"origin"`
	Destination       string  `json:"destination"`
	DepartureTime     string  `json:"departure_time"`
	SeatsTotal        int     `json:"seats_total"`
	SeatsAvailable    int     `json:"seats_available"`
	Status            string  `json:"status"`
	Price             float64 `json:"price"`
	CarModel          string  `json:"car_model,omitempty"`
	CarColor          string  `json:"car_color,omitempty"`
	LicensePlate      string  `json:"license_plate,omitempty"`
	Preferences       string  `json:"preferences,omitempty"`
	RouteDetails      string  `json:"route_details,omitempty"`
	EstimatedDuration string  `json:"estimated_duration,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	return RideResponse{
		ID:                ride.ID,
		DriverID:          ride.DriverID,
		Origin:            ride.Origin,
		Destination:       ride.Destination,
		DepartureTime:     ride.DepartureTime.Format(time.RFC3339),
		SeatsTotal:        ride.SeatsTotal,
		SeatsAvailable:    ride.SeatsAvailable,
		Status:            string(ride.Status),
		Price:             ride.Price,
		CarModel:          ride.CarModel,
		CarColor:          ride.CarColor,
		LicensePlate:      ride.LicensePlate,
		Preferences:       ride.Preferences,
		RouteDetails:      ride.RouteDetails,
		EstimatedDuration: ride.EstimatedDuration,
		CreatedAt:         ride.CreatedAt.Format(time.RFC3339),
	}
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "departure_time must be RFC 3339"})
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		DriverID:          req.DriverID,
		Origin:            req.Origin,
		Destination:       req.Destination,
		DepartureTime:     departure,
		Seats:             req.Seats,
		Price:             req.Price,
		CarModel:          req.CarModel,
		CarColor:          req.CarColor,
		LicensePlate:      req.LicensePlate,
		Preferences:       req.Preferences,
		RouteDetails:      req.RouteDetails,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// ListRides handles GET /v1/rides
func (h *RideHandler) ListRides(c *gin.Context) {
	rides, err := h.rideService.ListRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		out = append(out, toRideResponse(ride))
	}
	respondJSON(c, http.StatusOK, out)
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// LocationResponse is the HTTP representation of a position snapshot.
type LocationResponse struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	ReporterID string  `json:"reporter_id"`
	UpdatedAt  string  `json:"updated_at"`
}

func toLocationResponse(loc *redis.RideLocation) *LocationResponse {
	if loc == nil {
		return nil
	}
	return &LocationResponse{
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		ReporterID: loc.ReporterID,
		UpdatedAt:  loc.UpdatedAt.Format(time.RFC3339),
	}
}

// RideDetailsResponse is the HTTP response for the details endpoint.
type RideDetailsResponse struct {
	Ride       RideResponse      `json:"ride"`
	Bookings   []BookingResponse `json:"bookings"`
	Passengers int               `json:"passengers"`
	Location   *LocationResponse `json:"location,omitempty"`
}

// GetRideDetails handles GET /v1/rides/:id/details
func (h *RideHandler) GetRideDetails(c *gin.Context) {
	details, err := h.rideService.GetRideDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	bookings := make([]BookingResponse, 0, len(details.Bookings))
	for _, b := range details.Bookings {
		bookings = append(bookings, toBookingResponse(b))
	}

	respondJSON(c, http.StatusOK, RideDetailsResponse{
		Ride:       toRideResponse(details.Ride),
		Bookings:   bookings,
		Passengers: details.Passengers,
		Location:   toLocationResponse(details.Location),
	})
}

// DriverActionRequest identifies the driver performing a lifecycle action.
type DriverActionRequest struct {
	DriverID string `json:"driver_id"`
}

// StartRide handles POST /v1/rides/:id/start
func (h *RideHandler) StartRide(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.StartRide(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CompleteRide(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// ReportLocationRequest is the HTTP request body for a position report.
type ReportLocationRequest struct {
	ReporterID string  `json:"reporter_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// ReportLocation handles POST /v1/rides/:id/location
func (h *RideHandler) ReportLocation(c *gin.Context) {
	var req ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	loc, err := h.locationService.ReportLocation(c.Request.Context(), service.ReportLocationRequest{
		RideID:     c.Param("id"),
		ReporterID: req.ReporterID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLocationResponse(loc))
}

// GetLocation handles GET /v1/rides/:id/location
func (h *RideHandler) GetLocation(c *gin.Context) {
	loc, err := h.locationService.GetRideLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if loc == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no location reported yet"})
		return
	}

	respondJSON(c, http.StatusOK, toLocationResponse(loc))
}
