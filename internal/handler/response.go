package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/repository"
	"carpool/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var seatsErr *service.SeatsUnavailableError
	if errors.As(err, &seatsErr) {
		return http.StatusConflict
	}

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidOrigin),
		errors.Is(err, service.ErrInvalidDestination),
		errors.Is(err, service.ErrDepartureNotFuture),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidSeatsRequested),
		errors.Is(err, service.ErrInvalidCoordinates),
		errors.Is(err, service.ErrInvalidAlertType),
		errors.Is(err, service.ErrInvalidAlertStatus),
		errors.Is(err, service.ErrInvalidContact),
		errors.Is(err, service.ErrInvalidVerificationCode),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrDuplicateBooking),
		errors.Is(err, service.ErrRideNotBookable),
		errors.Is(err, service.ErrRideDeparted),
		errors.Is(err, service.ErrOwnRideBooking),
		errors.Is(err, service.ErrBookingNotCancellable),
		errors.Is(err, service.ErrBookingAlreadyCancelled),
		errors.Is(err, service.ErrRideNotStartable),
		errors.Is(err, service.ErrRideNotInProgress),
		errors.Is(err, service.ErrRideNotCancellable),
		errors.Is(err, service.ErrAlertAlreadyResolved),
		errors.Is(err, service.ErrVerificationFailed):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotRideDriver),
		errors.Is(err, service.ErrNotBookingOwner),
		errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden

	// Transient contention
	case errors.Is(err, service.ErrRideBusy):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
