package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUserID is returned when a user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidRideID is returned when a ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidBookingID is returned when a booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidOrigin is returned when the origin is missing or too long.
	ErrInvalidOrigin = errors.New("origin must be between 1 and 100 characters")

	// ErrInvalidDestination is returned when the destination is missing or too long.
	ErrInvalidDestination = errors.New("destination must be between 1 and 100 characters")

	// ErrDepartureNotFuture is returned when the departure time is not in the future.
	ErrDepartureNotFuture = errors.New("departure time must be in the future")

	// ErrInvalidSeatCount is returned when a ride's capacity is out of range.
	ErrInvalidSeatCount = errors.New("seats must be between 1 and 8")

	// ErrInvalidPrice is returned when the price is negative.
	ErrInvalidPrice = errors.New("price cannot be negative")

	// ErrInvalidSeatsRequested is returned when a booking requests fewer than one seat.
	ErrInvalidSeatsRequested = errors.New("requested seats must be at least 1")

	// ErrOwnRideBooking is returned when a driver tries to book their own ride.
	ErrOwnRideBooking = errors.New("drivers cannot book their own ride")

	// ErrDuplicateBooking is returned when the user already holds an active booking on the ride.
	ErrDuplicateBooking = errors.New("you already have a booking on this ride")

	// ErrRideNotBookable is returned when the ride has started or ended.
	ErrRideNotBookable = errors.New("ride is not open for booking")

	// ErrRideDeparted is returned when booking a ride past its departure time.
	ErrRideDeparted = errors.New("ride has already departed")

	// ErrRideBusy is returned when the ride's admission lock could not be
	// acquired within the wait budget. Transient; the request can be retried.
	ErrRideBusy = errors.New("ride is busy, please retry")

	// ErrNotRideDriver is returned when a driver-only action is attempted by someone else.
	ErrNotRideDriver = errors.New("only the ride's driver may perform this action")

	// ErrNotBookingOwner is returned when someone else tries to cancel a booking.
	ErrNotBookingOwner = errors.New("only the booking's owner may cancel it")

	// ErrBookingNotCancellable is returned when cancelling after the ride has started or ended.
	ErrBookingNotCancellable = errors.New("booking cannot be cancelled once the ride has started")

	// ErrBookingAlreadyCancelled is returned on a repeated cancellation.
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")

	// ErrRideNotStartable is returned when starting a ride that is not pending or full.
	ErrRideNotStartable = errors.New("ride cannot be started from its current state")

	// ErrRideNotInProgress is returned when an action requires an in-progress ride.
	ErrRideNotInProgress = errors.New("ride is not in progress")

	// ErrRideNotCancellable is returned when cancelling an already completed or cancelled ride.
	ErrRideNotCancellable = errors.New("ride is already completed or cancelled")

	// ErrInvalidCoordinates is returned when latitude or longitude is out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidAlertType is returned when an unknown alert type is submitted.
	ErrInvalidAlertType = errors.New("invalid alert type")

	// ErrInvalidAlertStatus is returned when resolving to a non-terminal status.
	ErrInvalidAlertStatus = errors.New("resolution status must be resolved or false_alarm")

	// ErrAlertAlreadyResolved is returned on a repeated resolution.
	ErrAlertAlreadyResolved = errors.New("alert is already resolved")

	// ErrNotAuthorized is returned when the caller may not act on the entity.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidContact is returned when a trusted contact lacks a name or phone.
	ErrInvalidContact = errors.New("contact name and phone are required")

	// ErrInvalidVerificationCode is returned when the code is not six digits.
	ErrInvalidVerificationCode = errors.New("verification code must be 6 digits")

	// ErrVerificationFailed is returned when no matching unexpired code exists.
	ErrVerificationFailed = errors.New("verification code is invalid or expired")

	// ErrInvalidUsername is returned when a username is empty.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidEmail is returned when an email is empty.
	ErrInvalidEmail = errors.New("invalid email")
)

// SeatsUnavailableError reports a rejected reservation along with how many
// seats the ride still has, so clients can offer the remainder.
type SeatsUnavailableError struct {
	SeatsLeft int
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("Not enough seats available. Only %d seats left.", e.SeatsLeft)
}
