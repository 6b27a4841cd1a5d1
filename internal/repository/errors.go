package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrSeatsUnavailable is returned by ReserveSeats when the ride does not
	// have enough remaining seats for the requested reservation.
	ErrSeatsUnavailable = errors.New("not enough seats available")

	// ErrStatusConflict is returned by guarded status transitions when the
	// ride is not in any of the permitted source states.
	ErrStatusConflict = errors.New("ride status does not permit this transition")
)
