package repository

import "errors"

var (
	// ErrFlightNotFound and ErrOrderNotFound map sql no-rows results.
	ErrFlightNotFound = errors.New("flight not found")
	ErrOrderNotFound  = errors.New("order not found")

	// ErrSeatOccupied is the unique (flight_id, seat_number) violation.
	ErrSeatOccupied = errors.New("seat is already occupied")

	// ErrFlightFull means the flight already holds SeatsPerFlight orders.
	ErrFlightFull = errors.New("no seats available")

	// ErrFlightUnavailable means the flight status was not OPEN anymore.
	ErrFlightUnavailable = errors.New("flight is not open")

	// ErrTxConflict is a transient serialization/deadlock failure; the
	// caller may retry the operation once.
	ErrTxConflict = errors.New("transaction conflict")
)
