package booking

type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindForbidden
	KindValidation
	KindConflict
	KindAnomaly
)

// Error is a terminal outcome of an operation. Event is the machine-readable
// tag the API boundary puts into the response envelope.
type Error struct {
	Kind  ErrorKind
	Event string
}

func (e *Error) Error() string {
	return e.Event
}

var (
	ErrNoFlight          = &Error{Kind: KindNotFound, Event: "error_no_flight"}
	ErrNoOrder           = &Error{Kind: KindNotFound, Event: "error_no_order"}
	ErrNoRights          = &Error{Kind: KindForbidden, Event: "error_user_has_no_rights"}
	ErrSeatOutOfRange    = &Error{Kind: KindValidation, Event: "error_seat_is_out_of_range"}
	ErrFlightUnavailable = &Error{Kind: KindValidation, Event: "error_flight_unavailable"}
	ErrSeatOccupied      = &Error{Kind: KindConflict, Event: "error_seat_is_occupied"}
	ErrUnableToPerform   = &Error{Kind: KindAnomaly, Event: "unable_to_perform"}
)
