package domain

import "time"

// SeatsPerFlight is the seat capacity of every flight.
const SeatsPerFlight = 150

type OrderStatus string

const (
	OrderStatusReserved OrderStatus = "RESERVED"
	OrderStatusSold     OrderStatus = "SOLD"
)

type Order struct {
	ID         int64
	FlightID   int64
	SeatNumber int
	UserEmail  string
	Status     OrderStatus
	CreatedAt  time.Time
}

func (o *Order) IsReserve() bool {
	return o.Status == OrderStatusReserved
}
