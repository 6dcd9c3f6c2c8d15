package domain

import "time"

type FlightStatus string

const (
	// FlightStatusOpen is the default state, sales are running.
	FlightStatusOpen     FlightStatus = ""
	FlightStatusStopped  FlightStatus = "STOPPED"
	FlightStatusCanceled FlightStatus = "CANCELED"
)

type Flight struct {
	ID        int64
	Number    string
	Status    FlightStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
