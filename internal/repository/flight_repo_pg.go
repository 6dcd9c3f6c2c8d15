package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightsales/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	// UpdateStatusFromOpen sets the status only when the flight is still
	// OPEN; status changes are one-shot.
	UpdateStatusFromOpen(ctx context.Context, id int64, status domain.FlightStatus) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT id, number, status, created_at, updated_at FROM flights ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.Number, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT id, number, status, created_at, updated_at FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Number, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	return r.db.QueryRow(ctx, `INSERT INTO flights (number, status) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		flight.Number, flight.Status).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
}

func (r *PGFlightRepository) UpdateStatusFromOpen(ctx context.Context, id int64, status domain.FlightStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE flights SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		status, id, domain.FlightStatusOpen)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFlightUnavailable
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
