package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightsales/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByFlight(ctx context.Context, flightID int64) ([]domain.Order, error)
	GetByFlightAndSeat(ctx context.Context, flightID int64, seat int) (*domain.Order, error)
	CountByFlight(ctx context.Context, flightID int64) (int, error)
	// Create inserts the order inside one transaction that re-checks the
	// flight status and the seat-count cap, so two concurrent requests for
	// the same seat (or the last free seat) cannot both succeed.
	Create(ctx context.Context, order *domain.Order) error
	Remove(ctx context.Context, id int64) error
}

type PGOrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PGOrderRepository{db: db}
}

func (r *PGOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT id, flight_id, seat_number, user_email, status, created_at FROM orders WHERE id=$1`, id)
	return scanOrder(row)
}

func (r *PGOrderRepository) GetByFlight(ctx context.Context, flightID int64) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, seat_number, user_email, status, created_at FROM orders WHERE flight_id=$1 ORDER BY seat_number LIMIT $2`,
		flightID, domain.SeatsPerFlight)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.FlightID, &o.SeatNumber, &o.UserEmail, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PGOrderRepository) GetByFlightAndSeat(ctx context.Context, flightID int64, seat int) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT id, flight_id, seat_number, user_email, status, created_at FROM orders WHERE flight_id=$1 AND seat_number=$2`,
		flightID, seat)
	return scanOrder(row)
}

func (r *PGOrderRepository) CountByFlight(ctx context.Context, flightID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE flight_id=$1`, flightID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PGOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Locking the flight row serializes writers on the same flight, which
	// keeps the seat-count check below race-free.
	var status domain.FlightStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM flights WHERE id=$1 FOR UPDATE`, order.FlightID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrFlightNotFound
		}
		return mapPgError(err)
	}
	if status != domain.FlightStatusOpen {
		return ErrFlightUnavailable
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM orders WHERE flight_id=$1`, order.FlightID).Scan(&count); err != nil {
		return mapPgError(err)
	}
	if count >= domain.SeatsPerFlight {
		return ErrFlightFull
	}

	if err := tx.QueryRow(ctx, `INSERT INTO orders (flight_id, seat_number, user_email, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		order.FlightID, order.SeatNumber, order.UserEmail, order.Status).
		Scan(&order.ID, &order.CreatedAt); err != nil {
		return mapPgError(err)
	}

	return tx.Commit(ctx)
}

func (r *PGOrderRepository) Remove(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.FlightID, &o.SeatNumber, &o.UserEmail, &o.Status, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation on (flight_id, seat_number)
			return ErrSeatOccupied
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return ErrTxConflict
		}
	}
	return err
}

var _ OrderRepository = (*PGOrderRepository)(nil)
