package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/Domenick1991/flightsales/internal/domain"
	"github.com/Domenick1991/flightsales/internal/kafka"
	"github.com/Domenick1991/flightsales/internal/repository"
	"github.com/google/uuid"
)

type Intent string

const (
	IntentReserve Intent = "reserve"
	IntentBuy     Intent = "buy"
)

type CancelMode string

const (
	ModeCancelReservation CancelMode = "cancel"
	ModeRefund            CancelMode = "refund"
)

type BookingUseCase interface {
	ReserveOrBuy(ctx context.Context, input ReserveOrBuyInput) (*Result, error)
	CancelOrRefund(ctx context.Context, input CancelOrRefundInput) (*Result, error)
	SetFlightStatus(ctx context.Context, input SetFlightStatusInput) (*Result, error)
	FillBase(ctx context.Context) (*Result, error)
}

type ReserveOrBuyInput struct {
	FlightID   int64
	SeatNumber int
	Intent     Intent
	Authorized bool
}

type CancelOrRefundInput struct {
	OrderID    int64
	Mode       CancelMode
	Authorized bool
}

type SetFlightStatusInput struct {
	FlightID   int64
	Target     domain.FlightStatus
	Authorized bool
}

// NotifiedOrder is one entry of the flight-cancellation cascade result.
type NotifiedOrder struct {
	OrderID   int64  `json:"order_id"`
	UserEmail string `json:"user_email"`
}

// Result is the success payload of every engine operation. Inert business
// outcomes (flight already canceled, order not a reservation, flight full)
// are Results too, distinguished only by their Event tag.
type Result struct {
	Event       string
	FlightID    int64
	SeatNumber  int
	OrderID     int64
	TriggeredAt time.Time
	Notified    []NotifiedOrder
	FinishedAt  time.Time
	Warnings    []string
}

type Notifier interface {
	Send(ctx context.Context, email string, status domain.OrderStatus, flightID int64) error
}

type RefundProcessor interface {
	Refund(ctx context.Context, order *domain.Order) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type BookingService struct {
	orders      repository.OrderRepository
	flights     repository.FlightRepository
	notifier    Notifier
	refunds     RefundProcessor
	cache       Cache
	producer    Producer
	ordersTopic string
}

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithProducer(producer Producer, ordersTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.ordersTopic = ordersTopic
	}
}

func NewBookingService(
	orders repository.OrderRepository,
	flights repository.FlightRepository,
	notifier Notifier,
	refunds RefundProcessor,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		orders:   orders,
		flights:  flights,
		notifier: notifier,
		refunds:  refunds,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ReserveOrBuy places a RESERVED or SOLD order on a seat. The seat-count cap
// and the seat uniqueness are re-checked by the repository inside one
// transaction, so of two concurrent requests for the same seat exactly one
// wins and the other gets ErrSeatOccupied.
func (s *BookingService) ReserveOrBuy(ctx context.Context, input ReserveOrBuyInput) (*Result, error) {
	res := &Result{
		FlightID:    input.FlightID,
		SeatNumber:  input.SeatNumber,
		TriggeredAt: time.Now(),
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return nil, ErrNoFlight
		}
		return nil, err
	}
	if !input.Authorized {
		return nil, ErrNoRights
	}
	if input.SeatNumber < 1 || input.SeatNumber > domain.SeatsPerFlight {
		return nil, ErrSeatOutOfRange
	}
	if flight.Status == domain.FlightStatusCanceled {
		res.Event = "flight_canceled"
		return res, nil
	}
	if flight.Status == domain.FlightStatusStopped {
		res.Event = "flight_ticket_sells_stopped"
		return res, nil
	}

	count, err := s.orders.CountByFlight(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if count >= domain.SeatsPerFlight {
		res.Event = fmt.Sprintf("no_seats_available%d", count)
		return res, nil
	}

	existing, err := s.orders.GetByFlightAndSeat(ctx, input.FlightID, input.SeatNumber)
	if err != nil && !errors.Is(err, repository.ErrOrderNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSeatOccupied
	}

	order := &domain.Order{
		FlightID:   input.FlightID,
		SeatNumber: input.SeatNumber,
		UserEmail:  stubUserEmail(),
		Status:     domain.OrderStatusReserved,
	}
	event := "flight_ticket_reserve_completed"
	if input.Intent == IntentBuy {
		order.Status = domain.OrderStatusSold
		event = "flight_ticket_sale_completed"
	}

	if err := s.createOnce(ctx, order); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatOccupied), errors.Is(err, repository.ErrTxConflict):
			return nil, ErrSeatOccupied
		case errors.Is(err, repository.ErrFlightFull):
			res.Event = fmt.Sprintf("no_seats_available%d", domain.SeatsPerFlight)
			return res, nil
		case errors.Is(err, repository.ErrFlightUnavailable):
			// The flight status flipped between the read above and the
			// insert; report the same inert outcome a fresh read would.
			return s.inertFlightResult(ctx, res)
		case errors.Is(err, repository.ErrFlightNotFound):
			return nil, ErrNoFlight
		default:
			return nil, err
		}
	}
	if order.ID == 0 {
		return nil, ErrUnableToPerform
	}

	res.OrderID = order.ID
	res.Event = event
	s.publish(ctx, event, order)
	return res, nil
}

// createOnce retries a single time on a transient serialization failure.
func (s *BookingService) createOnce(ctx context.Context, order *domain.Order) error {
	err := s.orders.Create(ctx, order)
	if errors.Is(err, repository.ErrTxConflict) {
		err = s.orders.Create(ctx, order)
	}
	return err
}

func (s *BookingService) inertFlightResult(ctx context.Context, res *Result) (*Result, error) {
	flight, err := s.flights.GetByID(ctx, res.FlightID)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return nil, ErrNoFlight
		}
		return nil, err
	}
	if flight.Status == domain.FlightStatusCanceled {
		res.Event = "flight_canceled"
	} else {
		res.Event = "flight_ticket_sells_stopped"
	}
	return res, nil
}

// CancelOrRefund resolves a single order. A reservation can only be canceled,
// a sold ticket can only be refunded; the mismatched combination is inert.
func (s *BookingService) CancelOrRefund(ctx context.Context, input CancelOrRefundInput) (*Result, error) {
	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrNoOrder
		}
		return nil, err
	}
	if !input.Authorized {
		return nil, ErrNoRights
	}

	res := &Result{
		OrderID:     order.ID,
		FlightID:    order.FlightID,
		SeatNumber:  order.SeatNumber,
		TriggeredAt: time.Now(),
	}

	switch input.Mode {
	case ModeCancelReservation:
		if !order.IsReserve() {
			res.Event = "is_not_reserve"
			return res, nil
		}
		if err := s.removeOrder(ctx, order.ID); err != nil {
			return nil, err
		}
		res.Event = "fligth_ticket_reservation_cancel_complete"
		s.publish(ctx, "reservation_canceled", order)
	case ModeRefund:
		if order.IsReserve() {
			res.Event = "is_reserve"
			return res, nil
		}
		if err := s.refunds.Refund(ctx, order); err != nil {
			log.Printf("WARNING: refund failed for order %d: %v", order.ID, err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("refund failed for order %d", order.ID))
		}
		if err := s.removeOrder(ctx, order.ID); err != nil {
			return nil, err
		}
		res.Event = "fligth_ticket_refund_complete"
		s.publish(ctx, "ticket_refunded", order)
	default:
		return nil, fmt.Errorf("unknown cancel mode %q", input.Mode)
	}

	return res, nil
}

// removeOrder maps a lost double-cancel race to the not-found outcome.
func (s *BookingService) removeOrder(ctx context.Context, id int64) error {
	if err := s.orders.Remove(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrNoOrder
		}
		return err
	}
	return nil
}

// SetFlightStatus performs the one-shot OPEN -> STOPPED/CANCELED transition.
// Cancellation additionally resolves every order on the flight: refund when
// sold, notify, remove. Each order is its own unit of work; a failed order is
// skipped and the cascade keeps going.
func (s *BookingService) SetFlightStatus(ctx context.Context, input SetFlightStatusInput) (*Result, error) {
	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return nil, ErrNoFlight
		}
		return nil, err
	}
	if !input.Authorized {
		return nil, ErrNoRights
	}
	if flight.Status != domain.FlightStatusOpen {
		return nil, ErrFlightUnavailable
	}

	if err := s.flights.UpdateStatusFromOpen(ctx, flight.ID, input.Target); err != nil {
		if errors.Is(err, repository.ErrFlightUnavailable) {
			return nil, ErrFlightUnavailable
		}
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}

	res := &Result{
		FlightID:    flight.ID,
		TriggeredAt: time.Now(),
	}

	if input.Target == domain.FlightStatusCanceled {
		res.Event = "flight_canceled"
		res.Notified = make([]NotifiedOrder, 0)
		orders, err := s.orders.GetByFlight(ctx, flight.ID)
		if err != nil {
			// The status change is already committed; report it and leave
			// the unresolved orders to a retry.
			log.Printf("WARNING: listing orders of canceled flight %d: %v", flight.ID, err)
			res.Warnings = append(res.Warnings, "orders of the canceled flight could not be listed")
			res.FinishedAt = time.Now()
			return res, nil
		}
		for i := range orders {
			order := &orders[i]
			if !order.IsReserve() {
				if err := s.refunds.Refund(ctx, order); err != nil {
					log.Printf("WARNING: refund failed for order %d: %v", order.ID, err)
					res.Warnings = append(res.Warnings, fmt.Sprintf("refund failed for order %d", order.ID))
				}
			}
			if s.notifier != nil {
				if err := s.notifier.Send(ctx, order.UserEmail, order.Status, flight.ID); err != nil {
					log.Printf("WARNING: notify failed for order %d: %v", order.ID, err)
					res.Warnings = append(res.Warnings, fmt.Sprintf("notify failed for order %d", order.ID))
				}
			}
			if err := s.orders.Remove(ctx, order.ID); err != nil && !errors.Is(err, repository.ErrOrderNotFound) {
				log.Printf("WARNING: removing order %d of canceled flight %d: %v", order.ID, flight.ID, err)
				res.Warnings = append(res.Warnings, fmt.Sprintf("order %d was not removed", order.ID))
				continue
			}
			res.Notified = append(res.Notified, NotifiedOrder{OrderID: order.ID, UserEmail: order.UserEmail})
		}
	} else {
		res.Event = "flight_ticket_sales_stopped"
	}

	res.FinishedAt = time.Now()
	return res, nil
}

// FillBase seeds the database with demo flights and orders.
func (s *BookingService) FillBase(ctx context.Context) (*Result, error) {
	for i := 0; i < 15; i++ {
		flight := &domain.Flight{Number: fmt.Sprintf("FLV%d", 100+rand.Intn(900))}
		if err := s.flights.Create(ctx, flight); err != nil {
			return nil, err
		}
		seats := domain.SeatsPerFlight - 30 + rand.Intn(41)
		for seat := 1; seat < seats && seat <= domain.SeatsPerFlight; seat++ {
			status := domain.OrderStatusReserved
			if rand.Intn(2) == 1 {
				status = domain.OrderStatusSold
			}
			order := &domain.Order{
				FlightID:   flight.ID,
				SeatNumber: seat,
				UserEmail:  stubUserEmail(),
				Status:     status,
			}
			if err := s.orders.Create(ctx, order); err != nil {
				return nil, err
			}
		}
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
	return &Result{Event: "completed", TriggeredAt: time.Now()}, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if s.producer == nil || s.ordersTopic == "" {
		return
	}
	event := kafka.OrderEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		OrderID:     order.ID,
		FlightID:    order.FlightID,
		SeatNumber:  order.SeatNumber,
		Email:       order.UserEmail,
		Status:      string(order.Status),
		TriggeredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.ordersTopic, event.ID, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for order %d: %v", eventType, order.ID, err)
	}
}

// stubUserEmail fills in the purchaser identity; real user accounts are out
// of scope.
func stubUserEmail() string {
	return fmt.Sprintf("mail%d@postbox.com", 100+rand.Intn(900))
}

var _ BookingUseCase = (*BookingService)(nil)
