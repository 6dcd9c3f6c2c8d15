package email

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Domenick1991/flightsales/config"
	"github.com/Domenick1991/flightsales/internal/domain"
	"github.com/Domenick1991/flightsales/internal/kafka"
)

// Sender renders and "delivers" cancellation mails. Real SMTP delivery is out
// of scope; the rendered message is printed the way the mail relay would see it.
type Sender struct {
	cfg config.MailConfig
}

func NewSender(cfg config.MailConfig) *Sender {
	return &Sender{cfg: cfg}
}

func (s *Sender) Send(ctx context.Context, event kafka.OrderEvent) error {
	text := s.cfg.Text
	if event.Status == string(domain.OrderStatusSold) {
		text = s.cfg.RefundText
	}
	subject := strings.ReplaceAll(s.cfg.Subject, "flight_id", strconv.FormatInt(event.FlightID, 10))

	fmt.Printf("mail from=%s to=%s subject=%q body=%q\n", s.cfg.From, event.Email, subject, text)
	return nil
}
