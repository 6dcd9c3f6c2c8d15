package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightsales/api"
	"github.com/Domenick1991/flightsales/config"
	"github.com/Domenick1991/flightsales/internal/service/booking"
	"github.com/Domenick1991/flightsales/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, flightSvc flights.FlightUseCase) error {
	router := NewRouter(cfg, bookingSvc, flightSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, bookingSvc booking.BookingUseCase, flightSvc flights.FlightUseCase) *gin.Engine {
	router := gin.Default()

	orderHandler := api.NewOrderHandler(bookingSvc, api.AllowAll{}, cfg.Booking.SecretKey)
	orderHandler.Register(router.Group("/api/v1/callback/events"))

	flightHandler := api.NewFlightHandler(flightSvc)
	flightHandler.Register(router.Group("/api/v1/flights"))

	return router
}
