package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightsales/internal/domain"
	"github.com/Domenick1991/flightsales/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// StatusUnableToPerform reports a committed write that yielded no id.
const StatusUnableToPerform = 520

type Authorizer interface {
	IsGranted(c *gin.Context) bool
}

// AllowAll grants every request; real rights checking lives upstream.
type AllowAll struct{}

func (AllowAll) IsGranted(*gin.Context) bool { return true }

type OrderHandler struct {
	service   booking.BookingUseCase
	auth      Authorizer
	secretKey string
}

func NewOrderHandler(service booking.BookingUseCase, auth Authorizer, secretKey string) *OrderHandler {
	return &OrderHandler{service: service, auth: auth, secretKey: secretKey}
}

func (h *OrderHandler) Register(router *gin.RouterGroup) {
	router.POST("/flight/:flight/seat/:seat/reserve", h.reserve)
	router.POST("/flight/:flight/seat/:seat/buy", h.buy)
	router.POST("/order/:order/cancel", h.cancelReserve)
	router.POST("/order/:order/refund", h.refund)
	router.POST("/flight/:flight/status/:status", h.setFlightStatus)
	router.POST("/fill", h.fill)
}

func (h *OrderHandler) reserve(c *gin.Context) {
	h.processOrder(c, booking.IntentReserve)
}

func (h *OrderHandler) buy(c *gin.Context) {
	h.processOrder(c, booking.IntentBuy)
}

func (h *OrderHandler) processOrder(c *gin.Context, intent booking.Intent) {
	flightID, err := strconv.ParseInt(c.Param("flight"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight id"})
		return
	}
	// Digits only, like the route itself; a signed value never reaches
	// the engine.
	seat, err := strconv.Atoi(c.Param("seat"))
	if err != nil || seat < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seat number"})
		return
	}

	res, err := h.service.ReserveOrBuy(c.Request.Context(), booking.ReserveOrBuyInput{
		FlightID:   flightID,
		SeatNumber: seat,
		Intent:     intent,
		Authorized: h.auth.IsGranted(c),
	})
	if err != nil {
		h.fail(c, err, gin.H{"flight_id": flightID, "seat_number": seat})
		return
	}
	c.JSON(http.StatusOK, h.envelope(res))
}

func (h *OrderHandler) cancelReserve(c *gin.Context) {
	h.cancelOrder(c, booking.ModeCancelReservation)
}

func (h *OrderHandler) refund(c *gin.Context) {
	h.cancelOrder(c, booking.ModeRefund)
}

func (h *OrderHandler) cancelOrder(c *gin.Context, mode booking.CancelMode) {
	orderID, err := strconv.ParseInt(c.Param("order"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	res, err := h.service.CancelOrRefund(c.Request.Context(), booking.CancelOrRefundInput{
		OrderID:    orderID,
		Mode:       mode,
		Authorized: h.auth.IsGranted(c),
	})
	if err != nil {
		h.fail(c, err, gin.H{"order_id": orderID})
		return
	}
	c.JSON(http.StatusOK, h.envelope(res))
}

func (h *OrderHandler) setFlightStatus(c *gin.Context) {
	flightID, err := strconv.ParseInt(c.Param("flight"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight id"})
		return
	}
	var target domain.FlightStatus
	switch c.Param("status") {
	case "S":
		target = domain.FlightStatusStopped
	case "C":
		target = domain.FlightStatusCanceled
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	res, err := h.service.SetFlightStatus(c.Request.Context(), booking.SetFlightStatusInput{
		FlightID:   flightID,
		Target:     target,
		Authorized: h.auth.IsGranted(c),
	})
	if err != nil {
		h.fail(c, err, gin.H{"flight_id": flightID})
		return
	}
	c.JSON(http.StatusOK, h.envelope(res))
}

func (h *OrderHandler) fill(c *gin.Context) {
	res, err := h.service.FillBase(c.Request.Context())
	if err != nil {
		h.fail(c, err, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.envelope(res))
}

func (h *OrderHandler) envelope(res *booking.Result) gin.H {
	data := gin.H{
		"event":        res.Event,
		"triggered_at": res.TriggeredAt.Unix(),
		"secret_key":   h.secretKey,
	}
	if res.FlightID != 0 {
		data["flight_id"] = res.FlightID
	}
	if res.SeatNumber != 0 {
		data["seat_number"] = res.SeatNumber
	}
	if res.OrderID != 0 {
		data["order_id"] = res.OrderID
	}
	if res.Notified != nil {
		data["notified"] = res.Notified
	}
	if !res.FinishedAt.IsZero() {
		data["finished_at"] = res.FinishedAt.Unix()
	}
	if len(res.Warnings) > 0 {
		data["warnings"] = res.Warnings
	}
	return gin.H{"data": data}
}

func (h *OrderHandler) fail(c *gin.Context, err error, fields gin.H) {
	var engineErr *booking.Error
	if !errors.As(err, &engineErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data := gin.H{
		"event":        engineErr.Event,
		"triggered_at": time.Now().Unix(),
		"secret_key":   h.secretKey,
	}
	for k, v := range fields {
		data[k] = v
	}
	c.JSON(httpStatus(engineErr.Kind), gin.H{"data": data})
}

func httpStatus(kind booking.ErrorKind) int {
	switch kind {
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindForbidden:
		return http.StatusForbidden
	case booking.KindValidation, booking.KindConflict:
		return http.StatusBadRequest
	case booking.KindAnomaly:
		return StatusUnableToPerform
	}
	return http.StatusInternalServerError
}
