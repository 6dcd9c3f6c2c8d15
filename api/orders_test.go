package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/flightsales/internal/domain"
	"github.com/Domenick1991/flightsales/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) ReserveOrBuy(ctx context.Context, input booking.ReserveOrBuyInput) (*booking.Result, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Result), args.Error(1)
}

func (m *MockBookingUseCase) CancelOrRefund(ctx context.Context, input booking.CancelOrRefundInput) (*booking.Result, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Result), args.Error(1)
}

func (m *MockBookingUseCase) SetFlightStatus(ctx context.Context, input booking.SetFlightStatusInput) (*booking.Result, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Result), args.Error(1)
}

func (m *MockBookingUseCase) FillBase(ctx context.Context) (*booking.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Result), args.Error(1)
}

type envelope struct {
	Data map[string]interface{} `json:"data"`
}

func TestOrderHandler_reserve(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "a1b2c3d4e5f6a1b2c3d4e5f6")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "flight", Value: "1"}, {Key: "seat", Value: "10"}}
	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/flight/1/seat/10/reserve", nil)

	result := &booking.Result{
		Event:       "flight_ticket_reserve_completed",
		FlightID:    1,
		SeatNumber:  10,
		OrderID:     42,
		TriggeredAt: time.Now(),
	}
	mockService.On("ReserveOrBuy", c.Request.Context(), booking.ReserveOrBuyInput{
		FlightID:   1,
		SeatNumber: 10,
		Intent:     booking.IntentReserve,
		Authorized: true,
	}).Return(result, nil)

	handler.reserve(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response envelope
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "flight_ticket_reserve_completed", response.Data["event"])
	assert.Equal(t, float64(42), response.Data["order_id"])
	assert.Equal(t, "a1b2c3d4e5f6a1b2c3d4e5f6", response.Data["secret_key"])

	mockService.AssertExpectations(t)
}

func TestOrderHandler_buy_seatOccupied(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "secret")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "flight", Value: "1"}, {Key: "seat", Value: "5"}}
	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/flight/1/seat/5/buy", nil)

	mockService.On("ReserveOrBuy", c.Request.Context(), mock.Anything).Return(nil, booking.ErrSeatOccupied)

	handler.buy(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response envelope
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "error_seat_is_occupied", response.Data["event"])
	assert.Equal(t, float64(1), response.Data["flight_id"])
	assert.Equal(t, float64(5), response.Data["seat_number"])
}

func TestOrderHandler_errorStatusMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "no flight", err: booking.ErrNoFlight, wantStatus: http.StatusNotFound},
		{name: "no rights", err: booking.ErrNoRights, wantStatus: http.StatusForbidden},
		{name: "seat out of range", err: booking.ErrSeatOutOfRange, wantStatus: http.StatusBadRequest},
		{name: "anomaly", err: booking.ErrUnableToPerform, wantStatus: StatusUnableToPerform},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			handler := NewOrderHandler(mockService, AllowAll{}, "secret")

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			c.Params = gin.Params{{Key: "flight", Value: "1"}, {Key: "seat", Value: "10"}}
			c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/flight/1/seat/10/reserve", nil)

			mockService.On("ReserveOrBuy", c.Request.Context(), mock.Anything).Return(nil, tc.err)

			handler.reserve(c)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestOrderHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "secret")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "order", Value: "5"}}
	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/order/5/cancel", nil)

	result := &booking.Result{
		Event:       "fligth_ticket_reservation_cancel_complete",
		OrderID:     5,
		FlightID:    1,
		SeatNumber:  3,
		TriggeredAt: time.Now(),
	}
	mockService.On("CancelOrRefund", c.Request.Context(), booking.CancelOrRefundInput{
		OrderID:    5,
		Mode:       booking.ModeCancelReservation,
		Authorized: true,
	}).Return(result, nil)

	handler.cancelReserve(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response envelope
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "fligth_ticket_reservation_cancel_complete", response.Data["event"])

	mockService.AssertExpectations(t)
}

func TestOrderHandler_refund_noOrder(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "secret")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "order", Value: "77"}}
	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/order/77/refund", nil)

	mockService.On("CancelOrRefund", c.Request.Context(), mock.Anything).Return(nil, booking.ErrNoOrder)

	handler.refund(c)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response envelope
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "error_no_order", response.Data["event"])
	assert.Equal(t, float64(77), response.Data["order_id"])
}

func TestOrderHandler_setFlightStatus_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "secret")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "flight", Value: "1"}, {Key: "status", Value: "C"}}
	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/flight/1/status/C", nil)

	result := &booking.Result{
		Event:       "flight_canceled",
		FlightID:    1,
		TriggeredAt: time.Now(),
		FinishedAt:  time.Now(),
		Notified: []booking.NotifiedOrder{
			{OrderID: 1, UserEmail: "mail101@postbox.com"},
			{OrderID: 2, UserEmail: "mail102@postbox.com"},
		},
	}
	mockService.On("SetFlightStatus", c.Request.Context(), booking.SetFlightStatusInput{
		FlightID:   1,
		Target:     domain.FlightStatusCanceled,
		Authorized: true,
	}).Return(result, nil)

	handler.setFlightStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response envelope
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "flight_canceled", response.Data["event"])
	assert.Len(t, response.Data["notified"], 2)
	assert.NotNil(t, response.Data["finished_at"])

	mockService.AssertExpectations(t)
}

func TestOrderHandler_setFlightStatus_invalidStatus(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "secret")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "flight", Value: "1"}, {Key: "status", Value: "X"}}
	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/flight/1/status/X", nil)

	handler.setFlightStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "SetFlightStatus", mock.Anything, mock.Anything)
}

func TestOrderHandler_invalidFlightID(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "secret")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "flight", Value: "abc"}, {Key: "seat", Value: "10"}}
	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/flight/abc/seat/10/reserve", nil)

	handler.reserve(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ReserveOrBuy", mock.Anything, mock.Anything)
}

func TestOrderHandler_negativeSeat(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "secret")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "flight", Value: "1"}, {Key: "seat", Value: "-5"}}
	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/flight/1/seat/-5/reserve", nil)

	handler.reserve(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ReserveOrBuy", mock.Anything, mock.Anything)
}

func TestOrderHandler_fill(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewOrderHandler(mockService, AllowAll{}, "secret")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("POST", "/api/v1/callback/events/fill", nil)

	result := &booking.Result{Event: "completed", TriggeredAt: time.Now()}
	mockService.On("FillBase", c.Request.Context()).Return(result, nil)

	handler.fill(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response envelope
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "completed", response.Data["event"])

	mockService.AssertExpectations(t)
}
