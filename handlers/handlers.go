package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"payment-service/logging"
	"payment-service/models"
	"payment-service/service"
)

// Payer runs a payment transaction.
type Payer interface {
	Pay(ctx context.Context, userID string, payload []byte) (*models.Order, error)
}

// PaymentHandler handles HTTP requests for payments
type PaymentHandler struct {
	paymentService Payer
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService Payer) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Pay handles POST /pay/:id. Failures are answered in plain text.
func (h *PaymentHandler) Pay(c *gin.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContext(ctx)
	userID := c.Param("id")

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid cart payload")
		return
	}

	order, err := h.paymentService.Pay(ctx, userID, payload)
	if err != nil {
		var f *service.Failure
		if !errors.As(err, &f) {
			logging.WithTraceContext(span).Error("Unhandled payment error", zap.Error(err), zap.String("user_id", userID))
		}
		c.String(service.HTTPStatus(err), err.Error())
		return
	}

	span.AddEvent("payment_processed_successfully")
	c.JSON(http.StatusOK, models.PaymentResponse{OrderID: order.ID})
}

// HealthCheck handles health check requests
func (h *PaymentHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
