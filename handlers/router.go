package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"payment-service/logging"
	"payment-service/monitoring"
)

// NewRouter wires the payment routes, the metrics endpoint and the
// instrumentation middleware into a gin engine.
func NewRouter(serviceName string, paymentHandler *PaymentHandler, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()

	r.Use(gin.CustomRecovery(recoverPanic))
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMetricsMiddleware())
	r.Use(requestLogger())

	r.GET("/health", paymentHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(metricsHandler))
	r.POST("/pay/:id", paymentHandler.Pay)

	return r
}

// recoverPanic answers any panic that escaped a handler with its string form.
func recoverPanic(c *gin.Context, recovered any) {
	logging.Error("Unhandled panic", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
	c.String(http.StatusInternalServerError, fmt.Sprint(recovered))
	c.Abort()
}

// httpMetricsMiddleware records HTTP request metrics
func httpMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Record duration
		duration := float64(time.Since(start).Milliseconds())

		monitoring.HTTPServerDuration.Record(c.Request.Context(), duration,
			metric.WithAttributes(
				attribute.String("http_method", c.Request.Method),
				attribute.String("http_route", c.FullPath()),
				attribute.String("http_status_code", strconv.Itoa(c.Writer.Status())),
			),
		)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.FullPath() == "/health" || c.FullPath() == "/metrics" {
			return
		}
		logging.FromContext(c.Request.Context()).Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
