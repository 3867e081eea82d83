package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"payment-service/config"
	"payment-service/handlers"
	"payment-service/logging"
	"payment-service/monitoring"
	"payment-service/queue"
	"payment-service/service"
	"payment-service/upstream"
)

type closingPublisher interface {
	queue.Publisher
	Close() error
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	if err := logging.InitLogger(cfg.ServiceName, cfg.OTELEndpoint, cfg.OTELEnabled); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logging.Sync()
	defer func() {
		if err := logging.Shutdown(context.Background()); err != nil {
			logging.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	// Initialize OpenTelemetry
	tp, tracer, err := monitoring.InitTracer(cfg.ServiceName, cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		logging.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logging.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mp, _, err := monitoring.InitMeter(cfg.ServiceName, cfg.OTELEndpoint, reg, cfg.OTELEnabled)
	if err != nil {
		logging.Fatal("Failed to initialize meter", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logging.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	sales, err := monitoring.NewSalesMetrics(reg)
	if err != nil {
		logging.Fatal("Failed to register sales metrics", zap.Error(err))
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		logging.Fatal("Failed to initialize order queue", zap.Error(err), zap.String("queue", cfg.OrderQueue))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error("Error closing order queue", zap.Error(err))
		}
	}()

	// Initialize service layer
	remote := upstream.NewServices(
		upstream.NewClient(cfg.UpstreamTimeout),
		cfg.UserServiceURL(),
		cfg.CartServiceURL(),
		cfg.PaymentGatewayURL,
	)
	paymentService := service.NewPaymentService(tracer, remote, sales, queue.NewDelayed(publisher, cfg.PaymentDelay))

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	router := handlers.NewRouter(cfg.ServiceName, paymentHandler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info("Payment service starting",
			zap.String("port", cfg.Port),
			zap.String("gateway", cfg.PaymentGatewayURL),
			zap.String("queue", cfg.OrderQueue),
			zap.Duration("payment_delay", cfg.PaymentDelay),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", zap.Error(err))
	} else {
		logging.Info("Payment service stopped")
	}
}

func newPublisher(cfg *config.Config) (closingPublisher, error) {
	switch cfg.OrderQueue {
	case config.QueueRedis:
		return queue.NewRedisPublisher(cfg.RedisURL)
	default:
		return queue.NewAMQPPublisher(cfg.AMQPURL()), nil
	}
}
