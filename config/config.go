package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	QueueRabbitMQ = "rabbitmq"
	QueueRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	ServiceName  string
	OTELEndpoint string
	OTELEnabled  bool
	Port         string

	CartHost          string
	UserHost          string
	PaymentGatewayURL string
	PaymentDelay      time.Duration
	UpstreamTimeout   time.Duration

	OrderQueue string
	AMQPHost   string
	RedisURL   string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		ServiceName:       "payment",
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", true),
		Port:              getEnv("SHOP_PAYMENT_PORT", "8080"),
		CartHost:          getEnv("CART_HOST", "cart"),
		UserHost:          getEnv("USER_HOST", "user"),
		PaymentGatewayURL: getEnv("PAYMENT_GATEWAY", "https://paypal.com/"),
		PaymentDelay:      time.Duration(getEnvInt("PAYMENT_DELAY_MS", 0)) * time.Millisecond,
		UpstreamTimeout:   getEnvDuration("UPSTREAM_TIMEOUT", 0),
		OrderQueue:        getEnv("ORDER_QUEUE", QueueRabbitMQ),
		AMQPHost:          getEnv("AMQP_HOST", "rabbitmq"),
		RedisURL:          getEnv("REDIS_URL", "redis://redis:6379/0"),
	}
}

// UserServiceURL is the base URL of the user directory.
func (c *Config) UserServiceURL() string {
	return fmt.Sprintf("http://%s:8080", c.UserHost)
}

// CartServiceURL is the base URL of the cart store.
func (c *Config) CartServiceURL() string {
	return fmt.Sprintf("http://%s:8080", c.CartHost)
}

func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://guest:guest@%s:5672/", c.AMQPHost)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n >= 0 {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d >= 0 {
		return d
	}
	return defaultValue
}
