package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"payment-service/cart"
	"payment-service/logging"
	"payment-service/models"
	"payment-service/monitoring"
	"payment-service/queue"
	"payment-service/upstream"
)

// Remote is the set of collaborator calls the payment flow makes.
type Remote interface {
	CheckUser(ctx context.Context, userID string) upstream.Outcome
	Charge(ctx context.Context, c models.Cart) upstream.Outcome
	AppendHistory(ctx context.Context, order models.Order) upstream.Outcome
	DeleteCart(ctx context.Context, userID string) upstream.Outcome
}

// SalesRecorder accumulates metrics for successful sales.
type SalesRecorder interface {
	Record(c models.Cart)
}

// PaymentService charges a cart and commits the resulting order. The steps
// run strictly in sequence; there is no retry and no compensation, so a
// failure after the charge leaves the customer charged.
type PaymentService struct {
	tracer    trace.Tracer
	remote    Remote
	sales     SalesRecorder
	publisher queue.Publisher
	newID     func() string
	observer  Observer
}

type Option func(*PaymentService)

// WithObserver registers a hook called on every state transition.
func WithObserver(o Observer) Option {
	return func(s *PaymentService) { s.observer = o }
}

// WithIDGenerator replaces the order id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *PaymentService) { s.newID = newID }
}

// NewPaymentService creates a new payment service
func NewPaymentService(tracer trace.Tracer, remote Remote, sales SalesRecorder, publisher queue.Publisher, opts ...Option) *PaymentService {
	s := &PaymentService{
		tracer:    tracer,
		remote:    remote,
		sales:     sales,
		publisher: publisher,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// transaction is the per-request state threaded through the steps.
type transaction struct {
	state     State
	userID    string
	payload   []byte
	cart      models.Cart
	anonymous bool
	order     models.Order
	logger    *zap.Logger
}

type step struct {
	to   State
	run  func(ctx context.Context, tx *transaction) error
	skip func(tx *transaction) bool
}

func (s *PaymentService) steps() []step {
	return []step{
		{to: StateUserChecked, run: s.checkUser},
		{to: StateCartValidated, run: s.validateCart},
		{to: StateCharged, run: s.charge},
		{to: StateMetricsRecorded, run: s.recordSale},
		{to: StateOrderQueued, run: s.queueOrder},
		{to: StateHistoryRecorded, run: s.recordHistory, skip: func(tx *transaction) bool { return tx.anonymous }},
		{to: StateCartCleared, run: s.clearCart},
	}
}

// Pay runs the payment transaction for userID with the raw cart payload and
// returns the committed order. Errors are *Failure values.
func (s *PaymentService) Pay(ctx context.Context, userID string, payload []byte) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "pay")
	defer span.End()

	span.SetAttributes(attribute.String("payment.user_id", userID))

	tx := &transaction{
		state:   StateReceived,
		userID:  userID,
		payload: payload,
		logger:  logging.WithTraceContext(span).With(zap.String("user_id", userID)),
	}
	tx.logger.Info("Processing payment")

	for _, st := range s.steps() {
		if st.skip != nil && st.skip(tx) {
			continue
		}
		if err := st.run(ctx, tx); err != nil {
			return nil, s.fail(ctx, span, tx, err)
		}
		s.advance(span, tx, st.to)
	}
	s.advance(span, tx, StateCompleted)

	monitoring.PaymentCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", "success"),
		attribute.String("reason", ""),
	))
	span.SetAttributes(
		attribute.String("payment.order_id", tx.order.ID),
		attribute.String("payment.status", "success"),
	)
	tx.logger.Info("Payment completed")

	order := tx.order
	return &order, nil
}

func (s *PaymentService) advance(span trace.Span, tx *transaction, to State) {
	from := tx.state
	tx.state = to
	span.AddEvent(string(to))
	tx.logger.Debug("Payment state changed", zap.String("from", string(from)), zap.String("to", string(to)))
	if s.observer != nil {
		s.observer(tx.userID, from, to)
	}
}

func (s *PaymentService) fail(ctx context.Context, span trace.Span, tx *transaction, err error) error {
	var f *Failure
	if !errors.As(err, &f) {
		f = &Failure{Kind: KindInternal, Reason: "internal", Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}
	f.State = tx.state
	f.Charged = reached(tx.state, StateCharged)

	s.advance(span, tx, StateFailed)

	monitoring.PaymentCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", "failed"),
		attribute.String("reason", f.Reason),
	))
	span.SetStatus(codes.Error, f.Reason)
	span.SetAttributes(
		attribute.String("payment.status", "failed"),
		attribute.String("payment.failure_reason", f.Reason),
		attribute.Bool("payment.charged", f.Charged),
	)

	fields := []zap.Field{
		zap.String("reason", f.Reason),
		zap.String("kind", f.Kind.String()),
		zap.String("state", string(f.State)),
		zap.Int("status", f.Status),
		zap.Bool("charged", f.Charged),
		zap.Error(err),
	}
	switch {
	case f.Charged:
		// No refund is issued; the charge has to be reconciled by hand.
		tx.logger.Error("Payment failed after charge", fields...)
	case f.Kind == KindClientInput:
		tx.logger.Warn("Payment rejected", fields...)
	default:
		tx.logger.Error("Payment failed", fields...)
	}
	return f
}

// Received -> UserChecked. A user the directory does not answer 200 for pays
// anonymously.
func (s *PaymentService) checkUser(ctx context.Context, tx *transaction) error {
	c, err := cart.Parse(tx.payload)
	if err != nil {
		return clientFailure("invalid_payload", err, cart.ErrInvalidPayload.Error())
	}
	tx.cart = c

	out := s.remote.CheckUser(ctx, tx.userID)
	if !out.Success {
		return transportFailure("user_service", out)
	}
	tx.anonymous = out.StatusCode != http.StatusOK
	tx.logger = tx.logger.With(zap.Bool("anonymous", tx.anonymous))
	return nil
}

// UserChecked -> CartValidated
func (s *PaymentService) validateCart(_ context.Context, tx *transaction) error {
	if err := cart.Validate(tx.cart); err != nil {
		return clientFailure("cart_not_valid", err, cart.ErrCartNotValid.Error())
	}
	return nil
}

// CartValidated -> Charged
func (s *PaymentService) charge(ctx context.Context, tx *transaction) error {
	out := s.remote.Charge(ctx, tx.cart)
	if !out.Success {
		return transportFailure("gateway", out)
	}
	if out.StatusCode != http.StatusOK {
		return statusFailure("payment", out, "payment error")
	}
	return nil
}

// Charged -> MetricsRecorded
func (s *PaymentService) recordSale(_ context.Context, tx *transaction) error {
	s.sales.Record(tx.cart)
	return nil
}

// MetricsRecorded -> OrderQueued. Publish errors do not fail the payment;
// they are logged and counted.
func (s *PaymentService) queueOrder(ctx context.Context, tx *transaction) error {
	tx.order = models.Order{
		ID:     s.newID(),
		UserID: tx.userID,
		Cart:   tx.cart,
	}
	tx.logger = tx.logger.With(zap.String("order_id", tx.order.ID))

	// The customer is charged by now; a client hanging up must not drop the order.
	if err := s.publisher.Publish(context.WithoutCancel(ctx), tx.order); err != nil {
		monitoring.OrderPublishFailures.Add(ctx, 1)
		tx.logger.Error("Failed to queue order", zap.Error(err))
	}
	return nil
}

// OrderQueued -> HistoryRecorded, known users only. The status of a reachable
// user service is not checked.
func (s *PaymentService) recordHistory(ctx context.Context, tx *transaction) error {
	out := s.remote.AppendHistory(ctx, tx.order)
	if !out.Success {
		return transportFailure("history", out)
	}
	return nil
}

// -> CartCleared
func (s *PaymentService) clearCart(ctx context.Context, tx *transaction) error {
	out := s.remote.DeleteCart(ctx, tx.userID)
	if !out.Success {
		return transportFailure("cart_service", out)
	}
	if out.StatusCode != http.StatusOK {
		return statusFailure("cart_delete", out, "cart delete error")
	}
	return nil
}

var stateOrder = []State{
	StateReceived,
	StateUserChecked,
	StateCartValidated,
	StateCharged,
	StateMetricsRecorded,
	StateOrderQueued,
	StateHistoryRecorded,
	StateCartCleared,
	StateCompleted,
}

// reached reports whether state is at or past target in the linear order.
func reached(state, target State) bool {
	for _, s := range stateOrder {
		if s == target {
			return true
		}
		if s == state {
			return false
		}
	}
	return false
}
