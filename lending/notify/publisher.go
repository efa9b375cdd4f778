package notify

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const (
	DefaultExchange = "lending.events"
	exchangeKind    = "topic"

	defaultMaxAttempts    = 3
	defaultInitialBackoff = 100 * time.Millisecond
	defaultConfirmTimeout = 5 * time.Second
	maxBackoff            = 2 * time.Second

	MetricNotificationsPublished = "notifications_published_total"
	labelEventType               = "event_type"
	labelStatus                  = "status"
	statusPublished              = "published"
	statusFailed                 = "failed"

	logMsgConnected   = "notification publisher connected"
	logMsgRetrying    = "publishing notification failed, retrying"
	logMsgPublished   = "notification published"
	logMsgCloseFailed = "closing notification publisher failed"
	logAttrExchange   = "exchange"
	logAttrRoutingKey = "routing_key"
	logAttrAttempt    = "attempt"
	logAttrEventID    = "event_id"
)

var (
	ErrConnectingBrokerFailed = errors.New("connecting to message broker failed")
	ErrPublishingFailed       = errors.New("publishing notification failed")
	ErrNotAcknowledged        = errors.New("notification not acknowledged by broker")
	ErrConfirmTimeout         = errors.New("timeout waiting for broker confirmation")
	ErrNotInConfirmMode       = errors.New("channel is not in confirm mode")
	ErrPublisherClosed        = errors.New("notification publisher is closed")
)

// Confirmation resolves once the broker acks or nacks one delivery. *amqp.DeferredConfirmation
// implements it.
type Confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// Channel publishes one message and returns the confirmation bound to its delivery tag.
type Channel interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (Confirmation, error)
	Close() error
}

// amqpChannel adapts a confirm-mode *amqp.Channel to Channel.
type amqpChannel struct {
	channel *amqp.Channel
}

func (c amqpChannel) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (Confirmation, error) {
	confirmation, err := c.channel.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}

	if confirmation == nil {
		return nil, ErrNotInConfirmMode
	}

	return confirmation, nil
}

func (c amqpChannel) Close() error {
	return c.channel.Close()
}

// Publisher implements shell.EventPublisher on a RabbitMQ topic exchange with publisher confirms.
type Publisher struct {
	conn           *amqp.Connection
	channel        Channel
	exchange       string
	maxAttempts    int
	initialBackoff time.Duration
	confirmTimeout time.Duration
	logger         shell.Logger
	metrics        shell.MetricsCollector
	now            func() time.Time
}

var _ shell.EventPublisher = Publisher{}

// Option defines a functional option for configuring Publisher.
type Option func(*Publisher)

func WithExchange(exchange string) Option {
	return func(p *Publisher) {
		p.exchange = exchange
	}
}

func WithLogger(logger shell.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(collector shell.MetricsCollector) Option {
	return func(p *Publisher) {
		p.metrics = collector
	}
}

// WithRetry sets the number of publish attempts and the first backoff delay.
func WithRetry(maxAttempts int, initialBackoff time.Duration) Option {
	return func(p *Publisher) {
		p.maxAttempts = max(1, maxAttempts)
		p.initialBackoff = initialBackoff
	}
}

func WithConfirmTimeout(timeout time.Duration) Option {
	return func(p *Publisher) {
		p.confirmTimeout = timeout
	}
}

// Dial connects to the broker, declares the durable topic exchange and switches the channel
// into confirm mode.
func Dial(url string, opts ...Option) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return Publisher{}, errors.Join(ErrConnectingBrokerFailed, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return Publisher{}, errors.Join(ErrConnectingBrokerFailed, err)
	}

	p := newPublisher(opts...)

	if err := channel.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return Publisher{}, errors.Join(ErrConnectingBrokerFailed, err)
	}

	if err := channel.Confirm(false); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return Publisher{}, errors.Join(ErrConnectingBrokerFailed, err)
	}

	p.conn = conn
	p.channel = amqpChannel{channel: channel}

	if p.logger != nil {
		p.logger.Info(logMsgConnected, logAttrExchange, p.exchange)
	}

	return p, nil
}

// NewPublisher wraps a channel which is already in confirm mode.
func NewPublisher(channel Channel, opts ...Option) Publisher {
	p := newPublisher(opts...)
	p.channel = channel

	return p
}

func newPublisher(opts ...Option) Publisher {
	p := Publisher{
		exchange:       DefaultExchange,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		confirmTimeout: defaultConfirmTimeout,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// Publish sends the envelope and waits for the broker's confirmation, retrying with exponential
// backoff. Each attempt waits only for the confirmation of its own delivery, so a late ack of an
// earlier attempt can never be taken for a later one.
func (p Publisher) Publish(ctx context.Context, envelope shell.EventEnvelope) error {
	publishing, err := BuildPublishing(envelope, p.now())
	if err != nil {
		return err
	}

	routingKey := RoutingKey(envelope)

	if p.channel == nil {
		return ErrPublisherClosed
	}

	backoff := p.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return errors.Join(ErrPublishingFailed, ctx.Err())
			case <-time.After(backoff):
				backoff = min(2*backoff, maxBackoff)
			}
		}

		lastErr = p.publishOnce(ctx, routingKey, publishing)
		if lastErr == nil {
			p.record(publishing.Type, statusPublished)

			if p.logger != nil {
				p.logger.Debug(logMsgPublished, logAttrRoutingKey, routingKey, logAttrEventID, publishing.MessageId)
			}

			return nil
		}

		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			break
		}

		if p.logger != nil {
			p.logger.Warn(logMsgRetrying, logAttrRoutingKey, routingKey, logAttrAttempt, attempt, shell.LogAttrError, lastErr.Error())
		}
	}

	p.record(publishing.Type, statusFailed)

	return errors.Join(ErrPublishingFailed, lastErr)
}

func (p Publisher) publishOnce(ctx context.Context, routingKey string, publishing amqp.Publishing) error {
	confirmation, err := p.channel.Publish(ctx, p.exchange, routingKey, publishing)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return ErrConfirmTimeout
		}

		return err
	}

	if !acked {
		return ErrNotAcknowledged
	}

	return nil
}

func (p Publisher) record(eventType string, status string) {
	if p.metrics != nil {
		p.metrics.IncrementCounter(MetricNotificationsPublished, map[string]string{
			labelEventType: eventType,
			labelStatus:    status,
		})
	}
}

// IsHealthy reports whether the broker connection is open. A publisher built on a plain
// channel is always healthy.
func (p Publisher) IsHealthy() bool {
	return p.conn == nil || !p.conn.IsClosed()
}

// Close closes the channel and the connection.
func (p Publisher) Close() error {
	var errs []error

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil && p.logger != nil {
		p.logger.Error(logMsgCloseFailed, shell.LogAttrError, err.Error())
	}

	return err
}
