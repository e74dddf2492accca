// Package publisher ships checkout outcomes to Kafka. Outcomes are queued in
// memory and written by a background loop, so a slow broker never holds up a
// shopper's checkout.
package publisher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
)

var (
	ErrOutboxFull   = errors.New("checkout outbox is full")
	ErrOutboxClosed = errors.New("checkout outbox is closed")
)

const (
	EventCheckoutSucceeded = "checkout.succeeded"
	EventCheckoutFailed    = "checkout.failed"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the message value written to the topic.
type Event struct {
	ID         string                 `json:"event_id"`
	Type       string                 `json:"event_type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Outcome    domain.CheckoutOutcome `json:"outcome"`
}

type Options struct {
	// Capacity bounds both the intake queue and the events held back while
	// the broker is unreachable.
	Capacity     int
	BatchSize    int
	RetryTick    time.Duration
	WriteTimeout time.Duration
}

type Outbox struct {
	writer messageWriter
	opts   Options
	log    logrus.FieldLogger
	queue  chan kafka.Message

	closeMu sync.RWMutex
	closed  bool

	// pending is only modified by Run; mu guards it for Pending.
	mu      sync.Mutex
	pending []kafka.Message
	dropped int
}

func NewKafkaOutbox(brokers []string, topic string, opts Options, log logrus.FieldLogger) *Outbox {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newOutbox(w, opts, log)
}

func newOutbox(w messageWriter, opts Options, log logrus.FieldLogger) *Outbox {
	if opts.Capacity <= 0 {
		opts.Capacity = 1024
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.RetryTick <= 0 {
		opts.RetryTick = time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Outbox{
		writer: w,
		opts:   opts,
		log:    log,
		queue:  make(chan kafka.Message, opts.Capacity),
	}
}

// CheckoutFinished queues the outcome. It never blocks on the broker.
func (o *Outbox) CheckoutFinished(ctx context.Context, outcome domain.CheckoutOutcome) error {
	msg, err := newMessage(outcome)
	if err != nil {
		return err
	}

	o.closeMu.RLock()
	defer o.closeMu.RUnlock()
	if o.closed {
		logger.FromContext(ctx, o.log).WithField("order_id", outcome.OrderID).Warn("checkout outbox closed, dropping outcome")
		return ErrOutboxClosed
	}
	select {
	case o.queue <- msg:
		return nil
	default:
		logger.FromContext(ctx, o.log).WithField("order_id", outcome.OrderID).Warn("checkout outbox full, dropping outcome")
		return ErrOutboxFull
	}
}

func newMessage(outcome domain.CheckoutOutcome) (kafka.Message, error) {
	eventType := EventCheckoutFailed
	if outcome.Status == domain.PaymentStatusSucceeded {
		eventType = EventCheckoutSucceeded
	}
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: outcome.At,
		Outcome:    outcome,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "failed to marshal checkout event")
	}

	key := outcome.OrderID
	if key == "" {
		key = outcome.SessionID
	}
	return kafka.Message{
		Key:   []byte(key), // order id keeps one attempt's events ordered
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}, nil
}

// Run drains the queue until ctx is done, retrying failed writes on every
// tick. Once ctx is done the outbox refuses new outcomes, flushes what it
// holds and closes the writer. Cancel ctx only after the producers stopped.
func (o *Outbox) Run(ctx context.Context) {
	retry := time.NewTicker(o.opts.RetryTick)
	defer retry.Stop()

	for {
		select {
		case msg := <-o.queue:
			o.add(msg)
			o.drainQueue()
			o.publishPending(ctx)
		case <-retry.C:
			o.publishPending(ctx)
		case <-ctx.Done():
			o.closeMu.Lock()
			o.closed = true
			o.closeMu.Unlock()

			o.drainQueue()
			o.publishPending(context.Background())
			if n := o.Pending(); n > 0 {
				o.log.WithField("pending", n).Warn("checkout events lost on shutdown")
			}
			if err := o.writer.Close(); err != nil {
				o.log.WithError(err).Warn("failed to close kafka writer")
			}
			return
		}
	}
}

// add holds msg for publishing, dropping the oldest held event when the
// broker has been away long enough to fill Capacity.
func (o *Outbox) add(msg kafka.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) >= o.opts.Capacity {
		o.pending = o.pending[1:]
		o.dropped++
		o.log.WithField("dropped", o.dropped).Warn("checkout outbox backlog full, dropped oldest event")
	}
	o.pending = append(o.pending, msg)
}

func (o *Outbox) drainQueue() {
	for {
		select {
		case msg := <-o.queue:
			o.add(msg)
		default:
			return
		}
	}
}

func (o *Outbox) publishPending(ctx context.Context) {
	for {
		o.mu.Lock()
		n := min(len(o.pending), o.opts.BatchSize)
		batch := append([]kafka.Message(nil), o.pending[:n]...)
		o.mu.Unlock()
		if n == 0 {
			return
		}

		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.WriteTimeout)
		err := o.writer.WriteMessages(wctx, batch...)
		cancel()
		if err != nil {
			o.log.WithError(err).WithField("pending", o.Pending()).Warn("failed to publish checkout events")
			return
		}

		o.mu.Lock()
		o.pending = o.pending[n:]
		if len(o.pending) == 0 {
			o.pending = nil
		}
		o.mu.Unlock()
	}
}

// Pending reports how many events are waiting for the broker.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending) + len(o.queue)
}

// Dropped reports how many held events were discarded to respect Capacity.
func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}
