// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tastegraph/internal/logging"
	"github.com/tomtom215/tastegraph/internal/metrics"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
	BackendNone   = "none"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("event bus is closed")

// ErrNoSubscriber is returned by Subscribe on publish-only backends.
var ErrNoSubscriber = errors.New("event backend does not support in-process subscriptions")

// Config configures the event bus.
type Config struct {
	// Backend selects the transport: memory, nats or none.
	// Default: memory.
	Backend string `json:"backend" koanf:"backend"`

	// NATSURL is the broker URL used by the nats backend.
	// Default: nats://127.0.0.1:4222.
	NATSURL string `json:"nats_url" koanf:"nats_url"`

	// MaxReconnects bounds NATS reconnection attempts (-1 is unlimited).
	// Default: -1.
	MaxReconnects int `json:"max_reconnects" koanf:"max_reconnects"`

	// ReconnectWait is the delay between NATS reconnection attempts.
	// Default: 2s.
	ReconnectWait time.Duration `json:"reconnect_wait" koanf:"reconnect_wait"`

	// BufferSize is the per-subscriber channel buffer of the memory backend.
	// Default: 256.
	BufferSize int64 `json:"buffer_size" koanf:"buffer_size"`

	// BreakerFailures opens the publish circuit after this many consecutive
	// failures.
	// Default: 5.
	BreakerFailures uint32 `json:"breaker_failures" koanf:"breaker_failures"`

	// BreakerTimeout is how long the circuit stays open.
	// Default: 30s.
	BreakerTimeout time.Duration `json:"breaker_timeout" koanf:"breaker_timeout"`
}

// DefaultConfig returns the default event bus configuration.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendMemory,
		NATSURL:         natsgo.DefaultURL,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		BufferSize:      256,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendNone:
	case BackendNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("events.nats_url is required for the nats backend")
		}
	default:
		return fmt.Errorf("events.backend must be memory, nats or none, got %q", c.Backend)
	}
	if c.BreakerFailures == 0 {
		return fmt.Errorf("events.breaker_failures must be positive")
	}
	return nil
}

// Publisher publishes domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishFeedback(ctx context.Context, ev FeedbackEvent) error
	PublishRefreshed(ctx context.Context, ev RefreshedEvent) error
}

// Nop discards all events.
type Nop struct{}

// PublishFeedback implements Publisher.
func (Nop) PublishFeedback(context.Context, FeedbackEvent) error { return nil }

// PublishRefreshed implements Publisher.
func (Nop) PublishRefreshed(context.Context, RefreshedEvent) error { return nil }

// Bus publishes events through Watermill, either in process (gochannel) or to
// a NATS broker. Publishes go through a circuit breaker so a dead broker does
// not slow down the lifecycle operations that emit events.
type Bus struct {
	pub     message.Publisher
	sub     message.Subscriber
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

var (
	_ Publisher = (*Bus)(nil)
	_ Publisher = Nop{}
)

// New creates a bus for the configured backend.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	adapter := logging.NewWatermillAdapter(logger)

	b := &Bus{logger: logger.With().Str("component", "events").Logger()}
	b.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "events-" + cfg.Backend,
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			b.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("event publish circuit changed state")
		},
	})

	switch cfg.Backend {
	case BackendMemory:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.BufferSize}, adapter)
		b.pub, b.sub = ch, ch
	case BackendNATS:
		pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
			URL: cfg.NATSURL,
			NatsOptions: []natsgo.Option{
				natsgo.Name("tastegraph"),
				natsgo.RetryOnFailedConnect(true),
				natsgo.MaxReconnects(cfg.MaxReconnects),
				natsgo.ReconnectWait(cfg.ReconnectWait),
			},
			Marshaler: &wmNats.NATSMarshaler{},
			JetStream: wmNats.JetStreamConfig{Disabled: true},
		}, adapter)
		if err != nil {
			return nil, fmt.Errorf("create nats publisher: %w", err)
		}
		b.pub = pub
	}

	b.logger.Info().Str("backend", cfg.Backend).Msg("event bus ready")
	return b, nil
}

// NewMemoryBus creates an in-process bus. Intended for tests and
// single-node deployments.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMemoryBus(logger zerolog.Logger) *Bus {
	cfg := DefaultConfig()
	b, err := New(cfg, logger)
	if err != nil {
		panic(err) // default config is valid
	}
	return b
}

// PublishFeedback implements Publisher.
func (b *Bus) PublishFeedback(ctx context.Context, ev FeedbackEvent) error {
	return b.publish(ctx, TopicFeedback, ev.EventID, ev.UserID, ev)
}

// PublishRefreshed implements Publisher.
func (b *Bus) PublishRefreshed(ctx context.Context, ev RefreshedEvent) error {
	return b.publish(ctx, TopicRefreshed, ev.EventID, ev.UserID, ev)
}

func (b *Bus) publish(ctx context.Context, topic, id string, userID int64, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if b.pub == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(id, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("user_id", strconv.FormatInt(userID, 10))
	if rid := logging.RequestIDFromContext(ctx); rid != "" {
		msg.Metadata.Set("request_id", rid)
	}
	if cid := logging.CorrelationIDFromContext(ctx); cid != "" {
		msg.Metadata.Set("correlation_id", cid)
	}

	_, err = b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.pub.Publish(topic, msg)
	})
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the message stream of topic. Only the memory backend
// supports in-process subscriptions; messages must be acked.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if b.sub == nil {
		return nil, ErrNoSubscriber
	}
	return b.sub.Subscribe(ctx, topic)
}

// Close shuts the bus down. Further publishes return ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.pub == nil {
		return nil
	}
	return b.pub.Close()
}

// Decode unmarshals a message payload.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode message %s: %w", msg.UUID, err)
	}
	return v, nil
}
