// Package events publishes emergency state transitions to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

const (
	queueSize    = 128
	writeTimeout = 5 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher queues events and writes them from a background loop. A disabled
// publisher accepts and discards everything.
type Publisher struct {
	topic   string
	writer  messageWriter
	enabled bool

	queue     chan kafka.Message
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool

	dropped atomic.Int64
}

// NewPublisher builds a Kafka backed publisher, or a disabled one when no
// broker is configured.
func NewPublisher(cfg model.EventsConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		logx.Info().Msg("emergency events disabled")
		return &Publisher{}, nil
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("events topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequiredAcks(cfg.Acks),
		AllowAutoTopicCreation: true,
		Balancer:               &kafka.Hash{},
	}
	return newPublisherWithWriter(cfg.Topic, w), nil
}

func newPublisherWithWriter(topic string, w messageWriter) *Publisher {
	return &Publisher{
		topic:   topic,
		writer:  w,
		enabled: true,
		queue:   make(chan kafka.Message, queueSize),
	}
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Start launches the delivery loop. It returns once the loop is running.
func (p *Publisher) Start(ctx context.Context) {
	if !p.enabled {
		return
	}
	p.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		p.started.Store(true)
		p.wg.Add(1)
		go p.run(runCtx)
		logx.Info().Str("topic", p.topic).Msg("emergency event publisher started")
	})
}

// Stop ends the loop after draining queued events, then closes the writer.
func (p *Publisher) Stop(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	var stopErr error
	p.stopOnce.Do(func() {
		p.started.Store(false)
		if p.cancel != nil {
			p.cancel()
		}
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = ctx.Err()
		}
		if err := p.writer.Close(); err != nil {
			logx.Error().Err(err).Msg("failed to close kafka writer")
			if stopErr == nil {
				stopErr = err
			}
		}
	})
	return stopErr
}

// Publish enqueues ev without blocking. Events are dropped when the publisher
// is stopped or its queue is full.
func (p *Publisher) Publish(_ context.Context, ev model.EmergencyEvent) {
	if !p.enabled {
		return
	}
	if !p.started.Load() {
		logx.Warn().Str("event_id", ev.ID).Msg("event publisher not running, event dropped")
		p.dropped.Add(1)
		return
	}
	value, err := json.Marshal(ev)
	if err != nil {
		logx.Error().Err(err).Str("event_id", ev.ID).Msg("failed to encode emergency event")
		return
	}
	msg := kafka.Message{Key: []byte(ev.ID), Value: value, Time: ev.At}
	select {
	case p.queue <- msg:
	default:
		p.dropped.Add(1)
		logx.Warn().Str("event_id", ev.ID).Msg("event queue full, event dropped")
	}
}

// Dropped returns how many events were discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case msg := <-p.queue:
			p.deliver(msg)
		}
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case msg := <-p.queue:
			p.deliver(msg)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logx.Error().Str("event_id", string(msg.Key)).Msg("emergency event write timed out")
			return
		}
		logx.Error().Err(err).Str("event_id", string(msg.Key)).Msg("failed to publish emergency event")
		return
	}
	logx.Debug().Str("event_id", string(msg.Key)).Str("topic", p.topic).Msg("emergency event published")
}
