package audit

import (
	"context"
	"sync"
	"time"
)

// Publisher captures structured audit events. By default events are written
// synchronously to the store; WithAsyncBuffer moves writes onto a background
// worker so emitting never blocks the review path. Close drains the buffer.
type Publisher struct {
	store Store
	sinks []Sink

	inbox  chan Event
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
// When the buffer is full, events are dropped rather than blocking callers.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

// WithSink fans every event out to an additional sink (e.g. Kafka).
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sink)
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.run()
	}
	return p
}

// Emit records an event. In async mode a full buffer drops the event; audit
// volume must never back-pressure voting.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		return p.write(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
	}
	return nil
}

// List returns the events recorded for a submission.
func (p *Publisher) List(ctx context.Context, submissionID string) ([]Event, error) {
	return p.store.ListBySubmission(ctx, submissionID)
}

// Close drains any buffered events and closes attached sinks.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		}
		for _, sink := range p.sinks {
			_ = sink.Close()
		}
	})
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		_ = p.write(context.Background(), event)
	}
}

func (p *Publisher) write(ctx context.Context, event Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		_ = sink.Publish(ctx, event)
	}
	return nil
}
