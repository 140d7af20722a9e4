// Package dialogue is the combat flavor-text side-channel. The engine
// publishes events fire-and-forget; a dispatcher queues them and a narrator
// turns them into short in-world lines. Nothing here is ever on the combat
// resolution path: a slow or failing narrator costs flavor text, not turns.
package dialogue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emberworks/arena/internal/game/combat"
)

// defaultQueueSize bounds the event backlog. Combat produces at most a few
// events per turn, so a small buffer absorbs narrator latency spikes.
const defaultQueueSize = 64

// narrateTimeout caps a single narration call so a stalled upstream cannot
// wedge the worker.
const narrateTimeout = 10 * time.Second

// Narrator produces a short line of flavor text for a combat event.
type Narrator interface {
	Narrate(ctx context.Context, ev combat.Event) (string, error)
}

// LineSink receives finished narration lines. The HTTP layer registers a
// sink that stages lines for the session's next poll.
type LineSink interface {
	Publish(sessionID, line string)
}

// Dispatcher queues combat events and narrates them on a single worker
// goroutine. It implements combat.Notifier on the producer side and the
// server Service interface on the lifecycle side.
//
// Notify never blocks: when the queue is full the event is dropped and
// logged at debug level.
type Dispatcher struct {
	narrator Narrator
	sink     LineSink
	logger   *zap.Logger
	queue    chan combat.Event
	done     chan struct{}
}

// NewDispatcher creates a dispatcher with a bounded queue.
//
// Precondition: narrator, sink, and logger must be non-nil.
func NewDispatcher(narrator Narrator, sink LineSink, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		narrator: narrator,
		sink:     sink,
		logger:   logger,
		queue:    make(chan combat.Event, defaultQueueSize),
		done:     make(chan struct{}),
	}
}

// Notify enqueues an event for narration. Drops silently (debug log) when
// the queue is full or the dispatcher has stopped.
func (d *Dispatcher) Notify(ev combat.Event) {
	select {
	case <-d.done:
		return
	default:
	}

	select {
	case d.queue <- ev:
	default:
		d.logger.Debug("dialogue queue full, dropping event",
			zap.String("session_id", ev.SessionID),
			zap.String("event_type", string(ev.Type)),
		)
	}
}

// Start runs the worker loop, blocking until Stop is called. Events already
// queued at shutdown are drained before Start returns.
func (d *Dispatcher) Start() error {
	for {
		select {
		case ev := <-d.queue:
			d.narrate(ev)
		case <-d.done:
			for {
				select {
				case ev := <-d.queue:
					d.narrate(ev)
				default:
					return nil
				}
			}
		}
	}
}

// Stop signals the worker to drain and exit.
func (d *Dispatcher) Stop() {
	close(d.done)
}

func (d *Dispatcher) narrate(ev combat.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), narrateTimeout)
	defer cancel()

	line, err := d.narrator.Narrate(ctx, ev)
	if err != nil {
		d.logger.Debug("narration failed",
			zap.String("session_id", ev.SessionID),
			zap.String("event_type", string(ev.Type)),
			zap.Error(err),
		)
		return
	}
	if line == "" {
		return
	}
	d.sink.Publish(ev.SessionID, line)
}

// NopNotifier discards all combat events. Used when dialogue is disabled in
// config and as the default in tests.
type NopNotifier struct{}

// Notify discards the event.
func (NopNotifier) Notify(combat.Event) {}

// StaticNarrator maps event types to canned lines without any upstream
// calls. It backs deployments that disable the model-driven narrator but
// still want combat commentary.
type StaticNarrator struct{}

// Narrate returns the canned line for the event type.
func (StaticNarrator) Narrate(_ context.Context, ev combat.Event) (string, error) {
	switch ev.Type {
	case combat.EventSessionStarted:
		return fmt.Sprintf("The duel begins. %s", ev.Detail), nil
	case combat.EventPlayerHit:
		return "Your strike lands true.", nil
	case combat.EventEnemyHit:
		return "The enemy answers with a blow of its own.", nil
	case combat.EventPlayerInjured:
		return "Your swing goes wide and you catch your own arm.", nil
	case combat.EventVictory:
		return "The enemy falls. The arena is yours.", nil
	case combat.EventDefeat:
		return "Darkness takes you. The arena claims another.", nil
	case combat.EventAbandoned:
		return "You withdraw from the fight.", nil
	default:
		return "", nil
	}
}
