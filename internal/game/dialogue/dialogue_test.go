package dialogue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberworks/arena/internal/game/combat"
	"github.com/emberworks/arena/internal/game/dialogue"
)

// stubNarrator echoes the event type, or fails every call when err is set.
type stubNarrator struct {
	err error
}

func (s *stubNarrator) Narrate(_ context.Context, ev combat.Event) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "narrated: " + string(ev.Type), nil
}

// recordingSink collects published lines and signals each arrival.
type recordingSink struct {
	mu      sync.Mutex
	lines   map[string][]string
	arrived chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		lines:   make(map[string][]string),
		arrived: make(chan struct{}, 128),
	}
}

func (r *recordingSink) Publish(sessionID, line string) {
	r.mu.Lock()
	r.lines[sessionID] = append(r.lines[sessionID], line)
	r.mu.Unlock()
	r.arrived <- struct{}{}
}

func (r *recordingSink) get(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines[sessionID]...)
}

func waitArrivals(t *testing.T, sink *recordingSink, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-sink.arrived:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for publication %d of %d", i+1, n)
		}
	}
}

// TestDispatcher_PublishesNarratedLines verifies the happy path: events flow
// through the worker and reach the sink in order.
func TestDispatcher_PublishesNarratedLines(t *testing.T) {
	sink := newRecordingSink()
	d := dialogue.NewDispatcher(&stubNarrator{}, sink, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Start()
	}()

	d.Notify(combat.Event{SessionID: "s1", Type: combat.EventPlayerHit})
	d.Notify(combat.Event{SessionID: "s1", Type: combat.EventVictory})
	waitArrivals(t, sink, 2)

	d.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	require.Equal(t, []string{
		"narrated: player_hit",
		"narrated: victory",
	}, sink.get("s1"))
}

// TestDispatcher_NarratorFailureDropsEvent verifies a failing narrator never
// publishes and never blocks the worker.
func TestDispatcher_NarratorFailureDropsEvent(t *testing.T) {
	sink := newRecordingSink()
	d := dialogue.NewDispatcher(&stubNarrator{err: errors.New("upstream down")}, sink, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Start()
	}()

	d.Notify(combat.Event{SessionID: "s1", Type: combat.EventPlayerHit})

	// Give the worker a moment, then confirm nothing reached the sink.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.get("s1"))

	d.Stop()
	<-done
}

// TestDispatcher_NotifyAfterStopIsNoop verifies publishing to a stopped
// dispatcher neither blocks nor panics.
func TestDispatcher_NotifyAfterStopIsNoop(t *testing.T) {
	sink := newRecordingSink()
	d := dialogue.NewDispatcher(&stubNarrator{}, sink, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Start()
	}()
	d.Stop()
	<-done

	d.Notify(combat.Event{SessionID: "s1", Type: combat.EventVictory})
	assert.Empty(t, sink.get("s1"))
}

// TestDispatcher_DrainsQueueOnStop verifies events queued before Stop are
// still narrated before Start returns.
func TestDispatcher_DrainsQueueOnStop(t *testing.T) {
	sink := newRecordingSink()
	d := dialogue.NewDispatcher(&stubNarrator{}, sink, zap.NewNop())

	for i := 0; i < 5; i++ {
		d.Notify(combat.Event{SessionID: "s1", Type: combat.EventEnemyHit})
	}
	d.Stop()

	require.NoError(t, d.Start())
	assert.Len(t, sink.get("s1"), 5)
}

// TestDispatcher_DropsWhenQueueFull verifies a stalled worker never makes
// Notify block: excess events are dropped, not queued unboundedly.
func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	sink := newRecordingSink()
	d := dialogue.NewDispatcher(&stubNarrator{}, sink, zap.NewNop())

	// No worker is running, so the queue fills and the rest must drop.
	notified := make(chan struct{})
	go func() {
		defer close(notified)
		for i := 0; i < 1000; i++ {
			d.Notify(combat.Event{SessionID: "s1", Type: combat.EventEnemyHit})
		}
	}()
	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	d.Stop()
	require.NoError(t, d.Start())

	lines := sink.get("s1")
	assert.NotEmpty(t, lines, "queued events must still be narrated")
	assert.Less(t, len(lines), 1000, "overflow events must be dropped")
}

// TestStaticNarrator verifies canned lines exist for every published event
// type and that unknown types yield nothing.
func TestStaticNarrator(t *testing.T) {
	n := dialogue.StaticNarrator{}
	ctx := context.Background()

	known := []combat.EventType{
		combat.EventSessionStarted,
		combat.EventPlayerHit,
		combat.EventEnemyHit,
		combat.EventPlayerInjured,
		combat.EventVictory,
		combat.EventDefeat,
		combat.EventAbandoned,
	}
	for _, et := range known {
		line, err := n.Narrate(ctx, combat.Event{Type: et})
		require.NoError(t, err)
		assert.NotEmpty(t, line, "event type %s", et)
	}

	line, err := n.Narrate(ctx, combat.Event{Type: "unheard_of"})
	require.NoError(t, err)
	assert.Empty(t, line)
}

// TestNopNotifier verifies the disabled-dialogue notifier accepts events
// without side effects.
func TestNopNotifier(t *testing.T) {
	var n dialogue.NopNotifier
	n.Notify(combat.Event{Type: combat.EventVictory})
}
