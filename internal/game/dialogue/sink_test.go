package dialogue_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emberworks/arena/internal/game/dialogue"
)

// TestMemorySink_PublishAndDrain verifies lines come back in arrival order
// and draining clears the buffer.
func TestMemorySink_PublishAndDrain(t *testing.T) {
	sink := dialogue.NewMemorySink()

	sink.Publish("s1", "first")
	sink.Publish("s1", "second")
	sink.Publish("s2", "other session")

	assert.Equal(t, []string{"first", "second"}, sink.Drain("s1"))
	assert.Nil(t, sink.Drain("s1"), "drain must clear the buffer")
	assert.Equal(t, []string{"other session"}, sink.Drain("s2"))
}

// TestMemorySink_EvictsOldest verifies the buffer cap drops the oldest
// lines, not the newest.
func TestMemorySink_EvictsOldest(t *testing.T) {
	sink := dialogue.NewMemorySink()

	for i := 0; i < 40; i++ {
		sink.Publish("s1", fmt.Sprintf("line %d", i))
	}

	lines := sink.Drain("s1")
	assert.Len(t, lines, 32)
	assert.Equal(t, "line 8", lines[0])
	assert.Equal(t, "line 39", lines[len(lines)-1])
}

// TestMemorySink_Forget verifies discarded sessions yield no lines.
func TestMemorySink_Forget(t *testing.T) {
	sink := dialogue.NewMemorySink()
	sink.Publish("s1", "stale")
	sink.Forget("s1")
	assert.Nil(t, sink.Drain("s1"))
}
