package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTopicSubscribers(t *testing.T) {
	hub := NewHub()

	a, cleanupA := hub.Subscribe("run-a")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("run-b")
	defer cleanupB()

	hub.Publish("run-a", Event{Event: "progress", Data: 1})

	select {
	case ev := <-a:
		assert.Equal(t, "run-a", ev.Topic)
		assert.Equal(t, "progress", ev.Event)
	default:
		t.Fatal("expected event on run-a")
	}

	select {
	case ev := <-b:
		t.Fatalf("unexpected event on run-b: %+v", ev)
	default:
	}
}

func TestHub_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe("run")
	defer cleanup()

	for i := 0; i < 100; i++ {
		hub.Publish("run", Event{Event: "progress", Data: i})
	}
	assert.Equal(t, 1, hub.SubscriberCount("run"))
}

func TestHub_CleanupIsIdempotent(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("run")

	cleanup()
	cleanup()

	_, open := <-ch
	require.False(t, open)
	assert.Equal(t, 0, hub.SubscriberCount("run"))
}
