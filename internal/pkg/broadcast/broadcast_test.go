package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFanOut(t *testing.T) {
	b := New()

	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()

	defer cancelFirst()
	defer cancelSecond()

	assert.Equal(t, 2, b.Len())

	b.Publish("push", "hello")

	select {
	case ev := <-first:
		assert.Equal(t, "push", ev.Event)
		assert.Equal(t, "hello", ev.Data)
	case <-time.After(time.Second):
		t.Fatal("first subscriber did not receive event")
	}

	select {
	case ev := <-second:
		assert.Equal(t, "push", ev.Event)
	case <-time.After(time.Second):
		t.Fatal("second subscriber did not receive event")
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	b := New()

	ch, cancel := b.Subscribe()
	require.Equal(t, 1, b.Len())

	cancel()
	assert.Equal(t, 0, b.Len())

	_, open := <-ch
	assert.False(t, open)

	// Cancelling twice is safe.
	cancel()
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := New()

	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < subscriberBuffer*4; i++ {
			b.Publish("tick", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
