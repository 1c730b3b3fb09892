package devwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Publish(42)

	assert.Equal(t, uint64(42), <-ch1)
	assert.Equal(t, uint64(42), <-ch2)
}

func TestBroadcasterLateSubscriberGetsNoReplay(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(1)
	b.Publish(2)

	ch, unsub := b.Subscribe()
	defer unsub()

	select {
	case v := <-ch:
		t.Fatalf("expected no replayed value, got %d", v)
	default:
	}

	b.Publish(3)
	assert.Equal(t, uint64(3), <-ch)
}

func TestBroadcasterDropsOldestWhenSubscriberLags(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := uint64(0); i < broadcastCapacity+10; i++ {
		b.Publish(i)
	}

	// The channel never blocked the publisher and holds at most
	// broadcastCapacity entries, ending with the most recent values.
	require.LessOrEqual(t, len(ch), broadcastCapacity)
	var last uint64
	for {
		select {
		case v := <-ch:
			last = v
			continue
		default:
		}
		break
	}
	assert.Equal(t, uint64(broadcastCapacity+9), last)
}

func TestBroadcasterUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	unsub()

	b.Publish(7)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}
