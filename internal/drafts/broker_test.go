package drafts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerFansOutToSubscribers(t *testing.T) {
	broker := NewStatusBroker()
	first, cancelFirst := broker.Subscribe(4)
	second, cancelSecond := broker.Subscribe(4)
	defer cancelSecond()
	require.Equal(t, 2, broker.Subscribers())

	broker.Publish(StatusEvent{BatchID: "b1", State: EventStage})

	assert.Equal(t, "b1", (<-first).BatchID)
	assert.Equal(t, "b1", (<-second).BatchID)

	cancelFirst()
	cancelFirst()
	assert.Equal(t, 1, broker.Subscribers())
	_, open := <-first
	assert.False(t, open, "cancelled subscription should be closed")
}

func TestBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	broker := NewStatusBroker()
	ch, cancel := broker.Subscribe(1)
	defer cancel()

	broker.Publish(StatusEvent{Message: "kept"})
	broker.Publish(StatusEvent{Message: "dropped"})

	assert.Equal(t, "kept", (<-ch).Message)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}
