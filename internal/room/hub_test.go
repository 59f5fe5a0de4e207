package room

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case msg, ok := <-c.C():
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func events(msgs []Message) []string {
	names := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		names = append(names, msg.Event)
	}
	return names
}

func TestPublishReachesOnlyRoomMembers(t *testing.T) {
	hub := NewHub()
	a, err := hub.Subscribe("AAAAAA", nil)
	require.NoError(t, err)
	b, err := hub.Subscribe("BBBBBB", nil)
	require.NoError(t, err)

	delivered := hub.Publish("AAAAAA", 2, Message{Event: "participant_update", Version: 2})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, []string{"participant_update"}, events(drain(a)))
	assert.Empty(t, drain(b))

	assert.Zero(t, hub.Publish("ZZZZZZ", 2, Message{Event: "x"}))
}

func TestPublishPreservesOrderAndDropsStale(t *testing.T) {
	hub := NewHub()
	c, err := hub.Subscribe("AAAAAA", nil)
	require.NoError(t, err)

	hub.Publish("AAAAAA", 3, Message{Event: "submission_update", Version: 3}, Message{Event: "revealed", Version: 3})
	hub.Publish("AAAAAA", 2, Message{Event: "participant_update", Version: 2})
	hub.Publish("AAAAAA", 3, Message{Event: "revealed", Version: 3})

	assert.Equal(t, []string{"submission_update", "revealed"}, events(drain(c)))
}

func TestSubscribePrimeSkipsCoveredVersions(t *testing.T) {
	hub := NewHub()
	c, err := hub.Subscribe("AAAAAA", func() (int64, []Message, error) {
		return 4, []Message{{Event: "game_state", Version: 4}}, nil
	})
	require.NoError(t, err)

	hub.Publish("AAAAAA", 4, Message{Event: "submission_update", Version: 4})
	hub.Publish("AAAAAA", 5, Message{Event: "participant_update", Version: 5})

	assert.Equal(t, []string{"game_state", "participant_update"}, events(drain(c)))
}

func TestSubscribePrimeError(t *testing.T) {
	hub := NewHub()
	boom := errors.New("boom")
	_, err := hub.Subscribe("AAAAAA", func() (int64, []Message, error) {
		return 0, nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, hub.Count("AAAAAA"))
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHubWithBuffer(2)
	slow, err := hub.Subscribe("AAAAAA", nil)
	require.NoError(t, err)
	fast, err := hub.Subscribe("AAAAAA", nil)
	require.NoError(t, err)

	hub.Publish("AAAAAA", 1, Message{Event: "one"})
	drain(fast)
	hub.Publish("AAAAAA", 2, Message{Event: "two"})
	drain(fast)
	delivered := hub.Publish("AAAAAA", 3, Message{Event: "three"})

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, hub.Count("AAAAAA"))

	got := drain(slow)
	assert.Equal(t, []string{"one", "two"}, events(got))
	_, open := <-slow.C()
	assert.False(t, open)
}

func TestUnsubscribeClosesAndForgetsRoom(t *testing.T) {
	hub := NewHub()
	c, err := hub.Subscribe("AAAAAA", nil)
	require.NoError(t, err)
	hub.Unsubscribe(c)
	hub.Unsubscribe(c)

	_, open := <-c.C()
	assert.False(t, open)
	assert.Zero(t, hub.Count("AAAAAA"))
	hub.mu.Lock()
	assert.Empty(t, hub.rooms)
	hub.mu.Unlock()
}

func TestConcurrentSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	keeper, err := hub.Subscribe("AAAAAA", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := hub.Subscribe("AAAAAA", nil)
			if err != nil {
				return
			}
			hub.Unsubscribe(c)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, hub.Count("AAAAAA"))
	assert.Equal(t, 1, hub.Publish("AAAAAA", 1, Message{Event: "ok"}))
	assert.Equal(t, []string{"ok"}, events(drain(keeper)))
}
