package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-chat/internal/domain"
)

func textEvent(id int64, recipient string) Event {
	return MessageEvent(&domain.Message{
		ID:          id,
		CustomerID:  recipient,
		Sender:      domain.SenderCustomer,
		ContentKind: domain.ContentText,
		Content:     fmt.Sprintf("m%d", id),
		CreatedAt:   time.Unix(1700000000+id, 0).UTC(),
	})
}

func TestDrainFIFO(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")
	defer h.Unsubscribe(l)

	const n = 50
	for i := int64(1); i <= n; i++ {
		h.Publish("u1", textEvent(i, "u1"))
	}

	for i := int64(1); i <= n; i++ {
		ev, err := h.Drain(context.Background(), l, time.Second)
		require.NoError(t, err)
		require.Equal(t, KindMessage, ev.Kind)
		assert.Equal(t, i, ev.ID)
	}
}

func TestDrainTimesOutWithPing(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")
	defer h.Unsubscribe(l)

	timeout := 40 * time.Millisecond
	start := time.Now()
	ev, err := h.Drain(context.Background(), l, timeout)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, KindPing, ev.Kind)
	assert.Nil(t, ev.Payload)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+500*time.Millisecond)
}

func TestDrainWakesOnPublish(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")
	defer h.Unsubscribe(l)

	go func() {
		time.Sleep(20 * time.Millisecond)
		h.Publish("u1", textEvent(7, "u1"))
	}()

	start := time.Now()
	ev, err := h.Drain(context.Background(), l, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, KindMessage, ev.Kind)
	assert.Equal(t, int64(7), ev.ID)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPublishWithoutListenerIsBuffered(t *testing.T) {
	h := New(0)
	h.Publish("u1", textEvent(1, "u1"))
	h.Publish("u1", textEvent(2, "u1"))

	st := h.Stats()
	assert.Equal(t, 1, st.Inboxes)
	assert.Equal(t, 0, st.Listeners)
	assert.Equal(t, 2, st.Pending)

	l := h.Subscribe("u1")
	defer h.Unsubscribe(l)

	for _, want := range []int64{1, 2} {
		ev, err := h.Drain(context.Background(), l, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, ev.ID)
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	h := New(3)
	l := h.Subscribe("u1")
	defer h.Unsubscribe(l)

	for i := int64(1); i <= 5; i++ {
		h.Publish("u1", textEvent(i, "u1"))
	}

	assert.Equal(t, int64(2), h.Stats().Dropped)
	for _, want := range []int64{3, 4, 5} {
		ev, err := h.Drain(context.Background(), l, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, ev.ID)
	}
}

func TestBroadcastToEveryListener(t *testing.T) {
	h := New(0)
	customer := h.Subscribe("u1")
	admin := h.Subscribe("u1")
	defer h.Unsubscribe(customer)
	defer h.Unsubscribe(admin)

	h.Publish("u1", textEvent(1, "u1"))

	for _, l := range []*Listener{customer, admin} {
		ev, err := h.Drain(context.Background(), l, time.Second)
		require.NoError(t, err)
		assert.Equal(t, int64(1), ev.ID)
	}
}

func TestRecipientsAreIsolated(t *testing.T) {
	h := New(0)
	l1 := h.Subscribe("u1")
	l2 := h.Subscribe("u2")
	defer h.Unsubscribe(l1)
	defer h.Unsubscribe(l2)

	h.Publish("u2", textEvent(1, "u2"))

	ev, err := h.Drain(context.Background(), l1, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, KindPing, ev.Kind)

	ev, err = h.Drain(context.Background(), l2, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "u2", ev.RecipientID)
}

func TestUnsubscribeRemovesEmptyInbox(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")
	assert.Equal(t, "u1", l.RecipientID())
	assert.Equal(t, 1, h.Stats().Inboxes)

	h.Unsubscribe(l)
	h.Unsubscribe(l)

	st := h.Stats()
	assert.Equal(t, 0, st.Inboxes)
	assert.Equal(t, 0, st.Listeners)
}

func TestUnsubscribeKeepsUndeliveredEvents(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")
	h.Publish("u1", textEvent(1, "u1"))
	h.Unsubscribe(l)

	assert.Equal(t, 1, h.Stats().Pending)

	again := h.Subscribe("u1")
	defer h.Unsubscribe(again)
	ev, err := h.Drain(context.Background(), again, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.ID)
}

func TestUnsubscribeUnblocksDrain(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")

	done := make(chan error, 1)
	go func() {
		_, err := h.Drain(context.Background(), l, 10*time.Second)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	h.Unsubscribe(l)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrListenerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not return after unsubscribe")
	}
}

func TestDrainHonoursContext(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")
	defer h.Unsubscribe(l)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Drain(ctx, l, 10*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDiscardClosesListeners(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")
	h.Publish("u1", textEvent(1, "u1"))

	h.Discard("u1")

	_, err := h.Drain(context.Background(), l, time.Second)
	assert.ErrorIs(t, err, ErrListenerClosed)
	assert.Equal(t, 0, h.Stats().Inboxes)
	h.Unsubscribe(l)
}

func TestConcurrentPublishAndDrainLosesNothing(t *testing.T) {
	h := New(10000)
	l := h.Subscribe("u1")
	defer h.Unsubscribe(l)

	const publishers, perPublisher = 8, 200
	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				h.Publish("u1", textEvent(int64(p*perPublisher+i), "u1"))
			}
		}(p)
	}

	seen := make(map[int64]bool)
	lastByPublisher := make(map[int]int64)
	for len(seen) < publishers*perPublisher {
		ev, err := h.Drain(context.Background(), l, 2*time.Second)
		require.NoError(t, err)
		require.Equal(t, KindMessage, ev.Kind, "drain timed out before every event arrived")
		seen[ev.ID] = true

		p := int(ev.ID) / perPublisher
		if last, ok := lastByPublisher[p]; ok {
			require.Greater(t, ev.ID, last, "events from one publisher out of order")
		}
		lastByPublisher[p] = ev.ID
	}
	wg.Wait()
	assert.Equal(t, int64(publishers*perPublisher), h.Stats().Published)
}

func TestSubscribePublishDrainScenario(t *testing.T) {
	h := New(0)
	l := h.Subscribe("u1")
	defer h.Unsubscribe(l)

	h.Publish("u1", textEvent(1, "u1"))
	h.Publish("u1", textEvent(2, "u1"))

	ev, err := h.Drain(context.Background(), l, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "m1", ev.Content)

	ev, err = h.Drain(context.Background(), l, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "m2", ev.Content)

	ev, err = h.Drain(context.Background(), l, 30*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, KindPing, ev.Kind)
}

func TestEventEncoding(t *testing.T) {
	raw, err := json.Marshal(Ping())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(raw))

	raw, err = json.Marshal(textEvent(3, "u1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type":"message","id":3,"user_id":"u1","sender_type":"customer",
		"message_type":"text","content":"m3","created_at":"2023-11-14T22:13:23Z"
	}`, string(raw))
}
