package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	d.Subscribe(EventMessageAdded, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventMessageAdded, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.CustomerID)
		return nil
	})
	d.Subscribe(EventOTPIssued, func(context.Context, Event) error {
		calls = append(calls, "otp")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventMessageAdded, CustomerID: "cust-1"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second:cust-1"}, calls)

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventCustomerRegistered}))
}
