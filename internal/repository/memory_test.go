package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-chat/internal/domain"
)

func TestMemoryStoreCustomers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	customers := store.Customers()

	require.NoError(t, customers.Create(ctx, &domain.Customer{ID: "cust-0001", Name: "Ada"}))
	assert.ErrorIs(t, customers.Create(ctx, &domain.Customer{ID: "cust-0001", Name: "Again"}), ErrDuplicate)

	got, err := customers.GetByID(ctx, "cust-0001")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)

	_, err = customers.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.ErrorIs(t, customers.TouchLastSeen(ctx, "missing"), pgx.ErrNoRows)
	assert.ErrorIs(t, customers.Delete(ctx, "missing"), pgx.ErrNoRows)
}

func TestMemoryStoreMessagesAndSummaries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	customers, messages := store.Customers(), store.Messages()
	require.NoError(t, customers.Create(ctx, &domain.Customer{ID: "cust-0001", Name: "Ada"}))
	require.NoError(t, customers.Create(ctx, &domain.Customer{ID: "cust-0002", Name: "Bob"}))

	for i := 0; i < 3; i++ {
		msg := &domain.Message{CustomerID: "cust-0001", Sender: domain.SenderCustomer, ContentKind: domain.ContentText, Content: fmt.Sprintf("hi %d", i)}
		require.NoError(t, messages.Create(ctx, msg))
		assert.NotZero(t, msg.ID)
	}
	assert.ErrorIs(t, messages.Create(ctx, &domain.Message{CustomerID: "ghost"}), pgx.ErrNoRows)
	require.NoError(t, customers.TouchLastSeen(ctx, "cust-0001"))

	list, err := messages.ListByCustomer(ctx, "cust-0001")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "hi 0", list[0].Content)

	summaries, err := customers.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "cust-0001", summaries[0].ID, "most recently seen first")
	assert.Equal(t, 3, summaries[0].MessageCount)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "hi 2", summaries[0].LastMessage.Content)
	assert.Nil(t, summaries[1].LastMessage)

	st, err := customers.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{TotalCustomers: 2, TotalMessages: 3, MessagesToday: 3, ActiveToday: 2}, st)

	require.NoError(t, customers.Delete(ctx, "cust-0001"))
	list, err = messages.ListByCustomer(ctx, "cust-0001")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMapUniqueViolation(t *testing.T) {
	assert.ErrorIs(t, mapUniqueViolation(&pgconn.PgError{Code: "23505"}), ErrDuplicate)
	other := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(other), mapUniqueViolation(other))
	assert.NoError(t, mapUniqueViolation(nil))
}
