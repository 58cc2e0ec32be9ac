package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-chat/internal/domain"
)

// CustomerRepository defines persistence access for chat customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.CustomerSummary, error)
	TouchLastSeen(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (domain.StoreStats, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (id, name)
        VALUES ($1, $2)
        RETURNING created_at, last_seen`

	err := r.pool.QueryRow(ctx, query,
		customer.ID,
		customer.Name,
	).Scan(&customer.CreatedAt, &customer.LastSeen)
	return mapUniqueViolation(err)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, name, created_at, last_seen
        FROM customers WHERE id=$1`

	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.CreatedAt,
		&customer.LastSeen,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context) ([]domain.CustomerSummary, error) {
	const query = `
        SELECT c.id, c.name, c.created_at, c.last_seen,
               COALESCE(stats.cnt, 0),
               last.id, last.sender_type, last.message_type, last.content, last.created_at
        FROM customers c
        LEFT JOIN LATERAL (
            SELECT COUNT(*) AS cnt FROM messages m WHERE m.customer_id = c.id
        ) stats ON TRUE
        LEFT JOIN LATERAL (
            SELECT id, sender_type, message_type, content, created_at
            FROM messages m WHERE m.customer_id = c.id
            ORDER BY created_at DESC, id DESC LIMIT 1
        ) last ON TRUE
        ORDER BY c.last_seen DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CustomerSummary
	for rows.Next() {
		var (
			summary  domain.CustomerSummary
			lastID   *int64
			sender   *string
			kind     *string
			content  *string
			lastSent *time.Time
		)
		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.CreatedAt,
			&summary.LastSeen,
			&summary.MessageCount,
			&lastID,
			&sender,
			&kind,
			&content,
			&lastSent,
		); err != nil {
			return nil, err
		}
		if lastID != nil {
			summary.LastMessage = &domain.Message{
				ID:          *lastID,
				CustomerID:  summary.ID,
				Sender:      domain.SenderRole(deref(sender)),
				ContentKind: domain.ContentKind(deref(kind)),
				Content:     deref(content),
				CreatedAt:   derefTime(lastSent),
			}
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

func (r *customerRepository) TouchLastSeen(ctx context.Context, id string) error {
	const query = `UPDATE customers SET last_seen=NOW() WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the customer; messages go with it via ON DELETE CASCADE.
func (r *customerRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) Stats(ctx context.Context) (domain.StoreStats, error) {
	const query = `
        SELECT
            (SELECT COUNT(*) FROM customers),
            (SELECT COUNT(*) FROM messages),
            (SELECT COUNT(*) FROM messages WHERE created_at >= date_trunc('day', NOW())),
            (SELECT COUNT(*) FROM customers WHERE last_seen >= date_trunc('day', NOW()))`

	var st domain.StoreStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&st.TotalCustomers,
		&st.TotalMessages,
		&st.MessagesToday,
		&st.ActiveToday,
	)
	return st, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
