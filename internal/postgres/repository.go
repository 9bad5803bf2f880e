// Package postgres persists the activity log.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// ActivityRepository abstracts all database access for the activity log.
type ActivityRepository interface {
	// Record inserts a. Re-recording the same id is a no-op, so redelivered
	// Kafka messages do not duplicate entries.
	Record(ctx context.Context, a *domain.Activity) error
	List(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, error)
	RecordNotification(ctx context.Context, activityID, notifier string, sendErr error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps a pgxpool with the ActivityRepository interface.
func NewRepository(pool *pgxpool.Pool) ActivityRepository {
	return &repository{pool: pool}
}

// NewPool creates a pgxpool and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

func (r *repository) Record(ctx context.Context, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	meta := a.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata for activity %s: %w", a.ID, err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO activities
			(id, type, actor, subject, description, related_model, related_id, metadata, created_at)
		VALUES
			($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`,
		a.ID, string(a.Type), a.User, a.Subject, a.Description,
		a.RelatedTo.Model, a.RelatedTo.ID, metaJSON, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record activity %s: %w", a.ID, err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, f domain.ActivityFilter) ([]*domain.Activity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var (
		where []string
		args  []any
	)
	if f.Model != "" {
		args = append(args, f.Model)
		where = append(where, fmt.Sprintf("related_model = $%d", len(args)))
	}
	if f.ID != "" {
		args = append(args, f.ID)
		where = append(where, fmt.Sprintf("related_id = $%d", len(args)))
	}
	query := `
		SELECT id, type, COALESCE(actor, ''), subject, description,
		       related_model, related_id, metadata, created_at
		FROM activities`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf("\n\t\tORDER BY created_at DESC\n\t\tLIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) RecordNotification(ctx context.Context, activityID, notifier string, sendErr error) error {
	status, errText := "sent", ""
	if sendErr != nil {
		status, errText = "failed", sendErr.Error()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_notifications (activity_id, notifier, status, error, sent_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
		ON CONFLICT (activity_id, notifier)
		DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error, sent_at = EXCLUDED.sent_at
	`, activityID, notifier, status, errText)
	if err != nil {
		return fmt.Errorf("record notification for activity %s: %w", activityID, err)
	}
	return nil
}

// scanActivity reads an activity row from any pgx row type.
func scanActivity(row interface {
	Scan(...any) error
}) (*domain.Activity, error) {
	var (
		a       domain.Activity
		typ     string
		id      uuid.UUID
		rawMeta []byte
	)
	err := row.Scan(
		&id, &typ, &a.User, &a.Subject, &a.Description,
		&a.RelatedTo.Model, &a.RelatedTo.ID, &rawMeta, &a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	a.ID = id.String()
	a.Type = domain.ActivityType(typ)
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &a.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for activity %s: %w", a.ID, err)
		}
	}
	if len(a.Metadata) == 0 {
		a.Metadata = nil
	}
	return &a, nil
}
