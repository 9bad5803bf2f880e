//go:build integration

package postgres

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/internal/postgres/migrations"
)

var testPostgresDSN string

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()
	ctr, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("erm"),
		tcPostgres.WithUsername("erm"),
		tcPostgres.WithPassword("erm"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}
	defer ctr.Terminate(ctx) //nolint:errcheck

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("postgres connection string: %v", err)
	}
	testPostgresDSN = dsn

	pool, err := NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	err = migrations.Apply(ctx, pool, nil)
	pool.Close()
	if err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	return m.Run()
}

func newRepo(t *testing.T) ActivityRepository {
	t.Helper()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, testPostgresDSN)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(ctx, "TRUNCATE activity_notifications, activities CASCADE") //nolint:errcheck
		pool.Close()
	})
	return NewRepository(pool)
}

func makeActivity(typ domain.ActivityType, model, id string, at time.Time) *domain.Activity {
	return &domain.Activity{
		ID:          uuid.New().String(),
		Type:        typ,
		Subject:     "subject",
		Description: "description",
		RelatedTo:   domain.RelatedRecord{Model: model, ID: id},
		Metadata:    map[string]any{"name": "Ada"},
		CreatedAt:   at,
	}
}

func TestActivities_RecordAndList(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	older := makeActivity(domain.ActivityNewContact, "Contact", "c1", base.Add(-time.Minute))
	newer := makeActivity(domain.ActivityNewEvent, "Event", "e1", base)
	newer.User = "user-1"
	require.NoError(t, repo.Record(ctx, older))
	require.NoError(t, repo.Record(ctx, newer))

	got, err := repo.List(ctx, domain.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID, "newest first")
	assert.Equal(t, "user-1", got[0].User)
	assert.Equal(t, "Ada", got[1].Metadata["name"])
	assert.Equal(t, domain.ActivityNewContact, got[1].Type)
}

func TestActivities_RecordIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	a := makeActivity(domain.ActivityTaskCompleted, "Task", "t1", time.Now().UTC())

	require.NoError(t, repo.Record(ctx, a))
	require.NoError(t, repo.Record(ctx, a))

	got, err := repo.List(ctx, domain.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestActivities_ListFilterAndLimit(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Record(ctx, makeActivity(domain.ActivityTaskCompleted, "Task", "t1", now.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, repo.Record(ctx, makeActivity(domain.ActivityNewContact, "Contact", "c1", now)))

	got, err := repo.List(ctx, domain.ActivityFilter{Model: "Task", ID: "t1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, "Task", a.RelatedTo.Model)
	}
}

func TestActivities_RecordNotification(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	a := makeActivity(domain.ActivityNewContact, "Contact", "c1", time.Now().UTC())
	require.NoError(t, repo.Record(ctx, a))

	require.NoError(t, repo.RecordNotification(ctx, a.ID, "email", errors.New("smtp down")))
	require.NoError(t, repo.RecordNotification(ctx, a.ID, "email", nil))
}
