package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/m3rciful/buttonbot/bot/audit"
	coreconfig "github.com/m3rciful/buttonbot/core/config"
	"github.com/m3rciful/buttonbot/core/database"
)

const (
	dbName     = "buttonbot"
	dbUser     = "postgres"
	dbPassword = "1234"
)

func setupRecorder(t *testing.T) *audit.PostgresRecorder {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: needs docker")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	t.Cleanup(func() {
		if container != nil {
			_ = container.Terminate(context.Background())
		}
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := coreconfig.DatabaseConfig{
		Host:           host,
		Port:           port.Port(),
		User:           dbUser,
		Password:       dbPassword,
		Name:           dbName,
		SSLMode:        "disable",
		MaxConnections: 2,
		MigrationsDir:  "../../migrations",
	}
	require.NoError(t, database.RunMigrations(ctx, cfg))

	db, err := database.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return audit.NewPostgresRecorder(db)
}

func TestPostgresRecorderStoresEvents(t *testing.T) {
	rec := setupRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, audit.Event{
		Kind:    audit.ButtonCreated,
		UserID:  42,
		ChatID:  42,
		Subject: "Foo",
		Options: []string{"A", "B", "C"},
	}))
	require.NoError(t, rec.Record(ctx, audit.Event{Kind: audit.RequestConfirmed, UserID: 7}))

	rows, err := rec.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, string(audit.RequestConfirmed), rows[0].Kind)
	assert.Empty(t, rows[0].Options)

	assert.Equal(t, string(audit.ButtonCreated), rows[1].Kind)
	assert.Equal(t, "Foo", rows[1].Subject)
	assert.Equal(t, []string{"A", "B", "C"}, []string(rows[1].Options))
	assert.False(t, rows[1].CreatedAt.IsZero())
}
