package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/buttonbot/core/config"
)

type calls struct {
	logger, migrate, connect int
}

func fakes(c *calls, migrateErr error) Options {
	return Options{
		LoggerInit: func(*coreconfig.Config) error { c.logger++; return nil },
		Migrate: func(context.Context, coreconfig.DatabaseConfig) error {
			c.migrate++
			return migrateErr
		},
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			c.connect++
			return nil, nil
		},
	}
}

func TestRunWithoutDatabase(t *testing.T) {
	var c calls
	opts := fakes(&c, nil)
	opts.Config = &coreconfig.Config{}

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.NoError(t, res.Close())
	assert.Equal(t, calls{logger: 1}, c)
}

func TestRunMigratesBeforeConnecting(t *testing.T) {
	var c calls
	opts := fakes(&c, nil)
	opts.Config = &coreconfig.Config{Database: coreconfig.DatabaseConfig{Host: "db", Name: "buttons"}}

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, calls{logger: 1, migrate: 1, connect: 1}, c)
}

func TestRunStopsOnMigrationFailure(t *testing.T) {
	var c calls
	boom := errors.New("boom")
	opts := fakes(&c, boom)
	opts.Config = &coreconfig.Config{Database: coreconfig.DatabaseConfig{Host: "db", Name: "buttons"}}

	_, err := Run(context.Background(), opts)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.connect)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
