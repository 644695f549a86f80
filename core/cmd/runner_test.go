package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/buttonbot/core/config"
	coretelegram "github.com/m3rciful/buttonbot/core/telegram"
)

type stubApp struct {
	started, stopped bool
}

func (s *stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { s.started = true; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { s.stopped = true; return nil },
	}, nil
}

func TestRunWiresLifecycleHooks(t *testing.T) {
	t.Setenv("BUTTONBOT_TEST_CONFIG", "from-env.yaml")
	app := &stubApp{}
	var loadedPath string

	err := Run(Options{
		ConfigEnvVar: "BUTTONBOT_TEST_CONFIG",
		LoadConfig: func(path string) (*coreconfig.Config, error) {
			loadedPath = path
			return &coreconfig.Config{}, nil
		},
		Bootstrap: func(context.Context, *coreconfig.Config) (TelegramApp, error) {
			return app, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", loadedPath)
	assert.True(t, app.started)
	assert.True(t, app.stopped)
}

func TestRunFailsOnConfigError(t *testing.T) {
	errBad := errors.New("bad config")
	bootstrapped := false

	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (*coreconfig.Config, error) { return nil, errBad },
		Bootstrap: func(context.Context, *coreconfig.Config) (TelegramApp, error) {
			bootstrapped = true
			return nil, nil
		},
	})

	require.ErrorIs(t, err, errBad)
	assert.False(t, bootstrapped)
}
