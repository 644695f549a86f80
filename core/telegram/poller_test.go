package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/buttonbot/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerLongpollDefault(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeLongpoll

	p, ok := BuildPoller(cfg).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, p.Timeout)
}

func TestBuildPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	cfg.Webhook = coreconfig.WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443}

	p, ok := BuildPoller(cfg).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", p.Listen)
	assert.Equal(t, "https://example.org/hook", p.Endpoint.PublicURL)
}
