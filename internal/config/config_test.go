package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraconfig "github.com/hayan-web/health-auto-blog-sub000/infrastructure/config"
	"github.com/hayan-web/health-auto-blog-sub000/internal/config"
	"github.com/hayan-web/health-auto-blog-sub000/internal/selector"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "data/state.json", cfg.Service.StatePath)
	assert.InDelta(t, 0.12, *cfg.Selection.ExploreRate, 1e-9)
	assert.InDelta(t, 0.65, *cfg.Selection.TopicWeight, 1e-9)
	assert.InDelta(t, 0.18, *cfg.Selection.LifeEpsilon, 1e-9)
	assert.InDelta(t, 1.15, cfg.Selection.RPM["health"], 1e-9)
	assert.Equal(t, int64(120), cfg.Cooldown.MinImpressions)
	assert.Equal(t, 3, *cfg.Blacklist.DefaultDays)
	assert.Equal(t, int64(3), cfg.Ceilings().MaxPostsPerDay)
	assert.Equal(t, 10*time.Minute, cfg.Redis.LockTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ExplicitZeroIsKept(t *testing.T) {
	path := writeConfig(t, `
selection:
  explore_rate: 0
  image_styles: [a, b]
budget:
  max_posts_per_day: 0
topics:
  schedule:
    - {from_hour: 12, topic: it}
    - {from_hour: 0, topic: health}
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0, cfg.Blend().ExploreRate, 1e-9)
	assert.Equal(t, []string{"a", "b"}, cfg.Selection.ImageStyles)
	assert.Equal(t, int64(0), cfg.Ceilings().MaxPostsPerDay)
	assert.Equal(t, int64(12), cfg.Ceilings().MaxImagesPerDay)
	assert.Equal(t, "health", cfg.Topics.Schedule[0].Topic)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTOBLOG_STATE_PATH", "/tmp/x.json")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("AUTOBLOG_TRACKING_SECRET", "s3cret")

	cfg, err := config.Load(writeConfig(t, "service:\n  state_path: file.json\n"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.json", cfg.Service.StatePath)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "s3cret", cfg.Tracking.HMACSecret)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"probability", "selection:\n  ucb_epsilon: 1.5\n", "selection.ucb_epsilon"},
		{"schedule hour", "topics:\n  schedule:\n    - {from_hour: 24, topic: it}\n", "topics.schedule"},
		{"log level", "logging:\n  level: loud\n", "logging.level"},
		{"port", "server:\n  port: 70000\n", "server.port"},
		{"blacklist days zero", "blacklist:\n  default_days: 0\n", "blacklist.default_days"},
		{"blacklist days negative", "blacklist:\n  default_days: -2\n", "blacklist.default_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)

			var verr *infraconfig.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoad_PartialRPMKeepsDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "selection:\n  rpm:\n    health: 2.0\n    travel: 0.8\n"))
	require.NoError(t, err)

	u := cfg.UCB()
	assert.InDelta(t, 2.0, u.RevenueWeight("health"), 1e-9)
	assert.InDelta(t, 0.8, u.RevenueWeight("travel"), 1e-9)
	assert.InDelta(t, selector.DefaultRPMByTopic()["life"], u.RevenueWeight("life"), 1e-9)
	assert.InDelta(t, selector.DefaultRPMByTopic()["it"], u.RevenueWeight("it"), 1e-9)
}

func TestLoad_BlacklistDaysKept(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "blacklist:\n  default_days: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, *cfg.Blacklist.DefaultDays)
}
