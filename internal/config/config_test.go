package config_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/polite-crawler/internal/config"
)

func TestWithDefaultValues(t *testing.T) {
	seed, _ := url.Parse("http://example.com/")
	cfg := config.WithDefault([]url.URL{*seed}).Build()

	assert.Len(t, cfg.SeedURLs(), 1)
	assert.Equal(t, 5, cfg.ConcurrentRequestsLimit())
	assert.True(t, cfg.RobotsEnabled())
	assert.False(t, cfg.RobotsIgnoreServerError())
	assert.Equal(t, time.Hour, cfg.RobotsCacheTime())
	assert.Equal(t, "url", cfg.TableName())
	assert.Positive(t, cfg.Interval().Resolve())
}

func TestBuilderChain(t *testing.T) {
	cfg := config.WithDefault(nil).
		WithInterval(config.StaticInterval(2 * time.Second)).
		WithConcurrentRequestsLimit(3).
		WithUserAgent(config.Static("custom/2.0")).
		WithMaxContentLength(config.Static[int64](4096)).
		WithRobotsEnabled(false).
		Build()

	u, _ := url.Parse("http://example.com/")
	assert.Equal(t, 2*time.Second, cfg.Interval().Resolve())
	assert.Equal(t, 3, cfg.ConcurrentRequestsLimit())
	assert.Equal(t, "custom/2.0", cfg.UserAgent().Resolve(*u))
	assert.Equal(t, int64(4096), cfg.MaxContentLength().Resolve(*u))
	assert.False(t, cfg.RobotsEnabled())
}

func TestWithConfigFile(t *testing.T) {
	content := `{
		"seedUrls": ["http://example.com/"],
		"interval": 500000000,
		"concurrentRequestsLimit": 2,
		"userAgent": "filebot/1.0",
		"robotsIgnoreServerError": true,
		"tableName": "frontier"
	}`
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.WithConfigFile(path)
	require.NoError(t, err)

	u, _ := url.Parse("http://example.com/")
	assert.Equal(t, 500*time.Millisecond, cfg.Interval().Resolve())
	assert.Equal(t, 2, cfg.ConcurrentRequestsLimit())
	assert.Equal(t, "filebot/1.0", cfg.UserAgent().Resolve(*u))
	assert.True(t, cfg.RobotsIgnoreServerError())
	assert.Equal(t, "frontier", cfg.TableName())
	require.Len(t, cfg.SeedURLs(), 1)
	assert.Equal(t, "http://example.com/", cfg.SeedURLs()[0].String())
}

func TestWithConfigFileMissing(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, config.ErrFileDoesNotExist)
}

func TestWithConfigFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := config.WithConfigFile(path)
	assert.ErrorIs(t, err, config.ErrConfigParsingFail)
}

func TestDynamicIntervalResolvesPerTick(t *testing.T) {
	calls := 0
	interval := config.DynamicInterval(func() time.Duration {
		calls++
		return time.Duration(calls) * time.Millisecond
	})

	assert.Equal(t, time.Millisecond, interval.Resolve())
	assert.Equal(t, 2*time.Millisecond, interval.Resolve())
}

func TestDynamicPerURLOption(t *testing.T) {
	userAgent := config.Dynamic(func(u url.URL) string {
		return "agent-for-" + u.Host
	})

	a, _ := url.Parse("http://a.example.com/")
	b, _ := url.Parse("http://b.example.com/")
	assert.Equal(t, "agent-for-a.example.com", userAgent.Resolve(*a))
	assert.Equal(t, "agent-for-b.example.com", userAgent.Resolve(*b))
}
