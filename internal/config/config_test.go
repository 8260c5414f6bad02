package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "release/v", cfg.Branches.ReleasePrefix)
	assert.Equal(t, 50, cfg.Branches.Keep)
	assert.Equal(t, 3, cfg.Publish.Attempts)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RELSYNC_TOKEN", "tok-from-env")
	t.Setenv("RELSYNC_KEEP", "7")
	t.Setenv("RELSYNC_ROOT", "/srv/checkout")

	cfg := DefaultConfig()
	cfg.applyEnv()

	assert.Equal(t, "tok-from-env", cfg.Token)
	assert.Equal(t, 7, cfg.Branches.Keep)
	assert.Equal(t, "/srv/checkout", cfg.RepoRoot)
}

func TestGithubTokenFallback(t *testing.T) {
	t.Setenv("RELSYNC_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "gh-token")

	cfg := DefaultConfig()
	cfg.applyEnv()

	assert.Equal(t, "gh-token", cfg.Token)
}

func TestInvalidKeepEnvIgnored(t *testing.T) {
	t.Setenv("RELSYNC_KEEP", "not-a-number")

	cfg := DefaultConfig()
	cfg.applyEnv()

	assert.Equal(t, 50, cfg.Branches.Keep)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}},
		{name: "zero attempts", mutate: func(c *Config) { c.Publish.Attempts = 0 }, wantErr: true},
		{name: "negative keep", mutate: func(c *Config) { c.Branches.Keep = -1 }, wantErr: true},
		{name: "keep zero allowed", mutate: func(c *Config) { c.Branches.Keep = 0 }},
		{name: "empty prefix", mutate: func(c *Config) { c.Branches.ReleasePrefix = "" }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
