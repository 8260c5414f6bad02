package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Branches BranchesConfig `toml:"branches"`
	Publish  PublishConfig  `toml:"publish"`
	Lock     LockConfig     `toml:"lock"`
	Rewrite  RewriteConfig  `toml:"rewrite"`
	Update   UpdateConfig   `toml:"update"`

	// Credential token, sourced from the environment only (never serialized)
	Token string `toml:"-"`
	// RepoRoot override from the environment (never serialized)
	RepoRoot string `toml:"-"`
}

type BranchesConfig struct {
	// MainBranch is empty by default; the run detects main vs master
	MainBranch string `toml:"main_branch"`
	// ReleasePrefix is prepended to the version to form the release branch name
	ReleasePrefix string `toml:"release_prefix"`
	// Keep is how many release branches retention leaves behind
	Keep int `toml:"keep"`
}

type PublishConfig struct {
	// Attempts bounds push retries before publish failure is fatal
	Attempts int `toml:"attempts"`
	// RetryDelaySecs between attempts of network-touching operations
	RetryDelaySecs int `toml:"retry_delay_secs"`
	// ProbeTimeoutSecs for the remote reachability probe
	ProbeTimeoutSecs int `toml:"probe_timeout_secs"`
}

type LockConfig struct {
	// TimeoutSecs to wait for the run lock before giving up
	TimeoutSecs int `toml:"timeout_secs"`
	// PollMillis between lock acquisition attempts
	PollMillis int `toml:"poll_millis"`
}

type RewriteConfig struct {
	// ExcludePatterns are glob patterns for filenames the rename pass must
	// leave alone (historical per-version scripts)
	ExcludePatterns []string `toml:"exclude_patterns"`
}

type UpdateConfig struct {
	Enabled        bool      `toml:"enabled"`
	LastCheck      time.Time `toml:"last_check"`
	SkippedVersion string    `toml:"skipped_version"`
	Repo           string    `toml:"repo"`
}

func DefaultConfig() *Config {
	return &Config{
		Branches: BranchesConfig{
			MainBranch:    "",
			ReleasePrefix: "release/v",
			Keep:          50,
		},
		Publish: PublishConfig{
			Attempts:         3,
			RetryDelaySecs:   2,
			ProbeTimeoutSecs: 10,
		},
		Lock: LockConfig{
			TimeoutSecs: 120,
			PollMillis:  500,
		},
		Rewrite: RewriteConfig{
			ExcludePatterns: []string{"*v[0-9]*.[0-9]*.[0-9]*.*"},
		},
		Update: UpdateConfig{
			Enabled: true,
			Repo:    "wahlandcase/attuned.relsync",
		},
	}
}

func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "relsync.toml"), nil
}

// Path returns the config file location
func Path() (string, error) {
	return configPath()
}

func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			_ = cfg.Save() // Best effort save
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers environment overrides on top of the file. The token is
// environment-only: it must never land in the TOML file.
func (c *Config) applyEnv() {
	if tok := os.Getenv("RELSYNC_TOKEN"); tok != "" {
		c.Token = tok
	} else if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		c.Token = tok
	}

	if root := os.Getenv("RELSYNC_ROOT"); root != "" {
		c.RepoRoot = expandTilde(root)
	}

	if keep := os.Getenv("RELSYNC_KEEP"); keep != "" {
		if n, err := strconv.Atoi(keep); err == nil && n >= 0 {
			c.Branches.Keep = n
		}
	}
}

func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// RetryDelay returns the configured inter-attempt delay as a duration
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Publish.RetryDelaySecs) * time.Second
}

// ProbeTimeout returns the remote probe timeout as a duration
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Publish.ProbeTimeoutSecs) * time.Second
}

// LockTimeout returns the lock acquisition timeout as a duration
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Lock.TimeoutSecs) * time.Second
}

// LockPoll returns the lock polling interval as a duration
func (c *Config) LockPoll() time.Duration {
	return time.Duration(c.Lock.PollMillis) * time.Millisecond
}

// Validate rejects configurations the state machine cannot run with
func (c *Config) Validate() error {
	if c.Publish.Attempts < 1 {
		return fmt.Errorf("publish.attempts must be >= 1, got %d", c.Publish.Attempts)
	}
	if c.Branches.Keep < 0 {
		return fmt.Errorf("branches.keep must be >= 0, got %d", c.Branches.Keep)
	}
	if c.Branches.ReleasePrefix == "" {
		return fmt.Errorf("branches.release_prefix must not be empty")
	}
	return nil
}

// ShouldCheckForUpdate returns true if update check is enabled and 24h since last check
func (c *Config) ShouldCheckForUpdate() bool {
	if !c.Update.Enabled {
		return false
	}
	return time.Since(c.Update.LastCheck) > 24*time.Hour
}

// RecordUpdateCheck updates the last check time
func (c *Config) RecordUpdateCheck() {
	c.Update.LastCheck = time.Now()
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
