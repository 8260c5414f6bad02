// Package transport resolves which protocol can reach the remote (key-based
// SSH first, token-over-HTTPS fallback) and memoizes the answer for the
// rest of the run.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wahlandcase/attuned.relsync/internal/git"
	"github.com/wahlandcase/attuned.relsync/internal/models"
	"github.com/wahlandcase/attuned.relsync/internal/retry"

	"github.com/rs/zerolog"
)

// ErrUnavailable means neither protocol could reach the remote
var ErrUnavailable = errors.New("no remote transport available")

// Each protocol gets a second probe attempt before the resolver moves on,
// so one dropped connection does not misclassify a reachable remote
const (
	probeAttempts = 2
	probeDelay    = time.Second
)

// Resolver probes and caches the transport for one run
type Resolver struct {
	repo         models.RepoInfo
	token        string
	probeTimeout time.Duration
	log          zerolog.Logger

	mode        models.TransportMode
	resolved    bool
	originalURL string
}

// NewResolver creates a Resolver for the given repository. token may be
// empty, which disables the HTTPS fallback.
func NewResolver(repo models.RepoInfo, token string, probeTimeout time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{repo: repo, token: token, probeTimeout: probeTimeout, log: log}
}

// Resolve probes the remote and returns the usable transport mode. The
// result is cached; later calls return it without re-probing. As a side
// effect the repository's origin URL is switched to the winning protocol.
func (r *Resolver) Resolve(ctx context.Context) (models.TransportMode, error) {
	if r.resolved {
		if r.mode == models.TransportUnavailable {
			return r.mode, ErrUnavailable
		}
		return r.mode, nil
	}

	// Remember the URL we found so Cleanup can restore it
	if url, err := git.RemoteURL(r.repo.Path); err == nil {
		r.originalURL = url
	}

	if r.repo.Slug != "" {
		if err := git.SetRemoteURL(r.repo.Path, r.repo.SSHRemoteURL()); err != nil {
			return models.TransportUnavailable, fmt.Errorf("configuring ssh remote: %w", err)
		}
	}

	if err := r.probe(ctx); err == nil {
		r.mode = models.TransportSSH
		r.resolved = true
		r.log.Info().Str("mode", r.mode.Display()).Msg("remote transport resolved")
		return r.mode, nil
	} else {
		r.log.Debug().Err(err).Msg("ssh probe failed")
	}

	if r.token != "" && r.repo.Slug != "" {
		if err := git.SetRemoteURL(r.repo.Path, r.repo.TokenRemoteURL(r.token)); err != nil {
			return models.TransportUnavailable, fmt.Errorf("configuring https remote: %w", err)
		}
		if err := r.probe(ctx); err == nil {
			r.mode = models.TransportTokenHTTPS
			r.resolved = true
			r.log.Info().Str("mode", r.mode.Display()).Msg("remote transport resolved")
			return r.mode, nil
		} else {
			r.log.Debug().Err(err).Msg("token https probe failed")
		}
	}

	r.mode = models.TransportUnavailable
	r.resolved = true
	return r.mode, ErrUnavailable
}

// probe runs the lightweight remote listing call, each attempt under its
// own timeout
func (r *Resolver) probe(ctx context.Context) error {
	return retry.Do(ctx, r.log, "remote probe", probeAttempts, probeDelay, func() error {
		probeCtx := ctx
		if r.probeTimeout > 0 {
			var cancel context.CancelFunc
			probeCtx, cancel = context.WithTimeout(ctx, r.probeTimeout)
			defer cancel()
		}
		return git.LsRemote(probeCtx, r.repo.Path)
	})
}

// Mode returns the memoized transport without probing
func (r *Resolver) Mode() models.TransportMode {
	return r.mode
}

// Cleanup restores the original remote URL so the token never outlives the
// run in git config. Must run on every exit path.
func (r *Resolver) Cleanup() {
	if r.originalURL == "" {
		return
	}
	if err := git.SetRemoteURL(r.repo.Path, r.originalURL); err != nil {
		r.log.Warn().Err(err).Msg("failed to restore original remote url")
	}
}
