package gitsource

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"mercator-hq/relay/pkg/policy/git"
	"mercator-hq/relay/pkg/reload"
)

// Metrics tracks Source's poll/reload activity.
type Metrics struct {
	PollCount         int64
	SuccessfulReloads int64
	FailedReloads     int64
	LastReloadTime    time.Time
	LastReloadDur     time.Duration
	SkippedPolls      int64
}

// Source polls a Git repository for configuration changes and drives
// reload.Controller.Reload when one is found.
type Source struct {
	repo         *git.Repository
	pollInterval time.Duration
	pollTimeout  time.Duration
	controller   *reload.Controller

	stopCh        chan struct{}
	mu            sync.RWMutex
	running       bool
	lastCommitSHA string

	debounceTimer *time.Timer
	debounceMu    sync.Mutex

	logger  *slog.Logger
	metrics *Metrics
}

// NewSource creates a Source polling repo at the given interval (using
// timeout for each individual Git operation) and calling
// controller.Reload whenever a polled commit touches a *.toml file.
func NewSource(repo *git.Repository, interval, timeout time.Duration, controller *reload.Controller) *Source {
	return &Source{
		repo:         repo,
		pollInterval: interval,
		pollTimeout:  timeout,
		controller:   controller,
		stopCh:       make(chan struct{}),
		logger:       slog.Default(),
		metrics:      &Metrics{},
	}
}

// SetLogger sets a custom logger for the source.
func (s *Source) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Start begins polling in the background. The context governs the
// poll loop's lifetime; cancelling it (or calling Stop) ends polling.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("gitsource: already running")
	}

	commit, err := s.repo.GetCurrentCommit()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("gitsource: initial commit: %w", err)
	}
	s.lastCommitSHA = commit.SHA
	s.running = true
	s.mu.Unlock()

	s.logger.Info("gitsource: started", "poll_interval", s.pollInterval, "initial_commit", commit.SHA)

	go s.pollLoop(ctx)
	return nil
}

// Stop halts the poll loop. Returns an error if the source is not
// currently running.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("gitsource: not running")
	}

	close(s.stopCh)
	s.running = false

	s.debounceMu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceMu.Unlock()

	return nil
}

func (s *Source) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.checkForChanges(ctx); err != nil {
				s.logger.Error("gitsource: poll failed", "error", err)
			}
		}
	}
}

func (s *Source) checkForChanges(ctx context.Context) error {
	s.metrics.PollCount++

	pullCtx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	defer cancel()

	result, err := s.repo.Pull(pullCtx)
	if err != nil {
		return fmt.Errorf("gitsource: pull: %w", err)
	}
	if !result.HadChanges {
		return nil
	}

	s.logger.Info("gitsource: detected changes",
		"from_sha", result.FromSHA, "to_sha", result.ToSHA, "changed_files", len(result.ChangedFiles))

	if !hasConfigChanges(result.ChangedFiles) {
		s.metrics.SkippedPolls++
		s.mu.Lock()
		s.lastCommitSHA = result.ToSHA
		s.mu.Unlock()
		return nil
	}

	s.debounceReload(ctx, result.ToSHA)
	return nil
}

// hasConfigChanges reports whether any changed file is a *.toml
// configuration file — the one extension gitsource cares about.
func hasConfigChanges(files []string) bool {
	for _, f := range files {
		if filepath.Ext(f) == ".toml" {
			return true
		}
	}
	return false
}

// debounceReload collapses a burst of rapid commits into a single
// reload, firing 100ms after the most recent one.
func (s *Source) debounceReload(ctx context.Context, newSHA string) {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
		if err := s.performReload(ctx, newSHA); err != nil {
			s.logger.Error("gitsource: reload failed", "error", err)
		}
	})
}

func (s *Source) performReload(ctx context.Context, newSHA string) error {
	start := time.Now()
	defer func() {
		s.metrics.LastReloadDur = time.Since(start)
		s.metrics.LastReloadTime = time.Now()
	}()

	s.mu.RLock()
	previousSHA := s.lastCommitSHA
	s.mu.RUnlock()

	s.logger.Info("gitsource: reloading", "commit_sha", newSHA)

	if err := s.controller.Reload(ctx); err != nil {
		s.metrics.FailedReloads++
		s.logger.Error("gitsource: build failed, rolling back checkout",
			"error", err, "rollback_to", previousSHA)

		if rollbackErr := s.repo.Rollback(ctx, previousSHA); rollbackErr != nil {
			return fmt.Errorf("reload failed and rollback failed: %w (rollback: %v)", err, rollbackErr)
		}
		// The checkout is back to the last-known-good commit, but the
		// in-memory pipeline never changed (Reload published nothing on
		// failure) — nothing further to reload.
		return fmt.Errorf("reload failed, checkout rolled back to %s: %w", previousSHA, err)
	}

	s.mu.Lock()
	s.lastCommitSHA = newSHA
	s.mu.Unlock()

	s.metrics.SuccessfulReloads++
	s.logger.Info("gitsource: reload complete", "from_sha", previousSHA, "to_sha", newSHA)
	return nil
}

// GetMetrics returns a copy of the source's current metrics.
func (s *Source) GetMetrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.metrics
}
