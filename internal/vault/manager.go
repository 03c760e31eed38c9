// Package vault assembles the storage engine: the set repository, icon
// registry, archive packager, and study log behind one handle guarded by a
// filesystem lock.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"cardvault/internal/archive"
	"cardvault/internal/cards"
	"cardvault/internal/config"
	"cardvault/internal/icons"
	"cardvault/internal/logging"
	"cardvault/internal/media"
	"cardvault/internal/sets"
	"cardvault/internal/studylog"
	"cardvault/internal/vaulterr"
)

// Manager is the vault-level entry point. A Manager owns the vault lock for
// its lifetime; Close releases it.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	store    *sets.Store
	icons    *icons.Registry
	media    *media.Store
	packager *archive.Packager
	study    *studylog.Store

	lockPath string
	lock     *flock.Flock
}

// Open builds the vault at the configured location and acquires its lock.
// A vault already held by another process fails immediately rather than
// blocking.
func Open(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.VaultDir, "vault.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire vault lock: %w", err)
	}
	if !ok {
		return nil, errors.New("vault is locked by another process")
	}

	cleanup := func() { _ = lock.Unlock() }

	store, err := sets.NewStore(cfg.SetsDir(), logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	registry, err := icons.NewRegistry(cfg.IconsDir(), logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "vault"),
		store:    store,
		icons:    registry,
		media:    media.NewStore(cfg.SetsDir()),
		packager: archive.NewPackager(store, registry, cfg.Paths.StagingDir, logger),
		lockPath: lockPath,
		lock:     lock,
	}

	if cfg.Study.LogEnabled {
		study, err := studylog.Open(cfg.StudyDatabasePath())
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("open study log: %w", err)
		}
		m.study = study
	}

	m.logger.Info("vault opened", logging.String("path", cfg.Paths.VaultDir))
	return m, nil
}

// Close releases the vault lock and the study database.
func (m *Manager) Close() error {
	var firstErr error
	if m.study != nil {
		if err := m.study.Close(); err != nil {
			firstErr = err
		}
		m.study = nil
	}
	if m.lock != nil {
		if err := m.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.lock = nil
	}
	return firstErr
}

// Sets exposes the set repository.
func (m *Manager) Sets() *sets.Store { return m.store }

// Icons exposes the icon registry.
func (m *Manager) Icons() *icons.Registry { return m.icons }

// Media exposes the media store.
func (m *Manager) Media() *media.Store { return m.media }

// Packager exposes the archive packager.
func (m *Manager) Packager() *archive.Packager { return m.packager }

// StudyLog returns the study store, or nil when study logging is disabled.
func (m *Manager) StudyLog() *studylog.Store { return m.study }

// DeleteSet removes a set and, when study logging is enabled, its history.
func (m *Manager) DeleteSet(ctx context.Context, name string) error {
	if err := m.store.Delete(name); err != nil {
		return err
	}
	if m.study != nil {
		if err := m.study.DeleteSet(ctx, name); err != nil {
			m.logger.Warn("study history not deleted", logging.String("set", name), logging.Error(err))
		}
	}
	return nil
}

// RenameSet renames a set and carries its study history along.
func (m *Manager) RenameSet(ctx context.Context, oldName, newName string) error {
	if err := m.store.Rename(oldName, newName); err != nil {
		return err
	}
	if m.study != nil {
		if err := m.study.RenameSet(ctx, oldName, newName); err != nil {
			m.logger.Warn("study history not renamed", logging.String("set", oldName), logging.Error(err))
		}
	}
	return nil
}

// RecordStatus stamps a card's study status on both the set and, when
// enabled, the study log.
func (m *Manager) RecordStatus(ctx context.Context, setName, cardID string, status cards.Status) error {
	set, err := m.store.Load(setName)
	if err != nil {
		return err
	}
	card := set.Card(cardID)
	if card == nil {
		return vaulterr.NotFoundf("card %q not found in set %q", cardID, setName)
	}
	if err := card.SetStatus(status); err != nil {
		return err
	}
	if err := m.store.Save(set); err != nil {
		return err
	}
	if m.study != nil {
		if err := m.study.RecordStatus(ctx, setName, cardID, status); err != nil {
			m.logger.Warn("study event not recorded", logging.String("set", setName), logging.Error(err))
		}
	}
	return nil
}

// Statistics summarizes the whole vault.
type Statistics struct {
	TotalSets  int
	TotalCards int
	VaultPath  string
}

// Statistics counts sets and cards from metadata alone, skipping sets whose
// metadata cannot be parsed.
func (m *Manager) Statistics() (Statistics, error) {
	names, err := m.store.List()
	if err != nil {
		return Statistics{}, err
	}
	stats := Statistics{TotalSets: len(names), VaultPath: m.cfg.Paths.VaultDir}
	for _, name := range names {
		meta, err := m.store.LoadMetadata(name)
		if err != nil {
			continue
		}
		stats.TotalCards += meta.CardCount
	}
	return stats, nil
}
