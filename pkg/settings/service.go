package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// Service holds the current settings. Mutators validate and replace the
// snapshot in memory; nothing is written until Save.
type Service struct {
	store     Store
	registry  *zones.Registry
	logger    *slog.Logger
	current   Settings
	lastSaved []byte
	mu        sync.RWMutex
	dirty     bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRegistry sets the registry used to validate favorite zones.
func WithRegistry(r *zones.Registry) Option {
	return func(s *Service) {
		s.registry = r
	}
}

// New creates a service holding defaults until Load is called.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: zones.Default(),
		logger:   slog.Default(),
		current:  Defaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads settings from the store, replacing the in-memory snapshot and
// discarding unsaved changes. A corrupt blob yields defaults and an error.
func (s *Service) Load(ctx context.Context) error {
	data, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	loaded, decodeErr := Decode(data, s.registry, s.logger)

	s.mu.Lock()
	s.current = loaded
	s.lastSaved = data
	s.dirty = false
	s.mu.Unlock()

	return decodeErr
}

// Save writes the current snapshot.
func (s *Service) Save(ctx context.Context) error {
	s.mu.RLock()
	snap := s.current.clone()
	s.mu.RUnlock()

	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, data); err != nil {
		return err
	}

	s.mu.Lock()
	s.lastSaved = data
	// Only clear dirty if nothing changed while writing.
	if equal(s.current, snap) {
		s.dirty = false
	}
	s.mu.Unlock()
	s.logger.Debug("settings saved")
	return nil
}

// Snapshot returns a copy of the current settings.
func (s *Service) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Dirty reports whether there are unsaved changes.
func (s *Service) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Service) update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current.clone()
	fn(&next)
	if !equal(next, s.current) {
		s.current = next
		s.dirty = true
	}
}

// SetTheme sets "dark" or "light".
func (s *Service) SetTheme(theme string) error {
	if !validTheme(theme) {
		return fmt.Errorf("%w: theme %q (want %s or %s)", ErrInvalidValue, theme, ThemeDark, ThemeLight)
	}
	s.update(func(st *Settings) { st.Theme = theme })
	return nil
}

// SetTimeFormat sets "12h" or "24h".
func (s *Service) SetTimeFormat(format string) error {
	if !validFormat(format) {
		return fmt.Errorf("%w: time format %q (want %s or %s)", ErrInvalidValue, format, Format12h, Format24h)
	}
	s.update(func(st *Settings) { st.TimeFormat = format })
	return nil
}

// SetVoiceInputDuration sets the listening window in seconds.
func (s *Service) SetVoiceInputDuration(seconds int) error {
	if !validDuration(seconds) {
		return fmt.Errorf("%w: voice input duration %d (want %d-%d)", ErrInvalidValue, seconds, MinVoiceInputDuration, MaxVoiceInputDuration)
	}
	s.update(func(st *Settings) { st.VoiceInputDuration = seconds })
	return nil
}

func (s *Service) checkZone(id string) error {
	if _, ok := s.registry.ByID(id); !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidValue, zones.ErrNotFound, id)
	}
	return nil
}

// AddFavorite adds a zone ID to favorites.
func (s *Service) AddFavorite(id string) error {
	if err := s.checkZone(id); err != nil {
		return err
	}
	s.update(func(st *Settings) {
		if !lo.Contains(st.FavoriteTimezones, id) {
			st.FavoriteTimezones = append(st.FavoriteTimezones, id)
			slices.Sort(st.FavoriteTimezones)
		}
	})
	return nil
}

// RemoveFavorite removes a zone ID from favorites. Removing an ID that
// isn't a favorite is a no-op.
func (s *Service) RemoveFavorite(id string) error {
	s.update(func(st *Settings) {
		st.FavoriteTimezones = lo.Without(st.FavoriteTimezones, id)
	})
	return nil
}

// ToggleFavorite adds or removes id and reports whether it is now a favorite.
func (s *Service) ToggleFavorite(id string) (bool, error) {
	if s.Snapshot().IsFavorite(id) {
		return false, s.RemoveFavorite(id)
	}
	if err := s.AddFavorite(id); err != nil {
		return false, err
	}
	return true, nil
}

// Watch reloads settings when the store's file changes on disk, until ctx
// is done. Changes are ignored while there are unsaved local edits. Watch
// requires a FileStore.
func (s *Service) Watch(ctx context.Context) error {
	fs, ok := s.store.(FileStore)
	if !ok {
		return errors.New("settings watch requires a file store")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			s.logger.Debug("failed to close watcher", "error", err)
		}
	}()

	// The file is replaced by rename on save, so watch its directory.
	dir := filepath.Dir(fs.Path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(fs.Path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", "error", err)
		}
	}
}

func (s *Service) reload(ctx context.Context) {
	if s.Dirty() {
		s.logger.Info("settings file changed but there are unsaved changes, not reloading")
		return
	}
	data, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to reload settings", "error", err)
		return
	}

	s.mu.RLock()
	same := bytes.Equal(data, s.lastSaved)
	s.mu.RUnlock()
	if same {
		return
	}

	s.logger.Info("settings file changed, reloading")
	if err := s.Load(ctx); err != nil {
		s.logger.Warn("reloaded settings were invalid", "error", err)
	}
}

func equal(a, b Settings) bool {
	return a.Theme == b.Theme &&
		a.TimeFormat == b.TimeFormat &&
		a.VoiceInputDuration == b.VoiceInputDuration &&
		slices.Equal(a.FavoriteTimezones, b.FavoriteTimezones)
}
