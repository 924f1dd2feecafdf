// Package settings owns the user's preferences: theme, clock format,
// favorite zones and voice input duration.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// ErrInvalidValue is returned by mutators given an out-of-range value.
var ErrInvalidValue = errors.New("invalid settings value")

// Accepted values.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"

	Format12h = "12h"
	Format24h = "24h"

	MinVoiceInputDuration     = 1
	MaxVoiceInputDuration     = 60
	DefaultVoiceInputDuration = 5
)

// Settings is a snapshot of user preferences.
type Settings struct {
	Theme              string   `json:"theme"`
	TimeFormat         string   `json:"timeFormat"`
	FavoriteTimezones  []string `json:"favoriteTimezones"`
	VoiceInputDuration int      `json:"voiceInputDuration"`
}

// Defaults returns the settings used for missing or invalid values.
func Defaults() Settings {
	return Settings{
		Theme:              ThemeDark,
		TimeFormat:         Format12h,
		FavoriteTimezones:  []string{},
		VoiceInputDuration: DefaultVoiceInputDuration,
	}
}

func (s Settings) clone() Settings {
	s.FavoriteTimezones = slices.Clone(s.FavoriteTimezones)
	if s.FavoriteTimezones == nil {
		s.FavoriteTimezones = []string{}
	}
	return s
}

// IsFavorite reports whether id is a favorite.
func (s Settings) IsFavorite(id string) bool {
	return lo.Contains(s.FavoriteTimezones, id)
}

// Uses24h reports whether times should be shown on a 24-hour clock.
func (s Settings) Uses24h() bool {
	return s.TimeFormat == Format24h
}

func validTheme(v string) bool {
	return v == ThemeDark || v == ThemeLight
}

func validFormat(v string) bool {
	return v == Format12h || v == Format24h
}

func validDuration(v int) bool {
	return v >= MinVoiceInputDuration && v <= MaxVoiceInputDuration
}

// normalizeFavorites drops unknown IDs and returns the rest sorted and unique.
func normalizeFavorites(ids []string, registry *zones.Registry, logger *slog.Logger) []string {
	known := lo.Filter(ids, func(id string, _ int) bool {
		if _, ok := registry.ByID(id); ok {
			return true
		}
		logger.Warn("dropping unknown favorite timezone", "id", id)
		return false
	})
	out := lo.Uniq(known)
	slices.Sort(out)
	return out
}

// blob mirrors the stored JSON. Pointers distinguish missing keys.
type blob struct {
	Theme              *string  `json:"theme"`
	TimeFormat         *string  `json:"timeFormat"`
	FavoriteTimezones  []string `json:"favoriteTimezones"`
	VoiceInputDuration *int     `json:"voiceInputDuration"`
}

// Decode parses a stored blob. Missing keys take defaults; invalid values
// are replaced by defaults with a warning. Only malformed JSON is an error,
// and even then the defaults are returned.
func Decode(data []byte, registry *zones.Registry, logger *slog.Logger) (Settings, error) {
	s := Defaults()
	if len(data) == 0 {
		return s, nil
	}

	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return s, fmt.Errorf("decoding settings: %w", err)
		}
		logger.Warn("settings field has the wrong type, using default", "field", typeErr.Field, "error", err)
	}

	if b.Theme != nil {
		if validTheme(*b.Theme) {
			s.Theme = *b.Theme
		} else {
			logger.Warn("invalid theme in settings, using default", "theme", *b.Theme)
		}
	}
	if b.TimeFormat != nil {
		if validFormat(*b.TimeFormat) {
			s.TimeFormat = *b.TimeFormat
		} else {
			logger.Warn("invalid time format in settings, using default", "timeFormat", *b.TimeFormat)
		}
	}
	if b.VoiceInputDuration != nil {
		if validDuration(*b.VoiceInputDuration) {
			s.VoiceInputDuration = *b.VoiceInputDuration
		} else {
			logger.Warn("voice input duration out of range, using default", "voiceInputDuration", *b.VoiceInputDuration)
		}
	}
	if b.FavoriteTimezones != nil {
		s.FavoriteTimezones = normalizeFavorites(b.FavoriteTimezones, registry, logger)
	}
	return s, nil
}

// Encode renders settings as stored JSON.
func Encode(s Settings) ([]byte, error) {
	data, err := json.MarshalIndent(s.clone(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return append(data, '\n'), nil
}
