package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/settings"
	"github.com/codeGROOVE-dev/tzq/pkg/tzq"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type cli struct {
	t        *testing.T
	settings string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{"TZQ_HOME_ZONE", "TZQ_AI_PROVIDER", "TZQ_AI_KEY", "TZQ_VALIDITY", "TZQ_SETTINGS"} {
		t.Setenv(k, "")
	}
	return &cli{t: t, settings: filepath.Join(dir, "tzq", "settings.json")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	a := newApp()
	a.now = func() time.Time { return time.Date(2026, time.January, 14, 12, 0, 0, 0, time.UTC) }
	a.stderr = io.Discard
	defer a.close()

	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--no-cache", "--settings", c.settings}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskText(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("ask", "3pm", "EST", "to", "Tokyo")
	require.NoError(t, err)
	assert.Contains(t, out, "3:00 PM  New York (EST)")
	assert.Contains(t, out, "5:00 AM  Tokyo (JST)  next day")
}

func TestBareArgsAsk(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("--home-zone", "UTC", "5pm", "in", "Berlin")
	require.NoError(t, err)
	assert.Contains(t, out, "5:00 PM  Berlin")
	assert.Contains(t, out, "4:00 PM")
	assert.Contains(t, out, "(home zone UTC)")
}

func TestAskJSON(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("--json", "ask", "3pm EST to Tokyo")
	require.NoError(t, err)

	var a tzq.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "America/New_York", a.Result.From.ID)
	assert.Equal(t, "Asia/Tokyo", a.Result.To.ID)
	assert.Equal(t, 14, a.Result.HourDelta)
	assert.Equal(t, tzq.SourceParser, a.Source)
}

func TestAskInvalid(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("ask", "tomorrow")
	require.ErrorIs(t, err, tzq.ErrInvalidQuery)
	assert.Contains(t, out, `Could not answer "tomorrow"`)
	assert.Contains(t, out, "Add a city or timezone")
}

func TestAskWithContext(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("ask", "--context", "noon London to Sydney")
	require.NoError(t, err)
	assert.Contains(t, out, "Weather")
	assert.Contains(t, out, "News from Sydney")
}

func TestAskZoneValidity(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("--validity", "zone", "--json", "what time is it in tokyo")
	require.NoError(t, err)

	var a tzq.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.True(t, a.UsedNow)
	assert.Equal(t, "Asia/Tokyo", a.Result.From.ID)
}

func TestZones(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("zones", "tokyo")
	require.NoError(t, err)
	assert.Contains(t, out, "Asia/Tokyo")

	_, err = c.run("zones", "qqqqqq")
	require.ErrorIs(t, err, zones.ErrNotFound)
}

func TestHoursWithOverlap(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("--json", "hours", "tokyo", "--with", "berlin", "--date", "2026-01-14")
	require.NoError(t, err)

	var resp struct {
		Zone    zones.Record      `json:"zone"`
		Hours   []json.RawMessage `json:"hours"`
		Overlap []json.RawMessage `json:"overlap"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Asia/Tokyo", resp.Zone.ID)
	assert.Len(t, resp.Hours, 24)
	assert.Len(t, resp.Overlap, 1)

	out, err = c.run("hours", "tokyo", "--with", "berlin", "--date", "2026-01-14", "--24h")
	require.NoError(t, err)
	assert.Contains(t, out, "Working hours overlap: Tokyo ↔ Berlin")
	assert.Contains(t, out, "17:00  ↔     09:00")

	_, err = c.run("hours", "tokyo", "--date", "14/01/2026")
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("context", "london", "tokyo")
	require.NoError(t, err)
	assert.Contains(t, out, "London")
	assert.Contains(t, out, "News from Tokyo")

	_, err = c.run("context", "london", "atlantis")
	require.ErrorIs(t, err, zones.ErrNotFound)
}

func TestSettingsCommands(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("settings", "set", "theme", "light")
	require.NoError(t, err)
	_, err = c.run("settings", "set", "time-format", "24h")
	require.NoError(t, err)
	_, err = c.run("settings", "fav", "add", "tokyo")
	require.NoError(t, err)

	out, err := c.run("settings", "show")
	require.NoError(t, err)
	s, err := settings.Decode([]byte(out), zones.Default(), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeLight, s.Theme)
	assert.Equal(t, settings.Format24h, s.TimeFormat)
	assert.Equal(t, []string{"Asia/Tokyo"}, s.FavoriteTimezones)

	out, err = c.run("zones", "tokyo")
	require.NoError(t, err)
	assert.Contains(t, out, "★ Asia/Tokyo")

	out, err = c.run("ask", "3pm EST to Tokyo")
	require.NoError(t, err)
	assert.Contains(t, out, "15:00  New York")

	_, err = c.run("settings", "fav", "rm", "tokyo")
	require.NoError(t, err)
	out, err = c.run("settings", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "Asia/Tokyo")

	_, err = c.run("settings", "set", "theme", "purple")
	require.ErrorIs(t, err, settings.ErrInvalidValue)
	_, err = c.run("settings", "set", "voice-duration", "soon")
	require.ErrorIs(t, err, settings.ErrInvalidValue)
}

func TestEnvironmentConfig(t *testing.T) {
	c := newCLI(t)
	t.Setenv("TZQ_HOME_ZONE", "Asia/Tokyo")

	out, err := c.run("--json", "9am in London")
	require.NoError(t, err)
	var a tzq.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "Asia/Tokyo", a.Result.To.ID)
}

func TestConfigFile(t *testing.T) {
	c := newCLI(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "tzq")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("home-zone: Europe/Paris\n"), 0o600))

	out, err := c.run("--json", "9am in London")
	require.NoError(t, err)
	var a tzq.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "Europe/Paris", a.Result.To.ID)

	_, err = c.run("--config", filepath.Join(dir, "missing.yaml"), "9am in London")
	require.Error(t, err)
}

func TestUnknownHomeZone(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("--home-zone", "Mars/Base", "3pm EST to Tokyo")
	require.ErrorIs(t, err, zones.ErrNotFound)
}
