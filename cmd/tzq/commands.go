package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/query"
	"github.com/codeGROOVE-dev/tzq/pkg/render"
	"github.com/codeGROOVE-dev/tzq/pkg/settings"
	"github.com/codeGROOVE-dev/tzq/pkg/tzconvert"
	"github.com/codeGROOVE-dev/tzq/pkg/tzq"
	"github.com/codeGROOVE-dev/tzq/pkg/verify"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
	"github.com/spf13/cobra"
)

const version = "v0.4.0"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "tzq [question]",
		Version: version,
		Short:   "Answer timezone questions in plain English",
		Long: `tzq converts times between timezones from plain-English questions.

Examples:

  # Convert a time between two places
  $ tzq 3pm EST to Tokyo

  # Name one place and the home zone fills the other side
  $ tzq what time is 9:30 in London tomorrow

  # Show a zone's day and the working hours it shares with another
  $ tzq hours tokyo --with berlin

Configuration is read from $XDG_CONFIG_HOME/tzq/config.yaml (or --config)
and TZQ_* environment variables, e.g. TZQ_AI_PROVIDER=openai.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.ask(cmd, args)
		},
	}
	root.SetVersionTemplate(`{{printf "tzq %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default $XDG_CONFIG_HOME/tzq/config.yaml)")
	pf.Bool("verbose", false, "enable verbose logging")
	pf.String("ai-provider", "", "AI provider used to fill in what the parser misses ("+strings.Join(verify.Providers(), ", ")+")")
	pf.String("ai-key", "", "AI provider API key (or the provider's own variable, e.g. OPENAI_API_KEY)")
	pf.String("ai-model", "", "AI model (defaults per provider)")
	pf.String("ai-base-url", "", "override the AI provider endpoint")
	pf.String("gcp-project", "", "GCP project for Gemini via Vertex AI")
	pf.String("home-zone", "", "zone used when a question names only one place (default: system zone)")
	pf.String("validity", query.RequireTimeAndZone.String(), "what a question must contain: time+zone or zone")
	pf.String("settings", "", "settings file (default $XDG_CONFIG_HOME/tzq/settings.json)")
	pf.String("cache-dir", "", "cache directory (default $XDG_CACHE_HOME/tzq)")
	pf.Bool("no-cache", false, "disable caching")
	pf.String("news-url", "", "scrape headlines from this URL; {city} is replaced with the city name")
	pf.Bool("json", false, "print JSON instead of text")
	pf.Bool("24h", false, "use 24-hour clock output")

	root.Flags().Bool("context", false, "also show weather and news for both places")

	root.AddCommand(newAskCmd(a), newZonesCmd(a), newHoursCmd(a), newContextCmd(a), newSettingsCmd(a))
	return root
}

func newAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Convert a time described in plain English",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ask(cmd, args)
		},
	}
	cmd.Flags().Bool("context", false, "also show weather and news for both places")
	return cmd
}

func (a *app) ask(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	answer, err := a.engine.Ask(cmd.Context(), strings.Join(args, " "))
	var qerr *tzq.QueryError
	if errors.As(err, &qerr) {
		if a.v.GetBool("json") {
			return errors.Join(writeJSON(out, map[string]any{
				"error":       qerr.Error(),
				"suggestions": qerr.Suggestions,
			}), err)
		}
		fmt.Fprintf(out, "Could not answer %q\n", qerr.Query.OriginalText)
		for _, s := range qerr.Suggestions {
			fmt.Fprintf(out, "  • %s\n", s)
		}
		return err
	}
	if err != nil {
		return err
	}

	withContext, _ := cmd.Flags().GetBool("context") //nolint:errcheck // flag is always defined
	if a.v.GetBool("json") {
		if !withContext {
			return writeJSON(out, answer)
		}
		panel, err := a.engine.Panel(cmd.Context(), answer)
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]any{"answer": answer, "context": panel})
	}

	fmt.Fprint(out, render.Conversion(answer.Result, a.renderOptions()))
	if answer.UsedHomeZone {
		fmt.Fprintf(out, "(home zone %s)\n", a.engine.HomeZone())
	}
	if withContext {
		panel, err := a.engine.Panel(cmd.Context(), answer)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, render.Panel(answer.Result.From, answer.Result.To, panel))
	}
	return nil
}

func newZonesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones [search]",
		Short: "List known timezones, optionally filtered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // flag is always defined
			var records []zones.Record
			if len(args) == 0 {
				records = a.engine.Registry().All()
			} else {
				records = a.engine.Registry().Search(args[0], limit)
			}
			if len(records) == 0 && len(args) > 0 {
				return fmt.Errorf("%w: %q", zones.ErrNotFound, args[0])
			}
			if a.v.GetBool("json") {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Zones(records, a.settings.Snapshot().FavoriteTimezones))
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of search results")
	return cmd
}

func newHoursCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hours <zone>",
		Short: "Show a zone's 24 hours and shared working hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			dateFlag, _ := cmd.Flags().GetString("date") //nolint:errcheck // flag is always defined
			date, err := a.day(dateFlag, rec)
			if err != nil {
				return err
			}
			hours, err := a.engine.Hours(rec.ID, date)
			if err != nil {
				return err
			}

			with, _ := cmd.Flags().GetString("with") //nolint:errcheck // flag is always defined
			var other zones.Record
			var slots []tzconvert.OverlapSlot
			if with != "" {
				if other, err = a.resolve(with); err != nil {
					return err
				}
				if slots, err = a.engine.Overlap(rec.ID, other.ID, date); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if a.v.GetBool("json") {
				resp := map[string]any{"zone": rec, "hours": hours}
				if with != "" {
					resp["with"] = other
					resp["overlap"] = slots
				}
				return writeJSON(out, resp)
			}

			o := a.renderOptions()
			fmt.Fprint(out, render.Hours(rec, hours, a.now(), o))
			if with != "" {
				fmt.Fprintln(out)
				fmt.Fprint(out, render.Overlap(rec, other, slots, o))
			}
			return nil
		},
	}
	cmd.Flags().String("with", "", "second zone to compare working hours with")
	cmd.Flags().String("date", "", "day to show as YYYY-MM-DD (default today)")
	return cmd
}

func newContextCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "context <from> <to>",
		Short: "Show weather for both places and news from the second",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			to, err := a.resolve(args[1])
			if err != nil {
				return err
			}
			panel, err := a.engine.PanelFor(cmd.Context(), from.ID, to.ID)
			if err != nil {
				return err
			}
			if a.v.GetBool("json") {
				return writeJSON(cmd.OutOrStdout(), panel)
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Panel(from, to, panel))
			return nil
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change saved preferences",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := settings.Encode(a.settings.Snapshot())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	set := &cobra.Command{
		Use:       "set <theme|time-format|voice-duration> <value>",
		Short:     "Change a setting",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"theme", "time-format", "voice-duration"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch args[0] {
			case "theme":
				err = a.settings.SetTheme(args[1])
			case "time-format":
				err = a.settings.SetTimeFormat(args[1])
			case "voice-duration":
				n, convErr := strconv.Atoi(args[1])
				if convErr != nil {
					return fmt.Errorf("%w: voice duration %q is not a number", settings.ErrInvalidValue, args[1])
				}
				err = a.settings.SetVoiceInputDuration(n)
			default:
				return fmt.Errorf("unknown setting %q", args[0])
			}
			if err != nil {
				return err
			}
			return a.settings.Save(cmd.Context())
		},
	}

	fav := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite zones",
	}
	fav.AddCommand(&cobra.Command{
		Use:   "add <zone>",
		Short: "Add a favorite zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			if err := a.settings.AddFavorite(rec.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "★ %s\n", rec.ID)
			return a.settings.Save(cmd.Context())
		},
	}, &cobra.Command{
		Use:   "rm <zone>",
		Short: "Remove a favorite zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if rec, err := a.resolve(id); err == nil {
				id = rec.ID
			}
			if err := a.settings.RemoveFavorite(id); err != nil {
				return err
			}
			return a.settings.Save(cmd.Context())
		},
	})

	cmd.AddCommand(show, set, fav)
	return cmd
}

// resolve turns free text ("tokyo", "EST", an IANA ID) into a record.
func (a *app) resolve(text string) (zones.Record, error) {
	registry := a.engine.Registry()
	if id, ok := registry.Resolve(text); ok {
		if rec, ok := registry.ByID(id); ok {
			return rec, nil
		}
	}
	return zones.Record{}, fmt.Errorf("%w: %q", zones.ErrNotFound, text)
}

// day parses a YYYY-MM-DD flag, defaulting to today in rec's zone.
func (a *app) day(s string, rec zones.Record) (time.Time, error) {
	if s == "" {
		loc, err := rec.Location()
		if err != nil {
			return time.Time{}, err
		}
		return a.now().In(loc), nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
