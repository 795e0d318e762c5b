package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/settingsfile"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update timer settings",
	Example: `  pomostudy settings
  pomostudy settings --work 50 --short 10 --intervals 3
  pomostudy settings --notifications=false`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

func init() {
	addSettingsFlags(settingsCmd)
}

func addSettingsFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("work", pomostudy.DefaultWorkMinutes, "Work interval in minutes")
	flags.Int("short", pomostudy.DefaultShortBreakMinutes, "Short break in minutes")
	flags.Int("long", pomostudy.DefaultLongBreakMinutes, "Long break in minutes")
	flags.Int("intervals", pomostudy.DefaultSessionsBeforeLongBreak, "Work intervals before a long break")
	flags.Bool("notifications", true, "Notify when an interval completes")
}

func runSettings(cmd *cobra.Command, _ []string) error {
	settings, err := settingsfile.Load(cfg.SettingsPath)
	if err != nil {
		return err
	}

	changed, err := applySettingsFlags(cmd, &settings)
	if err != nil {
		return err
	}
	if changed {
		if err := settingsfile.Save(cfg.SettingsPath, settings); err != nil {
			return err
		}
	}
	printSettings(cmd.OutOrStdout(), settings)
	return nil
}

// applySettingsFlags copies explicitly set flags onto s.
func applySettingsFlags(cmd *cobra.Command, s *pomostudy.Settings) (bool, error) {
	flags := cmd.Flags()
	ints := []struct {
		name string
		dst  *int
	}{
		{"work", &s.WorkMinutes},
		{"short", &s.ShortBreakMinutes},
		{"long", &s.LongBreakMinutes},
		{"intervals", &s.SessionsBeforeLongBreak},
	}

	var changed bool
	for _, f := range ints {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetInt(f.name)
		if err != nil {
			return false, err
		}
		*f.dst = v
		changed = true
	}
	if flags.Changed("notifications") {
		v, err := flags.GetBool("notifications")
		if err != nil {
			return false, err
		}
		s.Notifications = v
		changed = true
	}
	return changed, nil
}

func printSettings(w io.Writer, s pomostudy.Settings) {
	fmt.Fprintf(w, "%-20s%dm\n", pomostudy.WorkInterval, s.WorkMinutes)
	fmt.Fprintf(w, "%-20s%dm\n", pomostudy.ShortBreakInterval, s.ShortBreakMinutes)
	fmt.Fprintf(w, "%-20s%dm\n", pomostudy.LongBreakInterval, s.LongBreakMinutes)
	fmt.Fprintf(w, "%-20s%d\n", "Long break every", s.SessionsBeforeLongBreak)
	fmt.Fprintf(w, "%-20s%t\n", "Notifications", s.Notifications)
}
