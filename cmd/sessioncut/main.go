// Package main provides the CLI entrypoint for sessioncut.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sessioncut/internal/calendar"
	"github.com/verte-zerg/sessioncut/internal/config"
	"github.com/verte-zerg/sessioncut/internal/gate"
	"github.com/verte-zerg/sessioncut/internal/segment"
	"github.com/verte-zerg/sessioncut/internal/session"
	"github.com/verte-zerg/sessioncut/internal/store"
)

var (
	configPath string
	dbPath     string
	logLevel   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sessioncut",
		Short:         "Cut transcribed resolution volumes into dated sessions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newSegmentCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newCalendarCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// resolveDBPath picks the --db flag, then the config file, then the XDG default.
func resolveDBPath(fileCfg config.FileConfig) string {
	if dbPath != "" {
		return dbPath
	}
	if fileCfg.Segment.DB != nil && *fileCfg.Segment.DB != "" {
		return *fileCfg.Segment.DB
	}
	return config.DefaultDBPath()
}

func openStore(fileCfg config.FileConfig) (*store.Store, error) {
	st, err := store.Open(resolveDBPath(fileCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		logErrln("Created", path)
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	sc := session.DefaultConfig()
	return fmt.Sprintf(`# sessioncut configuration
# Uncomment a value to enable it. CLI flags override config values.

[segment]
# gate-size = %d              # Lines in the gated window
# shut-threshold = %d        # Character total below which lines pass the gate
# window-size = %d            # Lines in the opening detector window
# score-threshold = %.2f      # Opening order score that cuts a session
# min-labels = %d              # Distinct opening labels needed for a score
# vocabulary-workdays = %d     # Workdays of date phrases searched ahead
# max-pending-lines = %d   # Lines held before a forced cut
# saturday-rest-from = %d   # First year with Saturday as a rest day
# db = "/path/to/sessioncut.db"

[positions]
# date-max-offset = %d         # Characters into a line a date may start
# date-max-line = %d           # Window lines a date may appear in
# president-after-date = [%d, %d]
# attendants-after-date = [%d, %d]
# attendants-after-president = [%d, %d]
# holiday-after-date = [%d, %d]
# reviewed-after-attendants = [%d, %d]

[shift]
# penultimate-max-workdays = %d
# previous-max-workdays = %d
# lines-per-workday = %d
# set-back-days = %d

[fuzzy]
# char-match-threshold = %.2f
# ngram-threshold = %.2f
# levenshtein-threshold = %.2f
# max-length-variance = %d
# skip-size = %d
# ignore-case = %t

[tables]
# Relative paths are resolved against %s
# names = "names.yaml"
# exceptions = "exceptions.yaml"
# phrases = "phrases.yaml"

# [[inventory]]
# num = 3760
# start = "1727-01-01"
# end = "1727-12-31"
# mapper = "printed"          # printed or handwritten
`,
		gate.DefaultSize,
		gate.DefaultShutThreshold,
		sc.WindowSize,
		sc.ScoreThreshold,
		sc.MinLabels,
		sc.VocabularyWorkdays,
		segment.DefaultMaxPendingLines,
		calendar.DefaultSaturdayRestFrom,
		sc.Positions.DateMaxOffset,
		sc.Positions.DateMaxLine,
		sc.Positions.PresidentAfterDate.Min, sc.Positions.PresidentAfterDate.Max,
		sc.Positions.AttendantsAfterDate.Min, sc.Positions.AttendantsAfterDate.Max,
		sc.Positions.AttendantsAfterPresident.Min, sc.Positions.AttendantsAfterPresident.Max,
		sc.Positions.HolidayAfterDate.Min, sc.Positions.HolidayAfterDate.Max,
		sc.Positions.ReviewedAfterAttendants.Min, sc.Positions.ReviewedAfterAttendants.Max,
		sc.Shift.PenultimateMaxWorkdays,
		sc.Shift.PreviousMaxWorkdays,
		sc.Shift.LinesPerWorkday,
		sc.Shift.SetBackDays,
		sc.Fuzzy.CharMatchThreshold,
		sc.Fuzzy.NgramThreshold,
		sc.Fuzzy.LevenshteinThreshold,
		sc.Fuzzy.MaxLengthVariance,
		sc.Fuzzy.SkipSize,
		sc.Fuzzy.IgnoreCase,
		config.DefaultTablesDir(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
