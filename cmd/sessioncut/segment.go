package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sessioncut/internal/config"
	"github.com/verte-zerg/sessioncut/internal/linestream"
	"github.com/verte-zerg/sessioncut/internal/model"
	"github.com/verte-zerg/sessioncut/internal/report"
	"github.com/verte-zerg/sessioncut/internal/segment"
	"github.com/verte-zerg/sessioncut/internal/store"
)

var (
	segInventory       int
	segStart           string
	segEnd             string
	segMapper          string
	segFormat          string
	segJSONL           string
	segNoStore         bool
	segGateSize        int
	segShutThreshold   int
	segWindowSize      int
	segScoreThreshold  float64
	segMaxPendingLines int
)

func newSegmentCmd() *cobra.Command {
	defaults := segment.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "segment <input>",
		Short: "Segment a line stream into sessions",
		Long:  "Reads a JSONL or plain-text line stream (\"-\" for stdin) and stores the resulting sessions.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSegmentCmd,
	}
	cmd.Flags().IntVar(&segInventory, "inventory", 0, "inventory number")
	cmd.Flags().StringVar(&segStart, "start", "", "first date of the inventory (YYYY-MM-DD)")
	cmd.Flags().StringVar(&segEnd, "end", "", "last date of the inventory (YYYY-MM-DD)")
	cmd.Flags().StringVar(&segMapper, "mapper", "printed", "date name mapper (printed, handwritten)")
	cmd.Flags().StringVar(&segFormat, "format", "", "input format (jsonl, text; default: from extension)")
	cmd.Flags().StringVar(&segJSONL, "jsonl", "", "also write session metadata as JSONL to this path")
	cmd.Flags().BoolVar(&segNoStore, "no-store", false, "do not write sessions to the database")
	cmd.Flags().IntVar(&segGateSize, "gate-size", defaults.GateSize, "lines in the gated window")
	cmd.Flags().IntVar(&segShutThreshold, "shut-threshold", defaults.ShutThreshold, "character total below which lines pass the gate")
	cmd.Flags().IntVar(&segWindowSize, "window-size", defaults.Session.WindowSize, "lines in the opening detector window")
	cmd.Flags().Float64Var(&segScoreThreshold, "score-threshold", defaults.Session.ScoreThreshold, "opening order score that cuts a session")
	cmd.Flags().IntVar(&segMaxPendingLines, "max-pending-lines", defaults.MaxPendingLines, "lines held before a forced cut")
	return cmd
}

func runSegmentCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := buildSegmentConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	inv, err := resolveInventory(cmd, fileCfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	cal, err := fileCfg.Calendar(inv.Mapper)
	if err != nil {
		return err
	}
	phrases, err := fileCfg.Phrases()
	if err != nil {
		return err
	}
	seg, err := segment.New(segment.Options{
		Inventory: inv,
		Config:    cfg,
		Calendar:  cal,
		Phrases:   phrases,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	src, err := linestream.Open(args[0], linestream.Format(segFormat))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logErrf("failed to close input: %v\n", cerr)
		}
	}()

	var sink sessionSink
	if !segNoStore {
		st, err := openStore(fileCfg)
		if err != nil {
			return err
		}
		defer closeStore(st)
		sink.store = st
	}
	if segJSONL != "" {
		w, err := linestream.CreateJSONL(segJSONL)
		if err != nil {
			return err
		}
		sink.jsonl = w
	}

	ctx := context.Background()
	if err := sink.begin(ctx, inv.Num, args[0]); err != nil {
		return err
	}
	runErr := seg.Run(src, func(s model.Session) error {
		return sink.add(ctx, s)
	})
	if err := sink.finish(ctx, runErr); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("failed to segment %s: %w", args[0], runErr)
	}

	if err := report.RenderSummary(cmd.OutOrStdout(), report.Summarize(sink.sessions)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if sink.runID != "" {
		logErrf("Stored run %s in %s\n", sink.runID, resolveDBPath(fileCfg))
	}
	if segJSONL != "" {
		logErrf("Wrote %s\n", segJSONL)
	}
	return nil
}

// buildSegmentConfig layers defaults, the config file and flags.
func buildSegmentConfig(cmd *cobra.Command, fileCfg config.FileConfig) (segment.Config, error) {
	cfg := segment.DefaultConfig()
	if err := fileCfg.ApplyTo(&cfg); err != nil {
		return segment.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	applyIntConfig(cmd, "gate-size", &segGateSize, fileCfg.Segment.GateSize)
	applyIntConfig(cmd, "shut-threshold", &segShutThreshold, fileCfg.Segment.ShutThreshold)
	applyIntConfig(cmd, "window-size", &segWindowSize, fileCfg.Segment.WindowSize)
	applyFloatConfig(cmd, "score-threshold", &segScoreThreshold, fileCfg.Segment.ScoreThreshold)
	applyIntConfig(cmd, "max-pending-lines", &segMaxPendingLines, fileCfg.Segment.MaxPendingLines)
	cfg.GateSize = segGateSize
	cfg.ShutThreshold = segShutThreshold
	cfg.Session.WindowSize = segWindowSize
	cfg.Session.ScoreThreshold = segScoreThreshold
	cfg.MaxPendingLines = segMaxPendingLines
	return cfg, validateSegmentConfig(cfg)
}

func validateSegmentConfig(cfg segment.Config) error {
	if cfg.GateSize < 2 {
		return fmt.Errorf("--gate-size must be >= 2")
	}
	if cfg.ShutThreshold <= 0 {
		return fmt.Errorf("--shut-threshold must be > 0")
	}
	if cfg.Session.WindowSize < cfg.Session.Positions.DateMaxLine+1 {
		return fmt.Errorf("--window-size must cover the date lines (>= %d)", cfg.Session.Positions.DateMaxLine+1)
	}
	if cfg.Session.ScoreThreshold < 0 || cfg.Session.ScoreThreshold >= 1 {
		return fmt.Errorf("--score-threshold must be in [0, 1)")
	}
	if cfg.MaxPendingLines <= cfg.Session.WindowSize {
		return fmt.Errorf("--max-pending-lines must exceed the window size")
	}
	return nil
}

// resolveInventory merges the configured inventory with flag overrides.
func resolveInventory(cmd *cobra.Command, fileCfg config.FileConfig) (model.Inventory, error) {
	if segInventory <= 0 {
		return model.Inventory{}, fmt.Errorf("--inventory is required")
	}
	if inv, ok := fileCfg.Inventory(segInventory); ok {
		applyStringConfig(cmd, "start", &segStart, nonEmpty(inv.Start))
		applyStringConfig(cmd, "end", &segEnd, nonEmpty(inv.End))
		applyStringConfig(cmd, "mapper", &segMapper, nonEmpty(inv.Mapper))
	}
	if segStart == "" {
		return model.Inventory{}, fmt.Errorf("--start is required for inventory %d (not in config)", segInventory)
	}
	return model.Inventory{Num: segInventory, Start: segStart, End: segEnd, Mapper: segMapper}, nil
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// sessionSink fans finished sessions out to the store and the JSONL export.
type sessionSink struct {
	store     *store.Store
	jsonl     *linestream.JSONLWriter
	runID     string
	inventory int
	path      string
	started   time.Time
	sessions  []model.SessionMetadata
}

func (s *sessionSink) begin(ctx context.Context, inventory int, path string) error {
	s.inventory = inventory
	s.path = path
	s.started = time.Now()
	if s.store == nil {
		return nil
	}
	runID, err := s.store.BeginRun(ctx, inventory, path, s.started)
	if err != nil {
		if s.jsonl != nil {
			s.jsonl.Abort()
		}
		return fmt.Errorf("failed to record run: %w", err)
	}
	s.runID = runID
	return nil
}

func (s *sessionSink) add(ctx context.Context, sess model.Session) error {
	if s.store != nil {
		if err := s.store.InsertSession(ctx, s.runID, sess); err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}
	}
	if s.jsonl != nil {
		if err := s.jsonl.Write(sess.Metadata); err != nil {
			return err
		}
	}
	md := sess.Metadata
	md.Evidence = nil
	s.sessions = append(s.sessions, md)
	return nil
}

// finish closes the run. A failed run keeps its stored sessions but no export.
func (s *sessionSink) finish(ctx context.Context, runErr error) error {
	if s.jsonl != nil {
		if runErr != nil {
			s.jsonl.Abort()
		} else if err := s.jsonl.Commit(); err != nil {
			return err
		}
	}
	if s.store == nil {
		return nil
	}
	summary := model.RunSummary{
		RunID:     s.runID,
		Inventory: s.inventory,
		InputPath: s.path,
		StartedAt: s.started,
		EndedAt:   time.Now(),
		Sessions:  len(s.sessions),
	}
	for _, md := range s.sessions {
		switch md.Status {
		case model.StatusQuarantined:
			summary.Quarantined++
		case model.StatusSetBack:
			summary.SetBack++
		}
	}
	if err := s.store.FinishRun(ctx, summary); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}
