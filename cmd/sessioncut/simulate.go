package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sessioncut/internal/linestream"
	"github.com/verte-zerg/sessioncut/internal/model"
	"github.com/verte-zerg/sessioncut/internal/segment"
	"github.com/verte-zerg/sessioncut/internal/synth"
)

var (
	simStart   string
	simEnd     string
	simMapper  string
	simSeed    int64
	simMinBody int
	simMaxBody int
	simNoise   float64
	simBlank   float64
	simSkip    float64
	simTruth   string
	simCheck   bool
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <output.jsonl>",
		Short: "Generate a synthetic line stream with known sessions",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulateCmd,
	}
	cmd.Flags().StringVar(&simStart, "start", "", "first session date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&simEnd, "end", "", "last session date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&simMapper, "mapper", "printed", "date name mapper (printed, handwritten)")
	cmd.Flags().Int64Var(&simSeed, "seed", 1, "random seed (0: time based)")
	cmd.Flags().IntVar(&simMinBody, "min-body", 40, "minimum body lines per session")
	cmd.Flags().IntVar(&simMaxBody, "max-body", 120, "maximum body lines per session")
	cmd.Flags().Float64Var(&simNoise, "noise", 0, "OCR substitution rate in opening lines (0-1)")
	cmd.Flags().Float64Var(&simBlank, "blank", 0, "blank line rate after body lines (0-1)")
	cmd.Flags().Float64Var(&simSkip, "skip", 0, "rate of workdays without a session (0-1)")
	cmd.Flags().StringVar(&simTruth, "truth", "", "write the true session starts as JSONL to this path")
	cmd.Flags().BoolVar(&simCheck, "check", false, "segment the stream and report recall")
	return cmd
}

func validateSimulateFlags() error {
	if simStart == "" || simEnd == "" {
		return fmt.Errorf("--start and --end are required")
	}
	if simMinBody <= 0 || simMaxBody < simMinBody {
		return fmt.Errorf("--min-body must be > 0 and <= --max-body")
	}
	for name, v := range map[string]float64{"noise": simNoise, "blank": simBlank, "skip": simSkip} {
		if v < 0 || v > 1 {
			return fmt.Errorf("--%s must be between 0 and 1", name)
		}
	}
	return nil
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	if err := validateSimulateFlags(); err != nil {
		return err
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cal, err := fileCfg.Calendar(simMapper)
	if err != nil {
		return err
	}
	gen := synth.New(cal, simSeed)
	if simSeed == 0 {
		gen = synth.NewRandom(cal)
	}
	lines, truth, err := gen.Generate(synth.Options{
		Start:     simStart,
		End:       simEnd,
		MinBody:   simMinBody,
		MaxBody:   simMaxBody,
		NoiseRate: simNoise,
		BlankRate: simBlank,
		SkipRate:  simSkip,
	})
	if err != nil {
		return err
	}
	if err := linestream.WriteLines(args[0], lines); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	logErrf("Wrote %d lines in %d sessions to %s\n", len(lines), len(truth), args[0])
	if simTruth != "" {
		if err := writeTruth(simTruth, truth); err != nil {
			return err
		}
		logErrf("Wrote %s\n", simTruth)
	}
	if !simCheck {
		return nil
	}

	cfg := segment.DefaultConfig()
	if err := fileCfg.ApplyTo(&cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	seg, err := segment.New(segment.Options{
		Inventory: model.Inventory{Num: 0, Start: simStart, End: simEnd, Mapper: simMapper},
		Config:    cfg,
		Calendar:  cal,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	var found []model.SessionMetadata
	if err := seg.Run(synth.NewSource(lines), func(s model.Session) error {
		found = append(found, s.Metadata)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to segment generated stream: %w", err)
	}
	score := synth.Compare(truth, found)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Sessions: %d expected, %d found\nBoundary recall: %.1f%%\nDate accuracy: %.1f%%\n",
		score.Expected, score.Found, score.BoundaryRecall()*100, score.DateAccuracy()*100)
	return err
}

func writeTruth(path string, truth []synth.Truth) error {
	w, err := linestream.CreateJSONL(path)
	if err != nil {
		return err
	}
	for _, t := range truth {
		if err := w.Write(t); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}
