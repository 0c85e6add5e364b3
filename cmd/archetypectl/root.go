package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agenthands/archetypes/internal/app"
	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core"
	"github.com/agenthands/archetypes/internal/core/influence"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/logging"
	"github.com/agenthands/archetypes/internal/store"
)

type rootOptions struct {
	configPath string
	memory     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "archetypectl",
		Short:         "Classify content against archetypes and detect emerging ones",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.toml", "path to the TOML configuration")
	rootCmd.PersistentFlags().BoolVar(&opts.memory, "memory", false, "use an in-memory store seeded from the batch file instead of Memgraph")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newClassifyCmd(opts),
		newEmergingCmd(opts),
		newInfluenceCmd(opts),
		newContentInfluenceCmd(opts),
	)
	return rootCmd
}

// session is one CLI invocation's wired pipeline.
type session struct {
	pipeline *core.Orchestrator
	store    store.ContentStore
	logger   *logrus.Logger
}

func (s *session) Close() {
	if err := s.pipeline.Close(); err != nil {
		s.logger.WithError(err).Warn("failed to close pipeline")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Close(ctx); err != nil {
		s.logger.WithError(err).Warn("failed to close store")
	}
}

func openSession(ctx context.Context, opts *rootOptions, seed []model.Archetype) (*session, error) {
	boot := logging.NewLogger(config.LogConfig{Level: "warn"})
	cfg, err := app.LoadConfig(opts.configPath, boot)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	logger := logging.NewLogger(cfg.Log)

	var st store.ContentStore
	if opts.memory {
		st = store.NewMemoryStore(seed...)
	} else {
		if len(seed) > 0 {
			logger.WithField("archetypes", len(seed)).Warn("batch archetypes are only used with --memory")
		}
		gs, err := app.OpenGraphStore(ctx, cfg.Memgraph, logger)
		if err != nil {
			return nil, err
		}
		st = gs
	}

	pipeline, err := app.NewPipeline(ctx, cfg, st, logger)
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	return &session{pipeline: pipeline, store: st, logger: logger}, nil
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var persist bool

	cmd := &cobra.Command{
		Use:   "classify <batch-file>",
		Short: "Classify a batch of content",
		Long: `Embed, cluster and classify the items of a batch file and print the report.

With --persist the classifications are stored and proposals above the
candidate threshold are promoted to archetypes.`,
		Example: `  # Dry run against seed archetypes from the file
  archetypectl classify batch.yaml --memory

  # Classify and store results in Memgraph
  archetypectl classify batch.json --persist`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			batch, items, err := readItems(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(ctx, opts, batch.Archetypes)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.pipeline.ProcessContent(ctx, items)
			if err != nil {
				return fmt.Errorf("failed to classify batch: %w", err)
			}
			if !persist {
				return printJSON(cmd.OutOrStdout(), map[string]any{"report": report})
			}
			promoted, err := s.pipeline.ApplyReport(ctx, items, report)
			if err != nil {
				return fmt.Errorf("failed to persist report: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"report": report, "promoted": promoted})
		},
	}

	cmd.Flags().BoolVar(&persist, "persist", false, "store classifications and promote proposals")
	return cmd
}

func newEmergingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "emerging <batch-file>",
		Short: "Propose archetypes for clusters unlike the existing ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			batch, items, err := readItems(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(ctx, opts, batch.Archetypes)
			if err != nil {
				return err
			}
			defer s.Close()

			proposals, err := s.pipeline.IdentifyEmergingArchetypes(ctx, items)
			if err != nil {
				return fmt.Errorf("failed to identify emerging archetypes: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"proposals": proposals})
		},
	}
}

func newInfluenceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "influence [batch-file]",
		Short: "Recompute influence scores of stored archetypes",
		Long: `Recompute and store the influence score of every archetype.

In --memory mode the store starts empty, so the batch file's archetypes
are seeded and its items are classified and persisted first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var seed []model.Archetype
			var items []model.ContentItem
			if len(args) == 1 {
				batch, parsed, err := readItems(args[0])
				if err != nil {
					return err
				}
				seed, items = batch.Archetypes, parsed
			}
			s, err := openSession(ctx, opts, seed)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(items) > 0 {
				report, err := s.pipeline.ProcessContent(ctx, items)
				if err != nil {
					return fmt.Errorf("failed to classify batch: %w", err)
				}
				if _, err := s.pipeline.ApplyReport(ctx, items, report); err != nil {
					return fmt.Errorf("failed to persist report: %w", err)
				}
			}

			scores, err := s.pipeline.UpdateInfluenceScores(ctx)
			if err != nil {
				s.logger.WithError(err).Warn("some influence scores were not stored")
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"scores": scores})
		},
	}
}

func newContentInfluenceCmd(opts *rootOptions) *cobra.Command {
	var archetypeID, strategy string

	cmd := &cobra.Command{
		Use:   "content-influence <batch-file>",
		Short: "Score each item's contribution to an archetype",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStrategy(strategy)
			if err != nil {
				return err
			}
			if archetypeID == "" {
				return fmt.Errorf("--archetype is required")
			}
			batch, items, err := readItems(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), opts, batch.Archetypes)
			if err != nil {
				return err
			}
			defer s.Close()

			scores := s.pipeline.ScoreContent(archetypeID, items, st)
			return printJSON(cmd.OutOrStdout(), map[string]any{"archetype_id": archetypeID, "scores": scores})
		},
	}

	cmd.Flags().StringVar(&archetypeID, "archetype", "", "archetype ID to score against")
	cmd.Flags().StringVar(&strategy, "strategy", "", "engagement|spread|growth|hybrid (default: configured strategy)")
	return cmd
}

func readItems(path string) (*batchFile, []model.ContentItem, error) {
	batch, err := loadBatch(path)
	if err != nil {
		return nil, nil, err
	}
	items, err := batch.ContentItems(time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}
	return batch, items, nil
}

func parseStrategy(s string) (influence.Strategy, error) {
	switch st := influence.Strategy(s); st {
	case "", influence.StrategyEngagement, influence.StrategySpread, influence.StrategyGrowth, influence.StrategyHybrid:
		return st, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
