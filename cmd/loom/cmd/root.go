package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openkg/loom/internal/config"
	"github.com/openkg/loom/internal/harmonize"
	"github.com/openkg/loom/internal/store"
)

var (
	cfgPath  string
	logLevel string
	verbose  bool
	quiet    bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Knowledge-graph harmonization service",
	Long: `loom harmonizes heterogeneous RDF data into a unified knowledge
graph: schema mapping, entity resolution, value normalization, conflict
handling and quality scoring.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env values become ordinary env vars for config overrides; a
		// missing file is fine.
		_ = godotenv.Load()
		logger = newLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config/config.toml", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "shortcut for --log-level debug")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "shortcut for --log-level warn")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger builds the CLI logger. Level precedence: --log-level, then
// --verbose/--quiet, then LOOM_LOG_LEVEL, then info.
func newLogger() zerolog.Logger {
	level := logLevel
	if level == "" {
		switch {
		case verbose && quiet:
			fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
			level = "warn"
		case verbose:
			level = "debug"
		case quiet:
			level = "warn"
		default:
			level = os.Getenv("LOOM_LOG_LEVEL")
		}
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(parsed).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}

// buildStore opens the persistence backend named in the config.
func buildStore(ctx context.Context, cfg *config.Config) (store.TripleStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStore(cfg.Store.SQLitePath)
	case "memgraph":
		return store.NewMemgraphStore(ctx, cfg.Store.MemgraphURI, cfg.Store.MemgraphUser, cfg.Store.MemgraphPassword)
	case "fuseki":
		f := store.NewFusekiStore(cfg.Store.FusekiURL, cfg.Store.FusekiDataset, cfg.Store.FusekiUser, cfg.Store.FusekiPassword)
		if err := f.CreateDataset(ctx); err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildEngine creates an engine from config, loads the rule file when
// one is configured, and restores the persisted snapshot.
func buildEngine(ctx context.Context, cfg *config.Config, st store.TripleStore) (*harmonize.Engine, error) {
	engine := harmonize.NewEngine(cfg.Harmonization.TargetNamespace, logger)

	if cfg.Harmonization.RulesPath != "" {
		n, err := engine.Registry().LoadRules(cfg.Harmonization.RulesPath)
		if err != nil {
			return nil, err
		}
		logger.Info().Int("rules", n).Str("path", cfg.Harmonization.RulesPath).Msg("mapping rules loaded")
	}

	triples, err := st.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted graph: %w", err)
	}
	if len(triples) > 0 {
		if err := engine.Restore(triples); err != nil {
			return nil, err
		}
		logger.Info().Int("triples", len(triples)).Msg("harmonized graph restored")
	}
	return engine, nil
}
