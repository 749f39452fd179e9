package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openkg/loom/internal/metric"
	"github.com/openkg/loom/internal/ontology"
	"github.com/openkg/loom/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the harmonization HTTP API",
	Example: `  loom serve
  loom serve --config /etc/loom/config.toml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	engine, err := buildEngine(ctx, cfg, st)
	if err != nil {
		return err
	}
	metrics := metric.New()
	engine.SetMetrics(metrics)

	var ont *ontology.Manager
	if cfg.Ontology.Directory != "" {
		ont = ontology.NewManager(logger)
		if err := ont.LoadDir(cfg.Ontology.Directory); err != nil {
			return err
		}
	}

	srv := server.NewServer(engine, st, ont, metrics, logger)
	r := srv.SetupRouter()

	logger.Info().Str("addr", cfg.Addr()).Str("backend", cfg.Store.Backend).Msg("starting server")
	return r.Run(cfg.Addr())
}
