package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/openkg/loom/internal/rdf"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export [output-file]",
	Short: "Export the harmonized graph",
	Long: `Export serializes the persisted harmonized graph. With no output
file the graph is written to stdout.`,
	Example: `  loom export graph.ttl
  loom export --format ntriples`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format (turtle, ntriples); inferred from extension when empty")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	format := rdf.FormatTurtle
	if len(args) == 1 {
		format = rdf.FormatForPath(args[0])
	}
	if exportFormat != "" {
		if format, err = rdf.ParseFormat(exportFormat); err != nil {
			return err
		}
	}

	if len(args) == 1 {
		return engine.ExportFile(args[0], format)
	}
	return engine.Export(os.Stdout, format)
}
