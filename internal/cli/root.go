// Package cli wires the staticpress commands.
package cli

import (
	"github.com/spf13/cobra"

	"staticpress/internal/config"
	"staticpress/internal/pipeline"
)

var (
	configFile string
	verbosity  int
	outputJSON bool
)

// NewRootCmd builds the staticpress command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "staticpress",
		Short:         "Collect, deduplicate, and content-hash static assets",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultFile, "configuration file")
	root.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 1, "0 = quiet, 1 = summary, 2 = per-file detail")
	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "emit machine-readable JSON")

	root.AddCommand(newCollectCmd())
	root.AddCommand(newFindCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newResolveCmd())

	return root
}

// loadPipeline builds a pipeline from the configured file.
func loadPipeline() (*pipeline.Pipeline, config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, cfg, err
	}
	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, cfg, err
	}
	return p, cfg, nil
}
