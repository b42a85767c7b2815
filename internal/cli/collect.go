package cli

import (
	"github.com/spf13/cobra"

	"staticpress/internal/collector"
	"staticpress/internal/logx"
	"staticpress/internal/pipeline"
	"staticpress/internal/progress"
	"staticpress/internal/report"
)

func newCollectCmd() *cobra.Command {
	var (
		clear           bool
		dryRun          bool
		link            bool
		noPostProcess   bool
		ignorePatterns  []string
		noDefaultIgnore bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect static files into the destination and hash them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, cfg, err := loadPipeline()
			if err != nil {
				return err
			}

			if cfg.LogDir != "" {
				logger, closer, err := logx.New(cfg.LogDir)
				if err != nil {
					return err
				}
				defer closer.Close()
				p.Log = logger
			}

			var bar *progress.Tracker
			if verbosity >= 1 && !outputJSON {
				bar = progress.New(cmd.ErrOrStderr(), 0, "Collecting static files")
				p.OnFile = func(string) { bar.Increment() }
			}

			mode := collector.ModeCopy
			if link {
				mode = collector.ModeLink
			}
			// Configured ignore settings are the base; flags add to them.
			patterns := append(append([]string{}, cfg.IgnorePatterns...), ignorePatterns...)
			res, err := p.Run(pipeline.Options{
				Mode:            mode,
				DryRun:          dryRun,
				Clear:           clear,
				PostProcess:     !noPostProcess,
				IgnorePatterns:  patterns,
				NoDefaultIgnore: noDefaultIgnore || cfg.NoDefaultIgnore,
			})
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				return report.JSON(out, res)
			}
			if verbosity >= 2 {
				report.Detail(out, res)
				for _, name := range res.PostProcessed {
					if hashed, ok := res.Paths[name]; ok {
						if err := report.RewriteDiff(out, p.Dest, name, hashed); err != nil {
							return err
						}
					}
				}
			}
			if verbosity >= 1 {
				report.Summary(out, res, dryRun)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "delete destination files that will not be recreated")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "decide everything, mutate nothing")
	cmd.Flags().BoolVarP(&link, "link", "l", false, "symlink files instead of copying")
	cmd.Flags().BoolVar(&noPostProcess, "no-post-process", false, "skip content hashing and reference rewriting")
	cmd.Flags().StringArrayVarP(&ignorePatterns, "ignore", "i", nil, "glob pattern to skip (repeatable)")
	cmd.Flags().BoolVar(&noDefaultIgnore, "no-default-ignore", false, "drop the built-in ignore patterns")

	return cmd
}
