package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"staticpress/internal/util"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the persisted manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, err := loadPipeline()
			if err != nil {
				return err
			}

			paths := p.Manifest.Paths()
			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(paths)
			}

			if len(paths) == 0 {
				fmt.Fprintln(out, "manifest is empty (run collect)")
				return nil
			}
			fmt.Fprintf(out, "manifest %s (%d entries, hash %s)\n", p.Manifest.Name, len(paths), p.Manifest.Hash())
			tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			for _, name := range util.SortedKeys(paths) {
				fmt.Fprintf(tw, "%s\t%s\n", name, paths[name])
			}
			return tw.Flush()
		},
	}
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Map a logical path to its hashed name via the manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := loadPipeline()
			if err != nil {
				return err
			}
			hashed, err := p.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Dest.URL(hashed))
			return nil
		},
	}
}
