package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newFindCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "find <path>",
		Short: "Resolve a logical path across the configured finders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := loadPipeline()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if all {
				matches := p.Registry.FindAll(args[0])
				if len(matches) == 0 {
					return fmt.Errorf("no finder can locate %q", args[0])
				}
				if outputJSON {
					type loc struct {
						Finder   string `json:"finder"`
						Location string `json:"location"`
					}
					locs := make([]loc, 0, len(matches))
					for _, m := range matches {
						locs = append(locs, loc{Finder: m.Finder, Location: m.Location})
					}
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(locs)
				}
				for i, m := range matches {
					marker := " "
					if i == 0 {
						marker = "*" // the copy that wins collection
					}
					fmt.Fprintf(out, "%s %s\t%s\n", marker, m.Finder, m.Location)
				}
				return nil
			}

			m, ok := p.Registry.Find(args[0])
			if !ok {
				return fmt.Errorf("no finder can locate %q", args[0])
			}
			fmt.Fprintln(out, m.Location)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every match, including shadowed copies")
	return cmd
}
