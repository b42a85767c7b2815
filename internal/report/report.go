// Package report renders pipeline results for humans and for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pmezard/go-difflib/difflib"

	"staticpress/internal/pipeline"
	"staticpress/internal/storage"
)

// Summary writes a one-line-per-class summary of a run.
func Summary(w io.Writer, res *pipeline.Result, dryRun bool) {
	suffix := ""
	if dryRun {
		suffix = " (dry run)"
	}
	fmt.Fprintf(w, "%d copied, %d linked, %d unmodified, %d post-processed%s\n",
		len(res.Copied), len(res.Linked), len(res.Unmodified), len(res.PostProcessed), suffix)
	if len(res.Cleared) > 0 {
		fmt.Fprintf(w, "%d cleared from destination\n", len(res.Cleared))
	}
	if len(res.Shadowed) > 0 {
		fmt.Fprintf(w, "%d shadowed by earlier finders\n", len(res.Shadowed))
	}
}

// Detail writes the per-path classification as a table.
func Detail(w io.Writer, res *pipeline.Result) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	for _, p := range res.Copied {
		fmt.Fprintf(tw, "copied\t%s\n", p)
	}
	for _, p := range res.Linked {
		fmt.Fprintf(tw, "linked\t%s\n", p)
	}
	for _, p := range res.Unmodified {
		fmt.Fprintf(tw, "unmodified\t%s\n", p)
	}
	for _, p := range res.PostProcessed {
		hashed := res.Paths[p]
		fmt.Fprintf(tw, "post-processed\t%s\t%s\n", p, hashed)
	}
	for _, p := range res.Cleared {
		fmt.Fprintf(tw, "cleared\t%s\n", p)
	}
	for _, s := range res.Shadowed {
		fmt.Fprintf(tw, "shadowed\t%s\t(%s loses to %s)\n", s.Path, s.Loser, s.Winner)
	}
	tw.Flush()
}

// JSON writes the result as an indented JSON document.
func JSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// RewriteDiff renders a unified diff between an adjustable file's original
// content and its post-processed content, for high-verbosity output.
func RewriteDiff(w io.Writer, dest storage.Storage, name, hashedName string) error {
	original, err := storage.ReadAll(dest, name)
	if err != nil {
		return err
	}
	rewritten, err := storage.ReadAll(dest, hashedName)
	if err != nil {
		return err
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(rewritten)),
		FromFile: name,
		ToFile:   hashedName,
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return err
	}
	if text != "" {
		fmt.Fprint(w, text)
	}
	return nil
}
