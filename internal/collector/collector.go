// Package collector materializes discovered candidate files into the
// destination storage, handling copy-vs-symlink, overwrite policy, and
// staleness.
package collector

import (
	"errors"
	"fmt"
	"log"
	"time"

	"staticpress/internal/finder"
	"staticpress/internal/storage"
)

// ErrUnsupported is returned when link mode is requested on a destination
// that cannot create symbolic links. No partial work is performed.
var ErrUnsupported = errors.New("symbolic links are not supported by the destination storage")

// Mode selects how source bytes are materialized.
type Mode int

const (
	ModeCopy Mode = iota
	ModeLink
)

// Options configure one collection run.
type Options struct {
	Mode   Mode
	DryRun bool
	// Clear removes destination files that are not about to be
	// recreated by this run.
	Clear bool
	// Preserve names files that Clear must never remove, such as the
	// manifest document.
	Preserve []string
}

// Shadowed records a candidate that lost to an earlier finder for the same
// destination path.
type Shadowed struct {
	Path     string
	Winner   string // finder label that provided the file
	Loser    string // finder label whose copy was skipped
	Location string
}

// Result classifies every processed path.
type Result struct {
	Copied     []string
	Linked     []string
	Unmodified []string
	Cleared    []string
	Shadowed   []Shadowed
}

// Paths returns every collected destination path (copied, linked, and
// unmodified), in collection order.
func (r *Result) Paths() []string {
	out := make([]string, 0, len(r.Copied)+len(r.Linked)+len(r.Unmodified))
	out = append(out, r.Copied...)
	out = append(out, r.Linked...)
	return append(out, r.Unmodified...)
}

// Collector copies or links candidates into a destination storage.
type Collector struct {
	Registry *finder.Registry
	Dest     storage.Storage
	Log      *log.Logger // optional per-file decision log

	// OnFile, when set, is called once per visited candidate; used for
	// progress reporting.
	OnFile func(path string)
}

func (c *Collector) logf(format string, args ...any) {
	if c.Log != nil {
		c.Log.Printf(format, args...)
	}
}

// Collect runs one collection. Dry-run performs all discovery and decision
// logic but mutates nothing; the classifications are identical to the
// corresponding real run.
func (c *Collector) Collect(ignore *finder.IgnoreMatcher, opts Options) (*Result, error) {
	var linker storage.Linker
	if opts.Mode == ModeLink {
		var ok bool
		linker, ok = c.Dest.(storage.Linker)
		if !ok {
			return nil, ErrUnsupported
		}
	}

	candidates, err := c.Registry.List(ignore)
	if err != nil {
		return nil, err
	}

	// First-finder-wins: later candidates for an already-seen path are
	// recorded as shadowed, not re-copied.
	res := &Result{}
	seen := make(map[string]finder.Candidate, len(candidates))
	var ordered []finder.Candidate
	for _, cand := range candidates {
		if winner, dup := seen[cand.Path]; dup {
			loc := ""
			if p, err := cand.Source.Path(cand.Path); err == nil {
				loc = p
			}
			res.Shadowed = append(res.Shadowed, Shadowed{
				Path:     cand.Path,
				Winner:   winner.Finder,
				Loser:    cand.Finder,
				Location: loc,
			})
			c.logf("shadowed %s (%s loses to %s)", cand.Path, cand.Finder, winner.Finder)
			continue
		}
		seen[cand.Path] = cand
		ordered = append(ordered, cand)
	}

	if opts.Clear {
		if err := c.clear(seen, opts, res); err != nil {
			return nil, err
		}
	}

	for _, cand := range ordered {
		if c.OnFile != nil {
			c.OnFile(cand.Path)
		}
		if opts.Mode == ModeLink {
			if err := c.link(linker, cand, opts, res); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.copy(cand, opts, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// clear deletes every destination file that is not about to be recreated.
func (c *Collector) clear(keep map[string]finder.Candidate, opts Options, res *Result) error {
	preserve := make(map[string]bool, len(opts.Preserve))
	for _, name := range opts.Preserve {
		preserve[storage.CleanName(name)] = true
	}

	existing, err := c.Dest.ListAll()
	if err != nil {
		return fmt.Errorf("clear destination: %w", err)
	}
	for _, name := range existing {
		if _, ok := keep[name]; ok || preserve[name] {
			continue
		}
		c.logf("clear %s", name)
		if !opts.DryRun {
			if err := c.Dest.Delete(name); err != nil {
				return fmt.Errorf("clear %q: %w", name, err)
			}
		}
		res.Cleared = append(res.Cleared, name)
	}
	return nil
}

// fresh reports whether the destination copy is at least as new as the
// source, allowing one second of slack for filesystems with coarse
// timestamps. A storage that cannot report times makes the file stale.
func (c *Collector) fresh(cand finder.Candidate) bool {
	destMT, err := c.Dest.ModifiedTime(cand.Path)
	if err != nil {
		return false
	}
	srcMT, err := cand.Source.ModifiedTime(cand.Path)
	if err != nil {
		return false
	}
	return !srcMT.After(destMT.Add(time.Second))
}

// destIsLink reports whether the destination holds name as a symlink.
func (c *Collector) destIsLink(name string) bool {
	l, ok := c.Dest.(storage.Linker)
	return ok && l.IsLink(name)
}

func (c *Collector) copy(cand finder.Candidate, opts Options, res *Result) error {
	// A symlink left over from a previous link-mode run is never
	// unmodified: a copy run must materialize real files. Save replaces
	// the link itself, not its target.
	if c.Dest.Exists(cand.Path) && !c.destIsLink(cand.Path) && c.fresh(cand) {
		c.logf("unmodified %s", cand.Path)
		res.Unmodified = append(res.Unmodified, cand.Path)
		return nil
	}

	c.logf("copy %s (from %s)", cand.Path, cand.Finder)
	if !opts.DryRun {
		src, err := cand.Source.Open(cand.Path)
		if err != nil {
			return fmt.Errorf("open source %q: %w", cand.Path, err)
		}
		saveErr := c.Dest.Save(cand.Path, src)
		src.Close()
		if saveErr != nil {
			return fmt.Errorf("copy %q: %w", cand.Path, saveErr)
		}
	}
	res.Copied = append(res.Copied, cand.Path)
	return nil
}

func (c *Collector) link(linker storage.Linker, cand finder.Candidate, opts Options, res *Result) error {
	target, err := cand.Source.Path(cand.Path)
	if err != nil {
		return fmt.Errorf("link %q: source storage %w", cand.Path, storage.ErrNoLocalPath)
	}

	if linker.IsLink(cand.Path) {
		current, err := linker.LinkTarget(cand.Path)
		// A broken link (target missing) is deleted and recreated; a
		// correct, fresh link is left alone.
		if err == nil && current == target && c.Dest.Exists(cand.Path) && c.fresh(cand) {
			c.logf("unmodified %s", cand.Path)
			res.Unmodified = append(res.Unmodified, cand.Path)
			return nil
		}
	}

	c.logf("link %s -> %s", cand.Path, target)
	if !opts.DryRun {
		if err := linker.Link(target, cand.Path); err != nil {
			return err
		}
	}
	res.Linked = append(res.Linked, cand.Path)
	return nil
}
