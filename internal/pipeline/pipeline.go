// Package pipeline wires the finder, collector, and hashing stages into a
// single run-to-completion operation. Each invocation owns its hash map;
// the only state shared across runs is the persisted manifest.
package pipeline

import (
	"fmt"
	"log"

	"staticpress/internal/collector"
	"staticpress/internal/config"
	"staticpress/internal/finder"
	"staticpress/internal/hashing"
	"staticpress/internal/storage"
)

// Options configure one pipeline run.
type Options struct {
	Mode        collector.Mode
	DryRun      bool
	Clear       bool
	PostProcess bool

	IgnorePatterns  []string
	NoDefaultIgnore bool
}

// Result classifies every processed path, per the collect contract.
type Result struct {
	Copied        []string             `json:"copied"`
	Linked        []string             `json:"linked"`
	Unmodified    []string             `json:"unmodified"`
	PostProcessed []string             `json:"post_processed"`
	Cleared       []string             `json:"cleared,omitempty"`
	Shadowed      []collector.Shadowed `json:"shadowed,omitempty"`
	Paths         map[string]string    `json:"paths,omitempty"`
}

// Pipeline holds the constructed stages for one configuration.
type Pipeline struct {
	Registry  *finder.Registry
	Dest      storage.Storage
	Manifest  *hashing.Manifest
	Processor *hashing.Processor
	Log       *log.Logger

	// OnFile is forwarded to the collector for progress reporting.
	OnFile func(path string)
}

// New builds a pipeline from configuration: an explicit finder registry
// (directory roots first, then app dirs), a local destination storage, and
// a manifest bound to that storage.
func New(cfg config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var finders []finder.Finder
	if len(cfg.Roots) > 0 {
		roots := make([]finder.Root, 0, len(cfg.Roots))
		for _, r := range cfg.Roots {
			roots = append(roots, finder.Root{Dir: r.Dir, Prefix: r.Prefix})
		}
		finders = append(finders, finder.NewDirFinder("dirs", roots...))
	}
	if len(cfg.AppDirs) > 0 {
		finders = append(finders, finder.NewAppFinder("apps", cfg.AppDirs...))
	}

	registry, err := finder.NewRegistry(finders...)
	if err != nil {
		return nil, err
	}

	dest := storage.NewLocal(cfg.Destination, cfg.URLPrefix)

	manifest, err := hashing.LoadManifest(dest, cfg.Manifest, hashing.Policy(cfg.ManifestPolicy))
	if err != nil {
		return nil, err
	}

	proc := hashing.NewProcessor(dest, cfg.URLPrefix)
	proc.MaxPasses = cfg.MaxPasses
	proc.SupportJSModules = cfg.JSModules

	return &Pipeline{
		Registry:  registry,
		Dest:      dest,
		Manifest:  manifest,
		Processor: proc,
	}, nil
}

// Run executes one collection: find, copy or link, post-process, persist
// the manifest. Errors from any stage abort the run; an aborted run leaves
// a possibly-partial destination tree that a rerun repairs.
func (p *Pipeline) Run(opts Options) (*Result, error) {
	ignore := finder.NewIgnoreMatcher(opts.IgnorePatterns, !opts.NoDefaultIgnore)

	coll := &collector.Collector{
		Registry: p.Registry,
		Dest:     p.Dest,
		Log:      p.Log,
		OnFile:   p.OnFile,
	}
	collected, err := coll.Collect(ignore, collector.Options{
		Mode:     opts.Mode,
		DryRun:   opts.DryRun,
		Clear:    opts.Clear,
		Preserve: []string{p.Manifest.Name},
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Copied:     collected.Copied,
		Linked:     collected.Linked,
		Unmodified: collected.Unmodified,
		Cleared:    collected.Cleared,
		Shadowed:   collected.Shadowed,
	}

	paths := collected.Paths()

	if !opts.PostProcess {
		// The manifest still has to stop covering cleared files.
		if opts.Clear && !opts.DryRun {
			keep := make(map[string]bool, len(paths))
			for _, name := range paths {
				keep[name] = true
			}
			p.Manifest.Prune(keep)
			if err := p.Manifest.Save(); err != nil {
				return nil, err
			}
		}
		return res, nil
	}

	if opts.DryRun {
		// No writes: classify what a real run would post-process.
		for _, name := range paths {
			if p.Processor.Adjustable(name) {
				res.PostProcessed = append(res.PostProcessed, name)
			}
		}
		return res, nil
	}

	hashed, postProcessed, err := p.Processor.Run(paths)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}
	res.PostProcessed = postProcessed

	p.Manifest.SetAll(hashed)
	if err := p.Manifest.Save(); err != nil {
		return nil, err
	}
	res.Paths = p.Manifest.Paths()

	return res, nil
}

// Resolve maps a logical path to its hashed name through the manifest,
// honoring the configured policy.
func (p *Pipeline) Resolve(name string) (string, error) {
	return p.Manifest.Resolve(name, p.Dest)
}
