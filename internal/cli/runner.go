package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/bndr/gotabulate"

	"github.com/toyz/docnote/internal/diagnostics"
	"github.com/toyz/docnote/internal/errors"
	"github.com/toyz/docnote/pkg/annotations"
	"github.com/toyz/docnote/pkg/gosource"
)

// TargetSpec is a parsed "[pkg:]Type[.Member]" target reference
type TargetSpec struct {
	Package string
	Type    string
	Member  string
	Method  bool // member was written as Member()
}

// ParseTargetSpec parses "[pkg:]Type[.Member]". A trailing "()" restricts
// the member to methods.
func ParseTargetSpec(spec string) (TargetSpec, error) {
	var ts TargetSpec

	rest := strings.TrimSpace(spec)
	if pkg, name, ok := strings.Cut(rest, ":"); ok {
		ts.Package = strings.TrimSpace(pkg)
		rest = name
	}

	typeName, member, hasMember := strings.Cut(rest, ".")
	ts.Type = strings.TrimSpace(typeName)
	if hasMember {
		member = strings.TrimSpace(member)
		if trimmed, ok := strings.CutSuffix(member, "()"); ok {
			member = trimmed
			ts.Method = true
		}
		if member == "" {
			return TargetSpec{}, fmt.Errorf("target %q has an empty member name", spec)
		}
		ts.Member = member
	}

	if ts.Type == "" {
		return TargetSpec{}, fmt.Errorf("target %q has an empty type name", spec)
	}
	return ts, nil
}

// Candidates lists the targets the spec may refer to, in lookup order
func (ts TargetSpec) Candidates() []annotations.Target {
	switch {
	case ts.Member == "":
		return []annotations.Target{annotations.Class(ts.Package, ts.Type)}
	case ts.Method:
		return []annotations.Target{annotations.Method(ts.Package, ts.Type, ts.Member)}
	default:
		return []annotations.Target{
			annotations.Property(ts.Package, ts.Type, ts.Member),
			annotations.Method(ts.Package, ts.Type, ts.Member),
		}
	}
}

// Result is the bag read for one target
type Result struct {
	Target      annotations.Target `json:"-"`
	Name        string             `json:"target"`
	Kind        string             `json:"kind"`
	Annotations *annotations.Bag   `json:"annotations"`
}

// Summary provides statistics about a run
type Summary struct {
	PackagesLoaded   int
	TargetsRead      int
	AnnotationsFound int
	CacheHits        int64
	CacheMisses      int64
}

// Runner loads Go packages, reads their annotations and renders them
type Runner struct {
	config      *Config
	diagnostics *diagnostics.System
	loader      *gosource.Loader
	summary     Summary
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *Config, diag *diagnostics.System) *Runner {
	return &Runner{
		config:      cfg,
		diagnostics: diag,
		loader:      gosource.NewLoader(),
	}
}

// Summary returns statistics of the last run
func (r *Runner) Summary() Summary {
	return r.summary
}

// Run reads the configured targets and writes them to the diagnostics output
func (r *Runner) Run(ctx context.Context) error {
	results, err := r.Collect(ctx)
	if err != nil {
		return err
	}
	return Render(r.diagnostics.Output(), r.config.Format, results)
}

// Collect reads the configured targets without rendering them
func (r *Runner) Collect(ctx context.Context) ([]Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	r.summary = Summary{}

	rules, err := r.config.RuleSet()
	if err != nil {
		return nil, err
	}

	r.diagnostics.Header("reading annotations")
	src, err := r.loader.Load(ctx, gosource.Config{Dir: r.config.Dir, Tests: r.config.Tests}, r.config.Patterns...)
	if err != nil {
		return nil, err
	}
	r.summary.PackagesLoaded = len(src.Packages())
	sources := r.loader.Stats()
	r.diagnostics.Debug("source cache: %d hits, %d misses", sources.Hits, sources.Misses)
	r.diagnostics.Item("loaded %d packages from %s", r.summary.PackagesLoaded, strings.Join(r.config.Patterns, " "))

	reader, cache, err := r.newReader(src, rules)
	if err != nil {
		return nil, err
	}

	var results []Result
	if len(r.config.Targets) == 0 {
		for _, target := range src.Targets() {
			bag, err := reader.Annotations(target)
			if err != nil {
				return nil, err
			}
			r.summary.TargetsRead++
			r.diagnostics.Verbose("read %s: %d annotations", target, bag.Len())
			if bag.IsEmpty() {
				continue
			}
			results = append(results, newResult(target, bag))
		}
	} else {
		for _, spec := range r.config.Targets {
			result, err := r.readSpec(reader, src, spec)
			if err != nil {
				return nil, err
			}
			r.summary.TargetsRead++
			r.diagnostics.Verbose("read %s: %d annotations", result.Name, result.Annotations.Len())
			results = append(results, result)
		}
	}

	for _, result := range results {
		r.summary.AnnotationsFound += result.Annotations.Len()
	}
	r.summary.CacheHits = cache.hits.Load()
	r.summary.CacheMisses = cache.misses.Load()

	r.diagnostics.Summary("Summary", map[string]any{
		"packages":     r.summary.PackagesLoaded,
		"targets":      r.summary.TargetsRead,
		"annotations":  r.summary.AnnotationsFound,
		"cache hits":   r.summary.CacheHits,
		"cache misses": r.summary.CacheMisses,
	})
	return results, nil
}

func (r *Runner) newReader(src *gosource.Source, rules *annotations.RuleSet) (*annotations.Reader, *tracedCache, error) {
	var backend annotations.Cache = annotations.NewMemoryCache()
	if r.config.CacheDir != "" {
		fileCache, err := annotations.NewFileCache(r.config.CacheDir)
		if err != nil {
			return nil, nil, err
		}
		r.diagnostics.Item("using file cache in %s", fileCache.Dir())
		backend = fileCache
	}

	cache := newTracedCache(backend, r.diagnostics)
	reader := annotations.NewReader(src,
		annotations.WithRules(rules),
		annotations.WithCache(cache),
		annotations.WithCacheErrorHandler(func(err error) {
			r.diagnostics.Warn("%v", err)
		}),
	)
	return reader, cache, nil
}

func (r *Runner) readSpec(reader *annotations.Reader, src *gosource.Source, spec string) (Result, error) {
	ts, err := ParseTargetSpec(spec)
	if err != nil {
		return Result{}, errors.WrapConfigurationError("targets", "parse", err)
	}

	var lastErr error
	for _, target := range ts.Candidates() {
		bag, err := reader.Annotations(target)
		if err == nil {
			if pkg, resolveErr := src.Resolve(target.Package); resolveErr == nil {
				target.Package = pkg
			}
			return newResult(target, bag), nil
		}
		if !stderrors.Is(err, annotations.ErrTargetNotFound) {
			return Result{}, err
		}
		lastErr = err
	}
	return Result{}, lastErr
}

func newResult(target annotations.Target, bag *annotations.Bag) Result {
	return Result{
		Target:      target,
		Name:        target.String(),
		Kind:        target.Kind.String(),
		Annotations: bag,
	}
}

// Render writes results in the given format
func Render(w io.Writer, format string, results []Result) error {
	switch format {
	case FormatJSON:
		if results == nil {
			results = []Result{}
		}
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return errors.WrapWithOperation("encode", "results", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case FormatTable:
		if len(results) == 0 {
			_, err := fmt.Fprintln(w, "no annotations found")
			return err
		}
		_, err := fmt.Fprint(w, renderTable(results))
		return err

	default:
		return errors.ConfigurationError("format", fmt.Sprintf("unsupported format %q", format))
	}
}

func renderTable(results []Result) string {
	var rows [][]any
	for _, result := range results {
		if result.Annotations.IsEmpty() {
			rows = append(rows, []any{result.Name, "-", "-", "-"})
			continue
		}
		for name, value := range result.Annotations.Each() {
			rows = append(rows, []any{result.Name, "@" + name, value.Kind().String(), value.Literal()})
		}
	}

	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Target", "Annotation", "Kind", "Value"})
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(60)
	return t.Render("grid")
}
