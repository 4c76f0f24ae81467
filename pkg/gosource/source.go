// Package gosource reads annotation comments straight from Go source code.
//
// A Source loads packages with golang.org/x/tools/go/packages and indexes the
// documentation comments of every type, struct field and method it finds, so
// that it can serve as an annotations.CommentSource:
//
//	src, err := gosource.Load(ctx, gosource.Config{Dir: "."}, "./...")
//	reader := annotations.NewReader(src)
//	bag, err := reader.ClassAnnotations("./models", "User")
package gosource

import (
	"cmp"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/docnote/internal/errors"
	"github.com/toyz/docnote/pkg/annotations"
)

// LoadMode specifies what information to load from packages
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax

// Config controls how packages are loaded
type Config struct {
	Dir   string   // directory patterns are resolved in, defaults to the working directory
	Tests bool     // also index _test.go files
	Env   []string // environment of the go command, nil means the current process environment
}

// Source is a CommentSource over loaded Go packages. It is immutable after
// Load and safe for concurrent use.
type Source struct {
	module   Module
	packages map[string]string // import path -> package name
	comments map[annotations.Target]string
}

// Load loads the packages matching patterns and indexes their comments.
// Patterns default to ".".
func Load(ctx context.Context, cfg Config, patterns ...string) (*Source, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	dir := cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.WrapSourceError("resolve", "working directory", err)
		}
		dir = wd
	}

	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     dir,
		Env:     cfg.Env,
		Tests:   cfg.Tests,
	}, patterns...)
	if err != nil {
		return nil, errors.WrapSourceError("load", strings.Join(patterns, " "), err)
	}

	errs := &errors.MultipleErrors{}
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs.Add(errors.Newf(errors.SourceLoadErrorCode, "failed to load package %s", pkg.PkgPath).
				WithLocation(errors.ParseLocation(e.Pos)).
				WithCause(stderrors.New(e.Msg)).
				WithContext("package", pkg.PkgPath))
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	s := &Source{
		packages: make(map[string]string),
		comments: make(map[annotations.Target]string),
	}

	// a missing go.mod only matters once a relative package is requested
	if module, err := FindModule(dir); err == nil {
		s.module = module
	}

	for _, pkg := range pkgs {
		// generated test main packages carry no user declarations
		if strings.HasSuffix(pkg.PkgPath, ".test") {
			continue
		}
		s.packages[pkg.PkgPath] = pkg.Name
		for _, file := range pkg.Syntax {
			s.indexFile(pkg.PkgPath, file)
		}
	}

	return s, nil
}

// Module returns the module enclosing the load directory, if any
func (s *Source) Module() Module {
	return s.module
}

// Packages returns the import paths of the loaded packages in sorted order
func (s *Source) Packages() []string {
	paths := make([]string, 0, len(s.packages))
	for p := range s.packages {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Len returns the number of indexed targets
func (s *Source) Len() int {
	return len(s.comments)
}

// Targets lists every indexed target ordered by package, type, kind and member
func (s *Source) Targets() []annotations.Target {
	targets := make([]annotations.Target, 0, len(s.comments))
	for target := range s.comments {
		targets = append(targets, target)
	}

	slices.SortFunc(targets, func(a, b annotations.Target) int {
		return cmp.Or(
			cmp.Compare(a.Package, b.Package),
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Member, b.Member),
		)
	})
	return targets
}

// Comment returns the raw documentation comment of target. The package may
// be an import path, a path relative to the module root ("./models"), the
// name of a loaded package, or empty when a single package was loaded.
func (s *Source) Comment(target annotations.Target) (string, error) {
	pkg, err := s.Resolve(target.Package)
	if err != nil {
		return "", err
	}
	target.Package = pkg

	comment, ok := s.comments[target]
	if !ok {
		return "", s.notFound(target)
	}
	return comment, nil
}

// Resolve maps a package reference to the import path of a loaded package.
// Unknown references are returned unchanged.
func (s *Source) Resolve(pkg string) (string, error) {
	switch {
	case pkg == "":
		if len(s.packages) == 1 {
			for p := range s.packages {
				return p, nil
			}
		}
		if _, ok := s.packages[s.module.Path]; ok && s.module.Path != "" {
			return s.module.Path, nil
		}
		return pkg, nil

	case pkg == "." || strings.HasPrefix(pkg, "./") || strings.HasPrefix(pkg, "../"):
		if s.module.Path == "" {
			return "", errors.WrapSourceError("resolve", pkg, ErrNoModule).
				WithSuggestion("Use the full import path or load packages from inside a module")
		}
		return path.Join(s.module.Path, pkg), nil
	}

	if _, ok := s.packages[pkg]; ok {
		return pkg, nil
	}

	match := ""
	for p, name := range s.packages {
		if name != pkg {
			continue
		}
		if match != "" {
			// ambiguous package name
			return pkg, nil
		}
		match = p
	}
	if match != "" {
		return match, nil
	}
	return pkg, nil
}

func (s *Source) notFound(target annotations.Target) error {
	err := errors.NewTargetNotFoundError(target.Kind.String(), target.Package, target.Type, target.Member)

	if _, ok := s.packages[target.Package]; !ok {
		return err.WithSuggestion(fmt.Sprintf("Package %q was not loaded; add it to the load patterns", target.Package))
	}

	if target.Kind != annotations.ClassTarget {
		var members []string
		for t := range s.comments {
			if t.Package == target.Package && t.Type == target.Type && t.Kind == target.Kind {
				members = append(members, t.Member)
			}
		}
		if len(members) > 0 {
			slices.Sort(members)
			return err.WithSuggestion(fmt.Sprintf("Known %s members of %s: %s",
				target.Kind, target.Type, strings.Join(members, ", ")))
		}
	}

	return err
}

var _ annotations.CommentSource = (*Source)(nil)
