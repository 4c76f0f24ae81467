package annotations

import (
	"fmt"
	"sync"

	"github.com/toyz/docnote/internal/errors"
)

// TargetKind identifies what a documentation comment is attached to
type TargetKind int

const (
	ClassTarget TargetKind = iota
	PropertyTarget
	MethodTarget
)

// String returns the string representation of the target kind
func (k TargetKind) String() string {
	switch k {
	case ClassTarget:
		return "class"
	case PropertyTarget:
		return "property"
	case MethodTarget:
		return "method"
	default:
		return "unknown"
	}
}

// Target locates a documentation comment: a type, one of its fields, or one
// of its methods
type Target struct {
	Kind    TargetKind
	Package string // import path
	Type    string
	Member  string // field or method name, empty for ClassTarget
}

// Class locates the doc comment of a type
func Class(pkg, typeName string) Target {
	return Target{Kind: ClassTarget, Package: pkg, Type: typeName}
}

// Property locates the doc comment of a struct field
func Property(pkg, typeName, field string) Target {
	return Target{Kind: PropertyTarget, Package: pkg, Type: typeName, Member: field}
}

// Method locates the doc comment of a method
func Method(pkg, typeName, method string) Target {
	return Target{Kind: MethodTarget, Package: pkg, Type: typeName, Member: method}
}

// String returns "pkg.Type", "pkg.Type.Field" or "pkg.Type.Method()"
func (t Target) String() string {
	name := t.Type
	if t.Package != "" {
		name = t.Package + "." + name
	}
	switch t.Kind {
	case PropertyTarget:
		return name + "." + t.Member
	case MethodTarget:
		return name + "." + t.Member + "()"
	default:
		return name
	}
}

// NotFound builds the lookup error comment sources return for t
func (t Target) NotFound() error {
	return errors.NewTargetNotFoundError(t.Kind.String(), t.Package, t.Type, t.Member)
}

// CommentSource returns the raw documentation comment of a target. A target
// that exists without documentation yields an empty string; a target that does
// not exist yields an error matching ErrTargetNotFound.
type CommentSource interface {
	Comment(target Target) (string, error)
}

// CommentSourceFunc adapts a function to CommentSource
type CommentSourceFunc func(target Target) (string, error)

// Comment calls f(target)
func (f CommentSourceFunc) Comment(target Target) (string, error) {
	return f(target)
}

// StaticSource is a registry of documentation comments populated ahead of
// time, for programs that embed their annotations at build time
type StaticSource struct {
	mu       sync.RWMutex
	comments map[Target]string
}

// NewStaticSource creates an empty static source
func NewStaticSource() *StaticSource {
	return &StaticSource{
		comments: make(map[Target]string),
	}
}

// Add registers the comment of target, replacing any previous one
func (s *StaticSource) Add(target Target, comment string) *StaticSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments[target] = comment
	return s
}

// Comment returns the registered comment of target
func (s *StaticSource) Comment(target Target) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[target]
	if !ok {
		return "", target.NotFound()
	}
	return comment, nil
}

// Len returns the number of registered targets
func (s *StaticSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.comments)
}

var _ fmt.Stringer = Target{}
