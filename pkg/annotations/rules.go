package annotations

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/toyz/docnote/internal/errors"
)

// RuleSet maps annotation names to the kind their values are coerced to.
// A RuleSet is safe for concurrent use; a nil *RuleSet has no rules.
type RuleSet struct {
	mu    sync.RWMutex
	rules map[string]Kind
}

// NewRuleSet creates an empty rule set
func NewRuleSet() *RuleSet {
	return &RuleSet{
		rules: make(map[string]Kind),
	}
}

// RulesOf builds a rule set from a name to kind mapping
func RulesOf(rules map[string]Kind) (*RuleSet, error) {
	set := NewRuleSet()
	for name, kind := range rules {
		if err := set.Register(name, kind); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Register adds a rule forcing every value of the named annotation to kind
func (r *RuleSet) Register(name string, kind Kind) error {
	if name == "" {
		return errors.NewRegistrationError(name, "annotation name cannot be empty")
	}
	if kind < NullKind || kind > MapKind {
		return errors.NewRegistrationError(name, "invalid value kind "+strconv.Itoa(int(kind))).
			WithSuggestion("Use one of: string, integer, float, boolean, null, list, map")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.rules[name]; exists {
		return errors.NewRegistrationError(name, "rule already registered as "+existing.String())
	}

	r.rules[name] = kind
	return nil
}

// Lookup returns the kind ruled for name
func (r *RuleSet) Lookup(name string) (Kind, bool) {
	if r == nil {
		return NullKind, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.rules[name]
	return kind, ok
}

// Names returns the ruled annotation names in sorted order
func (r *RuleSet) Names() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of rules
func (r *RuleSet) Len() int {
	if r == nil {
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rules)
}

// Clone returns an independent copy of the rule set
func (r *RuleSet) Clone() *RuleSet {
	clone := NewRuleSet()
	if r == nil {
		return clone
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, kind := range r.rules {
		clone.rules[name] = kind
	}
	return clone
}

// Apply coerces v when a rule exists for name, and returns v unchanged
// otherwise
func (r *RuleSet) Apply(name string, v Value) Value {
	kind, ok := r.Lookup(name)
	if !ok {
		return v
	}
	return Coerce(v, kind)
}

// Coerce converts v to kind. Conversions that cannot succeed yield the zero
// value of the target kind.
func Coerce(v Value, kind Kind) Value {
	if v.kind == kind {
		return v
	}

	switch kind {
	case StringKind:
		return String(coerceString(v))
	case IntegerKind:
		return Int(coerceInt(v))
	case FloatKind:
		return Float(coerceFloat(v))
	case BooleanKind:
		return Bool(coerceBool(v))
	case ListKind:
		if v.kind == NullKind {
			return List()
		}
		return List(v)
	case MapKind:
		return MapOf()
	default:
		return Null()
	}
}

func coerceString(v Value) string {
	switch v.kind {
	case IntegerKind, FloatKind, BooleanKind:
		return v.Literal()
	default:
		return ""
	}
}

func coerceInt(v Value) int64 {
	switch v.kind {
	case FloatKind:
		return truncate(v.float)
	case BooleanKind:
		if v.flag {
			return 1
		}
		return 0
	case StringKind:
		text := strings.TrimSpace(v.str)
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
		if f, ok := finiteFloat(text); ok {
			return truncate(f)
		}
		return 0
	default:
		return 0
	}
}

func coerceFloat(v Value) float64 {
	switch v.kind {
	case IntegerKind:
		return float64(v.num)
	case BooleanKind:
		if v.flag {
			return 1
		}
		return 0
	case StringKind:
		if f, ok := finiteFloat(strings.TrimSpace(v.str)); ok {
			return f
		}
		return 0
	default:
		return 0
	}
}

func coerceBool(v Value) bool {
	switch v.kind {
	case IntegerKind:
		return v.num != 0
	case FloatKind:
		return v.float != 0
	case StringKind:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true", "yes", "on", "1":
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// finiteFloat parses decimal text, rejecting NaN, infinities and hex floats
func finiteFloat(text string) (float64, bool) {
	if text == "" || strings.ContainsAny(text, "xXnN") {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// truncate converts toward zero, saturating at the int64 range
func truncate(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
