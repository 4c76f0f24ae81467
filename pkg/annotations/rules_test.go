package annotations

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSet_Register(t *testing.T) {
	rules := NewRuleSet()

	require.NoError(t, rules.Register("count", IntegerKind))
	require.NoError(t, rules.Register("enabled", BooleanKind))

	kind, ok := rules.Lookup("count")
	assert.True(t, ok)
	assert.Equal(t, IntegerKind, kind)

	_, ok = rules.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"count", "enabled"}, rules.Names())
	assert.Equal(t, 2, rules.Len())
}

func TestRuleSet_RegisterErrors(t *testing.T) {
	rules := NewRuleSet()
	require.NoError(t, rules.Register("count", IntegerKind))

	tests := []struct {
		name    string
		rule    string
		kind    Kind
		message string
	}{
		{"empty name", "", StringKind, "annotation name cannot be empty"},
		{"invalid kind", "x", Kind(42), "invalid value kind 42"},
		{"duplicate", "count", FloatKind, "rule already registered as integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.Register(tt.rule, tt.kind)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)

			var regErr *RegistrationError
			require.True(t, errors.As(err, &regErr))
			assert.Equal(t, tt.rule, regErr.Name)
		})
	}
}

func TestRulesOf(t *testing.T) {
	rules, err := RulesOf(map[string]Kind{"a": StringKind, "b": ListKind})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rules.Names())

	_, err = RulesOf(map[string]Kind{"": StringKind})
	assert.Error(t, err)
}

func TestRuleSet_NilAndClone(t *testing.T) {
	var rules *RuleSet
	_, ok := rules.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, 0, rules.Len())
	assertValue(t, String("v"), rules.Apply("x", String("v")))

	original := NewRuleSet()
	require.NoError(t, original.Register("a", IntegerKind))
	clone := original.Clone()
	require.NoError(t, clone.Register("b", FloatKind))

	assert.Equal(t, []string{"a"}, original.Names())
	assert.Equal(t, []string{"a", "b"}, clone.Names())
}

func TestRuleSet_ConcurrentLookup(t *testing.T) {
	rules := NewRuleSet()
	require.NoError(t, rules.Register("n", IntegerKind))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assertValue(t, Int(5), rules.Apply("n", String("5")))
		}()
	}
	wg.Wait()
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		kind  Kind
		want  Value
	}{
		// integer
		{"int from int", Int(4), IntegerKind, Int(4)},
		{"int from float truncates", Float(3.9), IntegerKind, Int(3)},
		{"int from negative float", Float(-3.9), IntegerKind, Int(-3)},
		{"int from true", Bool(true), IntegerKind, Int(1)},
		{"int from numeric string", String(" 12 "), IntegerKind, Int(12)},
		{"int from float string", String("7.8"), IntegerKind, Int(7)},
		{"int from text", String("abc"), IntegerKind, Int(0)},
		{"int from inf text", String("Inf"), IntegerKind, Int(0)},
		{"int from null", Null(), IntegerKind, Int(0)},
		{"int from list", List(Int(1)), IntegerKind, Int(0)},
		{"int from huge float saturates", Float(1e30), IntegerKind, Int(9223372036854775807)},

		// float
		{"float from int", Int(2), FloatKind, Float(2)},
		{"float from string", String("2.5"), FloatKind, Float(2.5)},
		{"float from text", String("nope"), FloatKind, Float(0)},
		{"float from nan text", String("NaN"), FloatKind, Float(0)},
		{"float from false", Bool(false), FloatKind, Float(0)},
		{"float from map", MapOf(), FloatKind, Float(0)},

		// boolean
		{"bool from int", Int(2), BooleanKind, Bool(true)},
		{"bool from zero", Int(0), BooleanKind, Bool(false)},
		{"bool from float", Float(0.5), BooleanKind, Bool(true)},
		{"bool from yes", String("Yes"), BooleanKind, Bool(true)},
		{"bool from on", String("on"), BooleanKind, Bool(true)},
		{"bool from off", String("off"), BooleanKind, Bool(false)},
		{"bool from text", String("maybe"), BooleanKind, Bool(false)},
		{"bool from null", Null(), BooleanKind, Bool(false)},

		// string
		{"string from int", Int(-5), StringKind, String("-5")},
		{"string from float", Float(2), StringKind, String("2.0")},
		{"string from bool", Bool(true), StringKind, String("true")},
		{"string from null", Null(), StringKind, String("")},
		{"string from list", List(Int(1)), StringKind, String("")},

		// list
		{"list from list", List(Int(1)), ListKind, List(Int(1))},
		{"list from scalar", String("a"), ListKind, List(String("a"))},
		{"list from map", MapOf(Field{"k", Int(1)}), ListKind, List(MapOf(Field{"k", Int(1)}))},
		{"list from null", Null(), ListKind, List()},

		// map
		{"map from map", MapOf(Field{"k", Int(1)}), MapKind, MapOf(Field{"k", Int(1)})},
		{"map from scalar", Int(1), MapKind, MapOf()},

		// null
		{"null from anything", String("x"), NullKind, Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValue(t, tt.want, Coerce(tt.value, tt.kind))
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"string":  StringKind,
		"int":     IntegerKind,
		"Integer": IntegerKind,
		"float":   FloatKind,
		"bool":    BooleanKind,
		"boolean": BooleanKind,
		"null":    NullKind,
		"list":    ListKind,
		"array":   ListKind,
		"map":     MapKind,
		" object": MapKind,
	}

	for input, want := range tests {
		got, err := ParseKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseKind("decimal")
	assert.Error(t, err)
}
