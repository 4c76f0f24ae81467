package annotations

import (
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// MaxDepth bounds list/map nesting. Deeper values are kept as verbatim strings.
const MaxDepth = 32

// valueNode is the root of the annotation value grammar
type valueNode struct {
	Str   *string   `  @String`
	Float *string   `| @Float`
	Int   *string   `| @Int`
	Ident *string   `| @Ident`
	List  *listNode `| @@`
	Map   *mapNode  `| @@`
}

// listNode represents "[ v1, v2, ... ]"
type listNode struct {
	Items []*listItem `"[" @@* "]"`
}

type listItem struct {
	Value *valueNode `@@`
	Comma bool       `@","?`
}

// mapNode represents "{ k1: v1, k2: v2, ... }"
type mapNode struct {
	Entries []*mapEntry `"{" @@* "}"`
}

type mapEntry struct {
	Key   string     `( @Ident | @String )`
	Value *valueNode `":" @@`
	Comma bool       `@","?`
}

var valueLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?s:\\.|[^"\\])*"|'(?s:\\.|[^'\\])*'`},
	{Name: "Float", Pattern: `[-+]?\d+\.\d+(?:[eE][-+]?\d+)?`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[\[\]{}:,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var valueParser = participle.MustBuild[valueNode](
	participle.Lexer(valueLexer),
	participle.Elide("Whitespace"),
	participle.Map(unquoteToken, "String"),
	participle.UseLookahead(2),
)

// ParseValue parses the raw value expression of a directive. It never fails:
// input that does not match the grammar is returned as a verbatim string.
func ParseValue(raw string) Value {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Bool(true)
	}

	var scan bracketScanner
	scan.feed(text)
	if scan.maxDepth > MaxDepth {
		return String(text)
	}

	node, err := valueParser.ParseString("", text)
	if err != nil {
		return String(text)
	}

	value, ok := node.value()
	if !ok {
		return String(text)
	}
	return value
}

func (n *valueNode) value() (Value, bool) {
	switch {
	case n.Str != nil:
		return String(*n.Str), true
	case n.Float != nil:
		return parseFloat(*n.Float)
	case n.Int != nil:
		return parseInt(*n.Int)
	case n.Ident != nil:
		return keyword(*n.Ident), true
	case n.List != nil:
		return n.List.value()
	case n.Map != nil:
		return n.Map.value()
	default:
		return Value{}, false
	}
}

func (l *listNode) value() (Value, bool) {
	items := make([]Value, 0, len(l.Items))
	for i, item := range l.Items {
		// every element except the last must be followed by a comma
		if !item.Comma && i < len(l.Items)-1 {
			return Value{}, false
		}
		v, ok := item.Value.value()
		if !ok {
			return Value{}, false
		}
		items = append(items, v)
	}
	return Value{kind: ListKind, items: items}, true
}

func (m *mapNode) value() (Value, bool) {
	fields := newMap(len(m.Entries))
	for i, entry := range m.Entries {
		if !entry.Comma && i < len(m.Entries)-1 {
			return Value{}, false
		}
		v, ok := entry.Value.value()
		if !ok {
			return Value{}, false
		}
		fields.set(entry.Key, v)
	}
	return Value{kind: MapKind, fields: fields}, true
}

// keyword resolves true/false/null case-insensitively; any other bare word is
// a string
func keyword(ident string) Value {
	switch strings.ToLower(ident) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null()
	default:
		return String(ident)
	}
}

func parseInt(text string) (Value, bool) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return Int(n), true
	}
	// out of int64 range
	return parseFloat(text)
}

func parseFloat(text string) (Value, bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) {
		return Value{}, false
	}
	return Float(f), true
}

// unquoteToken strips the surrounding quotes of a String token and resolves
// escaped quote characters and backslashes
func unquoteToken(tok lexer.Token) (lexer.Token, error) {
	if len(tok.Value) >= 2 {
		tok.Value = unescape(tok.Value[1:len(tok.Value)-1], tok.Value[0])
	}
	return tok, nil
}

func unescape(s string, quote byte) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && (s[i+1] == quote || s[i+1] == '\\') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
