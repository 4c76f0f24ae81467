package annotations

// Parser turns raw documentation comments into annotation bags, applying an
// optional rule set. Parsers hold no per-call state and are safe for
// concurrent use.
type Parser struct {
	rules *RuleSet
}

// NewParser creates a parser using rules for type coercion. rules may be nil.
func NewParser(rules *RuleSet) *Parser {
	if rules == nil {
		rules = NewRuleSet()
	}
	return &Parser{rules: rules}
}

// Parse is a convenience for NewParser(rules).Parse(raw)
func Parse(raw string, rules *RuleSet) *Bag {
	return NewParser(rules).Parse(raw)
}

// Rules returns the parser's rule set
func (p *Parser) Rules() *RuleSet {
	return p.rules
}

// Parse extracts every annotation of raw and coerces ruled values. It never
// fails; an empty or annotation-free comment yields an empty bag.
func (p *Parser) Parse(raw string) *Bag {
	return p.Coerce(p.ParseRaw(raw))
}

// ParseRaw extracts annotations without applying rules
func (p *Parser) ParseRaw(raw string) *Bag {
	bag := newBag()
	for line := range Lines(raw) {
		bag.add(line.Name, ParseValue(line.Value))
	}
	return bag
}

// Coerce returns a copy of bag with the parser's rules applied to every
// occurrence of each ruled name
func (p *Parser) Coerce(bag *Bag) *Bag {
	out := newBag()
	if bag == nil {
		return out
	}
	for _, name := range bag.names {
		for _, v := range bag.entries[name] {
			out.add(name, p.rules.Apply(name, v))
		}
	}
	return out
}
