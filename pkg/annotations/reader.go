package annotations

// Reader is the entry point for reading the annotations of types, fields and
// methods. It fetches documentation comments from a CommentSource, parses
// them, and optionally caches the parsed result.
//
// The cache holds rule-free bags; rules are applied after every lookup, so a
// cache can be shared between readers with different rule sets. Results are
// identical with and without a cache.
type Reader struct {
	source       CommentSource
	parser       *Parser
	cache        Cache
	onCacheError func(error)
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithParser sets the parser (and therefore the rule set) used by the reader
func WithParser(parser *Parser) ReaderOption {
	return func(r *Reader) {
		if parser != nil {
			r.parser = parser
		}
	}
}

// WithRules uses a parser built from rules
func WithRules(rules *RuleSet) ReaderOption {
	return func(r *Reader) {
		r.parser = NewParser(rules)
	}
}

// WithCache enables caching of parsed comments
func WithCache(cache Cache) ReaderOption {
	return func(r *Reader) {
		r.cache = cache
	}
}

// WithCacheErrorHandler receives errors returned by Cache.Set. They never
// affect the bags returned by the reader.
func WithCacheErrorHandler(fn func(error)) ReaderOption {
	return func(r *Reader) {
		r.onCacheError = fn
	}
}

// NewReader creates a reader over source. A nil source behaves like an empty
// StaticSource.
func NewReader(source CommentSource, opts ...ReaderOption) *Reader {
	if source == nil {
		source = NewStaticSource()
	}

	r := &Reader{
		source: source,
		parser: NewParser(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parser returns the parser used by the reader
func (r *Reader) Parser() *Parser {
	return r.parser
}

// ClassAnnotations reads the annotations of a type
func (r *Reader) ClassAnnotations(pkg, typeName string) (*Bag, error) {
	return r.Annotations(Class(pkg, typeName))
}

// PropertyAnnotations reads the annotations of a struct field
func (r *Reader) PropertyAnnotations(pkg, typeName, field string) (*Bag, error) {
	return r.Annotations(Property(pkg, typeName, field))
}

// MethodAnnotations reads the annotations of a method
func (r *Reader) MethodAnnotations(pkg, typeName, method string) (*Bag, error) {
	return r.Annotations(Method(pkg, typeName, method))
}

// Annotations reads the annotations of target. The only error is the one
// returned by the comment source, passed through unchanged.
func (r *Reader) Annotations(target Target) (*Bag, error) {
	comment, err := r.source.Comment(target)
	if err != nil {
		return nil, err
	}
	return r.Read(comment), nil
}

// Read parses a raw comment, consulting the cache when one is configured
func (r *Reader) Read(raw string) *Bag {
	if r.cache == nil {
		return r.parser.Parse(raw)
	}

	key := r.cache.Key(raw)
	bag, ok := r.cache.Get(key)
	if !ok {
		bag = r.parser.ParseRaw(raw)
		if err := r.cache.Set(key, bag); err != nil && r.onCacheError != nil {
			r.onCacheError(err)
		}
	}
	return r.parser.Coerce(bag)
}
