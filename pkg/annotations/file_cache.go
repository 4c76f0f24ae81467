package annotations

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/toyz/docnote/internal/errors"
)

const (
	cacheFileExt = ".msgpack"
	wireVersion  = 1
)

// FileCache persists bags as msgpack files, one per key, under a directory.
// Unreadable, corrupt or outdated files are treated as misses.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, errors.ConfigurationError("cache", "cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapFileSystemError("create", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory
func (c *FileCache) Dir() string {
	return c.dir
}

// Key returns ContentKey(raw)
func (c *FileCache) Key(raw string) string {
	return ContentKey(raw)
}

// Get decodes the bag stored under key
func (c *FileCache) Get(key string) (*Bag, bool) {
	path, err := c.path(key)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var wire wireBag
	if err := msgpack.Unmarshal(data, &wire); err != nil || wire.Version != wireVersion {
		return nil, false
	}
	return wire.bag(), true
}

// Set encodes bag and writes it atomically under key
func (c *FileCache) Set(key string, bag *Bag) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(newWireBag(bag))
	if err != nil {
		return errors.WrapCacheError("encode", key, err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return errors.WrapCacheError("write", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapCacheError("write", key, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapCacheError("write", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapCacheError("write", key, err)
	}
	return nil
}

// Clear removes every cache file from the directory
func (c *FileCache) Clear() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+cacheFileExt))
	if err != nil {
		return errors.WrapCacheError("list", c.dir, err)
	}

	var errs []error
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.WrapCacheError("clear", c.dir, stderrors.Join(errs...))
	}
	return nil
}

func (c *FileCache) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", errors.WrapCacheError("resolve", key, stderrors.New("invalid cache key"))
	}
	return filepath.Join(c.dir, key+cacheFileExt), nil
}

// wireBag is the msgpack representation of a Bag
type wireBag struct {
	Version int           `msgpack:"v"`
	Names   []string      `msgpack:"n"`
	Values  [][]wireValue `msgpack:"e"`
}

// wireValue keeps the Kind tag so integers and floats survive the round trip
type wireValue struct {
	Kind  Kind        `msgpack:"k"`
	Str   string      `msgpack:"s,omitempty"`
	Int   int64       `msgpack:"i,omitempty"`
	Float float64     `msgpack:"f,omitempty"`
	Bool  bool        `msgpack:"b,omitempty"`
	Keys  []string    `msgpack:"mk,omitempty"`
	Items []wireValue `msgpack:"l,omitempty"`
}

func newWireBag(b *Bag) wireBag {
	wire := wireBag{Version: wireVersion}
	for _, name := range b.Names() {
		occurrences := b.All(name)
		values := make([]wireValue, len(occurrences))
		for i, v := range occurrences {
			values[i] = newWireValue(v)
		}
		wire.Names = append(wire.Names, name)
		wire.Values = append(wire.Values, values)
	}
	return wire
}

func (w wireBag) bag() *Bag {
	b := newBag()
	for i, name := range w.Names {
		if i >= len(w.Values) {
			break
		}
		for _, v := range w.Values[i] {
			b.add(name, v.value())
		}
	}
	return b
}

func newWireValue(v Value) wireValue {
	wire := wireValue{Kind: v.kind}
	switch v.kind {
	case StringKind:
		wire.Str = v.str
	case IntegerKind:
		wire.Int = v.num
	case FloatKind:
		wire.Float = v.float
	case BooleanKind:
		wire.Bool = v.flag
	case ListKind:
		for _, item := range v.items {
			wire.Items = append(wire.Items, newWireValue(item))
		}
	case MapKind:
		for key, item := range v.fields.All() {
			wire.Keys = append(wire.Keys, key)
			wire.Items = append(wire.Items, newWireValue(item))
		}
	}
	return wire
}

func (w wireValue) value() Value {
	switch w.Kind {
	case StringKind:
		return String(w.Str)
	case IntegerKind:
		return Int(w.Int)
	case FloatKind:
		return Float(w.Float)
	case BooleanKind:
		return Bool(w.Bool)
	case ListKind:
		items := make([]Value, len(w.Items))
		for i, item := range w.Items {
			items[i] = item.value()
		}
		return Value{kind: ListKind, items: items}
	case MapKind:
		fields := newMap(len(w.Keys))
		for i, key := range w.Keys {
			if i >= len(w.Items) {
				break
			}
			fields.set(key, w.Items[i].value())
		}
		return Value{kind: MapKind, fields: fields}
	default:
		return Null()
	}
}
