package gosource

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/docnote/internal/errors"
	"github.com/toyz/docnote/pkg/annotations"
)

const modelsFile = `package models

import "time"

/**
 * User is a persisted account.
 *
 * @table "users"
 * @cache {ttl: 60, enabled: true}
 */
type User struct {
	// @column "id"
	// @primary
	ID int64

	Email string // @column "email"

	/* @ignore */
	password string

	// @embedded
	time.Time

	Name, Nick string
}

// @repository
type (
	// @readonly
	Store interface {
		// @query "SELECT * FROM users"
		All() []User
		Close()
	}

	Plain struct{}
)

// @label "single"
type Label string

// Save persists the user.
// @transactional
// @timeout 30
func (u *User) Save() error { return nil }

// @pure
func (u User) Valid() bool { return u.Email != "" }

// @generic
type Box[T any] struct{ Item T }

// @unwrap
func (b *Box[T]) Get() T { return b.Item }

func helper() {}
`

const apiFile = `// @service "api"
package api

// @controller "/users"
type Handler struct{}

// @route GET /users/{id}
func (Handler) Show() {}
`

func writeModule(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"go.mod":           "module example.com/app\n\ngo 1.22\n",
		"models/models.go": modelsFile,
		"api/api.go":       apiFile,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func loadModule(t *testing.T) *Source {
	t.Helper()

	src, err := Load(context.Background(), Config{Dir: writeModule(t)}, "./...")
	require.NoError(t, err)
	return src
}

func TestLoad_Index(t *testing.T) {
	src := loadModule(t)

	assert.Equal(t, "example.com/app", src.Module().Path)
	assert.Equal(t, []string{"example.com/app/api", "example.com/app/models"}, src.Packages())

	tests := []struct {
		name   string
		target annotations.Target
		want   string
	}{
		{"type doc", annotations.Class("example.com/app/models", "User"), "/**\n * User is a persisted account.\n *\n * @table \"users\"\n * @cache {ttl: 60, enabled: true}\n */"},
		{"field doc", annotations.Property("example.com/app/models", "User", "ID"), "// @column \"id\"\n// @primary"},
		{"field line comment", annotations.Property("example.com/app/models", "User", "Email"), "// @column \"email\""},
		{"unexported field", annotations.Property("example.com/app/models", "User", "password"), "/* @ignore */"},
		{"embedded field", annotations.Property("example.com/app/models", "User", "Time"), "// @embedded"},
		{"undocumented field", annotations.Property("example.com/app/models", "User", "Nick"), ""},
		{"pointer receiver", annotations.Method("example.com/app/models", "User", "Save"), "// Save persists the user.\n// @transactional\n// @timeout 30"},
		{"value receiver", annotations.Method("example.com/app/models", "User", "Valid"), "// @pure"},
		{"grouped spec doc", annotations.Class("example.com/app/models", "Store"), "// @readonly"},
		{"grouped decl doc not shared", annotations.Class("example.com/app/models", "Plain"), ""},
		{"single spec decl doc", annotations.Class("example.com/app/models", "Label"), "// @label \"single\""},
		{"interface method", annotations.Method("example.com/app/models", "Store", "All"), "// @query \"SELECT * FROM users\""},
		{"undocumented interface method", annotations.Method("example.com/app/models", "Store", "Close"), ""},
		{"generic type", annotations.Class("example.com/app/models", "Box"), "// @generic"},
		{"generic receiver", annotations.Method("example.com/app/models", "Box", "Get"), "// @unwrap"},
		{"other package", annotations.Method("example.com/app/api", "Handler", "Show"), "// @route GET /users/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comment, err := src.Comment(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, comment)
		})
	}
}

func TestSource_NotFound(t *testing.T) {
	src := loadModule(t)

	targets := []annotations.Target{
		annotations.Class("example.com/app/models", "Missing"),
		annotations.Property("example.com/app/models", "User", "Phone"),
		annotations.Method("example.com/app/models", "User", "Delete"),
		annotations.Method("example.com/app/models", "User", "Email"),
		annotations.Class("example.com/other", "User"),
	}

	for _, target := range targets {
		t.Run(target.String(), func(t *testing.T) {
			_, err := src.Comment(target)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, annotations.ErrTargetNotFound))
		})
	}

	_, err := src.Comment(annotations.Method("example.com/app/models", "User", "Delete"))
	var notFound *annotations.TargetNotFoundError
	require.True(t, stderrors.As(err, &notFound))
	assert.Contains(t, notFound.Suggestions()[0], "Save, Valid")

	_, err = src.Comment(annotations.Class("example.com/other", "User"))
	require.True(t, stderrors.As(err, &notFound))
	assert.Contains(t, notFound.Suggestions()[0], "was not loaded")
}

func TestSource_Resolve(t *testing.T) {
	src := loadModule(t)

	tests := map[string]string{
		"./models":               "example.com/app/models",
		"models":                 "example.com/app/models",
		"example.com/app/api":    "example.com/app/api",
		"./api/../models":        "example.com/app/models",
		"example.com/app/absent": "example.com/app/absent",
	}
	for input, want := range tests {
		got, err := src.Resolve(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	comment, err := src.Comment(annotations.Class("./api", "Handler"))
	require.NoError(t, err)
	assert.Equal(t, "// @controller \"/users\"", comment)
}

func TestSource_SinglePackageDefault(t *testing.T) {
	dir := writeModule(t)

	src, err := Load(context.Background(), Config{Dir: filepath.Join(dir, "api")})
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/app/api"}, src.Packages())
	assert.Equal(t, dir, src.Module().Dir)

	comment, err := src.Comment(annotations.Class("", "Handler"))
	require.NoError(t, err)
	assert.Equal(t, "// @controller \"/users\"", comment)
}

func TestSource_ReaderIntegration(t *testing.T) {
	src := loadModule(t)
	reader := annotations.NewReader(src)

	user, err := reader.ClassAnnotations("./models", "User")
	require.NoError(t, err)
	assert.Equal(t, "users", user.GetString("table"))
	cache, _ := user.Get("cache")
	assert.Equal(t, annotations.MapKind, cache.Kind())

	save, err := reader.MethodAnnotations("./models", "User", "Save")
	require.NoError(t, err)
	assert.True(t, save.GetBool("transactional"))
	assert.Equal(t, int64(30), save.GetInt("timeout"))

	email, err := reader.PropertyAnnotations("models", "User", "Email")
	require.NoError(t, err)
	assert.Equal(t, "email", email.GetString("column"))
}

func TestSource_Targets(t *testing.T) {
	src := loadModule(t)

	targets := src.Targets()
	require.Len(t, targets, src.Len())
	assert.Equal(t, annotations.Class("example.com/app/api", "Handler"), targets[0])
	assert.Equal(t, annotations.Method("example.com/app/api", "Handler", "Show"), targets[1])

	for _, target := range targets {
		assert.NotEqual(t, "helper", target.Member)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := writeModule(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "broken.go"), []byte("package models\n\nfunc {"), 0o644))

	_, err := Load(context.Background(), Config{Dir: dir}, "./models")
	require.Error(t, err)

	var multi *errors.MultipleErrors
	require.True(t, stderrors.As(err, &multi))
	assert.True(t, multi.HasCode(errors.SourceLoadErrorCode))

	var located *errors.BaseError
	for _, e := range multi.Errors {
		if base, ok := e.(*errors.BaseError); ok && filepath.Base(base.Loc.File) == "broken.go" {
			located = base
			break
		}
	}
	require.NotNil(t, located, "no error points at broken.go: %v", err)
	assert.Equal(t, 3, located.Loc.Line)
	assert.Positive(t, located.Loc.Column)
	assert.Contains(t, located.Error(), "broken.go:3:")
	assert.Contains(t, located.Error(), "failed to load package example.com/app/models")
	assert.Equal(t, "example.com/app/models", located.Context()["package"])
	assert.NotNil(t, stderrors.Unwrap(located))
}

func TestResolve_WithoutModule(t *testing.T) {
	src := &Source{packages: map[string]string{}}

	_, err := src.Resolve("./models")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrNoModule))
}

func TestFindModule(t *testing.T) {
	dir := writeModule(t)

	module, err := FindModule(filepath.Join(dir, "models"))
	require.NoError(t, err)
	assert.Equal(t, Module{Path: "example.com/app", Dir: dir}, module)

	_, err = parseModulePath(filepath.Join(dir, "models", "models.go"))
	assert.Error(t, err)

	empty := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(empty, "go.mod"), []byte("go 1.22\n"), 0o644))
	_, err = FindModule(empty)
	assert.ErrorContains(t, err, "no module declaration")
}

func TestLoader(t *testing.T) {
	loader := NewLoader()
	cfg := Config{Dir: writeModule(t)}

	first, err := loader.Load(context.Background(), cfg, "./...")
	require.NoError(t, err)
	second, err := loader.Load(context.Background(), cfg, "./...")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := loader.Load(context.Background(), cfg, "./api")
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	stats := loader.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}
