package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/docnote/internal/errors"
	"github.com/toyz/docnote/pkg/annotations"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docnote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
dir: ./app
patterns: [./models, ./api]
format: json
cache_dir: /tmp/docnote
tests: true
rules:
  port: int
  enabled: bool
targets:
  - "models:User"
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "./app", cfg.Dir)
	assert.Equal(t, []string{"./models", "./api"}, cfg.Patterns)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, "/tmp/docnote", cfg.CacheDir)
	assert.True(t, cfg.Tests)
	assert.Equal(t, map[string]string{"port": "int", "enabled": "bool"}, cfg.Rules)
	assert.Equal(t, []string{"models:User"}, cfg.Targets)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile_Defaults(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfigFile(writeConfig(t, "format: json\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"./..."}, cfg.Patterns)
	assert.NotNil(t, cfg.Rules)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var base *errors.BaseError
	require.ErrorAs(t, err, &base)
	assert.Equal(t, errors.FileSystemErrorCode, base.ErrorCode())

	_, err = LoadConfigFile(writeConfig(t, "formats: json\n"))
	require.Error(t, err)
	require.ErrorAs(t, err, &base)
	assert.Equal(t, errors.ConfigurationErrorCode, base.ErrorCode())
	assert.NotEmpty(t, base.Suggestions())

	_, err = LoadConfigFile(writeConfig(t, "rules: [a, b\n"))
	assert.Error(t, err)
}

func TestConfig_AddRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules["port"] = "string"

	require.NoError(t, cfg.AddRules([]string{"port=int", " ratio = float "}))
	assert.Equal(t, map[string]string{"port": "int", "ratio": "float"}, cfg.Rules)

	for _, bad := range []string{"port", "=int", " =x"} {
		assert.Error(t, cfg.AddRules([]string{bad}), bad)
	}

	var empty Config
	require.NoError(t, empty.AddRules([]string{"a=list"}))
	assert.Equal(t, "list", empty.Rules["a"])
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "xml"
	cfg.Patterns = nil
	cfg.Rules = map[string]string{"a": "decimal", "b": "int", "c": "tuple"}
	cfg.Targets = []string{"models:", "User.", "User.Save()"}

	err := cfg.Validate()
	require.Error(t, err)

	var multi *errors.MultipleErrors
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 6)
	assert.True(t, multi.HasCode(errors.ConfigurationErrorCode))
	assert.Contains(t, err.Error(), `unsupported format "xml"`)
	assert.Contains(t, err.Error(), "rule 'a'")
	assert.Contains(t, err.Error(), "rule 'c'")
}

func TestConfig_RuleSet(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.AddRules([]string{"port=int", "tags=array"}))

	rules, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"port", "tags"}, rules.Names())

	kind, ok := rules.Lookup("tags")
	require.True(t, ok)
	assert.Equal(t, annotations.ListKind, kind)

	cfg.Rules["bad"] = "nope"
	_, err = cfg.RuleSet()
	assert.Error(t, err)
}
