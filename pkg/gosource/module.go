package gosource

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// ErrNoModule is returned when no go.mod is found above a directory
var ErrNoModule = stderrors.New("go.mod file not found")

// Module describes the Go module enclosing a directory
type Module struct {
	Path string // module path from the module directive
	Dir  string // directory holding go.mod
}

// FindModule searches for a go.mod file starting from dir and walking up
func FindModule(dir string) (Module, error) {
	currentDir, err := filepath.Abs(dir)
	if err != nil {
		return Module{}, fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if info, err := os.Stat(goModPath); err == nil && !info.IsDir() {
			path, err := parseModulePath(goModPath)
			if err != nil {
				return Module{}, err
			}
			return Module{Path: path, Dir: currentDir}, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return Module{}, ErrNoModule
}

// parseModulePath extracts the module path from a go.mod file
func parseModulePath(goModPath string) (string, error) {
	cleanPath := filepath.Clean(goModPath)
	if !strings.HasSuffix(cleanPath, "go.mod") {
		return "", fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.ParseLax(cleanPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}

	if modFile.Module == nil {
		return "", fmt.Errorf("no module declaration found in %s", cleanPath)
	}

	return modFile.Module.Mod.Path, nil
}
