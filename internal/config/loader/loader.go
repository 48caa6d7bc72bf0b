// Package loader turns external override sources into setting assignments.
//
// Overrides arrive as NAME=VALUE arguments, as JSON, YAML or TOML files, or
// as prefixed environment variables. Every source yields an ordered list of
// Assignments that the settings store applies one by one.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for override files with an unknown
// extension.
var ErrUnsupportedFormat = errors.New("unsupported override file format")

// Assignment is a single NAME=VALUE override.
type Assignment struct {
	// Name is the setting name.
	Name string

	// Value is the parsed value: bool, int, string or []any.
	Value any

	// Source identifies where the assignment came from.
	Source string
}

// Loader is the interface for override sources.
type Loader interface {
	// Load returns the assignments of the source in application order.
	Load() ([]Assignment, error)
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// FileLoader loads assignments from an override file. The format is chosen
// by extension: .json, .yaml, .yml or .toml.
type FileLoader struct {
	fs   FileSystem
	path string
}

// NewFileLoader creates a loader for path on the OS file system.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{fs: DefaultFS(), path: path}
}

// NewFileLoaderWithFS creates a loader reading through fsys.
func NewFileLoaderWithFS(fsys FileSystem, path string) *FileLoader {
	return &FileLoader{fs: fsys, path: path}
}

// Load implements Loader.
func (l *FileLoader) Load() ([]Assignment, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading override file %s: %w", l.path, err)
	}
	return Parse(l.path, data)
}

// Parse decodes override data whose format is implied by the extension of
// source.
func Parse(source string, data []byte) ([]Assignment, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json":
		return parseJSON(source, data)
	case ".yaml", ".yml":
		return parseYAML(source, data)
	case ".toml":
		return parseTOML(source, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, source)
	}
}

// ParseError represents an error while parsing an override source.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
