// Package input discovers the CityGML files of a run and exposes them as
// analysis sources.
package input

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/dbsmedya/gmlstats/internal/logger"
)

// ErrNoInputFiles is returned when no file matches the given inputs.
var ErrNoInputFiles = errors.New("no input files found")

// extensions are the file extensions picked up when scanning directories.
var extensions = map[string]bool{
	".gml":     true,
	".xml":     true,
	".citygml": true,
}

// File is an input file on a filesystem.
type File struct {
	fs   afero.Fs
	Path string
}

// NewFile creates a File for path on fs.
func NewFile(fs afero.Fs, path string) *File {
	return &File{fs: fs, Path: path}
}

// Name returns the path of the file.
func (f *File) Name() string {
	return f.Path
}

// Open opens the file for reading.
func (f *File) Open() (io.ReadCloser, error) {
	return f.fs.Open(f.Path)
}

// Size returns the file size in bytes.
func (f *File) Size() (int64, error) {
	info, err := f.fs.Stat(f.Path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Digest returns the hex encoded SHA256 hash of the file content.
func (f *File) Digest() (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", f.Path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Finder resolves file names, directories and glob patterns to input files.
type Finder struct {
	fs     afero.Fs
	suffix string
	log    *logger.Logger
}

// NewFinder creates a Finder on fs. Files whose name without extension ends
// with suffix are previous reports and are skipped.
func NewFinder(fs afero.Fs, suffix string, log *logger.Logger) *Finder {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Finder{fs: fs, suffix: suffix, log: log}
}

// Find returns the input files for the given patterns in pattern order.
// Directories are scanned recursively; matches of one pattern are sorted.
// A file matched by several patterns is returned once.
func (f *Finder) Find(patterns []string) ([]*File, error) {
	var files []*File
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		paths, err := f.expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			clean := filepath.Clean(path)
			if seen[clean] {
				continue
			}
			seen[clean] = true
			if f.isReport(clean) {
				f.log.Debugw("Skipping statistics report", "file", clean)
				continue
			}
			files = append(files, NewFile(f.fs, clean))
		}
	}

	if len(files) == 0 {
		return nil, ErrNoInputFiles
	}
	return files, nil
}

func (f *Finder) expand(pattern string) ([]string, error) {
	if hasMeta(pattern) {
		matches, err := afero.Glob(f.fs, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			f.log.Warnw("Input pattern matched no files", "pattern", pattern)
		}
		var paths []string
		for _, m := range matches {
			expanded, err := f.expandPath(m, false)
			if err != nil {
				return nil, err
			}
			paths = append(paths, expanded...)
		}
		sort.Strings(paths)
		return paths, nil
	}
	return f.expandPath(pattern, true)
}

// expandPath returns path itself for a file or the contained CityGML files
// for a directory. An explicitly named file is accepted whatever its extension.
func (f *Finder) expandPath(path string, explicit bool) ([]string, error) {
	info, err := f.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to access input %s: %w", path, err)
	}
	if !info.IsDir() {
		if explicit || hasExtension(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var paths []string
	err = afero.Walk(f.fs, path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && hasExtension(p) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *Finder) isReport(path string) bool {
	if f.suffix == "" {
		return false
	}
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), f.suffix)
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func hasExtension(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}
