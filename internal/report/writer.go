package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Supported report formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteError reports a failure to write a report.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Encode writes r to w in the given format.
func Encode(w io.Writer, r *Report, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON report: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode YAML report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteFile writes r to path on fs, creating parent directories as needed.
func WriteFile(fs afero.Fs, path string, r *Report, format string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	f, err := fs.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierr.Append(err, &WriteError{Path: path, Err: cerr})
		}
	}()

	if err := Encode(f, r, format); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// PathFor returns the report path of an input file: the input name without
// extension, followed by suffix and ext, in the directory of the input.
func PathFor(input, suffix, ext string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), stem+suffix+ext)
}
