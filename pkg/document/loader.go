// Package document reads configuration and schema files from disk and parses
// them into the generic JSON data model (map[string]any, []any, string,
// float64, bool, nil). Every failure is returned as a *LoadError.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Format is a supported document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Document is a successfully parsed file.
type Document struct {
	// Path is the file the document was read from.
	Path string

	// Format is the encoding the file was parsed as.
	Format Format

	// Raw is the file content as read.
	Raw []byte

	// Value is the parsed content in the JSON data model.
	Value any
}

// Object returns the document root as a JSON object, or nil if the root is
// some other type.
func (d *Document) Object() map[string]any {
	m, _ := d.Value.(map[string]any)
	return m
}

// Loader reads documents from the file system. It keeps no state between
// calls.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a new document loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "document-loader").Logger(),
	}
}

// FormatFromPath infers a document format from the file extension. Unknown
// extensions are treated as YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// LoadConfig loads a configuration document. The format follows the file
// extension: .json and .toml are honored, everything else is YAML.
func (l *Loader) LoadConfig(path string) (*Document, error) {
	return l.Load(path, FormatFromPath(path))
}

// LoadSchema loads a JSON Schema document.
func (l *Loader) LoadSchema(path string) (*Document, error) {
	return l.Load(path, FormatJSON)
}

// Load reads path and parses it as format.
func (l *Loader) Load(path string, format Format) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{
				Kind:    KindNotFound,
				Path:    path,
				Format:  format,
				Message: "file not found",
				Err:     err,
			}
		}
		return nil, &LoadError{
			Kind:       KindUnreadable,
			Path:       path,
			Format:     format,
			Message:    "failed to read file",
			Diagnostic: err.Error(),
			Err:        err,
		}
	}

	value, err := Parse(data, format)
	if err != nil {
		l.logger.Debug().Err(err).Str("path", path).Str("format", string(format)).Msg("Document parse failed")
		return nil, &LoadError{
			Kind:       KindInvalidSyntax,
			Path:       path,
			Format:     format,
			Message:    fmt.Sprintf("invalid %s syntax", strings.ToUpper(string(format))),
			Diagnostic: diagnostic(data, err),
			Err:        err,
		}
	}

	l.logger.Debug().
		Str("path", path).
		Str("format", string(format)).
		Int("bytes", len(data)).
		Msg("Document loaded")

	return &Document{
		Path:   path,
		Format: format,
		Raw:    data,
		Value:  value,
	}, nil
}

// Parse decodes data in the given format and normalizes the result into the
// JSON data model.
func Parse(data []byte, format Format) (any, error) {
	var raw any

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if dec.More() {
			return nil, fmt.Errorf("unexpected content after top-level value at offset %d", dec.InputOffset())
		}
	case FormatTOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		raw = m
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	return Normalize(raw)
}

// Normalize converts decoder output into the JSON data model: object keys
// become strings and numbers become float64.
func Normalize(v any) (any, error) {
	keyed, err := stringifyKeys(v)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(keyed)
	if err != nil {
		return nil, fmt.Errorf("value is not representable as JSON: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringifyKeys(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			conv, err := stringifyKeys(val)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			conv, err := stringifyKeys(val)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = conv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			conv, err := stringifyKeys(val)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	default:
		return v, nil
	}
}

// diagnostic renders the parser's error text, adding a line/column for JSON
// syntax errors which only report a byte offset.
func diagnostic(data []byte, err error) string {
	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		line, col := lineCol(data, synErr.Offset)
		return fmt.Sprintf("line %d, column %d: %s", line, col, synErr.Error())
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := lineCol(data, typeErr.Offset)
		return fmt.Sprintf("line %d, column %d: %s", line, col, typeErr.Error())
	}
	var tomlErr *toml.DecodeError
	if errors.As(err, &tomlErr) {
		return tomlErr.String()
	}
	return err.Error()
}

func lineCol(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
