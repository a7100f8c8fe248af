package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
	OutputFormatTable = "table"

	NotAvailable = "N/A"

	defaultJSONIndent = 2
)

// Common static errors used throughout the commands package.
var (
	ErrAddressRequired      = errors.New("at least one address is required (use --addresses or ESCTL_ADDRESSES)")
	ErrIndexRequired        = errors.New("at least one index is required (use --index)")
	ErrInvalidQuery         = errors.New("query must be a JSON object")
	ErrUnknownOutputFormat  = errors.New("unknown output format")
	ErrClusterNotReachable  = errors.New("cluster is not reachable")
	ErrPasswordNotAvailable = errors.New("password required but stdin is not a terminal")
)

// StandardJSONRenderer writes data as indented JSON.
func StandardJSONRenderer[T any](w io.Writer, data T) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer writes data as YAML.
func StandardYAMLRenderer[T any](w io.Writer, data T) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultJSONIndent)

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return encoder.Close()
}

// render dispatches on the output format; table output is left to the caller.
func render[T any](w io.Writer, format string, data T, table func() error) error {
	switch format {
	case OutputFormatJSON:
		return StandardJSONRenderer(w, data)
	case OutputFormatYAML:
		return StandardYAMLRenderer(w, data)
	case OutputFormatTable, "":
		return table()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutputFormat, format)
	}
}

// splitAddresses flattens comma- and space-separated address lists, as
// they arrive from flags, env vars and config files alike.
func splitAddresses(values []string) []string {
	var out []string
	for _, v := range values {
		for _, addr := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, strings.TrimSpace(addr))
		}
	}
	return out
}

func valueOrNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
