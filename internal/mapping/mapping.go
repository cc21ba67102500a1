// Package mapping translates Algotester identifiers to contest package
// identifiers. Missing files and unmapped ids are not errors: rows without a
// mapping are skipped upstream.
package mapping

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// Map is a plain external-id to internal-id lookup.
type Map map[string]string

// Load reads a yaml mapping file. A missing file yields an empty map so a
// partially configured deployment still starts.
func Load(path string) (Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}

	var m Map
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if m == nil {
		m = Map{}
	}

	return m, nil
}

// Write persists m with a descriptive header comment, keys sorted for stable
// diffs.
func Write(path, header string, m Map) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make(yaml.MapSlice, 0, len(m))
	for _, k := range keys {
		ordered = append(ordered, yaml.MapItem{Key: k, Value: m[k]})
	}

	raw, err := yaml.Marshal(ordered)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	out := append([]byte("# "+header+"\n\n"), raw...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write mapping %s: %w", path, err)
	}

	return nil
}
