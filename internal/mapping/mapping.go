// Package mapping loads the city and provider alias tables that translate
// opportunity-side names into tariff-side names.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jgoulah/gridtariff/internal/normalize"
)

const (
	CitiesFile    = "cities_mapping.json"
	ProvidersFile = "providers_mapping.json"
)

// SearchDirs are tried in order when no explicit path is configured
var SearchDirs = []string{"mapping", "mappings", ".", "outputs"}

// Table maps normalized keys to normalized values. Lookups of absent keys fall back to
// the key itself.
type Table map[string]string

// Lookup normalizes name and returns its alias, or the normalized name when there is none
func (t Table) Lookup(name string) string {
	n := normalize.Text(name)
	if v, ok := t[n]; ok {
		return v
	}
	return n
}

// Values returns every alias target
func (t Table) Values() []string {
	out := make([]string, 0, len(t))
	for _, v := range t {
		out = append(out, v)
	}
	return out
}

// Parse accepts either a JSON object {"raw": "alias"} or a list of
// {"key": "raw", "value": "alias"} rows. Keys and values are normalized; entries
// with an empty key are skipped.
func Parse(data []byte) (Table, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing mapping JSON: %w", err)
	}

	t := Table{}
	switch doc := raw.(type) {
	case map[string]any:
		for k, v := range doc {
			t.add(k, stringify(v))
		}
	case []any:
		for _, item := range doc {
			row, ok := item.(map[string]any)
			if !ok {
				continue
			}
			k, hasKey := row["key"]
			v, hasValue := row["value"]
			if !hasKey || !hasValue {
				continue
			}
			t.add(stringify(k), stringify(v))
		}
	default:
		return nil, fmt.Errorf("mapping must be an object or a list of {key, value} rows")
	}
	return t, nil
}

func (t Table) add(k, v string) {
	if nk := normalize.Text(k); nk != "" {
		t[nk] = normalize.Text(v)
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// LoadFile reads and parses a mapping file
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load reads the table at path. When path is empty, fileName is searched for in
// SearchDirs; if none exists an empty table is returned with an empty source path.
// An explicit path that cannot be read is an error.
func Load(path, fileName string) (Table, string, error) {
	if path != "" {
		t, err := LoadFile(path)
		return t, path, err
	}
	for _, dir := range SearchDirs {
		candidate := filepath.Join(dir, fileName)
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		t, err := LoadFile(candidate)
		return t, candidate, err
	}
	return Table{}, "", nil
}
