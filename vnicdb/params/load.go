package params

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Load reads parameters from a file. Files with a ".yaml" or ".yml" extension
// hold a YAML mapping, anything else is parsed as "key = value" lines.
func Load(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Failed opening params file: %w", err)
	}

	defer func() { _ = f.Close() }()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return ParseYAML(f)
	}

	return Parse(f)
}

// ParseYAML reads parameters from a YAML mapping. Non-string scalars are
// converted to their string form.
func ParseYAML(r io.Reader) (Params, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	raw := map[string]any{}
	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, fmt.Errorf("Failed parsing YAML params: %w", err)
	}

	p := make(Params, len(raw))
	for k, v := range raw {
		switch value := v.(type) {
		case nil:
			p[k] = ""
		case string:
			p[k] = value
		case []any:
			items := make([]string, 0, len(value))
			for _, item := range value {
				items = append(items, fmt.Sprint(item))
			}

			p[k] = strings.Join(items, " ")
		case map[any]any:
			return nil, fmt.Errorf("Invalid value for param %q: nested mappings aren't supported", k)
		default:
			p[k] = fmt.Sprint(value)
		}
	}

	return p, nil
}

// Parse reads "key = value" lines. Blank lines and lines starting with "#" are skipped.
func Parse(r io.Reader) (Params, error) {
	p := Params{}
	scanner := bufio.NewScanner(r)

	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("Invalid params line %d: %q", n, line)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("Invalid params line %d: empty key", n)
		}

		p[key] = strings.TrimSpace(value)
	}

	err := scanner.Err()
	if err != nil {
		return nil, err
	}

	return p, nil
}
