package news

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadAliases reads a symbol-to-company-name map from a YAML file. Entries
// extend the built-in defaults; a file entry wins on conflict.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}

	var fromFile map[string]string
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}

	merged := defaultAliases()
	for symbol, name := range fromFile {
		merged[cleanSymbol(symbol)] = name
	}
	return merged, nil
}
