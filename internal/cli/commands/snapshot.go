package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leappanel/internal/manifest"
)

// loadSnapshot reads a project snapshot from a JSON or YAML file. YAML
// documents are normalized through JSON so both formats share one codec.
func loadSnapshot(path string) (*manifest.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot YAML: %w", err)
		}
		data, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize snapshot YAML: %w", err)
		}
	}

	return manifest.DecodeSnapshot(data)
}
