package scenedata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadDir reads every *.json file in dir as the scene list for one title.
// The title key is the file name without extension, lowercased.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenes dir: %w", err)
	}

	titles := make(map[string][]Scene)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read scene file %s: %w", entry.Name(), err)
		}

		var scenes []Scene
		if err := json.Unmarshal(data, &scenes); err != nil {
			return nil, fmt.Errorf("failed to parse scene file %s: %w", entry.Name(), err)
		}

		key := strings.ToLower(strings.TrimSuffix(entry.Name(), ".json"))
		titles[key] = scenes
	}

	return NewStore(titles), nil
}
