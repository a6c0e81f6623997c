package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LoadFixture reads a raw fixture file relative to the test's working directory.
func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LoadGolden unmarshals a JSON golden file into v.
func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WriteFixtureTree materialises a path->content map under root, creating
// parent directories as needed. Tests use it to lay out content trees and
// theme directories without committing dozens of tiny files.
func WriteFixtureTree(root string, files map[string]string) error {
	for name, content := range files {
		target := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
