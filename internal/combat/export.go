package combat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExportBuild serializes a build to YAML.
func ExportBuild(b *Build) ([]byte, error) {
	data, err := yaml.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal build: %w", err)
	}
	return data, nil
}

// ImportBuild parses a build exported by ExportBuild. Fields missing from the
// document keep their defaults.
func ImportBuild(data []byte) (*Build, error) {
	b := NewBuild()
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("failed to parse build YAML: %w", err)
	}
	// A document with empty sets decodes them as nil.
	if b.Prayers == nil {
		b.Prayers = make(map[int]bool)
	}
	if b.Pets == nil {
		b.Pets = make(map[int]bool)
	}
	if b.Obstacles == nil {
		b.Obstacles = make(map[int]int)
	}
	if b.Mastery == nil {
		b.Mastery = make(map[int]bool)
	}
	if b.ShopUpgrades == nil {
		b.ShopUpgrades = make(map[int]bool)
	}
	return b, nil
}

// LoadBuild reads a build file.
func LoadBuild(filename string) (*Build, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read build file: %w", err)
	}
	return ImportBuild(data)
}

// SaveBuild writes a build file.
func SaveBuild(filename string, b *Build) error {
	data, err := ExportBuild(b)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write build file: %w", err)
	}
	return nil
}
