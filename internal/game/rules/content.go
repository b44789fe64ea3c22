package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Content holds a game's user-facing text, loaded from a YAML content
// file. It supplements the compiled-in plugin with editable copy.
type Content struct {
	// Game is the game name the content belongs to.
	Game string
	// Help is the in-session contextual help (move syntax, commands).
	Help string
	// Rules is the long-form rules text for the "rules" command.
	Rules string
}

// yamlContentFile is the top-level YAML structure for game content files.
type yamlContentFile struct {
	Game  string `yaml:"game"`
	Help  string `yaml:"help"`
	Rules string `yaml:"rules"`
}

// LoadContentFromBytes parses and validates game content from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the content schema.
// Postcondition: Returns a validated Content or a non-nil error.
func LoadContentFromBytes(data []byte) (Content, error) {
	var file yamlContentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Content{}, fmt.Errorf("parsing content YAML: %w", err)
	}

	c := Content{
		Game:  strings.TrimSpace(file.Game),
		Help:  strings.TrimSpace(file.Help),
		Rules: strings.TrimSpace(file.Rules),
	}
	if c.Game == "" {
		return Content{}, fmt.Errorf("content file missing game name")
	}
	if c.Help == "" {
		return Content{}, fmt.Errorf("content for %q missing help text", c.Game)
	}
	if c.Rules == "" {
		return Content{}, fmt.Errorf("content for %q missing rules text", c.Game)
	}
	return c, nil
}

// LoadContentFromFile reads and validates a single game content file.
//
// Precondition: path must point to a valid YAML content file.
// Postcondition: Returns a validated Content or a non-nil error.
func LoadContentFromFile(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("reading content file %s: %w", path, err)
	}
	c, err := LoadContentFromBytes(data)
	if err != nil {
		return Content{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadContentFromDir loads every *.yaml content file in dir, keyed by
// game name.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-empty map or a non-nil error.
func LoadContentFromDir(dir string) (map[string]Content, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	contents := make(map[string]Content)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		c, err := LoadContentFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, exists := contents[c.Game]; exists {
			return nil, fmt.Errorf("duplicate content for game %q", c.Game)
		}
		contents[c.Game] = c
	}

	if len(contents) == 0 {
		return nil, fmt.Errorf("no content files found in %s", dir)
	}
	return contents, nil
}
