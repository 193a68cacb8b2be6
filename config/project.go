package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the per-project manifest name looked up in a
// session's working directory.
const ManifestFile = "wingman.yaml"

// ProjectManifest describes a project as declared by its repository.
type ProjectManifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	PreviewURL  string `yaml:"preview_url"`
}

// LoadManifest reads <root>/wingman.yaml. When the file does not
// exist, a manifest named after the directory is returned.
func LoadManifest(root string) (ProjectManifest, error) {
	path := filepath.Join(root, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ProjectManifest{Name: filepath.Base(root)}, nil
		}
		return ProjectManifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m ProjectManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ProjectManifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = filepath.Base(root)
	}
	return m, nil
}
