package plugin

import (
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Manifest is a desired-state file listing plugin records.
type Manifest struct {
	Plugins []*DesiredState `json:"plugins" yaml:"plugins" validate:"dive"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, oops.Code(CodeManifestInvalid).
			With("path", path).
			Wrapf(err, "read manifest")
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return m, nil
}

// ParseManifest validates data against the manifest schema, decodes it and
// checks every record.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, oops.Code(CodeManifestInvalid).Errorf("manifest data is empty")
	}

	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code(CodeManifestInvalid).
			With("schema_error", FormatSchemaError(err)).
			Wrap(err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.Code(CodeManifestInvalid).Wrapf(err, "invalid YAML")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks each record and rejects duplicate plugin names.
func (m *Manifest) Validate() error {
	seen := make(map[string]string, len(m.Plugins))
	for _, rec := range m.Plugins {
		if rec == nil {
			return oops.Code(CodeManifestInvalid).Errorf("empty plugin record")
		}
		if err := rec.Validate(); err != nil {
			return err
		}
		short := rec.ShortName()
		if prev, ok := seen[short]; ok {
			return oops.Code(CodeManifestInvalid).
				With("plugin", rec.Name).
				Errorf("plugin %q installs as %q, already declared by %q", rec.Name, short, prev)
		}
		seen[short] = rec.Name
	}
	return nil
}
