package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/hlekernel/internal/service/sm"
)

// Manifest lists the HLE services registered at boot.
type Manifest struct {
	// SessionLimit overrides KERNEL_SESSION_LIMIT when non-zero.
	SessionLimit int64             `yaml:"session_limit" toml:"session_limit"`
	Services     []ManifestService `yaml:"services" toml:"services"`
}

// ManifestService is one service entry.
type ManifestService struct {
	Name        string `yaml:"name" toml:"name"`
	MaxSessions uint32 `yaml:"max_sessions" toml:"max_sessions"`
	Light       bool   `yaml:"light" toml:"light"`
}

// Format is a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported manifest extension %q", filepath.Ext(path))
	}
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data, format)
}

// ParseManifest decodes and validates a manifest.
func ParseManifest(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse YAML manifest: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse TOML manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks service names and uniqueness.
func (m *Manifest) Validate() error {
	if m.SessionLimit < 0 {
		return fmt.Errorf("session_limit must not be negative, got %d", m.SessionLimit)
	}

	seen := make(map[string]bool, len(m.Services))
	for i, svc := range m.Services {
		if err := sm.ValidateServiceName(svc.Name); err != nil {
			return fmt.Errorf("services[%d]: %w", i, err)
		}
		if seen[svc.Name] {
			return fmt.Errorf("services[%d]: duplicate name %q", i, svc.Name)
		}
		seen[svc.Name] = true
	}
	return nil
}
