// Package config loads process-wide configuration: the environment
// variables the registry consults (LOADER_LIBRARY_PATH, LOADER_SCRIPT_PATH,
// CONFIGURATION_PATH) plus the JSON document CONFIGURATION_PATH points at
// and the YAML loader-plugin manifests it references.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// Config is the resolved process configuration: environment-derived search
// paths plus whatever CONFIGURATION_PATH's JSON document adds.
type Config struct {
	// LibraryPaths is LOADER_LIBRARY_PATH split on the OS path-list
	// separator: where loader plugins are discovered.
	LibraryPaths []string
	// ScriptPaths is LOADER_SCRIPT_PATH split the same way: the default
	// search path for load_from_file when a caller passes a bare name.
	ScriptPaths []string
	// Loaders are the loader-plugin manifests named by the JSON document,
	// each itself parsed from a YAML file.
	Loaders []LoaderManifest
}

// LoaderManifest describes one loader plugin: its tag, confinement mode,
// and rate limit, matching the shape loader.New's constructor takes.
type LoaderManifest struct {
	Tag         string        `yaml:"tag"`
	Confined    bool          `yaml:"confined"`
	RateLimit   float64       `yaml:"rate_limit"`
	Burst       int           `yaml:"burst"`
	ScriptPaths []string      `yaml:"script_paths"`
	InitTimeout time.Duration `yaml:"init_timeout"`
}

// documentSchema is the on-disk shape of CONFIGURATION_PATH's JSON file.
type documentSchema struct {
	LoaderManifests []string `json:"loader_manifests"`
}

const (
	envLibraryPath       = "LOADER_LIBRARY_PATH"
	envScriptPath        = "LOADER_SCRIPT_PATH"
	envConfigurationPath = "CONFIGURATION_PATH"
)

// Load reads LOADER_LIBRARY_PATH, LOADER_SCRIPT_PATH, and
// CONFIGURATION_PATH and, if CONFIGURATION_PATH is set, its JSON document
// and every YAML manifest it references. A missing CONFIGURATION_PATH is
// not an error: Config is still populated from the two search-path
// variables.
func Load() (*Config, error) {
	cfg := &Config{
		LibraryPaths: splitPathList(os.Getenv(envLibraryPath)),
		ScriptPaths:  splitPathList(os.Getenv(envScriptPath)),
	}

	path := os.Getenv(envConfigurationPath)
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", envConfigurationPath, err)
	}
	var doc documentSchema
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for _, rel := range doc.LoaderManifests {
		manifestPath := rel
		if !filepath.IsAbs(manifestPath) {
			manifestPath = filepath.Join(base, rel)
		}
		m, err := loadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		cfg.Loaders = append(cfg.Loaders, *m)
	}
	return cfg, nil
}

func loadManifest(path string) (*LoaderManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read loader manifest %s: %w", path, err)
	}
	var m LoaderManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("config: parse loader manifest %s: %w", path, err)
	}
	if m.Tag == "" {
		return nil, fmt.Errorf("config: loader manifest %s has no tag", path)
	}
	return &m, nil
}

func splitPathList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, string(os.PathListSeparator))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RateLimitValue converts a manifest's RateLimit field into a rate.Limit,
// treating a zero or negative value as unlimited (rate.Inf, the value
// loader.New takes to disable throttling).
func (m LoaderManifest) RateLimitValue() rate.Limit {
	if m.RateLimit <= 0 {
		return rate.Inf
	}
	return rate.Limit(m.RateLimit)
}
