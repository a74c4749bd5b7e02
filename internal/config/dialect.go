// Package config loads solver dialect definitions (SPEC_FULL §4.J):
// the binary path, default arguments, and the solver-specific option
// name behind `(get-info :rlimit)`, from an embedded default registry
// optionally overridden by an external YAML file.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vcforge/houdini/internal/prover"
)

//go:embed dialects.yaml
var defaultDialectsYAML []byte

// Dialect describes one solver's wire-level conventions.
type Dialect struct {
	Name          string   `yaml:"name"`
	Command       string   `yaml:"command"`
	Args          []string `yaml:"args"`
	IsZ3          bool     `yaml:"is_z3"`
	RLimitInfoKey string   `yaml:"rlimit_info_key"`
}

// ProverDialect projects the fields the batch driver needs.
func (d Dialect) ProverDialect() prover.Dialect {
	return prover.Dialect{IsZ3: d.IsZ3, RLimitInfoKey: d.RLimitInfoKey}
}

type dialectsYAML struct {
	Dialects []Dialect `yaml:"dialects"`
}

// Registry is an immutable, name-indexed set of dialects.
type Registry struct {
	byName map[string]Dialect
}

// Get looks up a dialect by name.
func (r *Registry) Get(name string) (Dialect, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names lists every registered dialect name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	return names
}

// Load builds a Registry from the embedded default, merged with
// overridePath if non-empty (override entries replace default entries
// of the same name; new names are added).
func Load(overridePath string) (*Registry, error) {
	var parsed dialectsYAML
	if err := yaml.Unmarshal(defaultDialectsYAML, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse embedded dialects: %w", err)
	}
	reg := &Registry{byName: make(map[string]Dialect, len(parsed.Dialects))}
	for _, d := range parsed.Dialects {
		reg.byName[d.Name] = d
	}

	if overridePath == "" {
		return reg, nil
	}

	raw, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("config: read override %q: %w", overridePath, err)
	}
	var overrides dialectsYAML
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("config: parse override %q: %w", overridePath, err)
	}
	for _, d := range overrides.Dialects {
		reg.byName[d.Name] = d
	}
	return reg, nil
}

var (
	mu       sync.RWMutex
	once     sync.Once
	cached   *Registry
	cacheErr error
)

// Default returns the process-wide Registry built from the embedded
// dialects plus overridePath (read only on first call). Subsequent
// calls return the cached value regardless of overridePath.
func Default(overridePath string) (*Registry, error) {
	mu.RLock()
	if cached != nil || cacheErr != nil {
		reg, err := cached, cacheErr
		mu.RUnlock()
		return reg, err
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if cached != nil || cacheErr != nil {
		return cached, cacheErr
	}
	once.Do(func() {
		cached, cacheErr = Load(overridePath)
	})
	return cached, cacheErr
}

// Reset clears the cached Registry. Intended for tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	cached = nil
	cacheErr = nil
}
