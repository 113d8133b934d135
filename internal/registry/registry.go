package registry

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/registry.yaml
var embeddedRegistry []byte

// SourceEntry describes one jurisdiction's agency endpoints for a domain.
// Static configuration; immutable at runtime.
type SourceEntry struct {
	Jurisdiction string   `yaml:"jurisdiction"`
	Agency       string   `yaml:"agency"`
	Feeds        []string `yaml:"feeds"`
	Pages        []string `yaml:"pages"`
}

// Registry maps poller domains to their source entries.
type Registry struct {
	domains map[string][]SourceEntry
}

type registryFile struct {
	Domains map[string][]SourceEntry `yaml:"domains"`
}

// Load reads the registry data file at path, or the embedded default
// registry when path is empty.
func Load(path string) (*Registry, error) {
	raw := embeddedRegistry
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read registry %s: %w", path, err)
		}
		raw = data
	}
	return Parse(raw)
}

// Parse decodes registry YAML.
func Parse(raw []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(file.Domains) == 0 {
		return nil, fmt.Errorf("registry has no domains")
	}
	return &Registry{domains: file.Domains}, nil
}

// New builds a registry from in-memory entries; used by tests and callers
// that assemble sources programmatically.
func New(domains map[string][]SourceEntry) *Registry {
	return &Registry{domains: domains}
}

// DomainNames lists the configured poller domains.
func (r *Registry) DomainNames() []string {
	names := make([]string, 0, len(r.domains))
	for name := range r.domains {
		names = append(names, name)
	}
	return names
}

// Sources returns all entries for a domain, optionally narrowed to one
// jurisdiction code. Unknown domains or codes yield an empty slice.
func (r *Registry) Sources(domain, stateCode string) []SourceEntry {
	entries := r.domains[domain]
	if stateCode == "" {
		return entries
	}

	code := strings.ToUpper(strings.TrimSpace(stateCode))
	filtered := make([]SourceEntry, 0, 1)
	for _, entry := range entries {
		if strings.EqualFold(entry.Jurisdiction, code) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
