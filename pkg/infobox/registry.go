package infobox

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed schemas.yaml
var defaultSchemas []byte

// Registry holds the template schemas and the enum domains they refer to.
type Registry struct {
	Domains []*Domain `yaml:"domains"`
	Schemas []*Schema `yaml:"schemas"`

	domains    map[string]*Domain
	byTemplate map[string]*Schema
	byResource map[string]*Schema
}

// LoadRegistry parses and validates a YAML schema document.
func LoadRegistry(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse schemas: %w", err)
	}
	reg.domains = make(map[string]*Domain, len(reg.Domains))
	for _, d := range reg.Domains {
		if _, dup := reg.domains[d.Name]; dup {
			return nil, fmt.Errorf("duplicate domain %q", d.Name)
		}
		if err := d.prepare(); err != nil {
			return nil, err
		}
		reg.domains[d.Name] = d
	}
	reg.byTemplate = make(map[string]*Schema, len(reg.Schemas))
	reg.byResource = make(map[string]*Schema, len(reg.Schemas))
	for _, s := range reg.Schemas {
		if err := s.prepare(reg.domains); err != nil {
			return nil, err
		}
		name := normalizeName(s.Template)
		if _, dup := reg.byTemplate[name]; dup {
			return nil, fmt.Errorf("duplicate schema %q", s.Template)
		}
		if _, dup := reg.byResource[s.Resource]; dup {
			return nil, fmt.Errorf("duplicate resource %q", s.Resource)
		}
		reg.byTemplate[name] = s
		reg.byResource[s.Resource] = s
	}
	return &reg, nil
}

// LoadRegistryFile reads schemas from path, or the built-in set when path is
// empty.
func LoadRegistryFile(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schemas %s: %w", path, err)
	}
	return LoadRegistry(data)
}

// DefaultRegistry returns the built-in schemas.
func DefaultRegistry() (*Registry, error) {
	return LoadRegistry(defaultSchemas)
}

func (r *Registry) Schema(template string) (*Schema, bool) {
	s, ok := r.byTemplate[normalizeName(template)]
	return s, ok
}

func (r *Registry) ByResource(resource string) (*Schema, bool) {
	s, ok := r.byResource[resource]
	return s, ok
}

func (r *Registry) Domain(name string) (*Domain, bool) {
	d, ok := r.domains[name]
	return d, ok
}
