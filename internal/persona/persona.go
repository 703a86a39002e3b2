// Package persona runs a round-limited conversation in which several stakeholder personas argue a task to a consensus.
package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cchalm/prompt-pilot/internal/ai"
)

// Persona is one stakeholder voice in a conflict resolution exchange
type Persona struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Role       string   `yaml:"role"`
	Stance     string   `yaml:"stance"`
	Priorities []string `yaml:"priorities,omitempty"`
}

// Seed returns the built-in personas
func Seed() []Persona {
	return []Persona{
		{
			ID:         "architect",
			Name:       "Avery",
			Role:       "Software Architect",
			Stance:     "Favors designs that stay simple to change and argues against accidental complexity.",
			Priorities: []string{"maintainability", "clear module boundaries"},
		},
		{
			ID:         "security",
			Name:       "Sam",
			Role:       "Security Engineer",
			Stance:     "Refuses any plan that touches secrets or authentication without a threat model.",
			Priorities: []string{"least privilege", "protecting sensitive files"},
		},
		{
			ID:         "product",
			Name:       "Priya",
			Role:       "Product Owner",
			Stance:     "Pushes for the smallest change that delivers value to users this iteration.",
			Priorities: []string{"time to ship", "user impact"},
		},
		{
			ID:         "qa",
			Name:       "Quinn",
			Role:       "QA Engineer",
			Stance:     "Will not sign off on behaviour that cannot be tested automatically.",
			Priorities: []string{"test coverage", "reproducible failures"},
		},
	}
}

// Store exposes persona retrieval
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns all personas in load order
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// Load reads personas from a YAML file. An empty path yields the built-in personas; a named file that cannot be read
// is an *ai.IOError.
func Load(path string) (*MemoryStore, error) {
	if path == "" {
		return NewMemoryStore(Seed()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ai.IOError{Path: path, Err: err}
	}

	var pf personaFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse personas file '%s': %w", path, err)
	}
	if len(pf.Personas) == 0 {
		return nil, fmt.Errorf("personas file '%s' defines no personas", path)
	}

	seen := map[string]bool{}
	for i, p := range pf.Personas {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("persona %d in '%s' needs an id and a name", i, path)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate persona id '%s' in '%s'", p.ID, path)
		}
		seen[p.ID] = true
	}
	return NewMemoryStore(pf.Personas), nil
}
