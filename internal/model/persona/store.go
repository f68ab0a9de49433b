package persona

// Store exposes persona retrieval for handlers and the prompt assembler.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	// Resolve never fails: unknown ids map to the default persona.
	Resolve(id string) Persona
}

// MemoryStore implements Store over a fixed slice.
type MemoryStore struct {
	items    []Persona
	fallback Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
// The fallback is Default when present, otherwise the first item.
func NewMemoryStore(items []Persona) *MemoryStore {
	s := &MemoryStore{items: append([]Persona(nil), items...)}
	if p, ok := s.FindByID(string(Default)); ok {
		s.fallback = p
	} else if len(s.items) > 0 {
		s.fallback = s.items[0]
	}
	return s
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if string(item.ID) == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Resolve returns the persona for id, or the fallback persona.
func (s *MemoryStore) Resolve(id string) Persona {
	if p, ok := s.FindByID(id); ok {
		return p
	}
	return s.fallback
}
