package manager

import (
	"time"

	"github.com/eralogue/eralogue/internal/persona"
	"github.com/eralogue/eralogue/internal/util"
)

type PersonasStorage interface {
	GetPersonas() ([]*persona.Persona, error)
	GetPersona(id string) (*persona.Persona, error)
	UpsertPersona(p *persona.Persona) (*persona.Persona, error)
	UpdatePersona(id string, up *persona.UpdatePersona) (*persona.Persona, error)
	DeletePersona(id string) error
}

type PersonasMemStorage interface {
	GetPersona(id string) *persona.Persona
	GetPersonas() []*persona.Persona
	SetPersona(p *persona.Persona)
	RemovePersona(id string)
}

type PersonaManager struct {
	Storage PersonasStorage
	MemDb   PersonasMemStorage
}

func NewPersonaManager(s PersonasStorage, mdb PersonasMemStorage) *PersonaManager {
	return &PersonaManager{
		Storage: s,
		MemDb:   mdb,
	}
}

func (m *PersonaManager) GetPersonas() ([]*persona.Persona, error) {
	if m.MemDb != nil {
		if personas := m.MemDb.GetPersonas(); len(personas) != 0 {
			return personas, nil
		}
	}

	return m.Storage.GetPersonas()
}

func (m *PersonaManager) GetPersona(id string) (*persona.Persona, error) {
	if m.MemDb != nil {
		if p := m.MemDb.GetPersona(id); p != nil {
			return p, nil
		}
	}

	return m.Storage.GetPersona(id)
}

func (m *PersonaManager) CreatePersona(p *persona.Persona) (*persona.Persona, error) {
	if len(p.Id) == 0 {
		p.Id = util.NewUuid()
	}

	p.CreatedAt = time.Now().Unix()
	p.UpdatedAt = time.Now().Unix()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	created, err := m.Storage.UpsertPersona(p)
	if err != nil {
		return nil, err
	}

	if m.MemDb != nil {
		m.MemDb.SetPersona(created)
	}

	return created, nil
}

func (m *PersonaManager) UpdatePersona(id string, up *persona.UpdatePersona) (*persona.Persona, error) {
	up.UpdatedAt = time.Now().Unix()

	if err := up.Validate(); err != nil {
		return nil, err
	}

	updated, err := m.Storage.UpdatePersona(id, up)
	if err != nil {
		return nil, err
	}

	if m.MemDb != nil {
		m.MemDb.SetPersona(updated)
	}

	return updated, nil
}

func (m *PersonaManager) DeletePersona(id string) error {
	if err := m.Storage.DeletePersona(id); err != nil {
		return err
	}

	if m.MemDb != nil {
		m.MemDb.RemovePersona(id)
	}

	return nil
}

// SeedPersonas loads catalog entries into storage, keeping the created
// timestamp of entries that already exist.
func (m *PersonaManager) SeedPersonas(personas []*persona.Persona) error {
	now := time.Now().Unix()

	for _, p := range personas {
		existing, err := m.Storage.GetPersona(p.Id)
		if _, ok := err.(notFoundError); err != nil && !ok {
			return err
		}

		p.UpdatedAt = now
		p.CreatedAt = now
		if existing != nil {
			p.CreatedAt = existing.CreatedAt
		}

		if err := p.Validate(); err != nil {
			return err
		}

		seeded, err := m.Storage.UpsertPersona(p)
		if err != nil {
			return err
		}

		if m.MemDb != nil {
			m.MemDb.SetPersona(seeded)
		}
	}

	return nil
}
