package memdb

import (
	"sync"
	"time"

	"github.com/eralogue/eralogue/internal/persona"
	"github.com/eralogue/eralogue/internal/telemetry"
	"go.uber.org/zap"
)

type PersonasStorage interface {
	GetPersonas() ([]*persona.Persona, error)
	GetUpdatedPersonas(updatedAt int64) ([]*persona.Persona, error)
}

// PersonasMemDb keeps the persona catalog in memory so the relay can resolve
// a system prompt without a database round trip on every chat invocation.
type PersonasMemDb struct {
	external    PersonasStorage
	personas    map[string]*persona.Persona
	lock        sync.RWMutex
	done        chan bool
	interval    time.Duration
	lastUpdated int64
	log         *zap.Logger
}

func NewPersonasMemDb(ex PersonasStorage, log *zap.Logger, interval time.Duration) (*PersonasMemDb, error) {
	m := map[string]*persona.Persona{}
	personas, err := ex.GetPersonas()
	if err != nil {
		return nil, err
	}

	var latest int64
	for _, p := range personas {
		m[p.Id] = p
		if p.UpdatedAt > latest {
			latest = p.UpdatedAt
		}
	}

	return &PersonasMemDb{
		external:    ex,
		personas:    m,
		log:         log,
		interval:    interval,
		lastUpdated: latest,
		done:        make(chan bool),
	}, nil
}

func (mdb *PersonasMemDb) GetPersona(id string) *persona.Persona {
	mdb.lock.RLock()
	defer mdb.lock.RUnlock()

	v, ok := mdb.personas[id]
	if ok {
		return v
	}

	return nil
}

func (mdb *PersonasMemDb) GetPersonas() []*persona.Persona {
	mdb.lock.RLock()
	defer mdb.lock.RUnlock()

	personas := []*persona.Persona{}
	for _, p := range mdb.personas {
		personas = append(personas, p)
	}

	return personas
}

func (mdb *PersonasMemDb) SetPersona(p *persona.Persona) {
	mdb.lock.Lock()
	defer mdb.lock.Unlock()

	mdb.personas[p.Id] = p
	if p.UpdatedAt > mdb.lastUpdated {
		mdb.lastUpdated = p.UpdatedAt
	}
}

func (mdb *PersonasMemDb) RemovePersona(id string) {
	mdb.lock.Lock()
	defer mdb.lock.Unlock()

	delete(mdb.personas, id)
}

func (mdb *PersonasMemDb) Listen() {
	ticker := time.NewTicker(mdb.interval)
	mdb.log.Info("personas memdb started listening for persona updates")

	go func() {
		for {
			select {
			case <-mdb.done:
				mdb.log.Info("personas memdb stopped")
				return
			case <-ticker.C:
				mdb.lock.RLock()
				since := mdb.lastUpdated
				mdb.lock.RUnlock()

				personas, err := mdb.external.GetUpdatedPersonas(since)
				if err != nil {
					telemetry.Incr("eralogue.memdb.personas_memdb.listen.get_updated_personas_error", nil, 1)

					mdb.log.Sugar().Debugf("personas memdb failed to update a persona: %v", err)
					continue
				}

				if len(personas) == 0 {
					continue
				}

				mdb.log.Sugar().Debugf("personas memdb updated at %s", time.Now().UTC().String())

				for _, p := range personas {
					mdb.SetPersona(p)
				}
			}
		}
	}()
}

func (mdb *PersonasMemDb) Stop() {
	mdb.log.Info("shutting down personas memdb...")

	mdb.done <- true
}
