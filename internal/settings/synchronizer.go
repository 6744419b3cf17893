package settings

import (
	"context"
	"sync"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
	"github.com/eralogue/eralogue/internal/telemetry"
	"go.uber.org/zap"
)

type State string

const (
	Unloaded State = "unloaded"
	Loaded   State = "loaded"
	Edited   State = "edited"
	Saving   State = "saving"
)

type LeaveDecision string

const (
	SaveAndLeave    LeaveDecision = "save"
	DiscardAndLeave LeaveDecision = "discard"
	CancelLeave     LeaveDecision = "cancel"
)

type RemoteStore interface {
	GetSettings(userId string) (*UserSettings, error)
	UpsertSettings(s *UserSettings) (*UserSettings, error)
}

// Mirror is the fast-access local cache. Implementations must write the whole
// settings object atomically.
type Mirror interface {
	SetSettings(s *UserSettings) error
	DeleteSettings(userId string) error
}

// Synchronizer owns one user's editable preferences. It reconciles the remote
// store into local state on Load, tracks edits against the last
// loaded-or-saved snapshot, and commits local state back to the remote store
// on Save. Save failures keep the edits and the dirty flag.
type Synchronizer struct {
	mu       sync.Mutex
	remote   RemoteStore
	mirror   Mirror
	userId   string
	state    State
	current  *UserSettings
	snapshot *UserSettings
	log      *zap.Logger
}

func NewSynchronizer(remote RemoteStore, mirror Mirror, userId string, log *zap.Logger) *Synchronizer {
	return &Synchronizer{
		remote: remote,
		mirror: mirror,
		userId: userId,
		state:  Unloaded,
		log:    log,
	}
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Load pulls the remote settings, mirrors them locally and resets the
// snapshot. A user with no stored settings gets defaults.
func (s *Synchronizer) Load(ctx context.Context) error {
	telemetry.Incr("eralogue.settings.synchronizer.load.requests", nil, 1)

	remote, err := s.remote.GetSettings(s.userId)
	if err != nil {
		if _, ok := err.(notFoundError); ok {
			remote = Defaults(s.userId)
		} else {
			telemetry.Incr("eralogue.settings.synchronizer.load.remote_error", nil, 1)
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = remote.Clone()
	s.snapshot = remote.Clone()
	s.state = Loaded

	if err := s.mirror.SetSettings(remote); err != nil {
		s.log.Sugar().Debugf("settings mirror write failed for user %s: %v", s.userId, err)
	}

	return nil
}

// Apply mutates the working copy and rederives the dirty state.
func (s *Synchronizer) Apply(mutate func(*UserSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Unloaded {
		return internal_errors.NewValidationError("settings are not loaded")
	}

	if s.state == Saving {
		return internal_errors.NewValidationError("settings are being saved")
	}

	mutate(s.current)

	if s.current.Equal(s.snapshot) {
		s.state = Loaded
	} else {
		s.state = Edited
	}

	return nil
}

func (s *Synchronizer) Current() *UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current.Clone()
}

func (s *Synchronizer) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hasUnsavedChanges()
}

func (s *Synchronizer) hasUnsavedChanges() bool {
	if s.current == nil || s.snapshot == nil {
		return false
	}

	return !s.current.Equal(s.snapshot)
}

// Save commits the working copy to the remote store and refreshes the mirror
// and the snapshot. On failure the edits are preserved and the synchronizer
// returns to the edited state.
func (s *Synchronizer) Save(ctx context.Context) error {
	telemetry.Incr("eralogue.settings.synchronizer.save.requests", nil, 1)

	s.mu.Lock()

	if s.state == Unloaded {
		s.mu.Unlock()
		return internal_errors.NewValidationError("settings are not loaded")
	}

	if !s.hasUnsavedChanges() {
		s.mu.Unlock()
		return nil
	}

	pending := s.current.Clone()
	s.state = Saving
	s.mu.Unlock()

	saved, err := s.remote.UpsertSettings(pending)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		telemetry.Incr("eralogue.settings.synchronizer.save.remote_error", nil, 1)
		s.state = Edited
		return err
	}

	s.snapshot = saved.Clone()
	s.current = saved.Clone()
	s.state = Loaded

	if err := s.mirror.SetSettings(saved); err != nil {
		s.log.Sugar().Debugf("settings mirror write failed for user %s: %v", s.userId, err)
	}

	return nil
}

// ConfirmLeave resolves a navigation guard. It reports whether leaving may
// proceed.
func (s *Synchronizer) ConfirmLeave(ctx context.Context, decision LeaveDecision) (bool, error) {
	if !s.HasUnsavedChanges() {
		return true, nil
	}

	switch decision {
	case SaveAndLeave:
		if err := s.Save(ctx); err != nil {
			return false, err
		}
		return true, nil
	case DiscardAndLeave:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.current = s.snapshot.Clone()
		s.state = Loaded
		return true, nil
	}

	return false, nil
}

type notFoundError interface {
	NotFound()
}
