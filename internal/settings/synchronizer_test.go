package settings

import (
	"context"
	"errors"
	"testing"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRemoteStore struct {
	stored      map[string]*UserSettings
	upsertErr   error
	getErr      error
	upsertCalls int
}

func newFakeRemoteStore() *fakeRemoteStore {
	return &fakeRemoteStore{
		stored: map[string]*UserSettings{},
	}
}

func (s *fakeRemoteStore) GetSettings(userId string) (*UserSettings, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}

	found, ok := s.stored[userId]
	if !ok {
		return nil, internal_errors.NewNotFoundError("user settings are not found")
	}

	return found.Clone(), nil
}

func (s *fakeRemoteStore) UpsertSettings(us *UserSettings) (*UserSettings, error) {
	s.upsertCalls++

	if s.upsertErr != nil {
		return nil, s.upsertErr
	}

	s.stored[us.UserId] = us.Clone()
	return us.Clone(), nil
}

type fakeMirror struct {
	stored   map[string]*UserSettings
	setErr   error
	setCalls int
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		stored: map[string]*UserSettings{},
	}
}

func (m *fakeMirror) SetSettings(us *UserSettings) error {
	m.setCalls++

	if m.setErr != nil {
		return m.setErr
	}

	m.stored[us.UserId] = us.Clone()
	return nil
}

func (m *fakeMirror) DeleteSettings(userId string) error {
	delete(m.stored, userId)
	return nil
}

func TestSynchronizerLoad_Defaults(t *testing.T) {
	remote := newFakeRemoteStore()
	mirror := newFakeMirror()
	s := NewSynchronizer(remote, mirror, "user-1", zap.NewNop())

	assert.Equal(t, Unloaded, s.State())

	require.Nil(t, s.Load(context.Background()))

	assert.Equal(t, Loaded, s.State())
	assert.False(t, s.HasUnsavedChanges())

	current := s.Current()
	assert.Equal(t, "user-1", current.UserId)
	assert.Equal(t, float64(1), current.Voice.Rate)
	assert.Equal(t, float64(1), current.Voice.Pitch)
	assert.Equal(t, "en-US", current.Speech.Language)

	require.Contains(t, mirror.stored, "user-1")
}

func TestSynchronizerLoad_Existing(t *testing.T) {
	remote := newFakeRemoteStore()
	remote.stored["user-1"] = &UserSettings{
		UserId: "user-1",
		Name:   "Ada",
		Theme: ThemeSettings{
			ActivePalette: 2,
			DarkMode:      true,
		},
	}

	s := NewSynchronizer(remote, newFakeMirror(), "user-1", zap.NewNop())
	require.Nil(t, s.Load(context.Background()))

	current := s.Current()
	assert.Equal(t, "Ada", current.Name)
	assert.Equal(t, 2, current.Theme.ActivePalette)
	assert.True(t, current.Theme.DarkMode)
}

func TestSynchronizerLoad_RemoteError(t *testing.T) {
	remote := newFakeRemoteStore()
	remote.getErr = errors.New("connection refused")

	s := NewSynchronizer(remote, newFakeMirror(), "user-1", zap.NewNop())
	err := s.Load(context.Background())

	require.NotNil(t, err)
	assert.Equal(t, Unloaded, s.State())
}

func TestSynchronizerApply_DirtyTracking(t *testing.T) {
	s := NewSynchronizer(newFakeRemoteStore(), newFakeMirror(), "user-1", zap.NewNop())
	require.Nil(t, s.Load(context.Background()))

	require.Nil(t, s.Apply(func(us *UserSettings) {
		us.Theme.DarkMode = true
	}))

	assert.Equal(t, Edited, s.State())
	assert.True(t, s.HasUnsavedChanges())

	// reverting the edit makes the settings clean again
	require.Nil(t, s.Apply(func(us *UserSettings) {
		us.Theme.DarkMode = false
	}))

	assert.Equal(t, Loaded, s.State())
	assert.False(t, s.HasUnsavedChanges())
}

func TestSynchronizerApply_BeforeLoad(t *testing.T) {
	s := NewSynchronizer(newFakeRemoteStore(), newFakeMirror(), "user-1", zap.NewNop())

	err := s.Apply(func(us *UserSettings) {
		us.Name = "Ada"
	})

	require.NotNil(t, err)
	assert.Equal(t, Unloaded, s.State())
}

func TestSynchronizerSave_CleanIsNoOp(t *testing.T) {
	remote := newFakeRemoteStore()
	s := NewSynchronizer(remote, newFakeMirror(), "user-1", zap.NewNop())
	require.Nil(t, s.Load(context.Background()))

	require.Nil(t, s.Save(context.Background()))
	assert.Equal(t, 0, remote.upsertCalls)
}

func TestSynchronizerSave_CommitsAndResetsSnapshot(t *testing.T) {
	remote := newFakeRemoteStore()
	mirror := newFakeMirror()
	s := NewSynchronizer(remote, mirror, "user-1", zap.NewNop())
	require.Nil(t, s.Load(context.Background()))

	require.Nil(t, s.Apply(func(us *UserSettings) {
		us.Voice.Rate = 1.4
		us.Voice.VoiceUri = "urn:voice:en-GB:amelie"
	}))

	require.Nil(t, s.Save(context.Background()))

	assert.Equal(t, Loaded, s.State())
	assert.False(t, s.HasUnsavedChanges())
	assert.Equal(t, 1, remote.upsertCalls)
	assert.Equal(t, 1.4, remote.stored["user-1"].Voice.Rate)
	assert.Equal(t, "urn:voice:en-GB:amelie", mirror.stored["user-1"].Voice.VoiceUri)
}

func TestSynchronizerSave_FailureKeepsEdits(t *testing.T) {
	remote := newFakeRemoteStore()
	remote.upsertErr = errors.New("write timeout")

	s := NewSynchronizer(remote, newFakeMirror(), "user-1", zap.NewNop())
	require.Nil(t, s.Load(context.Background()))

	require.Nil(t, s.Apply(func(us *UserSettings) {
		us.Name = "Ada"
	}))

	err := s.Save(context.Background())
	require.NotNil(t, err)

	assert.Equal(t, Edited, s.State())
	assert.True(t, s.HasUnsavedChanges())
	assert.Equal(t, "Ada", s.Current().Name)

	// a later save with a healthy remote commits the same edits
	remote.upsertErr = nil
	require.Nil(t, s.Save(context.Background()))
	assert.Equal(t, Loaded, s.State())
	assert.Equal(t, "Ada", remote.stored["user-1"].Name)
}

func TestSynchronizerConfirmLeave(t *testing.T) {
	t.Run("clean always leaves", func(t *testing.T) {
		s := NewSynchronizer(newFakeRemoteStore(), newFakeMirror(), "user-1", zap.NewNop())
		require.Nil(t, s.Load(context.Background()))

		ok, err := s.ConfirmLeave(context.Background(), CancelLeave)
		require.Nil(t, err)
		assert.True(t, ok)
	})

	t.Run("save and leave commits", func(t *testing.T) {
		remote := newFakeRemoteStore()
		s := NewSynchronizer(remote, newFakeMirror(), "user-1", zap.NewNop())
		require.Nil(t, s.Load(context.Background()))

		require.Nil(t, s.Apply(func(us *UserSettings) {
			us.Name = "Ada"
		}))

		ok, err := s.ConfirmLeave(context.Background(), SaveAndLeave)
		require.Nil(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Ada", remote.stored["user-1"].Name)
		assert.False(t, s.HasUnsavedChanges())
	})

	t.Run("save failure blocks leaving", func(t *testing.T) {
		remote := newFakeRemoteStore()
		remote.upsertErr = errors.New("write timeout")

		s := NewSynchronizer(remote, newFakeMirror(), "user-1", zap.NewNop())
		require.Nil(t, s.Load(context.Background()))

		require.Nil(t, s.Apply(func(us *UserSettings) {
			us.Name = "Ada"
		}))

		ok, err := s.ConfirmLeave(context.Background(), SaveAndLeave)
		require.NotNil(t, err)
		assert.False(t, ok)
		assert.True(t, s.HasUnsavedChanges())
	})

	t.Run("discard reverts to snapshot", func(t *testing.T) {
		remote := newFakeRemoteStore()
		remote.stored["user-1"] = &UserSettings{
			UserId: "user-1",
			Name:   "Original",
		}

		s := NewSynchronizer(remote, newFakeMirror(), "user-1", zap.NewNop())
		require.Nil(t, s.Load(context.Background()))

		require.Nil(t, s.Apply(func(us *UserSettings) {
			us.Name = "Edited"
		}))

		ok, err := s.ConfirmLeave(context.Background(), DiscardAndLeave)
		require.Nil(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Original", s.Current().Name)
		assert.False(t, s.HasUnsavedChanges())
		assert.Equal(t, 0, remote.upsertCalls)
	})

	t.Run("cancel stays", func(t *testing.T) {
		s := NewSynchronizer(newFakeRemoteStore(), newFakeMirror(), "user-1", zap.NewNop())
		require.Nil(t, s.Load(context.Background()))

		require.Nil(t, s.Apply(func(us *UserSettings) {
			us.Name = "Edited"
		}))

		ok, err := s.ConfirmLeave(context.Background(), CancelLeave)
		require.Nil(t, err)
		assert.False(t, ok)
		assert.True(t, s.HasUnsavedChanges())
		assert.Equal(t, "Edited", s.Current().Name)
	})
}

func TestUserSettingsEqual_VoiceIdentity(t *testing.T) {
	a := Defaults("user-1")
	a.Voice.VoiceUri = "urn:voice:en-US:alloy"

	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Voice.VoiceUri = "urn:voice:en-US:verse"
	assert.False(t, a.Equal(b))

	b.Voice.VoiceUri = a.Voice.VoiceUri
	b.UpdatedAt = 12345
	// bookkeeping fields do not participate in dirty checking
	assert.True(t, a.Equal(b))
}

func TestUserSettingsValidate(t *testing.T) {
	us := Defaults("user-1")
	require.Nil(t, us.Validate())

	us.Voice.Rate = -0.1
	require.NotNil(t, us.Validate())

	us = Defaults("")
	require.NotNil(t, us.Validate())
}
