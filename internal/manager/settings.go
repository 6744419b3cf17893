package manager

import (
	"time"

	"github.com/eralogue/eralogue/internal/settings"
)

type SettingsStorage interface {
	GetSettings(userId string) (*settings.UserSettings, error)
	UpsertSettings(us *settings.UserSettings) (*settings.UserSettings, error)
	DeleteSettings(userId string) error
}

type SettingsCache interface {
	SetSettings(us *settings.UserSettings) error
	GetSettings(userId string) (*settings.UserSettings, error)
	DeleteSettings(userId string) error
}

// SettingsManager fronts the settings table with a whole-object cache. It
// implements the synchronizer's remote store.
type SettingsManager struct {
	Storage SettingsStorage
	Cache   SettingsCache
}

func NewSettingsManager(s SettingsStorage, cache SettingsCache) *SettingsManager {
	return &SettingsManager{
		Storage: s,
		Cache:   cache,
	}
}

func (m *SettingsManager) GetSettings(userId string) (*settings.UserSettings, error) {
	if m.Cache != nil {
		cached, err := m.Cache.GetSettings(userId)
		if err == nil {
			return cached, nil
		}
	}

	us, err := m.Storage.GetSettings(userId)
	if err != nil {
		return nil, err
	}

	if m.Cache != nil {
		if err := m.Cache.SetSettings(us); err != nil {
			return nil, err
		}
	}

	return us, nil
}

func (m *SettingsManager) UpsertSettings(us *settings.UserSettings) (*settings.UserSettings, error) {
	if err := us.Validate(); err != nil {
		return nil, err
	}

	us.UpdatedAt = time.Now().Unix()

	saved, err := m.Storage.UpsertSettings(us)
	if err != nil {
		return nil, err
	}

	if m.Cache != nil {
		if err := m.Cache.SetSettings(saved); err != nil {
			return nil, err
		}
	}

	return saved, nil
}

func (m *SettingsManager) DeleteSettings(userId string) error {
	if m.Cache != nil {
		if err := m.Cache.DeleteSettings(userId); err != nil {
			return err
		}
	}

	return m.Storage.DeleteSettings(userId)
}
