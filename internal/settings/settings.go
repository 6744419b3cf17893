package settings

import (
	internal_errors "github.com/eralogue/eralogue/internal/errors"
)

type ThemeSettings struct {
	ActivePalette int  `json:"activePalette"`
	DarkMode      bool `json:"darkMode"`
}

// VoiceSettings identifies the chosen synthesis voice by its stable URI, not
// its display name, because names are not stable across voice-list reloads.
type VoiceSettings struct {
	VoiceUri    string  `json:"voiceUri"`
	Rate        float64 `json:"rate"`
	Pitch       float64 `json:"pitch"`
	UseHosted   bool    `json:"useHosted"`
	HostedVoice string  `json:"hostedVoice"`
}

type SpeechSettings struct {
	Language string `json:"language"`
}

// UserSettings is always read and written as a whole object, never
// field-by-field.
type UserSettings struct {
	UserId    string         `json:"userId"`
	Name      string         `json:"name"`
	Theme     ThemeSettings  `json:"theme"`
	Voice     VoiceSettings  `json:"voice"`
	Speech    SpeechSettings `json:"speech"`
	UpdatedAt int64          `json:"updatedAt"`
}

func Defaults(userId string) *UserSettings {
	return &UserSettings{
		UserId: userId,
		Voice: VoiceSettings{
			Rate:  1,
			Pitch: 1,
		},
		Speech: SpeechSettings{
			Language: "en-US",
		},
	}
}

func (s *UserSettings) Validate() error {
	if len(s.UserId) == 0 {
		return internal_errors.NewValidationError("userId can not be empty")
	}

	if s.Voice.Rate < 0 || s.Voice.Pitch < 0 {
		return internal_errors.NewValidationError("voice rate and pitch can not be negative")
	}

	if s.Theme.ActivePalette < 0 {
		return internal_errors.NewValidationError("theme palette can not be negative")
	}

	return nil
}

// Equal reports whether two settings objects match on every tracked field.
// Scalars compare exactly; the voice compares by its selected identifier.
func (s *UserSettings) Equal(o *UserSettings) bool {
	if s == nil || o == nil {
		return s == o
	}

	return s.Name == o.Name &&
		s.Theme == o.Theme &&
		s.Voice.VoiceUri == o.Voice.VoiceUri &&
		s.Voice.Rate == o.Voice.Rate &&
		s.Voice.Pitch == o.Voice.Pitch &&
		s.Voice.UseHosted == o.Voice.UseHosted &&
		s.Voice.HostedVoice == o.Voice.HostedVoice &&
		s.Speech == o.Speech
}

// Clone returns a value copy usable as a dirty-checking snapshot.
func (s *UserSettings) Clone() *UserSettings {
	if s == nil {
		return nil
	}

	copied := *s
	return &copied
}
