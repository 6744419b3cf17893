package postgresql

import (
	"context"
	"database/sql"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
	"github.com/eralogue/eralogue/internal/settings"
)

func (s *Store) GetSettings(userId string) (*settings.UserSettings, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	var us settings.UserSettings
	err := s.db.QueryRowContext(ctxTimeout, "SELECT user_id, COALESCE(name, ''), theme_palette, theme_dark_mode, COALESCE(tts_voice_uri, ''), tts_rate, tts_pitch, tts_use_hosted, COALESCE(tts_hosted_voice, ''), COALESCE(stt_language, ''), updated_at FROM user_settings WHERE user_id = $1", userId).Scan(
		&us.UserId,
		&us.Name,
		&us.Theme.ActivePalette,
		&us.Theme.DarkMode,
		&us.Voice.VoiceUri,
		&us.Voice.Rate,
		&us.Voice.Pitch,
		&us.Voice.UseHosted,
		&us.Voice.HostedVoice,
		&us.Speech.Language,
		&us.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, internal_errors.NewNotFoundError("user settings are not found")
		}

		return nil, err
	}

	return &us, nil
}

func (s *Store) UpsertSettings(us *settings.UserSettings) (*settings.UserSettings, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	query := `
	INSERT INTO user_settings (user_id, name, theme_palette, theme_dark_mode, tts_voice_uri, tts_rate, tts_pitch, tts_use_hosted, tts_hosted_voice, stt_language, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (user_id) DO UPDATE SET
		name = EXCLUDED.name,
		theme_palette = EXCLUDED.theme_palette,
		theme_dark_mode = EXCLUDED.theme_dark_mode,
		tts_voice_uri = EXCLUDED.tts_voice_uri,
		tts_rate = EXCLUDED.tts_rate,
		tts_pitch = EXCLUDED.tts_pitch,
		tts_use_hosted = EXCLUDED.tts_use_hosted,
		tts_hosted_voice = EXCLUDED.tts_hosted_voice,
		stt_language = EXCLUDED.stt_language,
		updated_at = EXCLUDED.updated_at
	RETURNING user_id, COALESCE(name, ''), theme_palette, theme_dark_mode, COALESCE(tts_voice_uri, ''), tts_rate, tts_pitch, tts_use_hosted, COALESCE(tts_hosted_voice, ''), COALESCE(stt_language, ''), updated_at`

	var saved settings.UserSettings
	err := s.db.QueryRowContext(ctxTimeout, query,
		us.UserId,
		us.Name,
		us.Theme.ActivePalette,
		us.Theme.DarkMode,
		us.Voice.VoiceUri,
		us.Voice.Rate,
		us.Voice.Pitch,
		us.Voice.UseHosted,
		us.Voice.HostedVoice,
		us.Speech.Language,
		us.UpdatedAt,
	).Scan(
		&saved.UserId,
		&saved.Name,
		&saved.Theme.ActivePalette,
		&saved.Theme.DarkMode,
		&saved.Voice.VoiceUri,
		&saved.Voice.Rate,
		&saved.Voice.Pitch,
		&saved.Voice.UseHosted,
		&saved.Voice.HostedVoice,
		&saved.Speech.Language,
		&saved.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &saved, nil
}

func (s *Store) DeleteSettings(userId string) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, "DELETE FROM user_settings WHERE user_id = $1", userId)
	return err
}
