package postgresql

import (
	"context"
	"database/sql"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
	"github.com/eralogue/eralogue/internal/session"
)

func (s *Store) CreateSession(sn *session.Session) (*session.Session, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	query := `
	INSERT INTO chat_sessions (id, user_id, persona_id, created_at, last_message_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, user_id, persona_id, created_at, last_message_at`

	var created session.Session
	err := s.db.QueryRowContext(ctxTimeout, query,
		sn.Id,
		sn.UserId,
		sn.PersonaId,
		sn.CreatedAt,
		sn.LastMessageAt,
	).Scan(
		&created.Id,
		&created.UserId,
		&created.PersonaId,
		&created.CreatedAt,
		&created.LastMessageAt,
	)

	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *Store) GetSession(id string) (*session.Session, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	var sn session.Session
	err := s.db.QueryRowContext(ctxTimeout, "SELECT id, user_id, persona_id, created_at, last_message_at FROM chat_sessions WHERE id = $1", id).Scan(
		&sn.Id,
		&sn.UserId,
		&sn.PersonaId,
		&sn.CreatedAt,
		&sn.LastMessageAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, internal_errors.NewNotFoundError("chat session is not found")
		}

		return nil, err
	}

	return &sn, nil
}

// GetLatestSession returns the most recently active session between a user
// and a persona.
func (s *Store) GetLatestSession(userId, personaId string) (*session.Session, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	var sn session.Session
	err := s.db.QueryRowContext(ctxTimeout, "SELECT id, user_id, persona_id, created_at, last_message_at FROM chat_sessions WHERE user_id = $1 AND persona_id = $2 ORDER BY last_message_at DESC LIMIT 1", userId, personaId).Scan(
		&sn.Id,
		&sn.UserId,
		&sn.PersonaId,
		&sn.CreatedAt,
		&sn.LastMessageAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, internal_errors.NewNotFoundError("chat session is not found")
		}

		return nil, err
	}

	return &sn, nil
}

func (s *Store) GetSessions(userId string) ([]*session.Session, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout, "SELECT id, user_id, persona_id, created_at, last_message_at FROM chat_sessions WHERE user_id = $1 ORDER BY last_message_at DESC", userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*session.Session{}
	for rows.Next() {
		var sn session.Session
		if err := rows.Scan(
			&sn.Id,
			&sn.UserId,
			&sn.PersonaId,
			&sn.CreatedAt,
			&sn.LastMessageAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, &sn)
	}

	return sessions, nil
}

func (s *Store) UpdateSessionLastMessageAt(id string, lastMessageAt int64) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, "UPDATE chat_sessions SET last_message_at = $2 WHERE id = $1", id, lastMessageAt)
	return err
}

func (s *Store) DeleteSession(id string) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	if _, err := s.db.ExecContext(ctxTimeout, "DELETE FROM messages WHERE chat_id = $1", id); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctxTimeout, "DELETE FROM chat_sessions WHERE id = $1", id)
	return err
}

func (s *Store) CreateMessage(m *session.Message) (*session.Message, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	query := `
	INSERT INTO messages (id, chat_id, content, sender, image_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, chat_id, content, sender, COALESCE(image_url, ''), created_at`

	var created session.Message
	err := s.db.QueryRowContext(ctxTimeout, query,
		m.Id,
		m.ChatId,
		m.Content,
		m.Sender,
		m.ImageUrl,
		m.CreatedAt,
	).Scan(
		&created.Id,
		&created.ChatId,
		&created.Content,
		&created.Sender,
		&created.ImageUrl,
		&created.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *Store) GetMessages(chatId string) ([]*session.Message, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout, "SELECT id, chat_id, content, sender, COALESCE(image_url, ''), created_at FROM messages WHERE chat_id = $1 ORDER BY created_at ASC", chatId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*session.Message{}
	for rows.Next() {
		var m session.Message
		if err := rows.Scan(
			&m.Id,
			&m.ChatId,
			&m.Content,
			&m.Sender,
			&m.ImageUrl,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}

	return messages, nil
}
