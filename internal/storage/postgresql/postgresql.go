package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

type Store struct {
	db  *sql.DB
	log *zap.Logger
	wt  time.Duration
	rt  time.Duration
}

func NewStore(connStr string, log *zap.Logger, wt time.Duration, rt time.Duration) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// the database may still be coming up at boot; retry the initial ping
	// only, never individual queries
	err = backoff.Retry(func() error {
		return db.Ping()
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))

	if err != nil {
		return nil, err
	}

	return &Store{
		db:  db,
		log: log,
		wt:  wt,
		rt:  rt,
	}, nil
}

func (s *Store) CreatePersonasTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS personas (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		title VARCHAR(255),
		era VARCHAR(255),
		description TEXT,
		image_url VARCHAR(255),
		category VARCHAR(255),
		prompt TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateSessionsTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS chat_sessions (
		id VARCHAR(255) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		persona_id VARCHAR(255) NOT NULL,
		created_at BIGINT NOT NULL,
		last_message_at BIGINT NOT NULL
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateMessagesTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS messages (
		id VARCHAR(255) PRIMARY KEY,
		chat_id VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		sender VARCHAR(255) NOT NULL,
		image_url TEXT,
		created_at BIGINT NOT NULL
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateSettingsTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS user_settings (
		user_id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255),
		theme_palette INT NOT NULL,
		theme_dark_mode BOOLEAN NOT NULL,
		tts_voice_uri VARCHAR(255),
		tts_rate FLOAT8 NOT NULL,
		tts_pitch FLOAT8 NOT NULL,
		tts_use_hosted BOOLEAN NOT NULL,
		tts_hosted_voice VARCHAR(255),
		stt_language VARCHAR(255),
		updated_at BIGINT NOT NULL
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}
