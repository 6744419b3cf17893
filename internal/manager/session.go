package manager

import (
	"fmt"
	"time"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
	"github.com/eralogue/eralogue/internal/persona"
	"github.com/eralogue/eralogue/internal/session"
	"github.com/eralogue/eralogue/internal/util"
)

type notFoundError interface {
	Error() string
	NotFound()
}

type SessionsStorage interface {
	CreateSession(sn *session.Session) (*session.Session, error)
	GetSession(id string) (*session.Session, error)
	GetLatestSession(userId, personaId string) (*session.Session, error)
	GetSessions(userId string) ([]*session.Session, error)
	UpdateSessionLastMessageAt(id string, lastMessageAt int64) error
	DeleteSession(id string) error
	CreateMessage(m *session.Message) (*session.Message, error)
	GetMessages(chatId string) ([]*session.Message, error)
}

type PersonaResolver interface {
	GetPersona(id string) (*persona.Persona, error)
}

type SessionCache interface {
	Set(key string, dur time.Duration) error
	Delete(key string) error
	Exists(key string) bool
}

type SessionManager struct {
	Storage  SessionsStorage
	Personas PersonaResolver
	Cache    SessionCache
	cacheTtl time.Duration
}

func NewSessionManager(s SessionsStorage, personas PersonaResolver, cache SessionCache, cacheTtl time.Duration) *SessionManager {
	return &SessionManager{
		Storage:  s,
		Personas: personas,
		Cache:    cache,
		cacheTtl: cacheTtl,
	}
}

// Bootstrap resolves the working session between a user and a persona:
// the most recent existing one, or a newly created one when none exists.
// Selecting the same persona twice never produces two sessions.
func (m *SessionManager) Bootstrap(userId, personaId string) (*session.Session, error) {
	if len(userId) == 0 {
		return nil, internal_errors.NewValidationError("userId can not be empty")
	}

	if _, err := m.Personas.GetPersona(personaId); err != nil {
		return nil, err
	}

	existing, err := m.Storage.GetLatestSession(userId, personaId)
	if err == nil {
		return existing, nil
	}

	if _, ok := err.(notFoundError); !ok {
		return nil, err
	}

	now := time.Now().Unix()
	sn := &session.Session{
		Id:            util.NewUuid(),
		UserId:        userId,
		PersonaId:     personaId,
		CreatedAt:     now,
		LastMessageAt: now,
	}

	if err := sn.Validate(); err != nil {
		return nil, err
	}

	return m.Storage.CreateSession(sn)
}

func (m *SessionManager) GetSessions(userId string) ([]*session.Session, error) {
	return m.Storage.GetSessions(userId)
}

func (m *SessionManager) GetSession(id string) (*session.Session, error) {
	return m.Storage.GetSession(id)
}

func (m *SessionManager) DeleteSession(id string) error {
	if m.Cache != nil {
		if err := m.Cache.Delete(sessionCacheKey(id)); err != nil {
			return err
		}
	}

	return m.Storage.DeleteSession(id)
}

func (m *SessionManager) GetMessages(chatId string) ([]*session.Message, error) {
	if _, err := m.Storage.GetSession(chatId); err != nil {
		return nil, err
	}

	return m.Storage.GetMessages(chatId)
}

// AppendMessage persists a message into a session. When the session has been
// deleted underneath the caller, a fresh session is bootstrapped and the
// message lands there instead of being dropped.
func (m *SessionManager) AppendMessage(userId, personaId string, msg *session.Message) (*session.Message, error) {
	if len(msg.Content) == 0 {
		return nil, internal_errors.NewValidationError("content can not be empty")
	}

	if msg.Sender != session.UserSender && msg.Sender != session.AiSender {
		return nil, internal_errors.NewValidationError("sender must be of user or ai")
	}

	chatId := msg.ChatId
	if !m.sessionExists(chatId) {
		sn, err := m.Bootstrap(userId, personaId)
		if err != nil {
			return nil, err
		}

		chatId = sn.Id
	}

	now := time.Now().Unix()
	full := &session.Message{
		Id:        util.NewUuid(),
		ChatId:    chatId,
		Content:   msg.Content,
		Sender:    msg.Sender,
		ImageUrl:  msg.ImageUrl,
		CreatedAt: now,
	}

	if err := full.Validate(); err != nil {
		return nil, err
	}

	created, err := m.Storage.CreateMessage(full)
	if err != nil {
		return nil, err
	}

	if err := m.Storage.UpdateSessionLastMessageAt(chatId, now); err != nil {
		return nil, err
	}

	if m.Cache != nil {
		if err := m.Cache.Set(sessionCacheKey(chatId), m.cacheTtl); err != nil {
			return nil, err
		}
	}

	return created, nil
}

func (m *SessionManager) sessionExists(chatId string) bool {
	if len(chatId) == 0 {
		return false
	}

	if m.Cache != nil && m.Cache.Exists(sessionCacheKey(chatId)) {
		return true
	}

	_, err := m.Storage.GetSession(chatId)
	return err == nil
}

func sessionCacheKey(chatId string) string {
	return fmt.Sprintf("chat-session:%s", chatId)
}
