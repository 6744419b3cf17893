package session

import (
	"fmt"
	"strings"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
)

const (
	UserSender = "user"
	AiSender   = "ai"
)

// Session is one conversation thread between a user and a persona.
type Session struct {
	Id            string `json:"id"`
	UserId        string `json:"userId"`
	PersonaId     string `json:"personaId"`
	CreatedAt     int64  `json:"createdAt"`
	LastMessageAt int64  `json:"lastMessageAt"`
}

func (s *Session) Validate() error {
	invalid := []string{}

	if len(s.Id) == 0 {
		invalid = append(invalid, "id")
	}

	if len(s.UserId) == 0 {
		invalid = append(invalid, "userId")
	}

	if len(s.PersonaId) == 0 {
		invalid = append(invalid, "personaId")
	}

	if s.CreatedAt <= 0 {
		invalid = append(invalid, "createdAt")
	}

	if len(invalid) > 0 {
		return internal_errors.NewValidationError(fmt.Sprintf("fields [%s] are invalid", strings.Join(invalid, ", ")))
	}

	return nil
}

type Message struct {
	Id        string `json:"id"`
	ChatId    string `json:"chatId"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	ImageUrl  string `json:"imageUrl,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

func (m *Message) Validate() error {
	invalid := []string{}

	if len(m.Id) == 0 {
		invalid = append(invalid, "id")
	}

	if len(m.ChatId) == 0 {
		invalid = append(invalid, "chatId")
	}

	if len(m.Content) == 0 {
		invalid = append(invalid, "content")
	}

	if m.CreatedAt <= 0 {
		invalid = append(invalid, "createdAt")
	}

	if len(invalid) > 0 {
		return internal_errors.NewValidationError(fmt.Sprintf("fields [%s] are invalid", strings.Join(invalid, ", ")))
	}

	if m.Sender != UserSender && m.Sender != AiSender {
		return internal_errors.NewValidationError("sender must be of user or ai")
	}

	return nil
}
