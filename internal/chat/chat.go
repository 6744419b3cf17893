package chat

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

const (
	UserSender = "user"
	AiSender   = "ai"
)

// Request is the text form of an inbound chat relay call. Messages are
// forwarded to the provider unchanged and in order; SystemPrompt, when
// present, becomes a single synthesized system message at the head of the
// outbound sequence.
type Request struct {
	Messages     []goopenai.ChatCompletionMessage `json:"messages"`
	SystemPrompt string                           `json:"systemPrompt"`
}

// ParseTextRequest validates and decodes a JSON chat request body. The error
// messages double as wire-level error strings, so they must stay stable.
func ParseTextRequest(body []byte) (*Request, error) {
	if !gjson.ValidBytes(body) {
		return nil, internal_errors.NewValidationError("Invalid JSON")
	}

	messages := gjson.GetBytes(body, "messages")
	if !messages.Exists() || !messages.IsArray() {
		return nil, internal_errors.NewValidationError("Missing or invalid messages array.")
	}

	r := &Request{}
	if err := json.Unmarshal(body, r); err != nil {
		return nil, internal_errors.NewValidationError("Invalid JSON")
	}

	return r, nil
}

func (r *Request) ToChatCompletionRequest(model string, temperature float32) *goopenai.ChatCompletionRequest {
	messages := r.Messages
	if len(r.SystemPrompt) != 0 {
		messages = append([]goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: r.SystemPrompt,
			},
		}, r.Messages...)
	}

	return &goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}
}

// ImageAttachment holds the accumulated bytes of a multipart image upload
// along with its declared MIME type.
type ImageAttachment struct {
	Mime string
	Data []byte
}

func (a *ImageAttachment) Valid() bool {
	return a != nil && strings.HasPrefix(a.Mime, "image/") && len(a.Data) != 0
}

func (a *ImageAttachment) DataUri() string {
	return fmt.Sprintf("data:%s;base64,%s", a.Mime, base64.StdEncoding.EncodeToString(a.Data))
}

// NewVisionRequest builds the provider payload for the multipart path: an
// optional system message, then one user message whose content is an optional
// text part followed by the image as an inline data URI part.
func NewVisionRequest(content, systemPrompt string, attachment *ImageAttachment, model string, maxTokens int) *goopenai.ChatCompletionRequest {
	parts := []goopenai.ChatMessagePart{}
	if len(content) != 0 {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeText,
			Text: content,
		})
	}

	parts = append(parts, goopenai.ChatMessagePart{
		Type: goopenai.ChatMessagePartTypeImageURL,
		ImageURL: &goopenai.ChatMessageImageURL{
			URL: attachment.DataUri(),
		},
	})

	messages := []goopenai.ChatCompletionMessage{}
	if len(systemPrompt) != 0 {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:         goopenai.ChatMessageRoleUser,
		MultiContent: parts,
	})

	return &goopenai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
}

// UserMessage echoes the caller's multipart input back alongside the
// generated reply so the UI can render both from one response.
type UserMessage struct {
	Id        string `json:"id"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	CreatedAt string `json:"created_at"`
	ImageUrl  string `json:"image_url,omitempty"`
}

type RelayResult struct {
	UserMessage *UserMessage `json:"userMessage"`
	AiResponse  string       `json:"aiResponse"`
}

func NewRelayResult(id, content, imageUrl string, upstream []byte, now time.Time) *RelayResult {
	return &RelayResult{
		UserMessage: &UserMessage{
			Id:        id,
			Content:   content,
			Sender:    UserSender,
			CreatedAt: now.UTC().Format(time.RFC3339),
			ImageUrl:  imageUrl,
		},
		AiResponse: gjson.GetBytes(upstream, "choices.0.message.content").String(),
	}
}
