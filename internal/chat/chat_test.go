package chat

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goopenai "github.com/sashabaranov/go-openai"
)

func TestParseTextRequest(t *testing.T) {
	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := ParseTextRequest([]byte(`{oops`))
		require.NotNil(t, err)
		assert.Equal(t, "Invalid JSON", err.Error())
	})

	t.Run("rejects missing messages", func(t *testing.T) {
		_, err := ParseTextRequest([]byte(`{"systemPrompt":"hi"}`))
		require.NotNil(t, err)
		assert.Equal(t, "Missing or invalid messages array.", err.Error())
	})

	t.Run("rejects non array messages", func(t *testing.T) {
		_, err := ParseTextRequest([]byte(`{"messages":{"role":"user"}}`))
		require.NotNil(t, err)
		assert.Equal(t, "Missing or invalid messages array.", err.Error())
	})

	t.Run("accepts empty messages", func(t *testing.T) {
		r, err := ParseTextRequest([]byte(`{"messages":[]}`))
		require.Nil(t, err)
		assert.Empty(t, r.Messages)
	})

	t.Run("decodes messages and system prompt", func(t *testing.T) {
		r, err := ParseTextRequest([]byte(`{"messages":[{"role":"user","content":"hi"}],"systemPrompt":"You are Cleopatra."}`))
		require.Nil(t, err)
		require.Len(t, r.Messages, 1)
		assert.Equal(t, "user", r.Messages[0].Role)
		assert.Equal(t, "hi", r.Messages[0].Content)
		assert.Equal(t, "You are Cleopatra.", r.SystemPrompt)
	})
}

func TestToChatCompletionRequest(t *testing.T) {
	t.Run("without system prompt messages are untouched", func(t *testing.T) {
		r := &Request{
			Messages: []goopenai.ChatCompletionMessage{
				{Role: "user", Content: "first"},
				{Role: "assistant", Content: "second"},
			},
		}

		payload := r.ToChatCompletionRequest("gpt-3.5-turbo", 0.7)
		assert.Equal(t, "gpt-3.5-turbo", payload.Model)
		assert.Equal(t, float32(0.7), payload.Temperature)
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, "first", payload.Messages[0].Content)
		assert.Equal(t, "second", payload.Messages[1].Content)
	})

	t.Run("system prompt becomes single head message", func(t *testing.T) {
		r := &Request{
			Messages: []goopenai.ChatCompletionMessage{
				{Role: "user", Content: "hi"},
			},
			SystemPrompt: "You are Tesla.",
		}

		payload := r.ToChatCompletionRequest("gpt-3.5-turbo", 0.7)
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, goopenai.ChatMessageRoleSystem, payload.Messages[0].Role)
		assert.Equal(t, "You are Tesla.", payload.Messages[0].Content)
		assert.Equal(t, "hi", payload.Messages[1].Content)
	})

	t.Run("does not mutate the original message slice", func(t *testing.T) {
		messages := []goopenai.ChatCompletionMessage{
			{Role: "user", Content: "hi"},
		}

		r := &Request{Messages: messages, SystemPrompt: "prompt"}
		r.ToChatCompletionRequest("gpt-3.5-turbo", 0.7)

		require.Len(t, messages, 1)
		assert.Equal(t, "user", messages[0].Role)
	})
}

func TestImageAttachmentValid(t *testing.T) {
	tests := []struct {
		name       string
		attachment *ImageAttachment
		want       bool
	}{
		{
			name: "png",
			attachment: &ImageAttachment{
				Mime: "image/png",
				Data: []byte{0x89},
			},
			want: true,
		},
		{
			name: "jpeg",
			attachment: &ImageAttachment{
				Mime: "image/jpeg",
				Data: []byte{0xff},
			},
			want: true,
		},
		{
			name: "pdf",
			attachment: &ImageAttachment{
				Mime: "application/pdf",
				Data: []byte("%PDF"),
			},
			want: false,
		},
		{
			name: "empty data",
			attachment: &ImageAttachment{
				Mime: "image/png",
			},
			want: false,
		},
		{
			name:       "nil",
			attachment: nil,
			want:       false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.attachment.Valid())
		})
	}
}

func TestImageAttachmentDataUri(t *testing.T) {
	a := &ImageAttachment{
		Mime: "image/png",
		Data: []byte("pngdata"),
	}

	uri := a.DataUri()
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Contains(t, uri, "cG5nZGF0YQ==")
}

func TestNewVisionRequest(t *testing.T) {
	attachment := &ImageAttachment{
		Mime: "image/png",
		Data: []byte{0x89, 0x50},
	}

	t.Run("text part precedes image part", func(t *testing.T) {
		payload := NewVisionRequest("what is this", "", attachment, "gpt-4o", 500)

		assert.Equal(t, "gpt-4o", payload.Model)
		assert.Equal(t, 500, payload.MaxTokens)
		require.Len(t, payload.Messages, 1)

		parts := payload.Messages[0].MultiContent
		require.Len(t, parts, 2)
		assert.Equal(t, goopenai.ChatMessagePartTypeText, parts[0].Type)
		assert.Equal(t, "what is this", parts[0].Text)
		assert.Equal(t, goopenai.ChatMessagePartTypeImageURL, parts[1].Type)
		assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,"))
	})

	t.Run("empty content omits the text part", func(t *testing.T) {
		payload := NewVisionRequest("", "", attachment, "gpt-4o", 500)

		parts := payload.Messages[0].MultiContent
		require.Len(t, parts, 1)
		assert.Equal(t, goopenai.ChatMessagePartTypeImageURL, parts[0].Type)
	})

	t.Run("system prompt prepended", func(t *testing.T) {
		payload := NewVisionRequest("hi", "You are Austen.", attachment, "gpt-4o", 500)

		require.Len(t, payload.Messages, 2)
		assert.Equal(t, goopenai.ChatMessageRoleSystem, payload.Messages[0].Role)
		assert.Equal(t, "You are Austen.", payload.Messages[0].Content)
		assert.Equal(t, goopenai.ChatMessageRoleUser, payload.Messages[1].Role)
	})
}

func TestNewRelayResult(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	upstream := []byte(`{"choices":[{"message":{"content":"A cat."}}]}`)

	res := NewRelayResult("id-1", "describe this", "", upstream, now)

	assert.Equal(t, "A cat.", res.AiResponse)
	assert.Equal(t, "id-1", res.UserMessage.Id)
	assert.Equal(t, "describe this", res.UserMessage.Content)
	assert.Equal(t, UserSender, res.UserMessage.Sender)
	assert.Equal(t, "2025-03-14T09:26:53Z", res.UserMessage.CreatedAt)

	data, err := json.Marshal(res)
	require.Nil(t, err)
	assert.Contains(t, string(data), `"userMessage"`)
	assert.Contains(t, string(data), `"aiResponse"`)
	assert.NotContains(t, string(data), `"image_url"`)
}

func TestNewRelayResult_MissingChoice(t *testing.T) {
	res := NewRelayResult("id-2", "hi", "", []byte(`{"choices":[]}`), time.Now())
	assert.Empty(t, res.AiResponse)
}
