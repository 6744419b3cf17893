package openai

import (
	"github.com/pkoukk/tiktoken-go"
	goopenai "github.com/sashabaranov/go-openai"
)

type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

type TokenCounter struct {
	encoderMap map[string]encoder
}

func NewTokenCounter() (*TokenCounter, error) {
	e, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}

	return &TokenCounter{
		encoderMap: map[string]encoder{
			"gpt-4":              e,
			"gpt-4-0613":         e,
			"gpt-4-32k":          e,
			"gpt-4o":             e,
			"gpt-4o-mini":        e,
			"gpt-4-turbo":        e,
			"gpt-3.5-turbo":      e,
			"gpt-3.5-turbo-0125": e,
			"gpt-3.5-turbo-16k":  e,
		},
	}, nil
}

func (tc *TokenCounter) Count(model string, input string) (int, error) {
	e, ok := tc.encoderMap[model]
	if !ok {
		resolved, err := tiktoken.EncodingForModel(model)
		if err != nil {
			return 0, err
		}

		tc.encoderMap[model] = resolved
		e = resolved
	}

	tokens := e.Encode(input, nil, nil)
	return len(tokens), nil
}

// CountMessages estimates the prompt token count of a chat completion
// request. Image parts contribute a flat charge since their cost does not
// depend on text tokenization.
func (tc *TokenCounter) CountMessages(r *goopenai.ChatCompletionRequest) (int, error) {
	result := 0

	for _, msg := range r.Messages {
		tks := 3

		if len(msg.Content) != 0 {
			counted, err := tc.Count(r.Model, msg.Content)
			if err != nil {
				return 0, err
			}

			tks += counted
		}

		for _, part := range msg.MultiContent {
			if part.Type == goopenai.ChatMessagePartTypeText {
				counted, err := tc.Count(r.Model, part.Text)
				if err != nil {
					return 0, err
				}

				tks += counted
			}

			if part.Type == goopenai.ChatMessagePartTypeImageURL {
				tks += 85
			}
		}

		result += tks
	}

	// every reply is primed with assistant tokens
	result += 3

	return result, nil
}
