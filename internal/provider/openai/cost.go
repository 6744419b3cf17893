package openai

import (
	"errors"

	goopenai "github.com/sashabaranov/go-openai"
)

var OpenAiPerThousandTokenCost = map[string]map[string]float64{
	"prompt": {
		"gpt-4":              0.03,
		"gpt-4-0613":         0.03,
		"gpt-4-32k":          0.06,
		"gpt-4-turbo":        0.01,
		"gpt-4o":             0.005,
		"gpt-4o-mini":        0.00015,
		"gpt-3.5-turbo":      0.0015,
		"gpt-3.5-turbo-0125": 0.0005,
		"gpt-3.5-turbo-16k":  0.003,
	},
	"completion": {
		"gpt-4":              0.06,
		"gpt-4-0613":         0.06,
		"gpt-4-32k":          0.12,
		"gpt-4-turbo":        0.03,
		"gpt-4o":             0.015,
		"gpt-4o-mini":        0.0006,
		"gpt-3.5-turbo":      0.002,
		"gpt-3.5-turbo-0125": 0.0015,
		"gpt-3.5-turbo-16k":  0.004,
	},
	"speech": {
		"tts-1":    0.015,
		"tts-1-hd": 0.03,
	},
}

type tokenCounter interface {
	CountMessages(r *goopenai.ChatCompletionRequest) (int, error)
}

type CostEstimator struct {
	tokenCostMap map[string]map[string]float64
	tc           tokenCounter
}

func NewCostEstimator(m map[string]map[string]float64, tc tokenCounter) *CostEstimator {
	return &CostEstimator{
		tokenCostMap: m,
		tc:           tc,
	}
}

// EstimatePromptCost returns the estimated prompt token count and its dollar
// cost. Estimates are logged, never billed.
func (ce *CostEstimator) EstimatePromptCost(r *goopenai.ChatCompletionRequest) (int, float64, error) {
	if len(r.Model) == 0 {
		return 0, 0, errors.New("model is not provided")
	}

	costMap, ok := ce.tokenCostMap["prompt"]
	if !ok {
		return 0, 0, errors.New("prompt token cost is not provided")
	}

	cost, ok := costMap[r.Model]
	if !ok {
		return 0, 0, errors.New("model is not present in the cost map provided")
	}

	tks, err := ce.tc.CountMessages(r)
	if err != nil {
		return 0, 0, err
	}

	return tks, float64(tks) / 1000 * cost, nil
}

// EstimateSpeechCost prices hosted synthesis per input character.
func (ce *CostEstimator) EstimateSpeechCost(model string, input string) (float64, error) {
	costMap, ok := ce.tokenCostMap["speech"]
	if !ok {
		return 0, errors.New("speech cost is not provided")
	}

	cost, ok := costMap[model]
	if !ok {
		return 0, errors.New("model is not present in the cost map provided")
	}

	return float64(len(input)) / 1000 * cost, nil
}
