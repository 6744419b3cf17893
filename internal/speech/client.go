package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
	Model string `json:"model,omitempty"`
}

// HttpClipFetcher renders speech through the relay's hosted synthesis
// endpoint.
type HttpClipFetcher struct {
	client   http.Client
	endpoint string
}

func NewHttpClipFetcher(client http.Client, endpoint string) *HttpClipFetcher {
	return &HttpClipFetcher{
		client:   client,
		endpoint: endpoint,
	}
}

func (f *HttpClipFetcher) Fetch(ctx context.Context, text, voice, model string) ([]byte, error) {
	data, err := json.Marshal(&speechRequest{
		Text:  text,
		Voice: voice,
		Model: model,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer res.Body.Close()

	bs, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech synthesis failed with status %d: %s", res.StatusCode, string(bs))
	}

	return bs, nil
}
