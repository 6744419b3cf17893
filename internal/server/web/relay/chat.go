package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eralogue/eralogue/internal/chat"
	"github.com/eralogue/eralogue/internal/telemetry"
	"github.com/eralogue/eralogue/internal/util"
	"github.com/gin-gonic/gin"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type validationError interface {
	Error() string
	Validation()
}

const missingCredentialMessage = "OpenAI API key not set in environment variables."

// getChatHandler relays one inbound chat request to the provider. The
// request shape is decided once, by the Content-Type header, and the handler
// performs at most one upstream call with no retries.
func getChatHandler(credential func() string, client http.Client, opts Options, e estimator, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tags := []string{
			fmt.Sprintf("path:%s", c.FullPath()),
		}

		telemetry.Incr("eralogue.relay.get_chat_handler.requests", tags, 1)

		if c == nil || c.Request == nil {
			errorJSON(c, http.StatusInternalServerError, "context is empty")
			return
		}

		cid := c.GetString(correlationId)

		if c.Request.Method != http.MethodPost {
			telemetry.Incr("eralogue.relay.get_chat_handler.method_not_allowed", tags, 1)
			errorJSON(c, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}

		key := credential()
		if len(key) == 0 {
			telemetry.Incr("eralogue.relay.get_chat_handler.credential_not_set", tags, 1)
			logError(log, "provider credential is not set", prod, cid, nil)
			errorJSON(c, http.StatusInternalServerError, missingCredentialMessage)
			return
		}

		contentType := c.Request.Header.Get("Content-Type")
		if strings.Contains(contentType, "multipart/form-data") {
			handleMultipartChat(c, key, client, opts, e, log, prod, cid, tags)
			return
		}

		handleTextChat(c, key, client, opts, e, log, prod, cid, tags)
	}
}

func handleTextChat(c *gin.Context, key string, client http.Client, opts Options, e estimator, log *zap.Logger, prod bool, cid string, tags []string) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logError(log, "error when reading chat request body", prod, cid, err)
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	r, err := chat.ParseTextRequest(body)
	if err != nil {
		if _, ok := err.(validationError); ok {
			telemetry.Incr("eralogue.relay.get_chat_handler.request_validation_error", tags, 1)
			errorJSON(c, http.StatusBadRequest, err.Error())
			return
		}

		logError(log, "error when parsing chat request body", prod, cid, err)
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	payload := r.ToChatCompletionRequest(opts.ChatModel, opts.ChatTemperature)
	logEstimatedPromptCost(e, payload, log, prod, cid)

	status, resContentType, resBody, err := callUpstream(c, key, client, opts.ChatEndpoint, opts.UpstreamTimeout, payload)
	if err != nil {
		telemetry.Incr("eralogue.relay.get_chat_handler.http_client_error", tags, 1)
		logError(log, "error when sending chat request to provider", prod, cid, err)
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		telemetry.Incr("eralogue.relay.get_chat_handler.error_response", tags, 1)
		logUpstreamError(log, prod, cid, status, resBody)
		c.Data(status, resContentType, resBody)
		return
	}

	telemetry.Incr("eralogue.relay.get_chat_handler.success", tags, 1)

	// the caller expects the provider's native response shape here, so the
	// body passes through untouched
	c.Data(status, resContentType, resBody)
}

func handleMultipartChat(c *gin.Context, key string, client http.Client, opts Options, e estimator, log *zap.Logger, prod bool, cid string, tags []string) {
	attachment, err := readImageAttachment(c)
	if err != nil || !attachment.Valid() {
		telemetry.Incr("eralogue.relay.get_chat_handler.invalid_image", tags, 1)
		errorJSON(c, http.StatusBadRequest, "No valid image uploaded.")
		return
	}

	content := c.PostForm("content")
	systemPrompt := c.PostForm("systemPrompt")

	payload := chat.NewVisionRequest(content, systemPrompt, attachment, opts.VisionModel, opts.VisionMaxTokens)
	logEstimatedPromptCost(e, payload, log, prod, cid)

	status, resContentType, resBody, err := callUpstream(c, key, client, opts.ChatEndpoint, opts.UpstreamTimeout, payload)
	if err != nil {
		telemetry.Incr("eralogue.relay.get_chat_handler.http_client_error", tags, 1)
		logError(log, "error when sending vision request to provider", prod, cid, err)
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		telemetry.Incr("eralogue.relay.get_chat_handler.error_response", tags, 1)
		logUpstreamError(log, prod, cid, status, resBody)
		c.Data(status, resContentType, resBody)
		return
	}

	telemetry.Incr("eralogue.relay.get_chat_handler.success", tags, 1)

	c.JSON(http.StatusOK, chat.NewRelayResult(util.NewUuid(), content, "", resBody, time.Now()))
}

func readImageAttachment(c *gin.Context) (*chat.ImageAttachment, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &chat.ImageAttachment{
		Mime: fh.Header.Get("Content-Type"),
		Data: data,
	}, nil
}

// callUpstream performs the single outbound provider call. The returned
// status and body are the provider's own, relayed without translation.
func callUpstream(c *gin.Context, key string, client http.Client, endpoint string, timeOut time.Duration, payload any) (int, string, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, "", nil, err
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeOut)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, "", nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", key))

	start := time.Now()

	res, err := client.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer res.Body.Close()

	dur := time.Since(start)
	telemetry.Timing("eralogue.relay.call_upstream.latency", dur, nil, 1)

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, "", nil, err
	}

	contentType := res.Header.Get("Content-Type")
	if len(contentType) == 0 {
		contentType = "application/json"
	}

	return res.StatusCode, contentType, body, nil
}

func logEstimatedPromptCost(e estimator, payload *goopenai.ChatCompletionRequest, log *zap.Logger, prod bool, cid string) {
	if e == nil {
		return
	}

	tks, cost, err := e.EstimatePromptCost(payload)
	if err != nil {
		logError(log, "error when estimating prompt cost", prod, cid, err)
		return
	}

	if prod {
		log.Info("estimated prompt cost",
			zap.String(correlationId, cid),
			zap.String("model", payload.Model),
			zap.Int("promptTokens", tks),
			zap.Float64("cost", cost),
		)
		return
	}

	log.Sugar().Infof("correlationId:%s | model %s estimated prompt tokens %d cost %f", cid, payload.Model, tks, cost)
}

func logUpstreamError(log *zap.Logger, prod bool, cid string, status int, body []byte) {
	if prod {
		log.Info("provider error response", zap.String(correlationId, cid), zap.Int("status", status))
		return
	}

	log.Sugar().Infof("correlationId:%s | provider error response with status %d: %s", cid, status, string(body))
}
