package relay

import (
	"fmt"
	"io"
	"net/http"

	"github.com/eralogue/eralogue/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SpeechRequest is the inbound hosted-synthesis request. Voice and model are
// optional and fall back to configured defaults.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Model string `json:"model"`
}

type upstreamSpeechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// getSpeechHandler relays one synthesis request to the provider and streams
// the rendered audio bytes back unchanged.
func getSpeechHandler(credential func() string, client http.Client, opts Options, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tags := []string{
			fmt.Sprintf("path:%s", c.FullPath()),
		}

		telemetry.Incr("eralogue.relay.get_speech_handler.requests", tags, 1)

		if c == nil || c.Request == nil {
			errorJSON(c, http.StatusInternalServerError, "context is empty")
			return
		}

		cid := c.GetString(correlationId)

		if c.Request.Method != http.MethodPost {
			telemetry.Incr("eralogue.relay.get_speech_handler.method_not_allowed", tags, 1)
			errorJSON(c, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}

		key := credential()
		if len(key) == 0 {
			telemetry.Incr("eralogue.relay.get_speech_handler.credential_not_set", tags, 1)
			logError(log, "provider credential is not set", prod, cid, nil)
			errorJSON(c, http.StatusInternalServerError, missingCredentialMessage)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logError(log, "error when reading speech request body", prod, cid, err)
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}

		if !gjson.ValidBytes(body) {
			telemetry.Incr("eralogue.relay.get_speech_handler.request_validation_error", tags, 1)
			errorJSON(c, http.StatusBadRequest, "Invalid JSON")
			return
		}

		sr := &SpeechRequest{
			Text:  gjson.GetBytes(body, "text").String(),
			Voice: gjson.GetBytes(body, "voice").String(),
			Model: gjson.GetBytes(body, "model").String(),
		}

		if len(sr.Text) == 0 {
			telemetry.Incr("eralogue.relay.get_speech_handler.request_validation_error", tags, 1)
			errorJSON(c, http.StatusBadRequest, "Missing text.")
			return
		}

		if len(sr.Voice) == 0 {
			sr.Voice = opts.SpeechVoice
		}

		if len(sr.Model) == 0 {
			sr.Model = opts.SpeechModel
		}

		logCreateSpeechRequest(log, sr, prod, cid)

		status, resContentType, resBody, err := callUpstream(c, key, client, opts.SpeechEndpoint, opts.UpstreamTimeout, &upstreamSpeechRequest{
			Model:          sr.Model,
			Input:          sr.Text,
			Voice:          sr.Voice,
			ResponseFormat: opts.SpeechResponseFormat,
		})
		if err != nil {
			telemetry.Incr("eralogue.relay.get_speech_handler.http_client_error", tags, 1)
			logError(log, "error when sending speech request to provider", prod, cid, err)
			errorJSON(c, http.StatusInternalServerError, err.Error())
			return
		}

		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			telemetry.Incr("eralogue.relay.get_speech_handler.error_response", tags, 1)
			logUpstreamError(log, prod, cid, status, resBody)
			c.Data(status, resContentType, resBody)
			return
		}

		telemetry.Incr("eralogue.relay.get_speech_handler.success", tags, 1)

		c.Data(status, resContentType, resBody)
	}
}

func logCreateSpeechRequest(log *zap.Logger, sr *SpeechRequest, prod bool, cid string) {
	if prod {
		fields := []zapcore.Field{
			zap.String(correlationId, cid),
			zap.String("model", sr.Model),
			zap.String("voice", sr.Voice),
			zap.Int("characters", len(sr.Text)),
		}

		log.Info("speech request", fields...)
		return
	}

	log.Sugar().Infof("correlationId:%s | speech request with model %s voice %s", cid, sr.Model, sr.Voice)
}
