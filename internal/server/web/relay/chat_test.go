package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type upstreamStub struct {
	server *httptest.Server
	calls  int64
	body   []byte
	status int
	seen   atomic.Value
}

func newUpstreamStub(t *testing.T, status int, body string) *upstreamStub {
	t.Helper()

	s := &upstreamStub{
		status: status,
		body:   []byte(body),
	}

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.calls, 1)

		received, err := io.ReadAll(r.Body)
		require.Nil(t, err)
		s.seen.Store(received)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		w.Write(s.body)
	}))

	t.Cleanup(s.server.Close)

	return s
}

func (s *upstreamStub) callCount() int64 {
	return atomic.LoadInt64(&s.calls)
}

func (s *upstreamStub) received() []byte {
	v, _ := s.seen.Load().([]byte)
	return v
}

func newChatRouter(endpoint string, credential func() string) *gin.Engine {
	opts := Options{
		ChatEndpoint:    endpoint,
		ChatModel:       "gpt-3.5-turbo",
		ChatTemperature: 0.7,
		VisionModel:     "gpt-4o",
		VisionMaxTokens: 500,
		UpstreamTimeout: 5 * time.Second,
	}

	router := gin.New()
	router.Any("/api/chat", getChatHandler(credential, http.Client{}, opts, nil, zap.NewNop(), false))
	return router
}

func testCredential() string {
	return "sk-test"
}

func TestGetChatHandler_MethodNotAllowed(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method Not Allowed", gjson.Get(w.Body.String(), "error").String())
	assert.Equal(t, int64(0), upstream.callCount())
}

func TestGetChatHandler_MissingCredential(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{}`)
	router := newChatRouter(upstream.server.URL, func() string { return "" })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "OpenAI API key not set in environment variables.", gjson.Get(w.Body.String(), "error").String())
	assert.Equal(t, int64(0), upstream.callCount())
}

func TestGetChatHandler_InvalidJson(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON", gjson.Get(w.Body.String(), "error").String())
	assert.Equal(t, int64(0), upstream.callCount())
}

func TestGetChatHandler_MissingMessages(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	for _, body := range []string{`{}`, `{"messages":"hi"}`, `{"messages":{"role":"user"}}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing or invalid messages array.", gjson.Get(w.Body.String(), "error").String())
	}

	assert.Equal(t, int64(0), upstream.callCount())
}

func TestGetChatHandler_TextPassThrough(t *testing.T) {
	upstreamBody := `{"choices":[{"message":{"content":"hello"}}]}`
	upstream := newUpstreamStub(t, http.StatusOK, upstreamBody)
	router := newChatRouter(upstream.server.URL, testCredential)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, upstreamBody, w.Body.String())
	assert.Equal(t, int64(1), upstream.callCount())

	sent := upstream.received()
	assert.Equal(t, "gpt-3.5-turbo", gjson.GetBytes(sent, "model").String())
	assert.InDelta(t, 0.7, gjson.GetBytes(sent, "temperature").Float(), 0.001)

	messages := gjson.GetBytes(sent, "messages").Array()
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Get("role").String())
	assert.Equal(t, "hi", messages[0].Get("content").String())
}

func TestGetChatHandler_SystemPromptPrepended(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"first"},{"role":"assistant","content":"second"}],"systemPrompt":"You are Tesla."}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	messages := gjson.GetBytes(upstream.received(), "messages").Array()
	require.Len(t, messages, 3)
	assert.Equal(t, "system", messages[0].Get("role").String())
	assert.Equal(t, "You are Tesla.", messages[0].Get("content").String())
	assert.Equal(t, "first", messages[1].Get("content").String())
	assert.Equal(t, "second", messages[2].Get("content").String())

	systemCount := 0
	for _, m := range messages {
		if m.Get("role").String() == "system" {
			systemCount++
		}
	}
	assert.Equal(t, 1, systemCount)
}

func TestGetChatHandler_UpstreamErrorPassedThrough(t *testing.T) {
	upstreamBody := `{"error":{"message":"rate limited"}}`
	upstream := newUpstreamStub(t, http.StatusTooManyRequests, upstreamBody)
	router := newChatRouter(upstream.server.URL, testCredential)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, upstreamBody, w.Body.String())
	assert.Equal(t, int64(1), upstream.callCount())
}

func multipartBody(t *testing.T, content, systemPrompt, fileMime string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()

	var b bytes.Buffer
	writer := multipart.NewWriter(&b)

	if len(content) != 0 {
		require.Nil(t, writer.WriteField("content", content))
	}

	if len(systemPrompt) != 0 {
		require.Nil(t, writer.WriteField("systemPrompt", systemPrompt))
	}

	if fileData != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
		header.Set("Content-Type", fileMime)

		part, err := writer.CreatePart(header)
		require.Nil(t, err)

		_, err = part.Write(fileData)
		require.Nil(t, err)
	}

	require.Nil(t, writer.Close())

	return &b, writer.FormDataContentType()
}

func TestGetChatHandler_MultipartEnvelope(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{"choices":[{"message":{"content":"A cat."}}]}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	body, contentType := multipartBody(t, "describe this", "", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), upstream.callCount())

	res := w.Body.String()
	assert.Equal(t, "A cat.", gjson.Get(res, "aiResponse").String())
	assert.Equal(t, "describe this", gjson.Get(res, "userMessage.content").String())
	assert.Equal(t, "user", gjson.Get(res, "userMessage.sender").String())
	assert.NotEmpty(t, gjson.Get(res, "userMessage.id").String())
	assert.NotEmpty(t, gjson.Get(res, "userMessage.created_at").String())

	sent := upstream.received()
	assert.Equal(t, "gpt-4o", gjson.GetBytes(sent, "model").String())
	assert.Equal(t, int64(500), gjson.GetBytes(sent, "max_tokens").Int())

	parts := gjson.GetBytes(sent, "messages.0.content").Array()
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Get("type").String())
	assert.Equal(t, "describe this", parts[0].Get("text").String())
	assert.Equal(t, "image_url", parts[1].Get("type").String())
	assert.True(t, strings.HasPrefix(parts[1].Get("image_url.url").String(), "data:image/png;base64,"))
}

func TestGetChatHandler_MultipartMissingImage(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	body, contentType := multipartBody(t, "describe this", "", "", nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No valid image uploaded.", gjson.Get(w.Body.String(), "error").String())
	assert.Equal(t, int64(0), upstream.callCount())
}

func TestGetChatHandler_MultipartWrongMime(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	body, contentType := multipartBody(t, "", "", "application/pdf", []byte("%PDF-1.4"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No valid image uploaded.", gjson.Get(w.Body.String(), "error").String())
	assert.Equal(t, int64(0), upstream.callCount())
}

func TestGetChatHandler_SingleUpstreamCall(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, int64(1), upstream.callCount())
}

func TestGetChatHandler_AuthorizationHeaderSet(t *testing.T) {
	var seenAuth atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	router := newChatRouter(server.URL, testCredential)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bearer sk-test", seenAuth.Load())
}

func TestGetChatHandler_EmptyMessagesAllowed(t *testing.T) {
	upstream := newUpstreamStub(t, http.StatusOK, `{"choices":[]}`)
	router := newChatRouter(upstream.server.URL, testCredential)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), upstream.callCount())

	var sent map[string]any
	require.Nil(t, json.Unmarshal(upstream.received(), &sent))
}
