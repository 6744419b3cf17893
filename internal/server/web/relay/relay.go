package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	correlationId string = "correlationId"
)

// estimator prices a prompt before it leaves the relay. Estimates feed logs
// only and never alter the outbound payload.
type estimator interface {
	EstimatePromptCost(r *goopenai.ChatCompletionRequest) (int, float64, error)
}

type RelayServer struct {
	server *http.Server
	log    *zap.Logger
}

type Options struct {
	Port                 string
	ChatEndpoint         string
	SpeechEndpoint       string
	ChatModel            string
	ChatTemperature      float32
	VisionModel          string
	VisionMaxTokens      int
	SpeechModel          string
	SpeechVoice          string
	SpeechResponseFormat string
	UpstreamTimeout      time.Duration
	EnableOtel           bool
}

// NewRelayServer wires the chat and speech relay routes. The credential
// function is invoked on every request so a rotated key takes effect without
// a restart.
func NewRelayServer(log *zap.Logger, mode string, opts Options, credential func() string, e estimator) (*RelayServer, error) {
	router := gin.New()
	prod := mode == "production"

	router.Use(getRelayMiddleware(log, prod))

	if opts.EnableOtel {
		attachOtelMiddleware(router)
	}

	client := http.Client{}
	if opts.EnableOtel {
		client.Transport = newOtelTransport()
	}

	router.GET("/api/health", getGetHealthCheckHandler())
	router.Any("/api/chat", getChatHandler(credential, client, opts, e, log, prod))
	router.Any("/api/tts", getSpeechHandler(credential, client, opts, log, prod))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", opts.Port),
		Handler: router,
	}

	return &RelayServer{
		log:    log,
		server: srv,
	}, nil
}

func getGetHealthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Status(http.StatusOK)
	}
}

func (rs *RelayServer) Run() {
	go func() {
		rs.log.Info("relay server listening", zap.String("addr", rs.server.Addr))
		rs.log.Info("POST   /api/chat is set up for relaying chat requests to the provider")
		rs.log.Info("POST   /api/tts is set up for relaying speech synthesis requests to the provider")
		rs.log.Info("GET    /api/health is set up for health checking the relay server")

		if err := rs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rs.log.Sugar().Fatalf("error relay server listening: %v", err)
		}
	}()
}

func (rs *RelayServer) Shutdown(ctx context.Context) error {
	if err := rs.server.Shutdown(ctx); err != nil {
		rs.log.Sugar().Infof("error shutting down relay server: %v", err)

		return err
	}

	return nil
}

func errorJSON(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error": message,
	})
}

func logError(log *zap.Logger, msg string, prod bool, id string, err error) {
	if prod {
		log.Debug(msg, zap.String(correlationId, id), zap.Error(err))
		return
	}

	log.Sugar().Debugf("correlationId:%s | %s | %v", id, msg, err)
}
