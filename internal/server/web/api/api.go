package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eralogue/eralogue/internal/persona"
	"github.com/eralogue/eralogue/internal/session"
	"github.com/eralogue/eralogue/internal/settings"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	correlationId string = "correlationId"
)

type PersonaManager interface {
	GetPersonas() ([]*persona.Persona, error)
	GetPersona(id string) (*persona.Persona, error)
	CreatePersona(p *persona.Persona) (*persona.Persona, error)
	UpdatePersona(id string, up *persona.UpdatePersona) (*persona.Persona, error)
	DeletePersona(id string) error
}

type SessionManager interface {
	Bootstrap(userId, personaId string) (*session.Session, error)
	GetSessions(userId string) ([]*session.Session, error)
	GetSession(id string) (*session.Session, error)
	DeleteSession(id string) error
	GetMessages(chatId string) ([]*session.Message, error)
	AppendMessage(userId, personaId string, msg *session.Message) (*session.Message, error)
}

type SettingsManager interface {
	GetSettings(userId string) (*settings.UserSettings, error)
	UpsertSettings(us *settings.UserSettings) (*settings.UserSettings, error)
	DeleteSettings(userId string) error
}

type ErrorResponse struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}

type validationError interface {
	Error() string
	Validation()
}

type notFoundError interface {
	Error() string
	NotFound()
}

type ApiServer struct {
	server *http.Server
	log    *zap.Logger
}

func NewApiServer(log *zap.Logger, mode string, port string, pm PersonaManager, sm SessionManager, stm SettingsManager, adminPass string) (*ApiServer, error) {
	router := gin.New()

	prod := mode == "production"
	router.Use(getApiLoggerMiddleware(log, "api", prod, adminPass))

	router.GET("/api/health", getGetHealthCheckHandler())

	router.GET("/api/v1/personas", getGetPersonasHandler(pm, log, prod))
	router.GET("/api/v1/personas/:id", getGetPersonaHandler(pm, log, prod))
	router.PUT("/api/v1/personas", getCreatePersonaHandler(pm, log, prod))
	router.PATCH("/api/v1/personas/:id", getUpdatePersonaHandler(pm, log, prod))
	router.DELETE("/api/v1/personas/:id", getDeletePersonaHandler(pm, log, prod))

	router.POST("/api/v1/sessions/bootstrap", getBootstrapSessionHandler(sm, log, prod))
	router.GET("/api/v1/sessions", getGetSessionsHandler(sm, log, prod))
	router.GET("/api/v1/sessions/:id/messages", getGetMessagesHandler(sm, log, prod))
	router.POST("/api/v1/sessions/:id/messages", getAppendMessageHandler(sm, log, prod))
	router.DELETE("/api/v1/sessions/:id", getDeleteSessionHandler(sm, log, prod))

	router.GET("/api/v1/users/:userId/settings", getGetSettingsHandler(stm, log, prod))
	router.PUT("/api/v1/users/:userId/settings", getUpsertSettingsHandler(stm, log, prod))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	return &ApiServer{
		log:    log,
		server: srv,
	}, nil
}

func (as *ApiServer) Run() {
	go func() {
		as.log.Info("api server listening", zap.String("addr", as.server.Addr))
		as.log.Info("GET    /api/v1/personas is set up for retrieving the persona catalog")
		as.log.Info("GET    /api/v1/personas/:id is set up for retrieving a persona")
		as.log.Info("PUT    /api/v1/personas is set up for creating a persona")
		as.log.Info("PATCH  /api/v1/personas/:id is set up for updating a persona")
		as.log.Info("DELETE /api/v1/personas/:id is set up for deleting a persona")
		as.log.Info("POST   /api/v1/sessions/bootstrap is set up for bootstrapping a chat session")
		as.log.Info("GET    /api/v1/sessions is set up for retrieving chat sessions")
		as.log.Info("GET    /api/v1/sessions/:id/messages is set up for retrieving messages")
		as.log.Info("POST   /api/v1/sessions/:id/messages is set up for appending a message")
		as.log.Info("DELETE /api/v1/sessions/:id is set up for deleting a chat session")
		as.log.Info("GET    /api/v1/users/:userId/settings is set up for retrieving user settings")
		as.log.Info("PUT    /api/v1/users/:userId/settings is set up for saving user settings")

		if err := as.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			as.log.Sugar().Fatalf("error api server listening: %v", err)
		}
	}()
}

func (as *ApiServer) Shutdown(ctx context.Context) error {
	if err := as.server.Shutdown(ctx); err != nil {
		as.log.Sugar().Infof("error shutting down api server: %v", err)
		return err
	}

	return nil
}

func getGetHealthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Status(http.StatusOK)
	}
}

func logError(log *zap.Logger, msg string, prod bool, id string, err error) {
	if prod {
		log.Debug(msg, zap.String(correlationId, id), zap.Error(err))
		return
	}

	log.Sugar().Debugf("correlationId:%s | %s | %v", id, msg, err)
}
