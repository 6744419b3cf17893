package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/eralogue/eralogue/internal/session"
	"github.com/eralogue/eralogue/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type bootstrapRequest struct {
	UserId    string `json:"userId"`
	PersonaId string `json:"personaId"`
}

type appendMessageRequest struct {
	UserId    string `json:"userId"`
	PersonaId string `json:"personaId"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	ImageUrl  string `json:"imageUrl"`
}

func getBootstrapSessionHandler(sm SessionManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_bootstrap_session_handler.requests", nil, 1)

		start := time.Now()
		defer func() {
			dur := time.Since(start)
			telemetry.Timing("eralogue.api.get_bootstrap_session_handler.latency", dur, nil, 1)
		}()

		path := "/api/v1/sessions/bootstrap"
		cid := c.GetString(correlationId)

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logError(log, "error when reading bootstrap request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/request-body-read",
				Title:    "request body reader error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		br := &bootstrapRequest{}
		if err := json.Unmarshal(data, br); err != nil {
			logError(log, "error when unmarshalling bootstrap request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/json-unmarshal",
				Title:    "json unmarshal error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		sn, err := sm.Bootstrap(br.UserId, br.PersonaId)
		if err != nil {
			if _, ok := err.(notFoundError); ok {
				telemetry.Incr("eralogue.api.get_bootstrap_session_handler.persona_not_found", nil, 1)
				c.JSON(http.StatusNotFound, &ErrorResponse{
					Type:     "/errors/persona-not-found",
					Title:    "persona is not found",
					Status:   http.StatusNotFound,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			if _, ok := err.(validationError); ok {
				telemetry.Incr("eralogue.api.get_bootstrap_session_handler.validation_error", nil, 1)
				c.JSON(http.StatusBadRequest, &ErrorResponse{
					Type:     "/errors/validation",
					Title:    "bootstrap validation failed",
					Status:   http.StatusBadRequest,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			telemetry.Incr("eralogue.api.get_bootstrap_session_handler.bootstrap_error", nil, 1)
			logError(log, "error when bootstrapping chat session", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/bootstrapping-session",
				Title:    "bootstrapping session errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_bootstrap_session_handler.success", nil, 1)
		c.JSON(http.StatusOK, sn)
	}
}

func getGetSessionsHandler(sm SessionManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_get_sessions_handler.requests", nil, 1)

		path := "/api/v1/sessions"
		cid := c.GetString(correlationId)

		userId := c.Query("userId")
		if len(userId) == 0 {
			userId = c.Request.Header.Get("X-User-Id")
		}

		if len(userId) == 0 {
			c.JSON(http.StatusBadRequest, &ErrorResponse{
				Type:     "/errors/missing-user-id",
				Title:    "user id is not found",
				Status:   http.StatusBadRequest,
				Detail:   "userId is missing from the request. it is required for retrieving sessions.",
				Instance: path,
			})
			return
		}

		sessions, err := sm.GetSessions(userId)
		if err != nil {
			telemetry.Incr("eralogue.api.get_get_sessions_handler.get_sessions_error", nil, 1)
			logError(log, "error when getting chat sessions", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/getting-sessions",
				Title:    "getting sessions errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_get_sessions_handler.success", nil, 1)
		c.JSON(http.StatusOK, sessions)
	}
}

func getGetMessagesHandler(sm SessionManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_get_messages_handler.requests", nil, 1)

		path := "/api/v1/sessions/:id/messages"
		cid := c.GetString(correlationId)

		messages, err := sm.GetMessages(c.Param("id"))
		if err != nil {
			if _, ok := err.(notFoundError); ok {
				telemetry.Incr("eralogue.api.get_get_messages_handler.not_found", nil, 1)
				c.JSON(http.StatusNotFound, &ErrorResponse{
					Type:     "/errors/session-not-found",
					Title:    "chat session is not found",
					Status:   http.StatusNotFound,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			telemetry.Incr("eralogue.api.get_get_messages_handler.get_messages_error", nil, 1)
			logError(log, "error when getting messages", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/getting-messages",
				Title:    "getting messages errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_get_messages_handler.success", nil, 1)
		c.JSON(http.StatusOK, messages)
	}
}

func getAppendMessageHandler(sm SessionManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_append_message_handler.requests", nil, 1)

		path := "/api/v1/sessions/:id/messages"
		cid := c.GetString(correlationId)

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logError(log, "error when reading append message request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/request-body-read",
				Title:    "request body reader error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		ar := &appendMessageRequest{}
		if err := json.Unmarshal(data, ar); err != nil {
			logError(log, "error when unmarshalling append message request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/json-unmarshal",
				Title:    "json unmarshal error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		created, err := sm.AppendMessage(ar.UserId, ar.PersonaId, &session.Message{
			ChatId:   c.Param("id"),
			Content:  ar.Content,
			Sender:   ar.Sender,
			ImageUrl: ar.ImageUrl,
		})
		if err != nil {
			if _, ok := err.(validationError); ok {
				telemetry.Incr("eralogue.api.get_append_message_handler.validation_error", nil, 1)
				c.JSON(http.StatusBadRequest, &ErrorResponse{
					Type:     "/errors/validation",
					Title:    "message validation failed",
					Status:   http.StatusBadRequest,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			if _, ok := err.(notFoundError); ok {
				telemetry.Incr("eralogue.api.get_append_message_handler.not_found", nil, 1)
				c.JSON(http.StatusNotFound, &ErrorResponse{
					Type:     "/errors/persona-not-found",
					Title:    "persona is not found",
					Status:   http.StatusNotFound,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			telemetry.Incr("eralogue.api.get_append_message_handler.append_message_error", nil, 1)
			logError(log, "error when appending message", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/appending-message",
				Title:    "appending message errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_append_message_handler.success", nil, 1)
		c.JSON(http.StatusOK, created)
	}
}

func getDeleteSessionHandler(sm SessionManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_delete_session_handler.requests", nil, 1)

		path := "/api/v1/sessions/:id"
		cid := c.GetString(correlationId)

		if err := sm.DeleteSession(c.Param("id")); err != nil {
			telemetry.Incr("eralogue.api.get_delete_session_handler.delete_session_error", nil, 1)
			logError(log, "error when deleting chat session", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/deleting-session",
				Title:    "deleting session errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_delete_session_handler.success", nil, 1)
		c.Status(http.StatusOK)
	}
}
