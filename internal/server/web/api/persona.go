package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/eralogue/eralogue/internal/persona"
	"github.com/eralogue/eralogue/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getGetPersonasHandler(pm PersonaManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_get_personas_handler.requests", nil, 1)

		start := time.Now()
		defer func() {
			dur := time.Since(start)
			telemetry.Timing("eralogue.api.get_get_personas_handler.latency", dur, nil, 1)
		}()

		path := "/api/v1/personas"
		cid := c.GetString(correlationId)

		personas, err := pm.GetPersonas()
		if err != nil {
			telemetry.Incr("eralogue.api.get_get_personas_handler.get_personas_error", nil, 1)

			logError(log, "error when getting personas", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/getting-personas",
				Title:    "getting personas errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_get_personas_handler.success", nil, 1)
		c.JSON(http.StatusOK, personas)
	}
}

func getGetPersonaHandler(pm PersonaManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_get_persona_handler.requests", nil, 1)

		path := "/api/v1/personas/:id"
		cid := c.GetString(correlationId)

		p, err := pm.GetPersona(c.Param("id"))
		if err != nil {
			if _, ok := err.(notFoundError); ok {
				telemetry.Incr("eralogue.api.get_get_persona_handler.not_found", nil, 1)
				c.JSON(http.StatusNotFound, &ErrorResponse{
					Type:     "/errors/persona-not-found",
					Title:    "persona is not found",
					Status:   http.StatusNotFound,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			telemetry.Incr("eralogue.api.get_get_persona_handler.get_persona_error", nil, 1)
			logError(log, "error when getting persona", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/getting-persona",
				Title:    "getting persona errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_get_persona_handler.success", nil, 1)
		c.JSON(http.StatusOK, p)
	}
}

func getCreatePersonaHandler(pm PersonaManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_create_persona_handler.requests", nil, 1)

		path := "/api/v1/personas"
		cid := c.GetString(correlationId)

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logError(log, "error when reading create persona request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/request-body-read",
				Title:    "request body reader error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		p := &persona.Persona{}
		if err := json.Unmarshal(data, p); err != nil {
			logError(log, "error when unmarshalling create persona request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/json-unmarshal",
				Title:    "json unmarshal error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		created, err := pm.CreatePersona(p)
		if err != nil {
			if _, ok := err.(validationError); ok {
				telemetry.Incr("eralogue.api.get_create_persona_handler.validation_error", nil, 1)
				c.JSON(http.StatusBadRequest, &ErrorResponse{
					Type:     "/errors/validation",
					Title:    "persona validation failed",
					Status:   http.StatusBadRequest,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			telemetry.Incr("eralogue.api.get_create_persona_handler.create_persona_error", nil, 1)
			logError(log, "error when creating persona", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/creating-persona",
				Title:    "creating persona errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_create_persona_handler.success", nil, 1)
		c.JSON(http.StatusOK, created)
	}
}

func getUpdatePersonaHandler(pm PersonaManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_update_persona_handler.requests", nil, 1)

		path := "/api/v1/personas/:id"
		cid := c.GetString(correlationId)

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logError(log, "error when reading update persona request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/request-body-read",
				Title:    "request body reader error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		up := &persona.UpdatePersona{}
		if err := json.Unmarshal(data, up); err != nil {
			logError(log, "error when unmarshalling update persona request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/json-unmarshal",
				Title:    "json unmarshal error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		updated, err := pm.UpdatePersona(c.Param("id"), up)
		if err != nil {
			if _, ok := err.(notFoundError); ok {
				telemetry.Incr("eralogue.api.get_update_persona_handler.not_found", nil, 1)
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
				telemetry.Incr("eralogue.api.get_update_persona_handler.validation_error", nil, 1)
				c.JSON(http.StatusBadRequest, &ErrorResponse{
					Type:     "/errors/validation",
					Title:    "persona validation failed",
					Status:   http.StatusBadRequest,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			telemetry.Incr("eralogue.api.get_update_persona_handler.update_persona_error", nil, 1)
			logError(log, "error when updating persona", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/updating-persona",
				Title:    "updating persona errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_update_persona_handler.success", nil, 1)
		c.JSON(http.StatusOK, updated)
	}
}

func getDeletePersonaHandler(pm PersonaManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_delete_persona_handler.requests", nil, 1)

		path := "/api/v1/personas/:id"
		cid := c.GetString(correlationId)

		if err := pm.DeletePersona(c.Param("id")); err != nil {
			telemetry.Incr("eralogue.api.get_delete_persona_handler.delete_persona_error", nil, 1)
			logError(log, "error when deleting persona", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/deleting-persona",
				Title:    "deleting persona errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_delete_persona_handler.success", nil, 1)
		c.Status(http.StatusOK)
	}
}
