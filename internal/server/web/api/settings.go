package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/eralogue/eralogue/internal/settings"
	"github.com/eralogue/eralogue/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getGetSettingsHandler(stm SettingsManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_get_settings_handler.requests", nil, 1)

		path := "/api/v1/users/:userId/settings"
		cid := c.GetString(correlationId)

		us, err := stm.GetSettings(c.Param("userId"))
		if err != nil {
			if _, ok := err.(notFoundError); ok {
				telemetry.Incr("eralogue.api.get_get_settings_handler.not_found", nil, 1)
				c.JSON(http.StatusNotFound, &ErrorResponse{
					Type:     "/errors/settings-not-found",
					Title:    "user settings are not found",
					Status:   http.StatusNotFound,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			telemetry.Incr("eralogue.api.get_get_settings_handler.get_settings_error", nil, 1)
			logError(log, "error when getting user settings", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/getting-settings",
				Title:    "getting settings errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_get_settings_handler.success", nil, 1)
		c.JSON(http.StatusOK, us)
	}
}

func getUpsertSettingsHandler(stm SettingsManager, log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.Incr("eralogue.api.get_upsert_settings_handler.requests", nil, 1)

		path := "/api/v1/users/:userId/settings"
		cid := c.GetString(correlationId)

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logError(log, "error when reading settings request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/request-body-read",
				Title:    "request body reader error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		us := &settings.UserSettings{}
		if err := json.Unmarshal(data, us); err != nil {
			logError(log, "error when unmarshalling settings request body", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/json-unmarshal",
				Title:    "json unmarshal error",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		// settings are always written whole so the mirror can never hold a
		// partially updated object
		us.UserId = c.Param("userId")

		saved, err := stm.UpsertSettings(us)
		if err != nil {
			if _, ok := err.(validationError); ok {
				telemetry.Incr("eralogue.api.get_upsert_settings_handler.validation_error", nil, 1)
				c.JSON(http.StatusBadRequest, &ErrorResponse{
					Type:     "/errors/validation",
					Title:    "settings validation failed",
					Status:   http.StatusBadRequest,
					Detail:   err.Error(),
					Instance: path,
				})
				return
			}

			telemetry.Incr("eralogue.api.get_upsert_settings_handler.upsert_settings_error", nil, 1)
			logError(log, "error when saving user settings", prod, cid, err)
			c.JSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/saving-settings",
				Title:    "saving settings errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: path,
			})
			return
		}

		telemetry.Incr("eralogue.api.get_upsert_settings_handler.success", nil, 1)
		c.JSON(http.StatusOK, saved)
	}
}
