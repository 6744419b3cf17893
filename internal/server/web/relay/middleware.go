package relay

import (
	"net/http"
	"time"

	"github.com/eralogue/eralogue/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getRelayMiddleware(log *zap.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Sugar().Errorf("relay handler panicked: %v", r)
				errorJSON(c, http.StatusInternalServerError, "internal server error")
				c.Abort()
			}
		}()

		c.Set(correlationId, util.NewUuid())
		start := time.Now()
		c.Next()
		latency := time.Since(start).Milliseconds()
		if !prod {
			log.Sugar().Infof("RELAY | %d | %s | %s | %dms", c.Writer.Status(), c.Request.Method, c.FullPath(), latency)
		}

		if prod {
			log.Info("request to relay",
				zap.String(correlationId, c.GetString(correlationId)),
				zap.Int("code", c.Writer.Status()),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Int64("latencyInMs", latency),
			)
		}
	}
}
