package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/docsql/internal/engine"
)

const actorKey = "actor"

// requireActor reads the actor header into the gin context and rejects
// requests without one.
func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, QueryResponse{
				Results: []*engine.Result{},
				Error:   &ErrorBody{Code: "UNAUTHORIZED", Message: ActorHeader + " header is required"},
			})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
