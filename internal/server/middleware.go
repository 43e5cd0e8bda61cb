package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/solobill/solobill/internal/ownerctx"
)

// OwnerRequired resolves the acting owner from the X-Owner-ID header
// and stores it in the request context. Authentication happens at the
// edge; this layer only needs the scoping identity.
func (s *Server) OwnerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Owner-ID"))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ownerID, err := snowflake.ParseString(raw)
		if err != nil || ownerID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := ownerctx.WithOwnerID(c.Request.Context(), ownerID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
