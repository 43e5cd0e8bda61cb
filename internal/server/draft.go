package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	draftdomain "github.com/solobill/solobill/internal/draft/domain"
)

func (s *Server) GenerateProposalDraft(c *gin.Context) {
	var req draftdomain.GenerateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.draftSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
