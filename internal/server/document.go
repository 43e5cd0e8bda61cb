package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	documentdomain "github.com/solobill/solobill/internal/document/domain"
)

// DownloadInvoiceDocument renders an invoice PDF with the template and
// preset named in the query string.
func (s *Server) DownloadInvoiceDocument(c *gin.Context) {
	artifact, err := s.documentSvc.GenerateInvoice(c.Request.Context(), documentdomain.GenerateRequest{
		EntityID:  strings.TrimSpace(c.Param("id")),
		Template:  strings.TrimSpace(c.Query("template")),
		PresetKey: strings.TrimSpace(c.Query("preset")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveArtifact(c, artifact)
}

// RenderInvoiceDocument accepts a full customization in the body, for
// one-off renders that differ from any stored preset.
func (s *Server) RenderInvoiceDocument(c *gin.Context) {
	var req documentdomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.EntityID = strings.TrimSpace(c.Param("id"))

	artifact, err := s.documentSvc.GenerateInvoice(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveArtifact(c, artifact)
}

func (s *Server) DownloadProposalDocument(c *gin.Context) {
	artifact, err := s.documentSvc.GenerateProposal(c.Request.Context(), documentdomain.GenerateRequest{
		EntityID:  strings.TrimSpace(c.Param("id")),
		Template:  strings.TrimSpace(c.Query("template")),
		PresetKey: strings.TrimSpace(c.Query("preset")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveArtifact(c, artifact)
}

func (s *Server) RenderProposalDocument(c *gin.Context) {
	var req documentdomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.EntityID = strings.TrimSpace(c.Param("id"))

	artifact, err := s.documentSvc.GenerateProposal(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serveArtifact(c, artifact)
}

func serveArtifact(c *gin.Context, artifact documentdomain.Artifact) {
	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Bytes)
}

func (s *Server) SaveDocumentPreset(c *gin.Context) {
	var req documentdomain.SavePresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.SavePreset(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDocumentPresets(c *gin.Context) {
	resp, err := s.documentSvc.ListPresets(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDocumentPreset(c *gin.Context) {
	if err := s.documentSvc.DeletePreset(c.Request.Context(), strings.TrimSpace(c.Param("key"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
