package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appforge/internal/artifact"
	"appforge/internal/inference"
	"appforge/internal/registry"
	"appforge/internal/schema"
	"appforge/internal/synth"
)

type generateSchemaRequest struct {
	Prompt     string   `json:"prompt" binding:"required"`
	EntityName string   `json:"entityName"`
	Operations []string `json:"operations"`
	Model      string   `json:"model"`
}

type refineSchemaRequest struct {
	CurrentSchema schema.SchemaDefinition `json:"currentSchema" binding:"required"`
	Feedback      string                  `json:"feedback" binding:"required"`
	Model         string                  `json:"model"`
}

type generateAppRequest struct {
	Schema schema.SchemaDefinition `json:"schema" binding:"required"`
	Model  string                  `json:"model"`
}

func (s *Server) model(requested string) string {
	if requested != "" {
		return requested
	}
	return s.defaultModel
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleGenerateSchema(c *gin.Context) {
	var req generateSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	def, err := s.engine.Infer(c.Request.Context(), inference.InferRequest{
		Prompt:     req.Prompt,
		EntityName: req.EntityName,
		Operations: req.Operations,
		Model:      s.model(req.Model),
	})
	if err != nil {
		s.log.Error("schema inference failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, def)
}

func (s *Server) handleRefineSchema(c *gin.Context) {
	var req refineSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	def, err := s.engine.Refine(c.Request.Context(), req.CurrentSchema, req.Feedback, s.model(req.Model))
	if err != nil {
		s.log.Error("schema refinement failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, def)
}

func (s *Server) handleGenerateApp(c *gin.Context) {
	var req generateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	res, err := s.synth.Synthesize(c.Request.Context(), req.Schema, synth.Options{
		Model: s.model(req.Model),
	})
	if err != nil {
		s.log.Error("application synthesis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListProjects(c *gin.Context) {
	records, err := s.reg.List()
	if err != nil {
		s.log.Error("failed to list projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if records == nil {
		records = []registry.ProjectRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": records})
}

func (s *Server) handleListFiles(c *gin.Context) {
	id := c.Param("id")
	files, err := s.store.ListArtifacts(id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "project not found"})
			return
		}
		s.log.Error("failed to list project files", zap.String("project", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projectId": id, "files": files})
}

func (s *Server) handleGetFile(c *gin.Context) {
	id := c.Param("id")
	relPath := strings.TrimPrefix(c.Param("path"), "/")

	content, err := s.store.ReadArtifact(id, relPath)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "file not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": relPath, "content": string(content)})
}

func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("id")
	archivePath, err := s.store.PackageProject(id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "project not found"})
			return
		}
		s.log.Error("failed to package project", zap.String("project", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.FileAttachment(archivePath, id+".zip")
}

func (s *Server) handleDeploy(c *gin.Context) {
	id := c.Param("id")
	rec, err := s.reg.Get(id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "project not found"})
			return
		}
		s.log.Error("failed to load project", zap.String("project", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"projectId":    id,
		"instructions": synth.DeployInstructions(id, rec.EntityName),
	})
}
