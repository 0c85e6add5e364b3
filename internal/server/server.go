package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/influence"
	"github.com/agenthands/archetypes/internal/core/model"
)

// Pipeline is the orchestrator surface the HTTP host exposes.
type Pipeline interface {
	ProcessContent(ctx context.Context, items []model.ContentItem) (*model.BatchReport, error)
	ApplyReport(ctx context.Context, items []model.ContentItem, report *model.BatchReport) ([]model.Archetype, error)
	IdentifyEmergingArchetypes(ctx context.Context, items []model.ContentItem) ([]model.EmergingArchetype, error)
	UpdateInfluenceScores(ctx context.Context) (map[string]float64, error)
	ScoreContent(archetypeID string, items []model.ContentItem, strategy influence.Strategy) map[string]float64
}

type Server struct {
	Pipeline Pipeline
	Logger   logrus.FieldLogger
}

func NewServer(pipeline Pipeline, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{Pipeline: pipeline, Logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/content/classify", s.Classify)
	v1.POST("/archetypes/emerging", s.Emerging)
	v1.POST("/archetypes/influence", s.UpdateInfluence)
	v1.POST("/archetypes/:id/content-influence", s.ContentInfluence)

	return r
}

type ContentRequest struct {
	Items []model.ContentItem `json:"items" binding:"required,min=1"`
}

type ContentInfluenceRequest struct {
	Items    []model.ContentItem `json:"items" binding:"required,min=1"`
	Strategy string              `json:"strategy"`
}

func (s *Server) Classify(c *gin.Context) {
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	report, err := s.Pipeline.ProcessContent(c.Request.Context(), req.Items)
	if err != nil {
		s.fail(c, "classify", err)
		return
	}

	if c.Query("persist") != "true" {
		c.JSON(http.StatusOK, gin.H{"report": report})
		return
	}

	promoted, err := s.Pipeline.ApplyReport(c.Request.Context(), req.Items, report)
	if err != nil {
		s.fail(c, "persist", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "promoted": promoted})
}

func (s *Server) Emerging(c *gin.Context) {
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	proposals, err := s.Pipeline.IdentifyEmergingArchetypes(c.Request.Context(), req.Items)
	if err != nil {
		s.fail(c, "emerging", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

func (s *Server) UpdateInfluence(c *gin.Context) {
	scores, err := s.Pipeline.UpdateInfluenceScores(c.Request.Context())
	if err != nil {
		s.fail(c, "influence", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": scores})
}

func (s *Server) ContentInfluence(c *gin.Context) {
	var req ContentInfluenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	strategy := influence.Strategy(req.Strategy)
	switch strategy {
	case "", influence.StrategyEngagement, influence.StrategySpread, influence.StrategyGrowth, influence.StrategyHybrid:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown strategy: " + req.Strategy})
		return
	}

	scores := s.Pipeline.ScoreContent(c.Param("id"), req.Items, strategy)
	c.JSON(http.StatusOK, gin.H{"archetype_id": c.Param("id"), "scores": scores})
}

func (s *Server) fail(c *gin.Context, operation string, err error) {
	status := StatusFor(err)
	s.Logger.WithError(err).WithFields(logrus.Fields{
		"operation": operation,
		"status":    status,
	}).Error("request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps pipeline errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case common.IsDataError(err):
		return http.StatusUnprocessableEntity
	case common.IsProviderError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request served")
	}
}
