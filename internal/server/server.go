package server

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openkg/loom/internal/compliance"
	"github.com/openkg/loom/internal/harmonize"
	"github.com/openkg/loom/internal/metric"
	"github.com/openkg/loom/internal/ontology"
	"github.com/openkg/loom/internal/rdf"
	"github.com/openkg/loom/internal/store"
)

// Server exposes the harmonization engine over HTTP. The engine is
// single-writer; the server's mutex is the serializer, so handlers never
// touch the engine without holding it.
type Server struct {
	mu       sync.Mutex
	engine   *harmonize.Engine
	store    store.TripleStore
	ontology *ontology.Manager
	metrics  *metric.Metrics
	log      zerolog.Logger
}

func NewServer(engine *harmonize.Engine, st store.TripleStore, ont *ontology.Manager, metrics *metric.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		engine:   engine,
		store:    st,
		ontology: ont,
		metrics:  metrics,
		log:      logger.With().Str("component", "server").Logger(),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	v1 := r.Group("/api/v1")
	{
		v1.POST("/mappings", s.AddMapping)
		v1.GET("/mappings", s.ListMappings)
		v1.POST("/harmonize", s.Harmonize)
		v1.GET("/conflicts", s.DetectConflicts)
		v1.POST("/conflicts/resolve", s.ResolveConflicts)
		v1.GET("/quality", s.Quality)
		v1.GET("/statistics", s.Statistics)
		v1.GET("/export", s.Export)
		v1.POST("/suggestions", s.Suggestions)
		v1.GET("/ontology", s.OntologyStats)
		v1.GET("/compliance/gdpr/:subject", s.CheckGDPR)
		v1.GET("/compliance/consents/expiring", s.ExpiringConsents)
	}

	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	return r
}

// flush persists the harmonized graph snapshot. Called with the mutex
// held, after every mutation.
func (s *Server) flush(c *gin.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Replace(c.Request.Context(), s.engine.Graph().All()); err != nil {
		s.log.Error().Err(err).Msg("failed to persist graph snapshot")
		return err
	}
	return nil
}

type mappingRequest struct {
	SourceOntology   string            `json:"source_ontology" binding:"required"`
	SourceClass      string            `json:"source_class" binding:"required"`
	TargetClass      string            `json:"target_class" binding:"required"`
	PropertyMappings map[string]string `json:"property_mappings"`
}

func (s *Server) AddMapping(c *gin.Context) {
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Registry().AddMapping(req.SourceOntology, req.SourceClass, req.TargetClass, req.PropertyMappings)

	c.JSON(http.StatusCreated, gin.H{
		"rule_id": harmonize.RuleID(req.SourceOntology, req.SourceClass),
	})
}

func (s *Server) ListMappings(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"rules": s.engine.Registry().Rules()})
}

type harmonizeRequest struct {
	Data           string            `json:"data" binding:"required"`
	Format         string            `json:"format"`
	SourceOntology string            `json:"source_ontology" binding:"required"`
	Provenance     map[string]string `json:"provenance"`
}

func (s *Server) Harmonize(c *gin.Context) {
	var req harmonizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	format, err := parseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	src, err := rdf.Decode(strings.NewReader(req.Data), format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse RDF payload: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.engine.Harmonize(src, req.SourceOntology, req.Provenance)
	if err != nil {
		s.log.Error().Err(err).Msg("harmonization pass failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "harmonization failed", "report": report})
		return
	}
	if err := s.flush(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist harmonized graph", "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) DetectConflicts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conflicts := s.engine.DetectConflicts()
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts, "count": len(conflicts)})
}

type resolveRequest struct {
	Strategy string `json:"strategy" binding:"required"`
}

func (s *Server) ResolveConflicts(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := s.engine.ResolveConflicts(req.Strategy)
	if err := s.flush(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist harmonized graph"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategy": req.Strategy, "resolved": resolved})
}

func (s *Server) Quality(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.engine.ValidateQuality())
}

func (s *Server) Statistics(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.engine.Statistics())
}

func (s *Server) Export(c *gin.Context) {
	format, err := parseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contentType := "text/turtle; charset=utf-8"
	if format == rdf.FormatNTriples {
		contentType = "application/n-triples; charset=utf-8"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if err := s.engine.Export(c.Writer, format); err != nil {
		s.log.Error().Err(err).Msg("export failed")
	}
}

type suggestionsRequest struct {
	Data   string `json:"data" binding:"required"`
	Format string `json:"format"`
}

func (s *Server) Suggestions(c *gin.Context) {
	var req suggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	format, err := parseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	src, err := rdf.Decode(strings.NewReader(req.Data), format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse RDF payload: " + err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	suggestions := s.engine.SuggestMappings(src)
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
}

func (s *Server) OntologyStats(c *gin.Context) {
	if s.ontology == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no ontology directory configured"})
		return
	}
	c.JSON(http.StatusOK, s.ontology.Stats())
}

func (s *Server) CheckGDPR(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	monitor := compliance.NewMonitor(s.engine.Graph(), s.log)
	c.JSON(http.StatusOK, monitor.CheckGDPR(c.Param("subject")))
}

func (s *Server) ExpiringConsents(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
			return
		}
		days = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	monitor := compliance.NewMonitor(s.engine.Graph(), s.log)
	expiring := monitor.ExpiringConsents(time.Duration(days) * 24 * time.Hour)
	c.JSON(http.StatusOK, gin.H{"expiring": expiring, "count": len(expiring)})
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseFormat maps the request format name to a codec, defaulting to
// Turtle.
func parseFormat(name string) (rdf.Format, error) {
	if name == "" {
		return rdf.FormatTurtle, nil
	}
	return rdf.ParseFormat(name)
}
