// Package server exposes the scan API: submit, get, list.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/recondor/recondor/internal/engine"
	"github.com/recondor/recondor/internal/store"
	"github.com/recondor/recondor/internal/target"
)

// Server wires the scan store and orchestrator behind the HTTP API.
type Server struct {
	store *store.Memory
	orch  *engine.Orchestrator
	log   *slog.Logger

	// defaults seed scan options when a request omits a flag.
	defaults engine.Options
}

// New builds a server. defaults seed every scan request's omitted options.
func New(st *store.Memory, orch *engine.Orchestrator, defaults engine.Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{store: st, orch: orch, defaults: defaults, log: log}
}

// scanRequest is the submit-scan payload. Option fields are pointers so an
// omitted flag falls back to the configured default rather than false.
type scanRequest struct {
	Target  string       `json:"target" binding:"required"`
	Options *optionFlags `json:"options"`
}

type optionFlags struct {
	WAF       *bool  `json:"waf"`
	Port      *bool  `json:"port"`
	Subdomain *bool  `json:"subdo"`
	CMS       *bool  `json:"cms"`
	Tech      *bool  `json:"tech"`
	Dir       *bool  `json:"dir"`
	WordPress *bool  `json:"wp"`
	AXFR      *bool  `json:"axfr"`
	Proxy     string `json:"proxy"`
	UserAgent string `json:"user_agent"`
}

// scanSummary is the list-view projection of a scan.
type scanSummary struct {
	ID        string        `json:"id"`
	Target    string        `json:"target"`
	Status    engine.Status `json:"status"`
	Progress  int           `json:"progress"`
	CreatedAt time.Time     `json:"created_at"`
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/scans", s.createScan)
	r.GET("/api/scans", s.listScans)
	r.GET("/api/scans/:id", s.getScan)

	return r
}

// Run starts the HTTP server on addr, blocking until it exits.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:           addr,
		Handler:        s.Router(),
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	s.log.Info("api server listening", "addr", addr)
	return srv.ListenAndServe()
}

func (s *Server) createScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject obviously bad targets before accepting the job; the
	// orchestrator re-validates before running anything.
	if _, err := target.Validate(req.Target); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := s.resolveOptions(req.Options)
	scan := s.store.Create(req.Target, opts)

	s.log.Info("scan accepted", "scan_id", scan.ID, "target", scan.Target)

	// One orchestrator run per scan creation, off the request path.
	go func() {
		if err := s.orch.Run(context.Background(), scan.ID, opts); err != nil {
			s.log.Error("scan run failed", "scan_id", scan.ID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"id": scan.ID, "status": scan.Status})
}

func (s *Server) getScan(c *gin.Context) {
	scan, err := s.store.Load(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
		return
	}
	c.JSON(http.StatusOK, scan)
}

func (s *Server) listScans(c *gin.Context) {
	scans := s.store.List()
	out := make([]scanSummary, 0, len(scans))
	for _, scan := range scans {
		out = append(out, scanSummary{
			ID:        scan.ID,
			Target:    scan.Target,
			Status:    scan.Status,
			Progress:  scan.Progress,
			CreatedAt: scan.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// resolveOptions applies configured defaults to any omitted option flag.
func (s *Server) resolveOptions(flags *optionFlags) engine.Options {
	opts := s.defaults
	if flags == nil {
		return opts
	}
	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&opts.WAF, flags.WAF)
	apply(&opts.Port, flags.Port)
	apply(&opts.Subdomain, flags.Subdomain)
	apply(&opts.CMS, flags.CMS)
	apply(&opts.Tech, flags.Tech)
	apply(&opts.Dir, flags.Dir)
	apply(&opts.WordPress, flags.WordPress)
	apply(&opts.AXFR, flags.AXFR)
	if flags.Proxy != "" {
		opts.Proxy = flags.Proxy
	}
	if flags.UserAgent != "" {
		opts.UserAgent = flags.UserAgent
	}
	return opts
}
