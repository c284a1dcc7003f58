package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tapedeck/tapedeck/internal/capture"
	"github.com/tapedeck/tapedeck/internal/session"
	"github.com/tapedeck/tapedeck/internal/summary"
)

// registerRoutes sets up the presentation routes and, when the backend is
// local, the capture RPC routes.
func (s *Server) registerRoutes(router *gin.Engine, mountRPC bool) {
	v1 := router.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.POST("/record/start", s.handleRecordStart)
	v1.POST("/record/stop", s.handleRecordStop)
	v1.GET("/sessions", s.handleSessions)
	v1.GET("/sessions/latest", s.handleLatest)
	v1.GET("/devices", s.handleDevices)
	v1.GET("/events", s.handleEvents)
	v1.POST("/summarize/:id", s.handleSummarize)

	if mountRPC {
		rpc := router.Group("/rpc/v1")
		rpc.POST("/start", s.handleRPCStart)
		rpc.POST("/stop", s.handleRPCStop)
		rpc.GET("/status", s.handleRPCStatus)
		rpc.GET("/devices", s.handleRPCDevices)
	}
}

// statusResponse combines the coordinator view with a live backend probe.
type statusResponse struct {
	session.Summary
	Backend      *capture.StatusResult `json:"backend,omitempty"`
	BackendError string                `json:"backend_error,omitempty"`
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := statusResponse{Summary: s.coord.Snapshot()}
	st, err := s.backend.Status(c.Request.Context())
	if err != nil {
		resp.BackendError = err.Error()
	} else {
		resp.Backend = &st
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRecordStart(c *gin.Context) {
	var opts capture.StartOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("api: parse request: %v", err)})
			return
		}
	}

	rec, err := s.coord.RequestStart(c.Request.Context(), opts)
	switch {
	case errors.Is(err, session.ErrNotIdle) || errors.Is(err, session.ErrClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		// The failed attempt is already recorded; return it with the error.
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "record": rec})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) handleRecordStop(c *gin.Context) {
	rec, err := s.coord.RequestStop(c.Request.Context())
	switch {
	case errors.Is(err, session.ErrNotRecording) || errors.Is(err, session.ErrClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) handleSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.List())
}

func (s *Server) handleLatest(c *gin.Context) {
	rec, ok := s.ledger.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "api: no sessions yet"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDevices(c *gin.Context) {
	devs, err := s.backend.ListDevices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if devs == nil {
		devs = []capture.Device{}
	}
	c.JSON(http.StatusOK, devs)
}

func (s *Server) handleSummarize(c *gin.Context) {
	id := c.Param("id")
	var rec session.Record
	found := false
	for _, r := range s.ledger.List() {
		if r.ID == id {
			rec = r
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("api: no session %s", id)})
		return
	}

	text, err := s.summarizer.Summarize(c.Request.Context(), rec)
	switch {
	case errors.Is(err, summary.ErrNotImplemented):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"id": rec.ID, "summary": text})
	}
}

func (s *Server) handleRPCStart(c *gin.Context) {
	var opts capture.StartOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("api: parse request: %v", err)})
			return
		}
	}

	res, err := s.backend.Start(c.Request.Context(), opts)
	switch {
	case errors.Is(err, capture.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) handleRPCStop(c *gin.Context) {
	res, err := s.backend.Stop(c.Request.Context())
	switch {
	case errors.Is(err, capture.ErrNoSession):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) handleRPCStatus(c *gin.Context) {
	res, err := s.backend.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleRPCDevices(c *gin.Context) {
	devs, err := s.backend.ListDevices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if devs == nil {
		devs = []capture.Device{}
	}
	c.JSON(http.StatusOK, devs)
}
