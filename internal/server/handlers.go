package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/applypack"
	"github.com/spigell/jobflow/internal/candidate"
	"github.com/spigell/jobflow/internal/discovery"
)

type errorResponse struct {
	Error string `json:"error"`
}

type discoverRequest struct {
	Candidate json.RawMessage `json:"candidate"`
	// Match defaults to true when omitted.
	Match   *bool `json:"match"`
	Filters bool  `json:"filters"`
}

type applyPackRequest struct {
	Result *discovery.Result `json:"result"`
	TopN   int               `json:"top_n"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"sources": len(s.opts.Sources),
	})
}

func (s *Server) discover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	var raw any
	if len(req.Candidate) > 0 {
		if err := json.Unmarshal(req.Candidate, &raw); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid candidate: " + err.Error()})
			return
		}
	}

	opts := discovery.Options{
		Match:  req.Match == nil || *req.Match,
		Logger: s.logger,
	}
	if req.Filters {
		opts.Filters = s.opts.Filters
	}

	res, err := discovery.DiscoverRaw(c.Request.Context(), raw, s.opts.Sources, opts)
	if err != nil {
		var usage *candidate.UsageError
		if errors.As(err, &usage) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("discover failed", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "discovery failed"})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) applyPack(c *gin.Context) {
	var req applyPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Result == nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "result is required"})
		return
	}

	topN := req.TopN
	if topN <= 0 {
		topN = s.opts.TopN
	}

	c.JSON(http.StatusOK, applypack.Build(req.Result, topN))
}
