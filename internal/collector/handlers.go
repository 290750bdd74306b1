package collector

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/events"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ingestEventsRequest struct {
	Events    []events.AgentEvent `json:"events"`
	BatchID   string              `json:"batch_id"`
	Timestamp string              `json:"timestamp"`
}

type ingestSpansRequest struct {
	Spans     []json.RawMessage `json:"spans"`
	Timestamp string            `json:"timestamp"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "agent-observe-collector",
		"status":  "running",
		"endpoints": []string{
			"/health", "/stats", "/metrics",
			"/events/ingest", "/events/recent",
			"/traces/ingest", "/traces/recent",
			"/stream",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"uptime":  time.Since(s.started).String(),
		"viewers": s.hub.ViewerCount(),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"events_retained": s.store.Len(),
		"viewers":         s.hub.ViewerCount(),
		"uptime_seconds":  int64(time.Since(s.started).Seconds()),
	})
}

// handleIngestEvents accepts one pipeline batch. Events are validated
// individually: malformed ones are rejected, duplicates (by event id) are
// dropped, and everything else is stored and broadcast. The batch as a whole
// is acknowledged with 202 as long as the payload parses, so a replayed
// fallback batch full of duplicates still succeeds.
func (s *Server) handleIngestEvents(c *gin.Context) {
	var req ingestEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.countIngest("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed batch: " + err.Error()})
		return
	}
	if len(req.Events) == 0 {
		s.countIngest("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch contains no events"})
		return
	}

	var accepted []events.AgentEvent
	duplicates, rejected := 0, 0
	for _, ev := range req.Events {
		if !ev.Type.Valid() || ev.EventID == "" || ev.AgentID == "" {
			rejected++
			continue
		}
		if !s.store.Add(ev) {
			duplicates++
			continue
		}
		accepted = append(accepted, ev)
	}

	s.countIngest("accepted")
	if s.metrics != nil {
		s.metrics.IngestEvents.Add(float64(len(accepted)))
		s.metrics.DuplicateDrops.Add(float64(duplicates))
	}
	s.logger.Debug("batch ingested",
		zap.String("batch_id", req.BatchID),
		zap.Int("accepted", len(accepted)),
		zap.Int("duplicates", duplicates),
		zap.Int("rejected", rejected),
	)

	if len(accepted) > 0 {
		s.hub.Broadcast(gin.H{
			"type":      "events",
			"batch_id":  req.BatchID,
			"events":    accepted,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted":   len(accepted),
		"duplicates": duplicates,
		"rejected":   rejected,
		"batch_id":   req.BatchID,
	})
}

func (s *Server) handleRecentEvents(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	recent := s.store.Recent(limit)
	c.JSON(http.StatusOK, gin.H{
		"events": recent,
		"count":  len(recent),
	})
}

// handleIngestSpans accepts a span export batch. Spans are opaque to the
// collector; it retains and rebroadcasts them without interpreting fields.
func (s *Server) handleIngestSpans(c *gin.Context) {
	var req ingestSpansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed span batch: " + err.Error()})
		return
	}
	if len(req.Spans) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch contains no spans"})
		return
	}

	s.store.AddSpans(req.Spans)
	s.hub.Broadcast(gin.H{
		"type":      "spans",
		"spans":     req.Spans,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})

	c.JSON(http.StatusAccepted, gin.H{"accepted": len(req.Spans)})
}

func (s *Server) handleRecentSpans(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	recent := s.store.RecentSpans(limit)
	c.JSON(http.StatusOK, gin.H{
		"spans": recent,
		"count": len(recent),
	})
}

func (s *Server) countIngest(status string) {
	if s.metrics != nil {
		s.metrics.IngestRequests.WithLabelValues(status).Inc()
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
