package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agenthands/sentinel/internal/metrics"
	"github.com/agenthands/sentinel/internal/model"
	"github.com/agenthands/sentinel/internal/pipeline"
	"github.com/agenthands/sentinel/internal/queue"
	"github.com/agenthands/sentinel/internal/store"
)

type Processor interface {
	Process(ctx context.Context, post model.RawPost) (pipeline.Outcome, error)
}

type EventReader interface {
	Get(ctx context.Context, id string) (*model.DisasterEvent, error)
}

type Server struct {
	Pipeline      Processor
	Events        EventReader
	Normal        queue.Queue // nil disables POST /v1/queue
	High          queue.Queue
	Metrics       *metrics.Metrics
	MaxTextLength int
	Logger        zerolog.Logger
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.Health)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	v1 := r.Group("/v1")
	v1.POST("/posts", s.SubmitPost)
	v1.POST("/queue", s.EnqueuePost)
	v1.GET("/events/:id", s.GetEvent)

	return r
}

type PostRequest struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Source     string            `json:"source"`
	Author     string            `json:"author"`
	Timestamp  *time.Time        `json:"timestamp"`
	URL        string            `json:"url"`
	Location   *model.Location   `json:"location"`
	Hashtags   []string          `json:"hashtags"`
	Engagement *model.Engagement `json:"engagement"`
	Priority   string            `json:"priority"` // queue only: "high" or empty
}

// RawPost fills the defaults for fields the caller left out.
func (r PostRequest) RawPost() model.RawPost {
	post := model.RawPost{
		ID:         r.ID,
		Platform:   r.Source,
		Text:       r.Text,
		Author:     r.Author,
		URL:        r.URL,
		Location:   r.Location,
		Hashtags:   r.Hashtags,
		Engagement: r.Engagement,
	}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Platform == "" {
		post.Platform = "api"
	}
	if post.Author == "" {
		post.Author = "anonymous"
	}
	if r.Timestamp != nil {
		post.CreatedAt = r.Timestamp.UTC()
	} else {
		post.CreatedAt = time.Now().UTC()
	}
	return post
}

// bind decodes and validates the body, answering 400 itself on failure.
func (s *Server) bind(c *gin.Context) (PostRequest, model.RawPost, bool) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return req, model.RawPost{}, false
	}
	post := req.RawPost()
	if err := pipeline.Validate(post, s.MaxTextLength); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, model.RawPost{}, false
	}
	return req, post, true
}

func (s *Server) SubmitPost(c *gin.Context) {
	start := time.Now()
	defer s.Metrics.Observe("http", start)

	_, post, ok := s.bind(c)
	if !ok {
		return
	}

	out, err := s.Pipeline.Process(c.Request.Context(), post)
	if err != nil {
		s.Logger.Error().Err(err).Str("post_id", post.ID).Msg("failed to process post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process post"})
		return
	}

	switch out.Status {
	case pipeline.StatusDuplicate:
		c.JSON(http.StatusOK, gin.H{"status": out.Status, "message": "duplicate skipped"})
	case pipeline.StatusNotDisaster:
		reasoning := ""
		if out.Classification != nil {
			reasoning = out.Classification.Reasoning
		}
		c.JSON(http.StatusOK, gin.H{"status": out.Status, "message": "not disaster-related", "reasoning": reasoning})
	default:
		c.JSON(http.StatusCreated, gin.H{
			"status":   out.Status,
			"eventId":  out.Event.ID,
			"verified": out.Event.Verified,
			"severity": out.Event.DisasterScore,
			"alerted":  out.Alerted,
		})
	}
}

func (s *Server) EnqueuePost(c *gin.Context) {
	if s.Normal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue not configured"})
		return
	}

	req, post, ok := s.bind(c)
	if !ok {
		return
	}

	q := s.Normal
	if strings.EqualFold(req.Priority, "high") && s.High != nil {
		q = s.High
	}

	body, err := json.Marshal(model.QueueEnvelope{Post: post, QueuedAt: time.Now().UTC()})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode post"})
		return
	}
	id, err := q.Send(c.Request.Context(), body, nil)
	if err != nil {
		s.Logger.Error().Err(err).Str("queue", q.Name()).Msg("failed to enqueue post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue post"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "messageId": id, "queue": q.Name()})
}

func (s *Server) GetEvent(c *gin.Context) {
	ev, err := s.Events.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		s.Logger.Error().Err(err).Msg("failed to load event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
