package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"jobmail-intel/internal/config"
	"jobmail-intel/internal/metrics"
	"jobmail-intel/internal/model"
	"jobmail-intel/internal/pipeline"
)

// Pipeline is the gateway's view of the orchestrator
type Pipeline interface {
	ProcessEmail(ctx context.Context, emailID string) (*pipeline.ProcessResult, error)
	ProcessBatch(ctx context.Context, ids []string) []pipeline.ItemOutcome
}

// EmailStore is the gateway's view of the email store
type EmailStore interface {
	ListUnprocessed(ctx context.Context, limit int) ([]model.Email, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Email, error)
}

// SchedulerControl exposes the mailbox sync scheduler to the API
type SchedulerControl interface {
	IsRunning() bool
	GetNextRun() time.Time
	GetLastRun() time.Time
	RunOnce() error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	pipeline  Pipeline
	emails    EmailStore
	scheduler SchedulerControl
	metrics   *metrics.Metrics
	cfg       *config.GatewayConfig
	limiter   *rateLimiter
}

// NewHandlers creates new HTTP handlers
func NewHandlers(p Pipeline, emails EmailStore, scheduler SchedulerControl, m *metrics.Metrics, cfg *config.GatewayConfig) *Handlers {
	return &Handlers{
		pipeline:  p,
		emails:    emails,
		scheduler: scheduler,
		metrics:   m,
		cfg:       cfg,
		limiter:   newRateLimiter(cfg.RateWindow),
	}
}

// SetupRoutes sets up all HTTP routes. The pub/sub webhook routes carry no
// rate limit or secret check; redelivery handles their failures.
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/", h.PubSubWebhook)
	router.POST("/pubsub", h.PubSubWebhook)

	router.POST("/sync", h.requireSecret(), h.rateLimit("sync", h.cfg.SyncLimit), h.Sync)
	router.POST("/process-batch", h.requireSecret(), h.rateLimit("batch", h.cfg.BatchLimit), h.ProcessBatch)
	router.POST("/status", h.requireSecret(), h.rateLimit("status", h.cfg.StatusLimit), h.Status)

	router.GET("/scheduler/status", h.SchedulerStatus)
	router.POST("/scheduler/run-once", h.requireSecret(), h.SchedulerRunOnce)
}

// requireSecret rejects requests missing the shared secret header when one
// is configured
func (h *Handlers) requireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.SharedSecret != "" && c.GetHeader("X-Gateway-Secret") != h.cfg.SharedSecret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "Missing or invalid gateway secret",
				Code:    http.StatusUnauthorized,
			})
		}
	}
}

// rateLimit applies the fixed-window limiter for one route, keyed by caller
// identity
func (h *Handlers) rateLimit(route string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetHeader("X-Gateway-Client")
		if caller == "" {
			caller = c.ClientIP()
		}
		if !h.limiter.Allow(route+"|"+caller, limit) {
			h.metrics.RateLimitedCalls.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate_limited",
				Message: "Too many requests, retry later",
				Code:    http.StatusTooManyRequests,
			})
		}
	}
}

// Health handles health check requests
func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// PubSubWebhook handles a pub/sub push delivery carrying one email id
func (h *Handlers) PubSubWebhook(c *gin.Context) {
	var req PubSubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid pub/sub envelope",
			Code:    http.StatusBadRequest,
		})
		return
	}

	payload, err := decodePubSubData(req.Message.Data)
	if err != nil || payload.GmailID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Pub/sub data is not a valid email notification",
			Code:    http.StatusBadRequest,
		})
		return
	}

	result, err := h.pipeline.ProcessEmail(c.Request.Context(), payload.GmailID)
	if err != nil {
		logrus.Errorf("Webhook processing failed for email %s: %v", payload.GmailID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "processing_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// decodePubSubData unwraps the base64 JSON payload of a push message
func decodePubSubData(data string) (*PubSubPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(data)
		if err != nil {
			return nil, err
		}
	}

	var payload PubSubPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Sync processes a named set of emails or the unprocessed backlog. Exactly
// one of emailIds and syncAll must be given.
func (h *Handlers) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if req.SyncAll == (len(req.EmailIDs) > 0) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Exactly one of emailIds and syncAll is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	ids := req.EmailIDs
	if req.SyncAll {
		limit := req.Limit
		if limit <= 0 || limit > 50 {
			limit = 50
		}
		unprocessed, err := h.emails.ListUnprocessed(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "database_error",
				Message: "Failed to list unprocessed emails",
				Code:    http.StatusInternalServerError,
			})
			return
		}
		ids = make([]string, 0, len(unprocessed))
		for _, email := range unprocessed {
			ids = append(ids, email.ID)
		}
	}

	runID := uuid.NewString()
	logrus.Infof("Sync %s: processing %d emails", runID, len(ids))

	outcomes := h.pipeline.ProcessBatch(c.Request.Context(), ids)

	response := SyncResponse{Errors: []SyncError{}}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			response.Failed++
			response.Errors = append(response.Errors, SyncError{
				EmailID: outcome.EmailID,
				Error:   outcome.Err.Error(),
			})
			continue
		}
		response.Processed++
	}

	c.JSON(http.StatusOK, response)
}

// ProcessBatch processes an explicit list of email ids and reports a per-id
// outcome list
func (h *Handlers) ProcessBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.EmailIDs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "emailIds is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if len(req.EmailIDs) > 50 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "At most 50 emailIds per request",
			Code:    http.StatusBadRequest,
		})
		return
	}

	outcomes := h.pipeline.ProcessBatch(c.Request.Context(), req.EmailIDs)

	items := make([]BatchItemResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		item := BatchItemResponse{GmailID: outcome.EmailID, Success: outcome.Err == nil}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		} else {
			item.Data = outcome.Result
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"results": items})
}

// Status returns the processing state per email id, synthesizing a default
// unprocessed entry for ids the store has never seen
func (h *Handlers) Status(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.EmailIDs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "emailIds is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	emails, err := h.emails.GetByIDs(c.Request.Context(), req.EmailIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch email statuses",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	statuses := make(map[string]EmailStatus, len(req.EmailIDs))
	for _, id := range req.EmailIDs {
		statuses[id] = EmailStatus{}
	}
	for _, email := range emails {
		statuses[email.ID] = EmailStatus{
			Exists:            true,
			Processed:         email.AIProcessed,
			IsJobRelated:      email.IsJobRelated,
			EmailType:         email.EmailType,
			Company:           email.Company,
			JobID:             email.JobID,
			ProcessingVersion: email.ProcessingVersion,
		}
	}

	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// SchedulerStatus returns the mailbox sync scheduler state
func (h *Handlers) SchedulerStatus(c *gin.Context) {
	status := "stopped"
	if h.scheduler != nil && h.scheduler.IsRunning() {
		status = "running"
	}

	response := gin.H{"status": status}
	if status == "running" {
		response["next_run"] = h.scheduler.GetNextRun()
		response["last_run"] = h.scheduler.GetLastRun()
	}

	c.JSON(http.StatusOK, response)
}

// SchedulerRunOnce triggers one mailbox sync cycle
func (h *Handlers) SchedulerRunOnce(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "scheduler_disabled",
			Message: "Mailbox sync scheduler is not enabled",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}

	if err := h.scheduler.RunOnce(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to run mailbox sync",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mailbox sync completed"})
}
