package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"jobmail-intel/internal/labels"
	"jobmail-intel/internal/metrics"
	"jobmail-intel/internal/model"
	"jobmail-intel/internal/thread"
)

// Degraded step names reported on a ProcessResult
const (
	DegradedThreadAnalysis  = "thread_analysis"
	DegradedJobStatusUpdate = "job_status_update"
)

// EmailStore is the orchestrator's view of the email store
type EmailStore interface {
	GetByID(ctx context.Context, id string) (*model.Email, error)
	ListThreadEmails(ctx context.Context, threadID string) ([]model.Email, error)
	SaveProcessingResult(ctx context.Context, id string, updates map[string]interface{}) error
}

// Classifier labels one email
type Classifier interface {
	Classify(ctx context.Context, email *model.Email) (*model.ClassificationResult, error)
}

// Extractor pulls structured data from a job-related email
type Extractor interface {
	Extract(ctx context.Context, email *model.Email) (*model.ExtractedJobData, error)
}

// ThreadAnalyzer computes a thread rollup
type ThreadAnalyzer interface {
	AnalyzeThread(ctx context.Context, threadID, currentEmailID string) (*model.ThreadSummary, error)
}

// JobLinker matches an email to a job record and pushes status transitions
type JobLinker interface {
	LinkEmail(ctx context.Context, email *model.Email, extracted *model.ExtractedJobData) *model.MatchResult
	UpdateJobStatusFromEmail(ctx context.Context, jobID uint, category model.Category, extracted *model.ExtractedJobData, emailTime time.Time) (bool, error)
}

// ProcessResult is the outcome of one email's pipeline run. Degraded lists
// steps that failed non-fatally; the run itself still counts as a success.
type ProcessResult struct {
	EmailID        string                      `json:"emailId"`
	Classification *model.ClassificationResult `json:"classification"`
	Extracted      *model.ExtractedJobData     `json:"extracted,omitempty"`
	Annotation     model.EmailAnnotation       `json:"annotation"`
	ThreadSummary  *model.ThreadSummary        `json:"threadSummary,omitempty"`
	Match          *model.MatchResult          `json:"match,omitempty"`
	Degraded       []string                    `json:"degraded,omitempty"`
}

// ItemOutcome is one email's result inside a batch
type ItemOutcome struct {
	EmailID string
	Result  *ProcessResult
	Err     error
}

// Orchestrator coordinates the full pipeline for one email
type Orchestrator struct {
	emails     EmailStore
	classifier Classifier
	extractor  Extractor
	threads    ThreadAnalyzer
	linker     JobLinker
	metrics    *metrics.Metrics
	version    string
	batchWidth int
}

// NewOrchestrator creates a new orchestrator with injected components
func NewOrchestrator(emails EmailStore, classifier Classifier, extractor Extractor, threads ThreadAnalyzer, linker JobLinker, m *metrics.Metrics, version string, batchWidth int) *Orchestrator {
	if batchWidth <= 0 {
		batchWidth = 10
	}
	return &Orchestrator{
		emails:     emails,
		classifier: classifier,
		extractor:  extractor,
		threads:    threads,
		linker:     linker,
		metrics:    m,
		version:    version,
		batchWidth: batchWidth,
	}
}

// ProcessEmail runs the full pipeline for one email and persists the merged
// result as a single update. Re-running on an unmodified email recomputes
// and overwrites; it does not append. Thread analysis and job-status
// failures degrade the run instead of failing it.
func (o *Orchestrator) ProcessEmail(ctx context.Context, emailID string) (*ProcessResult, error) {
	started := time.Now()
	o.metrics.EmailsProcessed.Inc()
	defer func() {
		o.metrics.ProcessingTime.Observe(time.Since(started).Seconds())
	}()

	email, err := o.emails.GetByID(ctx, emailID)
	if err != nil {
		o.metrics.ProcessingErrors.Inc()
		return nil, err
	}

	cls, err := o.classifier.Classify(ctx, email)
	if err != nil {
		o.metrics.ProcessingErrors.Inc()
		return nil, fmt.Errorf("failed to classify email %s: %w", emailID, err)
	}

	result := &ProcessResult{EmailID: emailID, Classification: cls}

	var extracted *model.ExtractedJobData
	if cls.IsJobRelated {
		o.metrics.JobRelatedEmails.Inc()
		extracted, err = o.extractor.Extract(ctx, email)
		if err != nil {
			o.metrics.ProcessingErrors.Inc()
			return nil, fmt.Errorf("failed to extract from email %s: %w", emailID, err)
		}
	}

	annotation := labels.Derive(email.Subject+" "+email.Body, cls, extracted)

	var summary *model.ThreadSummary
	threadPosition := 0
	isThreadRoot := false
	if email.ThreadID != "" {
		summary, err = o.threads.AnalyzeThread(ctx, email.ThreadID, email.ID)
		if err != nil {
			logrus.Warnf("Thread analysis failed for email %s: %v", emailID, err)
			o.metrics.DegradedSteps.WithLabelValues(DegradedThreadAnalysis).Inc()
			result.Degraded = append(result.Degraded, DegradedThreadAnalysis)
			summary = nil
		} else {
			thread.Enrich(summary, extracted)
			threadPosition, isThreadRoot = o.threadPosition(ctx, email)
		}
	}
	result.ThreadSummary = summary

	var match *model.MatchResult
	if email.JobID == nil && cls.IsJobRelated && extracted != nil {
		match = o.linker.LinkEmail(ctx, email, extracted)
		if match != nil {
			o.metrics.LinksAccepted.WithLabelValues(string(match.Strategy)).Inc()
			updated, err := o.linker.UpdateJobStatusFromEmail(ctx, match.JobID, cls.Category, extracted, email.ReceivedAt)
			if err != nil {
				logrus.Warnf("Job status update failed for email %s: %v", emailID, err)
				o.metrics.DegradedSteps.WithLabelValues(DegradedJobStatusUpdate).Inc()
				result.Degraded = append(result.Degraded, DegradedJobStatusUpdate)
			} else if updated {
				o.metrics.JobStatusUpdates.Inc()
			}
		}
	}
	result.Extracted = extracted
	result.Match = match
	result.Annotation = annotation

	updates := o.buildUpdate(email, cls, extracted, annotation, summary, match, threadPosition, isThreadRoot)
	if err := o.emails.SaveProcessingResult(ctx, emailID, updates); err != nil {
		o.metrics.ProcessingErrors.Inc()
		return nil, err
	}

	logrus.Infof("Processed email %s: category=%s jobRelated=%t linked=%t",
		emailID, cls.Category, cls.IsJobRelated, match != nil)
	return result, nil
}

// threadPosition computes the email's 1-based position in its thread
func (o *Orchestrator) threadPosition(ctx context.Context, email *model.Email) (int, bool) {
	siblings, err := o.emails.ListThreadEmails(ctx, email.ThreadID)
	if err != nil {
		return 0, false
	}
	for i, sibling := range siblings {
		if sibling.ID == email.ID {
			return i + 1, i == 0
		}
	}
	return 0, false
}

// buildUpdate assembles the single persisted update covering classification,
// extraction, labels, thread context, and linking metadata
func (o *Orchestrator) buildUpdate(email *model.Email, cls *model.ClassificationResult, extracted *model.ExtractedJobData, annotation model.EmailAnnotation, summary *model.ThreadSummary, match *model.MatchResult, threadPosition int, isThreadRoot bool) map[string]interface{} {
	details := model.ExtractedDetails{
		Keywords: []string{},
		Metadata: model.JobMetadata{Requirements: []string{}},
		Enhanced: &annotation,
	}

	company := ""
	position := ""
	var actionDeadline *time.Time
	actionItems := model.StringList{}

	if extracted != nil {
		details.ApplicationStatus = extracted.ApplicationStatus
		details.Dates = extracted.Dates
		details.Recruiter = extracted.Recruiter
		details.Metadata = extracted.Metadata
		details.NextAction = extracted.NextAction
		details.Keywords = extracted.Keywords

		if extracted.Company != nil {
			company = *extracted.Company
		}
		if extracted.Position != nil {
			position = *extracted.Position
		}
		if extracted.NextAction != nil {
			actionItems = append(actionItems, *extracted.NextAction)
		}
		actionDeadline = parseISODate(extracted.Dates.Deadline)
	}

	threadSummaryLine := ""
	extractedEvents := model.StringList{}
	requiresAction := annotation.RequiresAction
	if summary != nil {
		threadSummaryLine = summary.Summary
		extractedEvents = append(extractedEvents, summary.Highlights...)
		requiresAction = requiresAction || summary.RequiresAction
		details.ThreadContext = &model.ThreadContext{
			MessageCount:   summary.MessageCount,
			PrimaryCompany: summary.PrimaryCompany,
			RequiresAction: summary.RequiresAction,
			Highlights:     summary.Highlights,
		}
	}

	updates := map[string]interface{}{
		"is_job_related":            cls.IsJobRelated,
		"email_type":                string(cls.Category),
		"job_confidence":            cls.Confidence,
		"classification_confidence": cls.Confidence,
		"company":                   company,
		"position":                  position,
		"sender_name":               email.SenderName,
		"sender_email":              email.SenderEmail,
		"summary":                   summaryLine(cls, company),
		"preview":                   preview(email.Body),
		"thread_summary":            threadSummaryLine,
		"thread_position":           threadPosition,
		"is_thread_root":            isThreadRoot,
		"ai_processed":              true,
		"processing_version":        o.version,
		"requires_action":           requiresAction,
		"action_deadline":           actionDeadline,
		"labels":                    model.StringList(annotation.Labels),
		"action_items":              actionItems,
		"extracted_events":          extractedEvents,
	}

	if match != nil {
		updates["job_id"] = match.JobID
		confidence := match.Confidence
		strategy := match.Strategy
		details.JobLinkConfidence = &confidence
		details.JobLinkStrategy = &strategy
	} else if email.JobID != nil {
		// Linking was skipped for an already-linked email; the metadata from
		// the original link must survive the rebuilt blob
		details.JobLinkConfidence = email.ExtractedDetails.JobLinkConfidence
		details.JobLinkStrategy = email.ExtractedDetails.JobLinkStrategy
	}

	updates["extracted_details"] = details
	return updates
}

// summaryLine builds the one-line email summary column
func summaryLine(cls *model.ClassificationResult, company string) string {
	label := strings.ReplaceAll(string(cls.Category), "_", " ")
	if company != "" {
		return fmt.Sprintf("%s from %s", label, company)
	}
	return label
}

// preview returns the first part of the body for list views, cut on a rune
// boundary so the column never holds invalid UTF-8
func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if len(body) <= 200 {
		return body
	}
	cut := 200
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

// parseISODate parses a normalized ISO date or date-time string
func parseISODate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t
		}
	}
	return nil
}

// ProcessBatch processes up to len(ids) emails with bounded parallelism:
// chunks of batchWidth run concurrently, and the next chunk starts only
// after the previous one fully settles. Emails are independent; there is no
// ordering guarantee inside a chunk.
func (o *Orchestrator) ProcessBatch(ctx context.Context, ids []string) []ItemOutcome {
	outcomes := make([]ItemOutcome, len(ids))

	for start := 0; start < len(ids); start += o.batchWidth {
		end := start + o.batchWidth
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result, err := o.ProcessEmail(ctx, ids[i])
				outcomes[i] = ItemOutcome{EmailID: ids[i], Result: result, Err: err}
				if err != nil {
					logrus.Errorf("Failed to process email %s: %v", ids[i], err)
				}
			}(i)
		}
		wg.Wait()
	}

	return outcomes
}
