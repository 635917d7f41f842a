package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"jobmail-intel/internal/llm"
	"jobmail-intel/internal/model"
)

// bodyLimit is how much of the body the classifier gets to see
const bodyLimit = 800

const systemPrompt = `You are an email classifier for a personal job search assistant.

An email is job-related ONLY if it is personally addressed to the user and
requires or invites personal action tied to a specific job application or
opportunity. Generic job alerts, newsletters, social notifications, and
automated account emails (password resets, receipts, digests) are NEVER
job-related.

Classify the email into exactly one category:
- application_submitted: confirmation that an application was received
- application_update: status change on an existing application
- assessment: online test, coding challenge, or take-home assignment
- recruiter_outreach: a recruiter reaching out about an opportunity
- interview_invitation: invitation to schedule or attend an interview
- interview_reminder: reminder of an already scheduled interview
- offer: a job offer or offer discussion
- rejection: application declined
- followup: follow-up on a previous conversation
- job_alert: automated job listing digest (not job-related)
- networking: professional networking without a specific application
- not_job_related: everything else

Respond with ONLY a JSON object, no other text:
{"isJobRelated": bool, "category": string, "confidence": number between 0 and 1, "reasoning": string}`

// Classifier labels emails as job-related or not using the LLM
type Classifier struct {
	llm llm.Client
}

// NewClassifier creates a new classifier
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{llm: client}
}

// Classify produces a ClassificationResult for one email. A model response
// that is not valid JSON is a hard error; no partial result is returned.
func (c *Classifier) Classify(ctx context.Context, email *model.Email) (*model.ClassificationResult, error) {
	body := email.Body
	if len(body) > bodyLimit {
		body = body[:bodyLimit]
	}

	user := fmt.Sprintf("Subject: %s\nFrom: %s <%s>\n\n%s",
		email.Subject, email.SenderName, email.SenderEmail, body)

	raw, err := c.llm.Complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	var result model.ClassificationResult
	if err := json.Unmarshal([]byte(llm.StripCodeFences(raw)), &result); err != nil {
		return nil, fmt.Errorf("classification response is not valid JSON: %w", err)
	}

	if !result.Category.IsValid() {
		return nil, fmt.Errorf("classification returned unknown category %q", result.Category)
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	} else if result.Confidence > 1 {
		result.Confidence = 1
	}

	return &result, nil
}
