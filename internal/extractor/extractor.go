package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jobmail-intel/internal/llm"
	"jobmail-intel/internal/model"
)

// bodyLimit is how much of the body the extractor gets to see
const bodyLimit = 1200

const systemPrompt = `You extract structured job application data from emails
for a personal job search assistant.

Rules for the company name, in priority order:
1. A company named in the signature block.
2. Phrasing such as "at <Company>", "from <Company>", or "the <Company> team".
3. Otherwise leave company null; do not guess from the email domain.
Strip corporate suffixes (Inc, LLC, Ltd, Corp, GmbH).

Convert all dates to ISO-8601 (YYYY-MM-DD, or full timestamp when a time of
day is given). Use null for any unknown field and [] for unknown lists; never
omit a key.

Respond with ONLY a JSON object, no other text:
{
  "company": string|null,
  "position": string|null,
  "applicationStatus": "not_started"|"applied"|"interviewing"|"offer_received"|"rejected"|"accepted"|null,
  "dates": {"interview": string|null, "deadline": string|null, "followup": string|null},
  "recruiter": {"name": string|null, "email": string|null, "phone": string|null, "title": string|null},
  "metadata": {"salary": string|null, "location": string|null, "requirements": [string]},
  "nextAction": string|null,
  "keywords": [string]
}`

// Extractor pulls structured job-application fields out of job-related emails
type Extractor struct {
	llm llm.Client
}

// NewExtractor creates a new extractor
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{llm: client}
}

// Extract produces ExtractedJobData for one job-related email. A model
// response that is not valid JSON is a hard error.
func (e *Extractor) Extract(ctx context.Context, email *model.Email) (*model.ExtractedJobData, error) {
	body := email.Body
	if len(body) > bodyLimit {
		body = body[:bodyLimit]
	}

	user := fmt.Sprintf("Subject: %s\nFrom: %s <%s>\n\n%s",
		email.Subject, email.SenderName, email.SenderEmail, body)

	raw, err := e.llm.Complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var data model.ExtractedJobData
	if err := json.Unmarshal([]byte(llm.StripCodeFences(raw)), &data); err != nil {
		return nil, fmt.Errorf("extraction response is not valid JSON: %w", err)
	}

	e.sanitize(&data, email)
	return &data, nil
}

// sanitize normalizes the model output and applies the company fallback
// chain (sender domain, then subject line)
func (e *Extractor) sanitize(data *model.ExtractedJobData, email *model.Email) {
	if data.Company != nil {
		company := NormalizeCompany(*data.Company)
		if company == "" {
			data.Company = nil
		} else {
			data.Company = &company
		}
	}
	if data.Company == nil {
		if company := CompanyFromDomain(email.SenderEmail); company != "" {
			data.Company = &company
		}
	}
	if data.Company == nil {
		if company := CompanyFromSubject(email.Subject); company != "" {
			data.Company = &company
		}
	}

	if data.Position != nil {
		position := strings.TrimSpace(*data.Position)
		if position == "" {
			data.Position = nil
		} else {
			data.Position = &position
		}
	}

	if data.ApplicationStatus != nil {
		switch *data.ApplicationStatus {
		case model.StatusNotStarted, model.StatusApplied, model.StatusInterviewing,
			model.StatusOfferReceived, model.StatusRejected, model.StatusAccepted:
		default:
			data.ApplicationStatus = nil
		}
	}

	data.Dates.Interview = normalizeDatePtr(data.Dates.Interview)
	data.Dates.Deadline = normalizeDatePtr(data.Dates.Deadline)
	data.Dates.Followup = normalizeDatePtr(data.Dates.Followup)

	if data.Metadata.Requirements == nil {
		data.Metadata.Requirements = []string{}
	}
	if data.Keywords == nil {
		data.Keywords = []string{}
	}
}

func normalizeDatePtr(s *string) *string {
	if s == nil {
		return nil
	}
	return NormalizeDate(*s)
}
