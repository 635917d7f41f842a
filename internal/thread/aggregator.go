package thread

import (
	"context"
	"fmt"
	"strings"

	"jobmail-intel/internal/extractor"
	"jobmail-intel/internal/model"
)

// Canonical highlight tags
const (
	HighlightInterviewScheduled = "Interview scheduled"
	HighlightOfferExtended      = "Offer extended"
	HighlightRejected           = "Application rejected"
	HighlightNextStage          = "Moving to next stage"
)

// actionPhrases trigger requiresAction when the latest external message
// contains one of them (case-insensitive substring match)
var actionPhrases = []string{
	"please respond",
	"please reply",
	"please confirm",
	"let me know",
	"let us know",
	"confirm",
	"your availability",
	"are you available",
	"would you be available",
	"get back to me",
	"get back to us",
	"thoughts?",
	"rsvp",
}

// highlightPatterns require two keyword classes to co-occur in a message,
// which keeps single stray words from producing event tags
var highlightPatterns = []struct {
	tag    string
	first  []string
	second []string
}{
	{
		tag:    HighlightInterviewScheduled,
		first:  []string{"interview"},
		second: []string{"scheduled", "schedule", "confirmed", "booked", "calendar"},
	},
	{
		tag:    HighlightOfferExtended,
		first:  []string{"offer"},
		second: []string{"extend", "pleased", "congratulations", "compensation", "accept"},
	},
	{
		tag:    HighlightRejected,
		first:  []string{"unfortunately", "regret"},
		second: []string{"application", "position", "candidacy", "other candidates"},
	},
	{
		tag:    HighlightNextStage,
		first:  []string{"next"},
		second: []string{"stage", "round", "step"},
	},
}

// EmailLoader loads a thread's stored emails ordered by receipt time
// ascending
type EmailLoader interface {
	ListThreadEmails(ctx context.Context, threadID string) ([]model.Email, error)
}

// Aggregator computes thread-level rollups from stored emails
type Aggregator struct {
	emails        EmailLoader
	selfAddresses map[string]bool
}

// NewAggregator creates a new thread aggregator. selfAddresses are the
// account owner's own addresses.
func NewAggregator(emails EmailLoader, selfAddresses []string) *Aggregator {
	self := make(map[string]bool, len(selfAddresses))
	for _, addr := range selfAddresses {
		self[strings.ToLower(strings.TrimSpace(addr))] = true
	}
	return &Aggregator{emails: emails, selfAddresses: self}
}

// AnalyzeThread computes the ThreadSummary for a thread. An empty thread
// yields a well-defined empty summary, not an error.
func (a *Aggregator) AnalyzeThread(ctx context.Context, threadID, currentEmailID string) (*model.ThreadSummary, error) {
	emails, err := a.emails.ListThreadEmails(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	summary := &model.ThreadSummary{
		ThreadID:   threadID,
		Highlights: []string{},
		Participants: model.Participants{
			Internal: []string{},
			External: []string{},
		},
	}

	if len(emails) == 0 {
		return summary, nil
	}

	summary.MessageCount = len(emails)
	a.collectParticipants(emails, summary)
	a.collectHighlights(emails, summary)

	last := emails[len(emails)-1]
	summary.LastSenderExternal = !a.isSelf(last.SenderEmail)
	summary.RequiresAction = summary.LastSenderExternal && containsActionPhrase(last.Body)

	summary.PrimaryCompany = primaryCompany(emails)
	summary.Summary = buildSummaryLine(emails, summary)

	return summary, nil
}

func (a *Aggregator) isSelf(addr string) bool {
	return a.selfAddresses[strings.ToLower(strings.TrimSpace(addr))]
}

// collectParticipants partitions every sender and recipient into internal vs
// external, deduplicated in first-occurrence order
func (a *Aggregator) collectParticipants(emails []model.Email, summary *model.ThreadSummary) {
	seen := make(map[string]bool)
	add := func(addr string) {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" || seen[addr] {
			return
		}
		seen[addr] = true
		if a.selfAddresses[addr] {
			summary.Participants.Internal = append(summary.Participants.Internal, addr)
		} else {
			summary.Participants.External = append(summary.Participants.External, addr)
		}
	}

	for _, email := range emails {
		add(email.SenderEmail)
		for _, recipient := range email.Recipients {
			add(recipient)
		}
	}
}

// collectHighlights unions pattern-matched event tags over all messages.
// The result is a set: a tag appears once no matter how many messages
// trigger it.
func (a *Aggregator) collectHighlights(emails []model.Email, summary *model.ThreadSummary) {
	tagged := make(map[string]bool)
	for _, email := range emails {
		text := strings.ToLower(email.Subject + " " + email.Body)
		for _, pattern := range highlightPatterns {
			if tagged[pattern.tag] {
				continue
			}
			if containsAny(text, pattern.first) && containsAny(text, pattern.second) {
				tagged[pattern.tag] = true
			}
		}
	}

	for _, pattern := range highlightPatterns {
		if tagged[pattern.tag] {
			summary.Highlights = append(summary.Highlights, pattern.tag)
		}
	}
}

func containsActionPhrase(body string) bool {
	return containsAny(strings.ToLower(body), actionPhrases)
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// primaryCompany picks the most frequent company across the thread: the
// email's extracted company column when present, otherwise the sender's
// non-free-mail domain. Ties break toward first occurrence.
func primaryCompany(emails []model.Email) string {
	counts := make(map[string]int)
	var order []string

	record := func(company string) {
		if company == "" {
			return
		}
		if counts[company] == 0 {
			order = append(order, company)
		}
		counts[company]++
	}

	for _, email := range emails {
		if email.Company != "" {
			record(email.Company)
			continue
		}
		record(extractor.CompanyFromDomain(email.SenderEmail))
	}

	best := ""
	for _, company := range order {
		if best == "" || counts[company] > counts[best] {
			best = company
		}
	}
	return best
}

// buildSummaryLine assembles the templated one-line thread summary. Not a
// generative summary.
func buildSummaryLine(emails []model.Email, summary *model.ThreadSummary) string {
	position := ""
	for i := len(emails) - 1; i >= 0; i-- {
		if emails[i].Position != "" {
			position = emails[i].Position
			break
		}
	}

	messages := "messages"
	if summary.MessageCount == 1 {
		messages = "message"
	}

	switch {
	case summary.PrimaryCompany != "" && position != "":
		return fmt.Sprintf("Conversation with %s about %s (%d %s)",
			summary.PrimaryCompany, position, summary.MessageCount, messages)
	case summary.PrimaryCompany != "":
		return fmt.Sprintf("Conversation with %s (%d %s)",
			summary.PrimaryCompany, summary.MessageCount, messages)
	default:
		return fmt.Sprintf("Conversation (%d %s)", summary.MessageCount, messages)
	}
}
