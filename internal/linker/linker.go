package linker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"jobmail-intel/internal/extractor"
	"jobmail-intel/internal/model"
)

// minConfidence is the floor below which no match is ever accepted
const minConfidence = 0.75

// JobStore is the linker's view of the job application store
type JobStore interface {
	// SearchCandidates returns jobs whose company or title contains the
	// given strings, most recent first, up to limit
	SearchCandidates(ctx context.Context, company, position string, limit int) ([]model.JobApplication, error)
	// FindByDomain returns jobs whose company or URL matches an email
	// domain, most recent first
	FindByDomain(ctx context.Context, domain string) ([]model.JobApplication, error)
	// FindAtCompanyCreatedBetween returns jobs at a company created inside
	// a time window
	FindAtCompanyCreatedBetween(ctx context.Context, company string, from, to time.Time) ([]model.JobApplication, error)
	// UpdateStatusIfNewer sets a job's status only when emailTime is
	// strictly newer than the job's last update, and reports whether the
	// update happened
	UpdateStatusIfNewer(ctx context.Context, id uint, status string, emailTime time.Time) (bool, error)
}

// ThreadLinkStore exposes job links already made on other emails in a thread
type ThreadLinkStore interface {
	LinkedJobCounts(ctx context.Context, threadID, excludeEmailID string) (map[uint]int, error)
}

// Linker matches emails to existing job application records
type Linker struct {
	jobs   JobStore
	emails ThreadLinkStore
}

// NewLinker creates a new job linker
func NewLinker(jobs JobStore, emails ThreadLinkStore) *Linker {
	return &Linker{jobs: jobs, emails: emails}
}

// LinkEmail tries the four matching strategies in fixed order and returns
// the first result clearing the confidence floor. Strategy order is a design
// choice: a later strategy is never consulted once an earlier one qualifies,
// even if it might score higher. A strategy failure is logged and the next
// strategy still runs; no match at all returns nil, which is a normal
// outcome.
func (l *Linker) LinkEmail(ctx context.Context, email *model.Email, extracted *model.ExtractedJobData) *model.MatchResult {
	strategies := []struct {
		name model.Strategy
		fn   func(context.Context, *model.Email, *model.ExtractedJobData) (*model.MatchResult, error)
	}{
		{model.StrategyExactCompanyPosition, l.matchExactCompanyPosition},
		{model.StrategyDomainMatch, l.matchDomain},
		{model.StrategyThreadHistory, l.matchThreadHistory},
		{model.StrategyTimeProximity, l.matchTimeProximity},
	}

	for _, strategy := range strategies {
		result, err := strategy.fn(ctx, email, extracted)
		if err != nil {
			logrus.Warnf("Job linking strategy %s failed for email %s: %v", strategy.name, email.ID, err)
			continue
		}
		if result != nil && result.Confidence >= minConfidence {
			logrus.Infof("Email %s linked to job %d via %s (confidence %.2f)",
				email.ID, result.JobID, result.Strategy, result.Confidence)
			return result
		}
	}

	return nil
}

// matchExactCompanyPosition fuzzy-matches extracted company+position against
// stored jobs, averaging the two similarities
func (l *Linker) matchExactCompanyPosition(ctx context.Context, email *model.Email, extracted *model.ExtractedJobData) (*model.MatchResult, error) {
	if extracted == nil || extracted.Company == nil || extracted.Position == nil {
		return nil, nil
	}
	company := *extracted.Company
	position := *extracted.Position

	candidates, err := l.jobs.SearchCandidates(ctx, company, position, 5)
	if err != nil {
		return nil, err
	}

	var best *model.MatchResult
	for _, job := range candidates {
		companySim := jaccardSimilarity(company, job.Company)
		titleSim := jaccardSimilarity(position, job.Title)
		score := (companySim + titleSim) / 2
		if score < 0.8 {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &model.MatchResult{
				JobID:      job.ID,
				Confidence: score,
				Strategy:   model.StrategyExactCompanyPosition,
				Details: map[string]interface{}{
					"companySimilarity": companySim,
					"titleSimilarity":   titleSim,
				},
			}
		}
	}
	return best, nil
}

// matchDomain links through the sender's corporate email domain
func (l *Linker) matchDomain(ctx context.Context, email *model.Email, extracted *model.ExtractedJobData) (*model.MatchResult, error) {
	domain := extractor.DomainOf(email.SenderEmail)
	if domain == "" || extractor.IsFreeMailDomain(domain) {
		return nil, nil
	}

	jobs, err := l.jobs.FindByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	if extracted != nil && extracted.Position != nil {
		for _, job := range jobs {
			titleSim := jaccardSimilarity(*extracted.Position, job.Title)
			if titleSim > 0.6 {
				return &model.MatchResult{
					JobID:      job.ID,
					Confidence: 0.85,
					Strategy:   model.StrategyDomainMatch,
					Details: map[string]interface{}{
						"domain":          domain,
						"titleSimilarity": titleSim,
					},
				}, nil
			}
		}
	}

	// Fall back to the most recent job at that domain
	return &model.MatchResult{
		JobID:      jobs[0].ID,
		Confidence: 0.7,
		Strategy:   model.StrategyDomainMatch,
		Details:    map[string]interface{}{"domain": domain},
	}, nil
}

// matchThreadHistory reuses links already made on sibling emails in the
// same thread
func (l *Linker) matchThreadHistory(ctx context.Context, email *model.Email, extracted *model.ExtractedJobData) (*model.MatchResult, error) {
	if email.ThreadID == "" {
		return nil, nil
	}

	counts, err := l.emails.LinkedJobCounts(ctx, email.ThreadID, email.ID)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, nil
	}

	var bestID uint
	bestCount := 0
	for jobID, count := range counts {
		if count > bestCount || (count == bestCount && jobID < bestID) {
			bestID = jobID
			bestCount = count
		}
	}

	confidence := 0.7 + 0.1*float64(bestCount)
	if confidence > 0.9 {
		confidence = 0.9
	}

	return &model.MatchResult{
		JobID:      bestID,
		Confidence: confidence,
		Strategy:   model.StrategyThreadHistory,
		Details:    map[string]interface{}{"linkedSiblings": bestCount},
	}, nil
}

// matchTimeProximity scores jobs at the same company by how close their
// creation time is to the email
func (l *Linker) matchTimeProximity(ctx context.Context, email *model.Email, extracted *model.ExtractedJobData) (*model.MatchResult, error) {
	if extracted == nil || extracted.Company == nil {
		return nil, nil
	}

	from := email.ReceivedAt.AddDate(0, 0, -30)
	to := email.ReceivedAt.AddDate(0, 0, 3)
	jobs, err := l.jobs.FindAtCompanyCreatedBetween(ctx, *extracted.Company, from, to)
	if err != nil {
		return nil, err
	}

	var best *model.MatchResult
	for _, job := range jobs {
		dayDist := email.ReceivedAt.Sub(job.CreatedAt).Hours() / 24
		base := 0.7
		if dayDist < 0 {
			// Email predates the application
			base = 0.5
			dayDist = -dayDist
		}
		if dayDist > 30 {
			dayDist = 30
		}
		confidence := base * (1 - 0.5*dayDist/30)

		if confidence < 0.6 {
			continue
		}
		if best == nil || confidence > best.Confidence {
			best = &model.MatchResult{
				JobID:      job.ID,
				Confidence: confidence,
				Strategy:   model.StrategyTimeProximity,
				Details: map[string]interface{}{
					"dayDistance": dayDist,
					"emailAfter":  base == 0.7,
				},
			}
		}
	}
	return best, nil
}

// statusVocabulary maps email-derived status hints onto job record statuses
var statusVocabulary = map[string]string{
	"interview_scheduled": "interview",
	"offer":               "offer",
	"rejected":            "rejected",
	"applied":             "applied",
}

// UpdateJobStatusFromEmail pushes a status transition onto a linked job, but
// only when the email is strictly newer than the job's last update
// (last-write-wins by email time, not processing time).
func (l *Linker) UpdateJobStatusFromEmail(ctx context.Context, jobID uint, category model.Category, extracted *model.ExtractedJobData, emailTime time.Time) (bool, error) {
	hint := statusHint(category, extracted)
	if hint == "" {
		return false, nil
	}

	status, ok := statusVocabulary[hint]
	if !ok {
		return false, nil
	}

	updated, err := l.jobs.UpdateStatusIfNewer(ctx, jobID, status, emailTime)
	if err != nil {
		return false, err
	}
	if updated {
		logrus.Infof("Job %d status set to %s from email", jobID, status)
	}
	return updated, nil
}

// statusHint derives the status vocabulary entry from the classification
// category, falling back to the extracted application status
func statusHint(category model.Category, extracted *model.ExtractedJobData) string {
	switch category {
	case model.CategoryInterviewInvitation:
		return "interview_scheduled"
	case model.CategoryOffer:
		return "offer"
	case model.CategoryRejection:
		return "rejected"
	case model.CategoryApplicationSubmitted:
		return "applied"
	}

	if extracted == nil || extracted.ApplicationStatus == nil {
		return ""
	}
	switch *extracted.ApplicationStatus {
	case model.StatusInterviewing:
		return "interview_scheduled"
	case model.StatusOfferReceived:
		return "offer"
	case model.StatusRejected:
		return "rejected"
	case model.StatusApplied:
		return "applied"
	}
	return ""
}
