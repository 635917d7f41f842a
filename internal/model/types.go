package model

// Category is the classification bucket assigned to an email
type Category string

// Email categories produced by the classifier
const (
	CategoryApplicationSubmitted Category = "application_submitted"
	CategoryApplicationUpdate    Category = "application_update"
	CategoryAssessment           Category = "assessment"
	CategoryRecruiterOutreach    Category = "recruiter_outreach"
	CategoryInterviewInvitation  Category = "interview_invitation"
	CategoryInterviewReminder    Category = "interview_reminder"
	CategoryOffer                Category = "offer"
	CategoryRejection            Category = "rejection"
	CategoryFollowup             Category = "followup"
	CategoryJobAlert             Category = "job_alert"
	CategoryNetworking           Category = "networking"
	CategoryNotJobRelated        Category = "not_job_related"
)

// IsValid reports whether c is one of the known categories
func (c Category) IsValid() bool {
	switch c {
	case CategoryApplicationSubmitted, CategoryApplicationUpdate, CategoryAssessment,
		CategoryRecruiterOutreach, CategoryInterviewInvitation, CategoryInterviewReminder,
		CategoryOffer, CategoryRejection, CategoryFollowup, CategoryJobAlert,
		CategoryNetworking, CategoryNotJobRelated:
		return true
	}
	return false
}

// ApplicationStatus is the lifecycle state of a job application
type ApplicationStatus string

// Application statuses
const (
	StatusNotStarted    ApplicationStatus = "not_started"
	StatusApplied       ApplicationStatus = "applied"
	StatusInterviewing  ApplicationStatus = "interviewing"
	StatusOfferReceived ApplicationStatus = "offer_received"
	StatusRejected      ApplicationStatus = "rejected"
	StatusAccepted      ApplicationStatus = "accepted"
)

// IsTerminal reports whether the status is an end state that must never be
// downgraded by thread enrichment
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Priority is the handling tier assigned by the label engine
type Priority string

// Priority tiers
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Strategy identifies which job-linking heuristic produced a match
type Strategy string

// Job-linking strategies, in the order they are attempted
const (
	StrategyExactCompanyPosition Strategy = "exactCompanyPosition"
	StrategyDomainMatch          Strategy = "domainMatch"
	StrategyThreadHistory        Strategy = "threadHistory"
	StrategyTimeProximity        Strategy = "timeProximity"
)

// ClassificationResult is the classifier's verdict for a single email.
// Confidence is self-reported by the model and not externally calibrated.
type ClassificationResult struct {
	IsJobRelated bool     `json:"isJobRelated"`
	Category     Category `json:"category"`
	Confidence   float64  `json:"confidence"`
	Reasoning    string   `json:"reasoning"`
}

// ExtractedDates holds normalized ISO-8601 date strings pulled from an email
type ExtractedDates struct {
	Interview *string `json:"interview"`
	Deadline  *string `json:"deadline"`
	Followup  *string `json:"followup"`
}

// RecruiterContact holds contact details extracted from an email
type RecruiterContact struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Title *string `json:"title"`
}

// JobMetadata holds secondary job facts extracted from an email
type JobMetadata struct {
	Salary       *string  `json:"salary"`
	Location     *string  `json:"location"`
	Requirements []string `json:"requirements"`
}

// ExtractedJobData is the structured output of the extractor. Every field is
// optional; nil means unknown, never "empty". Lists are empty when unknown so
// downstream merges stay total.
type ExtractedJobData struct {
	Company           *string            `json:"company"`
	Position          *string            `json:"position"`
	ApplicationStatus *ApplicationStatus `json:"applicationStatus"`
	Dates             ExtractedDates     `json:"dates"`
	Recruiter         RecruiterContact   `json:"recruiter"`
	Metadata          JobMetadata        `json:"metadata"`
	NextAction        *string            `json:"nextAction"`
	Keywords          []string           `json:"keywords"`
}

// Participants splits a thread's addresses into the account owner's own
// addresses and everyone else
type Participants struct {
	Internal []string `json:"internal"`
	External []string `json:"external"`
}

// ThreadSummary is a computed rollup of a conversation. It is a view over
// the thread's stored emails and is never persisted on its own.
type ThreadSummary struct {
	ThreadID           string       `json:"threadId"`
	MessageCount       int          `json:"messageCount"`
	Participants       Participants `json:"participants"`
	RequiresAction     bool         `json:"requiresAction"`
	LastSenderExternal bool         `json:"lastSenderExternal"`
	Summary            string       `json:"summary"`
	Highlights         []string     `json:"highlights"`
	PrimaryCompany     string       `json:"primaryCompany,omitempty"`
}

// EmailAnnotation is the label engine's output for one email
type EmailAnnotation struct {
	Labels         []string `json:"labels"`
	Priority       Priority `json:"priority"`
	RequiresAction bool     `json:"requiresAction"`
	TimeSensitive  bool     `json:"timeSensitive"`
}

// MatchResult is one job-linking attempt's outcome. Only the accepted result
// is persisted, onto the email's job_id and extracted_details.
type MatchResult struct {
	JobID      uint                   `json:"jobId"`
	Confidence float64                `json:"confidence"`
	Strategy   Strategy               `json:"strategy"`
	Details    map[string]interface{} `json:"details"`
}
