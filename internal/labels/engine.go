package labels

import (
	"sort"
	"strings"

	"jobmail-intel/internal/model"
)

// rule is one row of the category rule table
type rule struct {
	priority       model.Priority
	labels         []string
	requiresAction bool
	timeSensitive  bool
}

var rules = map[model.Category]rule{
	model.CategoryOffer: {
		priority:       model.PriorityCritical,
		labels:         []string{"offer", "response_required", "urgent"},
		requiresAction: true,
		timeSensitive:  true,
	},
	model.CategoryInterviewInvitation: {
		priority:       model.PriorityHigh,
		labels:         []string{"interview", "response_required", "schedule_needed"},
		requiresAction: true,
	},
	model.CategoryInterviewReminder: {
		priority:      model.PriorityHigh,
		labels:        []string{"interview", "reminder"},
		timeSensitive: true,
	},
	model.CategoryAssessment: {
		priority:       model.PriorityHigh,
		labels:         []string{"assessment", "action_required"},
		requiresAction: true,
	},
	model.CategoryRecruiterOutreach: {
		priority:       model.PriorityMedium,
		labels:         []string{"recruiter", "response_required"},
		requiresAction: true,
	},
	model.CategoryApplicationSubmitted: {
		priority: model.PriorityMedium,
		labels:   []string{"application", "confirmation"},
	},
	model.CategoryApplicationUpdate: {
		priority: model.PriorityMedium,
		labels:   []string{"application", "status_update"},
	},
	model.CategoryRejection: {
		priority: model.PriorityLow,
		labels:   []string{"rejection", "negative_news", "automated"},
	},
	model.CategoryFollowup: {
		priority: model.PriorityMedium,
		labels:   []string{"followup"},
	},
	model.CategoryJobAlert: {
		priority: model.PriorityLow,
		labels:   []string{"job_alert", "automated"},
	},
	model.CategoryNetworking: {
		priority: model.PriorityMedium,
		labels:   []string{"networking"},
	},
	model.CategoryNotJobRelated: {
		priority: model.PriorityLow,
		labels:   []string{"automated"},
	},
}

var urgencyPhrases = []string{"urgent", "asap", "as soon as possible", "by end of day"}

// Derive is a pure mapping from classification + extraction to labels and a
// priority tier. No external calls, no learning.
func Derive(emailText string, cls *model.ClassificationResult, extracted *model.ExtractedJobData) model.EmailAnnotation {
	r, ok := rules[cls.Category]
	if !ok {
		r = rules[model.CategoryNotJobRelated]
	}

	annotation := model.EmailAnnotation{
		Priority:       r.priority,
		RequiresAction: r.requiresAction,
		TimeSensitive:  r.timeSensitive,
	}

	set := make(map[string]bool, len(r.labels))
	for _, label := range r.labels {
		set[label] = true
	}

	if extracted != nil {
		if extracted.Dates.Deadline != nil {
			set["deadline"] = true
			annotation.TimeSensitive = true
			annotation.Priority = bump(annotation.Priority)
		}
		if extracted.Dates.Interview != nil {
			set["interview_scheduled"] = true
			annotation.TimeSensitive = true
			annotation.Priority = bump(annotation.Priority)
		}
	}

	lower := strings.ToLower(emailText)
	for _, phrase := range urgencyPhrases {
		if strings.Contains(lower, phrase) {
			set["urgent"] = true
			annotation.TimeSensitive = true
			break
		}
	}

	annotation.Labels = make([]string, 0, len(set))
	for label := range set {
		annotation.Labels = append(annotation.Labels, label)
	}
	sort.Strings(annotation.Labels)

	return annotation
}

// bump raises a priority by one tier
func bump(p model.Priority) model.Priority {
	switch p {
	case model.PriorityLow:
		return model.PriorityMedium
	case model.PriorityMedium:
		return model.PriorityHigh
	default:
		return model.PriorityCritical
	}
}
