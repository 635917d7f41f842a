package thread

import "jobmail-intel/internal/model"

// Enrich backfills missing extracted fields from thread context and applies
// highlight-driven status upgrades. A terminal status is never downgraded.
//
// The upgrade rules are deliberately asymmetric: an offer or rejection
// highlight forces the status regardless of the current non-terminal value,
// while an interview highlight only advances an application that is exactly
// in the applied state.
func Enrich(summary *model.ThreadSummary, data *model.ExtractedJobData) {
	if summary == nil || data == nil {
		return
	}

	if data.Company == nil && summary.PrimaryCompany != "" {
		company := summary.PrimaryCompany
		data.Company = &company
	}

	has := func(tag string) bool {
		for _, highlight := range summary.Highlights {
			if highlight == tag {
				return true
			}
		}
		return false
	}

	current := model.ApplicationStatus("")
	if data.ApplicationStatus != nil {
		current = *data.ApplicationStatus
	}

	if (has(HighlightInterviewScheduled) || has(HighlightNextStage)) && current == model.StatusApplied {
		current = model.StatusInterviewing
	}
	if has(HighlightOfferExtended) && !current.IsTerminal() {
		current = model.StatusOfferReceived
	}
	if has(HighlightRejected) && current != model.StatusAccepted {
		current = model.StatusRejected
	}

	if current != "" {
		data.ApplicationStatus = &current
	}
}
