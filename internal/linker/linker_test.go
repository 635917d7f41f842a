package linker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobmail-intel/internal/model"
)

type fakeJobStore struct {
	candidates []model.JobApplication
	searchErr  error
	domainJobs []model.JobApplication
	domainErr  error
	windowJobs []model.JobApplication
	windowErr  error

	jobUpdatedAt time.Time
	statusSet    string

	searchCalls int
	domainCalls int
	windowCalls int
}

func (f *fakeJobStore) SearchCandidates(ctx context.Context, company, position string, limit int) ([]model.JobApplication, error) {
	f.searchCalls++
	return f.candidates, f.searchErr
}

func (f *fakeJobStore) FindByDomain(ctx context.Context, domain string) ([]model.JobApplication, error) {
	f.domainCalls++
	return f.domainJobs, f.domainErr
}

func (f *fakeJobStore) FindAtCompanyCreatedBetween(ctx context.Context, company string, from, to time.Time) ([]model.JobApplication, error) {
	f.windowCalls++
	return f.windowJobs, f.windowErr
}

func (f *fakeJobStore) UpdateStatusIfNewer(ctx context.Context, id uint, status string, emailTime time.Time) (bool, error) {
	if !emailTime.After(f.jobUpdatedAt) {
		return false, nil
	}
	f.statusSet = status
	f.jobUpdatedAt = emailTime
	return true, nil
}

type fakeThreadStore struct {
	counts map[uint]int
	err    error
	calls  int
}

func (f *fakeThreadStore) LinkedJobCounts(ctx context.Context, threadID, excludeEmailID string) (map[uint]int, error) {
	f.calls++
	return f.counts, f.err
}

func strPtr(s string) *string { return &s }

func linkEmail() *model.Email {
	return &model.Email{
		ID:          "msg-1",
		ThreadID:    "thread-1",
		SenderEmail: "jane@techcorp.com",
		ReceivedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func extractedData(company, position string) *model.ExtractedJobData {
	data := &model.ExtractedJobData{}
	if company != "" {
		data.Company = strPtr(company)
	}
	if position != "" {
		data.Position = strPtr(position)
	}
	return data
}

func TestLinkEmailExactMatchWins(t *testing.T) {
	jobs := &fakeJobStore{
		candidates: []model.JobApplication{
			{ID: 7, Company: "TechCorp", Title: "Software Engineer"},
		},
	}
	l := NewLinker(jobs, &fakeThreadStore{})

	result := l.LinkEmail(context.Background(), linkEmail(), extractedData("TechCorp", "Software Engineer"))

	if assert.NotNil(t, result) {
		assert.Equal(t, uint(7), result.JobID)
		assert.Equal(t, model.StrategyExactCompanyPosition, result.Strategy)
		assert.GreaterOrEqual(t, result.Confidence, 0.8)
	}
	// Later strategies are never consulted once an earlier one qualifies
	assert.Equal(t, 0, jobs.domainCalls)
	assert.Equal(t, 0, jobs.windowCalls)
}

func TestLinkEmailExactMatchPicksBestCandidate(t *testing.T) {
	jobs := &fakeJobStore{
		candidates: []model.JobApplication{
			{ID: 1, Company: "TechCorp", Title: "Data Analyst"},
			{ID: 2, Company: "TechCorp", Title: "Software Engineer"},
		},
	}
	l := NewLinker(jobs, &fakeThreadStore{})

	result := l.LinkEmail(context.Background(), linkEmail(), extractedData("TechCorp", "Software Engineer"))

	if assert.NotNil(t, result) {
		assert.Equal(t, uint(2), result.JobID)
	}
}

func TestLinkEmailDomainMatchWithSimilarTitle(t *testing.T) {
	jobs := &fakeJobStore{
		domainJobs: []model.JobApplication{
			{ID: 11, Company: "TechCorp", Title: "Software Engineer"},
		},
	}
	l := NewLinker(jobs, &fakeThreadStore{})

	// No company extracted, so the exact strategy is skipped
	result := l.LinkEmail(context.Background(), linkEmail(), extractedData("", "Software Engineer"))

	if assert.NotNil(t, result) {
		assert.Equal(t, uint(11), result.JobID)
		assert.Equal(t, model.StrategyDomainMatch, result.Strategy)
		assert.Equal(t, 0.85, result.Confidence)
	}
}

func TestLinkEmailDomainFallbackBelowFloor(t *testing.T) {
	// Domain found but no usable title: the 0.7 fallback is below the
	// acceptance floor, so the link is refused
	jobs := &fakeJobStore{
		domainJobs: []model.JobApplication{
			{ID: 11, Company: "TechCorp", Title: "Software Engineer"},
		},
	}
	l := NewLinker(jobs, &fakeThreadStore{})

	result := l.LinkEmail(context.Background(), linkEmail(), nil)

	assert.Nil(t, result)
	assert.Equal(t, 1, jobs.domainCalls)
}

func TestLinkEmailSkipsFreeMailDomain(t *testing.T) {
	jobs := &fakeJobStore{}
	l := NewLinker(jobs, &fakeThreadStore{})

	email := linkEmail()
	email.SenderEmail = "recruiter@gmail.com"

	result := l.LinkEmail(context.Background(), email, nil)

	assert.Nil(t, result)
	assert.Equal(t, 0, jobs.domainCalls)
}

func TestLinkEmailThreadHistory(t *testing.T) {
	threads := &fakeThreadStore{counts: map[uint]int{42: 2}}
	l := NewLinker(&fakeJobStore{}, threads)

	result := l.LinkEmail(context.Background(), linkEmail(), nil)

	if assert.NotNil(t, result) {
		assert.Equal(t, uint(42), result.JobID)
		assert.Equal(t, model.StrategyThreadHistory, result.Strategy)
		assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	}
}

func TestLinkEmailThreadHistoryConfidenceIsCapped(t *testing.T) {
	threads := &fakeThreadStore{counts: map[uint]int{42: 7}}
	l := NewLinker(&fakeJobStore{}, threads)

	result := l.LinkEmail(context.Background(), linkEmail(), nil)

	if assert.NotNil(t, result) {
		assert.Equal(t, 0.9, result.Confidence)
	}
}

func TestLinkEmailThreadHistoryPicksMostFrequentJob(t *testing.T) {
	threads := &fakeThreadStore{counts: map[uint]int{3: 1, 42: 2}}
	l := NewLinker(&fakeJobStore{}, threads)

	result := l.LinkEmail(context.Background(), linkEmail(), nil)

	if assert.NotNil(t, result) {
		assert.Equal(t, uint(42), result.JobID)
	}
}

func TestTimeProximityNeverClearsTheFloor(t *testing.T) {
	email := linkEmail()
	email.SenderEmail = "recruiter@gmail.com"
	jobs := &fakeJobStore{
		windowJobs: []model.JobApplication{
			{ID: 5, Company: "TechCorp", CreatedAt: email.ReceivedAt},
		},
	}
	l := NewLinker(jobs, &fakeThreadStore{})

	// The strategy itself produces a candidate at its 0.7 maximum
	result, err := l.matchTimeProximity(context.Background(), email, extractedData("TechCorp", ""))
	assert.NoError(t, err)
	if assert.NotNil(t, result) {
		assert.InDelta(t, 0.7, result.Confidence, 1e-9)
	}

	// But the linker refuses it against the acceptance floor
	assert.Nil(t, l.LinkEmail(context.Background(), email, extractedData("TechCorp", "")))
}

func TestMatchTimeProximityDiscardsDistantJobs(t *testing.T) {
	email := linkEmail()
	jobs := &fakeJobStore{
		windowJobs: []model.JobApplication{
			{ID: 5, Company: "TechCorp", CreatedAt: email.ReceivedAt.AddDate(0, 0, -28)},
		},
	}
	l := NewLinker(jobs, &fakeThreadStore{})

	// 28 days out: 0.7 * (1 - 0.5*28/30) ~ 0.37, below the strategy's own bar
	result, err := l.matchTimeProximity(context.Background(), email, extractedData("TechCorp", ""))

	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatchTimeProximityEmailPredatesApplication(t *testing.T) {
	email := linkEmail()
	jobs := &fakeJobStore{
		windowJobs: []model.JobApplication{
			{ID: 5, Company: "TechCorp", CreatedAt: email.ReceivedAt.AddDate(0, 0, 2)},
		},
	}
	l := NewLinker(jobs, &fakeThreadStore{})

	// Predating emails start from the 0.5 base and can never reach 0.6
	result, err := l.matchTimeProximity(context.Background(), email, extractedData("TechCorp", ""))

	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestLinkEmailStrategyErrorDoesNotAbort(t *testing.T) {
	jobs := &fakeJobStore{
		searchErr: errors.New("connection refused"),
		domainJobs: []model.JobApplication{
			{ID: 11, Company: "TechCorp", Title: "Software Engineer"},
		},
	}
	l := NewLinker(jobs, &fakeThreadStore{})

	result := l.LinkEmail(context.Background(), linkEmail(), extractedData("TechCorp", "Software Engineer"))

	if assert.NotNil(t, result) {
		assert.Equal(t, model.StrategyDomainMatch, result.Strategy)
	}
}

func TestLinkEmailNoMatchIsNotAnError(t *testing.T) {
	email := linkEmail()
	email.SenderEmail = "recruiter@gmail.com"
	email.ThreadID = ""
	l := NewLinker(&fakeJobStore{}, &fakeThreadStore{})

	assert.Nil(t, l.LinkEmail(context.Background(), email, nil))
}

func TestUpdateJobStatusFromEmailByCategory(t *testing.T) {
	jobs := &fakeJobStore{jobUpdatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLinker(jobs, &fakeThreadStore{})

	updated, err := l.UpdateJobStatusFromEmail(context.Background(), 7, model.CategoryOffer, nil,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, "offer", jobs.statusSet)
}

func TestUpdateJobStatusFromEmailOlderEmailLoses(t *testing.T) {
	jobs := &fakeJobStore{jobUpdatedAt: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}
	l := NewLinker(jobs, &fakeThreadStore{})

	updated, err := l.UpdateJobStatusFromEmail(context.Background(), 7, model.CategoryRejection, nil,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.False(t, updated)
	assert.Empty(t, jobs.statusSet)
}

func TestUpdateJobStatusFromEmailFallsBackToExtractedStatus(t *testing.T) {
	jobs := &fakeJobStore{}
	l := NewLinker(jobs, &fakeThreadStore{})

	status := model.StatusInterviewing
	updated, err := l.UpdateJobStatusFromEmail(context.Background(), 7, model.CategoryFollowup,
		&model.ExtractedJobData{ApplicationStatus: &status},
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, "interview", jobs.statusSet)
}

func TestUpdateJobStatusFromEmailNoHint(t *testing.T) {
	jobs := &fakeJobStore{}
	l := NewLinker(jobs, &fakeThreadStore{})

	updated, err := l.UpdateJobStatusFromEmail(context.Background(), 7, model.CategoryNetworking, nil, time.Now())

	assert.NoError(t, err)
	assert.False(t, updated)
	assert.Empty(t, jobs.statusSet)
}
