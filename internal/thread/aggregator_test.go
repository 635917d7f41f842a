package thread

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobmail-intel/internal/model"
)

type fakeLoader struct {
	emails []model.Email
	err    error
}

func (f *fakeLoader) ListThreadEmails(ctx context.Context, threadID string) ([]model.Email, error) {
	return f.emails, f.err
}

func threadEmail(sender, subject, body string, recipients ...string) model.Email {
	return model.Email{
		ThreadID:    "thread-1",
		SenderEmail: sender,
		Subject:     subject,
		Body:        body,
		Recipients:  model.StringList(recipients),
		ReceivedAt:  time.Now(),
	}
}

func TestAnalyzeThreadConversation(t *testing.T) {
	loader := &fakeLoader{emails: []model.Email{
		threadEmail("jane@techcorp.com", "Interview with TechCorp", "We'd like to interview you.", "me@gmail.com"),
		threadEmail("me@gmail.com", "Re: Interview with TechCorp", "Sounds great, thank you.", "jane@techcorp.com"),
		threadEmail("jane@techcorp.com", "Re: Interview with TechCorp", "Please let me know your availability.", "me@gmail.com"),
	}}
	agg := NewAggregator(loader, []string{"me@gmail.com"})

	summary, err := agg.AnalyzeThread(context.Background(), "thread-1", "msg-3")

	assert.NoError(t, err)
	assert.Equal(t, 3, summary.MessageCount)
	assert.Equal(t, []string{"me@gmail.com"}, summary.Participants.Internal)
	assert.Equal(t, []string{"jane@techcorp.com"}, summary.Participants.External)
	assert.True(t, summary.LastSenderExternal)
	assert.True(t, summary.RequiresAction)
	assert.Equal(t, "Techcorp", summary.PrimaryCompany)
}

func TestAnalyzeThreadLastSenderInternal(t *testing.T) {
	loader := &fakeLoader{emails: []model.Email{
		threadEmail("jane@techcorp.com", "Interview", "Please confirm your slot.", "me@gmail.com"),
		threadEmail("me@gmail.com", "Re: Interview", "Confirmed, see you then.", "jane@techcorp.com"),
	}}
	agg := NewAggregator(loader, []string{"me@gmail.com"})

	summary, err := agg.AnalyzeThread(context.Background(), "thread-1", "msg-2")

	assert.NoError(t, err)
	assert.False(t, summary.LastSenderExternal)
	assert.False(t, summary.RequiresAction)
}

func TestAnalyzeThreadHighlightsAreASet(t *testing.T) {
	loader := &fakeLoader{emails: []model.Email{
		threadEmail("jane@techcorp.com", "Interview scheduled", "Your interview is scheduled for Monday.", "me@gmail.com"),
		threadEmail("jane@techcorp.com", "Reminder", "Reminder: interview confirmed on your calendar.", "me@gmail.com"),
	}}
	agg := NewAggregator(loader, []string{"me@gmail.com"})

	summary, err := agg.AnalyzeThread(context.Background(), "thread-1", "msg-2")

	assert.NoError(t, err)
	assert.Equal(t, []string{HighlightInterviewScheduled}, summary.Highlights)
}

func TestAnalyzeThreadRejectionHighlightNeedsCoOccurrence(t *testing.T) {
	loader := &fakeLoader{emails: []model.Email{
		threadEmail("jane@techcorp.com", "Update", "Unfortunately we are closed on Friday.", "me@gmail.com"),
	}}
	agg := NewAggregator(loader, []string{"me@gmail.com"})

	summary, err := agg.AnalyzeThread(context.Background(), "thread-1", "msg-1")

	assert.NoError(t, err)
	assert.Empty(t, summary.Highlights)

	loader.emails = []model.Email{
		threadEmail("jane@techcorp.com", "Update on your application",
			"Unfortunately we have decided to move forward with other candidates.", "me@gmail.com"),
	}

	summary, err = agg.AnalyzeThread(context.Background(), "thread-1", "msg-1")

	assert.NoError(t, err)
	assert.Contains(t, summary.Highlights, HighlightRejected)
}

func TestAnalyzeThreadEmptyThread(t *testing.T) {
	agg := NewAggregator(&fakeLoader{}, []string{"me@gmail.com"})

	summary, err := agg.AnalyzeThread(context.Background(), "thread-1", "msg-1")

	assert.NoError(t, err)
	assert.Equal(t, 0, summary.MessageCount)
	assert.Empty(t, summary.Highlights)
	assert.Empty(t, summary.Participants.External)
	assert.False(t, summary.RequiresAction)
}

func TestAnalyzeThreadLoaderError(t *testing.T) {
	agg := NewAggregator(&fakeLoader{err: errors.New("connection refused")}, nil)

	summary, err := agg.AnalyzeThread(context.Background(), "thread-1", "msg-1")

	assert.Error(t, err)
	assert.Nil(t, summary)
}

func TestPrimaryCompanyPrefersExtractedColumn(t *testing.T) {
	first := threadEmail("jane@techcorp.com", "Hi", "body", "me@gmail.com")
	first.Company = "TechCorp"
	second := threadEmail("jane@techcorp.com", "Re: Hi", "body", "me@gmail.com")
	second.Company = "TechCorp"
	third := threadEmail("bob@globex.com", "Intro", "body", "me@gmail.com")

	assert.Equal(t, "TechCorp", primaryCompany([]model.Email{first, second, third}))
}

func TestPrimaryCompanyTieBreaksToFirstOccurrence(t *testing.T) {
	first := threadEmail("jane@techcorp.com", "Hi", "body")
	first.Company = "TechCorp"
	second := threadEmail("bob@globex.com", "Hi", "body")
	second.Company = "Globex"

	assert.Equal(t, "TechCorp", primaryCompany([]model.Email{first, second}))
}

func TestSummaryLineIncludesCompanyAndPosition(t *testing.T) {
	first := threadEmail("jane@techcorp.com", "Hi", "body", "me@gmail.com")
	first.Company = "TechCorp"
	first.Position = "Software Engineer"
	loader := &fakeLoader{emails: []model.Email{first}}
	agg := NewAggregator(loader, []string{"me@gmail.com"})

	summary, err := agg.AnalyzeThread(context.Background(), "thread-1", "msg-1")

	assert.NoError(t, err)
	assert.Equal(t, "Conversation with TechCorp about Software Engineer (1 message)", summary.Summary)
}
