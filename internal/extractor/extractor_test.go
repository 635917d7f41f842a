package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmail-intel/internal/model"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	return f.response, f.err
}

func testEmail() *model.Email {
	return &model.Email{
		ID:          "msg-1",
		Subject:     "Interview with TechCorp",
		SenderName:  "Jane Doe",
		SenderEmail: "jane@techcorp.com",
		Body:        "We would like to schedule an interview.",
	}
}

func TestExtractParsesModelResponse(t *testing.T) {
	response := `{
		"company": "TechCorp Inc.",
		"position": " Software Engineer ",
		"applicationStatus": "interviewing",
		"dates": {"interview": "June 3, 2025", "deadline": null, "followup": null},
		"recruiter": {"name": "Jane Doe", "email": "jane@techcorp.com", "phone": null, "title": null},
		"metadata": {"salary": null, "location": "Remote", "requirements": ["Go"]},
		"nextAction": "Reply with availability",
		"keywords": ["interview"]
	}`
	ext := NewExtractor(&fakeLLM{response: response})

	data, err := ext.Extract(context.Background(), testEmail())

	assert.NoError(t, err)
	if assert.NotNil(t, data.Company) {
		assert.Equal(t, "TechCorp", *data.Company)
	}
	if assert.NotNil(t, data.Position) {
		assert.Equal(t, "Software Engineer", *data.Position)
	}
	if assert.NotNil(t, data.ApplicationStatus) {
		assert.Equal(t, model.StatusInterviewing, *data.ApplicationStatus)
	}
	if assert.NotNil(t, data.Dates.Interview) {
		assert.Equal(t, "2025-06-03", *data.Dates.Interview)
	}
	assert.Nil(t, data.Dates.Deadline)
}

func TestExtractStripsCodeFences(t *testing.T) {
	response := "```json\n" + `{"company": "TechCorp", "position": null, "applicationStatus": null,
		"dates": {"interview": null, "deadline": null, "followup": null},
		"recruiter": {"name": null, "email": null, "phone": null, "title": null},
		"metadata": {"salary": null, "location": null, "requirements": []},
		"nextAction": null, "keywords": []}` + "\n```"
	ext := NewExtractor(&fakeLLM{response: response})

	data, err := ext.Extract(context.Background(), testEmail())

	assert.NoError(t, err)
	if assert.NotNil(t, data.Company) {
		assert.Equal(t, "TechCorp", *data.Company)
	}
}

func TestExtractCompanyFallsBackToSenderDomain(t *testing.T) {
	response := `{"company": null, "position": null, "applicationStatus": null,
		"dates": {"interview": null, "deadline": null, "followup": null},
		"recruiter": {"name": null, "email": null, "phone": null, "title": null},
		"metadata": {"salary": null, "location": null, "requirements": []},
		"nextAction": null, "keywords": []}`
	ext := NewExtractor(&fakeLLM{response: response})

	data, err := ext.Extract(context.Background(), testEmail())

	assert.NoError(t, err)
	if assert.NotNil(t, data.Company) {
		assert.Equal(t, "Techcorp", *data.Company)
	}
}

func TestExtractCompanyFallsBackToSubject(t *testing.T) {
	response := `{"company": null, "position": null, "applicationStatus": null,
		"dates": {"interview": null, "deadline": null, "followup": null},
		"recruiter": {"name": null, "email": null, "phone": null, "title": null},
		"metadata": {"salary": null, "location": null, "requirements": []},
		"nextAction": null, "keywords": []}`
	ext := NewExtractor(&fakeLLM{response: response})

	email := testEmail()
	email.SenderEmail = "recruiter@gmail.com"

	data, err := ext.Extract(context.Background(), email)

	assert.NoError(t, err)
	if assert.NotNil(t, data.Company) {
		assert.Equal(t, "TechCorp", *data.Company)
	}
}

func TestExtractDropsInvalidStatus(t *testing.T) {
	response := `{"company": "TechCorp", "position": null, "applicationStatus": "ghosted",
		"dates": {"interview": null, "deadline": null, "followup": null},
		"recruiter": {"name": null, "email": null, "phone": null, "title": null},
		"metadata": {"salary": null, "location": null, "requirements": []},
		"nextAction": null, "keywords": []}`
	ext := NewExtractor(&fakeLLM{response: response})

	data, err := ext.Extract(context.Background(), testEmail())

	assert.NoError(t, err)
	assert.Nil(t, data.ApplicationStatus)
}

func TestExtractDefaultsLists(t *testing.T) {
	response := `{"company": null, "position": null, "applicationStatus": null,
		"dates": {"interview": null, "deadline": null, "followup": null},
		"recruiter": {"name": null, "email": null, "phone": null, "title": null},
		"metadata": {"salary": null, "location": null},
		"nextAction": null}`
	ext := NewExtractor(&fakeLLM{response: response})

	data, err := ext.Extract(context.Background(), testEmail())

	assert.NoError(t, err)
	assert.NotNil(t, data.Keywords)
	assert.Empty(t, data.Keywords)
	assert.NotNil(t, data.Metadata.Requirements)
	assert.Empty(t, data.Metadata.Requirements)
}

func TestExtractRejectsMalformedJSON(t *testing.T) {
	ext := NewExtractor(&fakeLLM{response: "the company is TechCorp"})

	data, err := ext.Extract(context.Background(), testEmail())

	assert.Error(t, err)
	assert.Nil(t, data)
}

func TestExtractPropagatesClientError(t *testing.T) {
	ext := NewExtractor(&fakeLLM{err: errors.New("upstream timeout")})

	data, err := ext.Extract(context.Background(), testEmail())

	assert.Error(t, err)
	assert.Nil(t, data)
}
