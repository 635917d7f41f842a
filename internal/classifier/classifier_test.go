package classifier

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
	lastUser string
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	f.lastUser = user
	return f.response, f.err
}

func testEmail() *model.Email {
	return &model.Email{
		ID:          "msg-1",
		Subject:     "Interview invitation",
		SenderName:  "Jane Doe",
		SenderEmail: "jane@techcorp.com",
		Body:        "We would like to invite you to interview.",
	}
}

func TestClassifyParsesModelResponse(t *testing.T) {
	response := `{"isJobRelated": true, "category": "interview_invitation", "confidence": 0.95, "reasoning": "direct invitation"}`
	cls := NewClassifier(&fakeLLM{response: response})

	result, err := cls.Classify(context.Background(), testEmail())

	assert.NoError(t, err)
	assert.True(t, result.IsJobRelated)
	assert.Equal(t, model.CategoryInterviewInvitation, result.Category)
	assert.Equal(t, 0.95, result.Confidence)
}

func TestClassifyStripsCodeFences(t *testing.T) {
	response := "```json\n" + `{"isJobRelated": false, "category": "not_job_related", "confidence": 0.8, "reasoning": "newsletter"}` + "\n```"
	cls := NewClassifier(&fakeLLM{response: response})

	result, err := cls.Classify(context.Background(), testEmail())

	assert.NoError(t, err)
	assert.False(t, result.IsJobRelated)
	assert.Equal(t, model.CategoryNotJobRelated, result.Category)
}

func TestClassifyRejectsMalformedJSON(t *testing.T) {
	cls := NewClassifier(&fakeLLM{response: "this email looks job related to me"})

	result, err := cls.Classify(context.Background(), testEmail())

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestClassifyRejectsUnknownCategory(t *testing.T) {
	response := `{"isJobRelated": true, "category": "spam", "confidence": 0.9, "reasoning": ""}`
	cls := NewClassifier(&fakeLLM{response: response})

	result, err := cls.Classify(context.Background(), testEmail())

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestClassifyClampsConfidence(t *testing.T) {
	response := `{"isJobRelated": true, "category": "offer", "confidence": 1.7, "reasoning": ""}`
	cls := NewClassifier(&fakeLLM{response: response})

	result, err := cls.Classify(context.Background(), testEmail())

	assert.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassifyPropagatesClientError(t *testing.T) {
	cls := NewClassifier(&fakeLLM{err: errors.New("upstream timeout")})

	result, err := cls.Classify(context.Background(), testEmail())

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestClassifyTruncatesLongBodies(t *testing.T) {
	body := make([]byte, 5000)
	for i := range body {
		body[i] = 'a'
	}
	email := testEmail()
	email.Body = string(body)

	llm := &fakeLLM{response: `{"isJobRelated": false, "category": "not_job_related", "confidence": 0.5, "reasoning": ""}`}
	cls := NewClassifier(llm)

	_, err := cls.Classify(context.Background(), email)

	assert.NoError(t, err)
	assert.Less(t, len(llm.lastUser), 2000)
}
