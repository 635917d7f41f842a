package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TechCorp Inc.", "TechCorp"},
		{"TechCorp Inc", "TechCorp"},
		{"Acme Corporation", "Acme"},
		{"Initech, LLC", "Initech"},
		{"Globex Ltd.", "Globex"},
		{"Hooli GmbH", "Hooli"},
		{"Stark Industries", "Stark Industries"},
		{"  TechCorp  ", "TechCorp"},
		{"TechCorp.", "TechCorp"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCompany(tt.in), "input %q", tt.in)
	}
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "techcorp.com", DomainOf("recruiter@techcorp.com"))
	assert.Equal(t, "techcorp.com", DomainOf("Jane Doe <jane@techcorp.com>"))
	assert.Equal(t, "techcorp.com", DomainOf("jane@TechCorp.COM"))
	assert.Equal(t, "", DomainOf("no-at-sign"))
	assert.Equal(t, "", DomainOf("trailing@"))
	assert.Equal(t, "", DomainOf(""))
}

func TestIsFreeMailDomain(t *testing.T) {
	assert.True(t, IsFreeMailDomain("gmail.com"))
	assert.True(t, IsFreeMailDomain("Gmail.Com"))
	assert.True(t, IsFreeMailDomain("proton.me"))
	assert.False(t, IsFreeMailDomain("techcorp.com"))
}

func TestCompanyFromDomain(t *testing.T) {
	assert.Equal(t, "Techcorp", CompanyFromDomain("recruiter@techcorp.com"))
	assert.Equal(t, "Greenhouse", CompanyFromDomain("no-reply@greenhouse.io"))
	assert.Equal(t, "", CompanyFromDomain("someone@gmail.com"))
	assert.Equal(t, "", CompanyFromDomain("not-an-address"))
}

func TestCompanyFromSubject(t *testing.T) {
	assert.Equal(t, "TechCorp", CompanyFromSubject("Your application to TechCorp"))
	assert.Equal(t, "TechCorp", CompanyFromSubject("Interview with TechCorp"))
	assert.Equal(t, "TechCorp", CompanyFromSubject("A note from the TechCorp team"))
	assert.Equal(t, "", CompanyFromSubject("Weekly newsletter"))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-06-01", "2025-06-01"},
		{"June 3, 2025", "2025-06-03"},
		{"Jun 3, 2025", "2025-06-03"},
		{"06/15/2025", "2025-06-15"},
		{"2025/06/15", "2025-06-15"},
		{"2025-06-03T14:00:05Z", "2025-06-03T14:00:05Z"},
		{"June 3, 2025 at 2:30 PM", "2025-06-03T14:30:00Z"},
	}

	for _, tt := range tests {
		got := NormalizeDate(tt.in)
		if assert.NotNil(t, got, "input %q", tt.in) {
			assert.Equal(t, tt.want, *got, "input %q", tt.in)
		}
	}
}

func TestNormalizeDateUnparseablePassesThrough(t *testing.T) {
	got := NormalizeDate("next Tuesday")
	if assert.NotNil(t, got) {
		assert.Equal(t, "next Tuesday", *got)
	}
}

func TestNormalizeDateEmptyIsNil(t *testing.T) {
	assert.Nil(t, NormalizeDate(""))
	assert.Nil(t, NormalizeDate("   "))
}
