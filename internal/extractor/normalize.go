package extractor

import (
	"regexp"
	"strings"
	"time"
)

// freeMailProviders are consumer mail domains that never identify a company
var freeMailProviders = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"outlook.com":    true,
	"hotmail.com":    true,
	"live.com":       true,
	"msn.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"aol.com":        true,
	"protonmail.com": true,
	"proton.me":      true,
}

var corporateSuffixes = []string{
	"incorporated", "corporation", "limited", "company",
	"inc", "llc", "ltd", "corp", "gmbh", "co", "plc",
}

// IsFreeMailDomain reports whether a domain belongs to a consumer mail
// provider rather than a company
func IsFreeMailDomain(domain string) bool {
	return freeMailProviders[strings.ToLower(domain)]
}

// DomainOf returns the lowercased domain of an email address, or "" if the
// address has no domain part
func DomainOf(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	domain := strings.ToLower(strings.TrimSpace(addr[at+1:]))
	return strings.TrimSuffix(domain, ">")
}

// NormalizeCompany strips corporate suffixes and noise from a company name
func NormalizeCompany(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, ".,;:")
	for {
		lower := strings.ToLower(name)
		stripped := false
		for _, suffix := range corporateSuffixes {
			for _, sep := range []string{" ", ", "} {
				if strings.HasSuffix(lower, sep+suffix) || strings.HasSuffix(lower, sep+suffix+".") {
					name = strings.TrimSpace(name[:len(lower)-len(suffix)-len(sep)])
					name = strings.TrimSuffix(name, ",")
					stripped = true
					break
				}
			}
			if stripped {
				break
			}
		}
		if !stripped {
			break
		}
	}
	return strings.TrimSpace(name)
}

// CompanyFromDomain derives a company name from a sender address domain.
// Free-mail providers yield "".
func CompanyFromDomain(addr string) string {
	domain := DomainOf(addr)
	if domain == "" || IsFreeMailDomain(domain) {
		return ""
	}
	label := strings.Split(domain, ".")[0]
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

var subjectCompanyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)application (?:to|at|with) ([A-Za-z0-9][A-Za-z0-9&.\- ]{1,60})`),
	regexp.MustCompile(`(?i)interview (?:at|with) ([A-Za-z0-9][A-Za-z0-9&.\- ]{1,60})`),
	regexp.MustCompile(`(?i)\bfrom the ([A-Za-z0-9][A-Za-z0-9&.\- ]{1,60}) team\b`),
}

// CompanyFromSubject attempts to pull a company name out of a subject line
func CompanyFromSubject(subject string) string {
	for _, re := range subjectCompanyPatterns {
		if m := re.FindStringSubmatch(subject); m != nil {
			return NormalizeCompany(m[1])
		}
	}
	return ""
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"January 2, 2006 at 3:04 PM",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
}

var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"01/02/2006",
	"2006/01/02",
	"Monday, January 2, 2006",
	"Monday, January 2",
}

// NormalizeDate converts a free-form date string to ISO-8601. A value that
// cannot be parsed is passed through unchanged; an empty value is nil.
func NormalizeDate(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.Format("2006-01-02T15:04:05Z07:00")
			return &iso
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() == 0 {
				t = t.AddDate(time.Now().Year(), 0, 0)
			}
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return &s
}
