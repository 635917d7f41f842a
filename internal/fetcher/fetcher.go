package fetcher

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"

	"jobmail-intel/internal/config"
	"jobmail-intel/internal/model"
)

// EmailFetcher pulls new messages from the mail provider as store-ready rows
type EmailFetcher interface {
	FetchNewEmails(ctx context.Context) ([]model.Email, error)
	Close() error
}

// GmailAPIFetcher implements EmailFetcher using the Gmail API
type GmailAPIFetcher struct {
	service   *gmail.Service
	userEmail string
	lastCheck time.Time
}

// IMAPFetcher implements EmailFetcher using IMAP
type IMAPFetcher struct {
	client    *client.Client
	lastCheck time.Time
}

// NewFetcher creates the fetcher selected by configuration
func NewFetcher(cfg *config.GmailConfig) (EmailFetcher, error) {
	if cfg.UseIMAP {
		return NewIMAPFetcher(cfg)
	}
	return NewGmailAPIFetcher(cfg)
}

// NewGmailAPIFetcher creates a new Gmail API fetcher
func NewGmailAPIFetcher(cfg *config.GmailConfig) (*GmailAPIFetcher, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailAPIFetcher{
		service:   service,
		userEmail: cfg.UserEmail,
		lastCheck: time.Now().Add(-24 * time.Hour),
	}, nil
}

// FetchNewEmails fetches new emails using the Gmail API
func (f *GmailAPIFetcher) FetchNewEmails(ctx context.Context) ([]model.Email, error) {
	query := fmt.Sprintf("after:%d", f.lastCheck.Unix())

	call := f.service.Users.Messages.List(f.userEmail).Q(query)
	response, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var emails []model.Email

	for _, msg := range response.Messages {
		full, err := f.service.Users.Messages.Get(f.userEmail, msg.Id).Format("full").Context(ctx).Do()
		if err != nil {
			logrus.Warnf("Failed to get message %s: %v", msg.Id, err)
			continue
		}

		email, err := f.parseGmailMessage(full)
		if err != nil {
			logrus.Warnf("Failed to parse message %s: %v", msg.Id, err)
			continue
		}

		emails = append(emails, email)
	}

	f.lastCheck = time.Now()
	return emails, nil
}

// parseGmailMessage converts a Gmail API message into a store row
func (f *GmailAPIFetcher) parseGmailMessage(msg *gmail.Message) (model.Email, error) {
	email := model.Email{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		ReceivedAt: time.UnixMilli(msg.InternalDate),
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			email.Subject = header.Value
		case "From":
			email.SenderName, email.SenderEmail = parseAddress(header.Value)
		case "To", "Cc":
			email.Recipients = append(email.Recipients, parseAddressList(header.Value)...)
		}
	}

	if err := f.parseGmailBody(msg.Payload, &email); err != nil {
		return email, err
	}

	return email, nil
}

// parseGmailBody recursively collects the plain-text body from message parts
func (f *GmailAPIFetcher) parseGmailBody(part *gmail.MessagePart, email *model.Email) error {
	if part.Body != nil && part.Body.Data != "" && part.MimeType == "text/plain" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return fmt.Errorf("failed to decode body data: %w", err)
		}
		if email.Body == "" {
			email.Body = string(data)
		}
	}

	for _, subPart := range part.Parts {
		if err := f.parseGmailBody(subPart, email); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the Gmail API fetcher
func (f *GmailAPIFetcher) Close() error {
	// Gmail API service doesn't need explicit closing
	return nil
}

// NewIMAPFetcher creates a new IMAP fetcher
func NewIMAPFetcher(cfg *config.GmailConfig) (*IMAPFetcher, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return &IMAPFetcher{
		client:    c,
		lastCheck: time.Now().Add(-24 * time.Hour),
	}, nil
}

// FetchNewEmails fetches new emails using IMAP
func (f *IMAPFetcher) FetchNewEmails(ctx context.Context) ([]model.Email, error) {
	_, err := f.client.Select("INBOX", false)
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = f.lastCheck

	uids, err := f.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	if len(uids) == 0 {
		f.lastCheck = time.Now()
		return []model.Email{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)

	go func() {
		done <- f.client.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchBody, imap.FetchUid}, messages)
	}()

	var emails []model.Email

	for msg := range messages {
		email, err := f.parseIMAPMessage(msg)
		if err != nil {
			logrus.Warnf("Failed to parse IMAP message: %v", err)
			continue
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	f.lastCheck = time.Now()
	return emails, nil
}

// parseIMAPMessage converts an IMAP message into a store row. IMAP has no
// provider thread id, so the In-Reply-To header (falling back to the
// Message-Id) stands in for one.
func (f *IMAPFetcher) parseIMAPMessage(msg *imap.Message) (model.Email, error) {
	var email model.Email

	if msg.Envelope != nil {
		email.ID = strings.Trim(msg.Envelope.MessageId, "<>")
		email.Subject = msg.Envelope.Subject
		email.ReceivedAt = msg.Envelope.Date

		email.ThreadID = strings.Trim(msg.Envelope.InReplyTo, "<>")
		if email.ThreadID == "" {
			email.ThreadID = email.ID
		}

		if len(msg.Envelope.From) > 0 {
			email.SenderName = msg.Envelope.From[0].PersonalName
			email.SenderEmail = msg.Envelope.From[0].Address()
		}
		for _, addr := range append(msg.Envelope.To, msg.Envelope.Cc...) {
			email.Recipients = append(email.Recipients, addr.Address())
		}
	}

	if err := f.parseIMAPBody(msg, &email); err != nil {
		return email, err
	}

	return email, nil
}

// parseIMAPBody extracts the plain-text body from an IMAP message
func (f *IMAPFetcher) parseIMAPBody(msg *imap.Message, email *model.Email) error {
	if msg.Body == nil {
		return nil
	}

	section := &imap.BodySectionName{}
	r := msg.GetBody(section)
	if r == nil {
		return fmt.Errorf("failed to get message body")
	}

	entity, err := message.Read(r)
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}

	if mr := entity.MultipartReader(); mr != nil {
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read part: %w", err)
			}

			contentType := p.Header.Get("Content-Type")
			if !strings.Contains(contentType, "text/plain") {
				continue
			}

			content, err := io.ReadAll(p.Body)
			if err != nil {
				return fmt.Errorf("failed to read part body: %w", err)
			}
			if email.Body == "" {
				email.Body = string(content)
			}
		}
		return nil
	}

	content, err := io.ReadAll(entity.Body)
	if err != nil {
		return fmt.Errorf("failed to read message body: %w", err)
	}
	email.Body = string(content)
	return nil
}

// Close closes the IMAP fetcher
func (f *IMAPFetcher) Close() error {
	return f.client.Logout()
}

// parseAddress splits an RFC 5322 address into display name and address
func parseAddress(raw string) (name, address string) {
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return "", strings.TrimSpace(raw)
	}
	return parsed.Name, parsed.Address
}

// parseAddressList parses a comma-separated address header
func parseAddressList(raw string) []string {
	parsed, err := mail.ParseAddressList(raw)
	if err != nil {
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if addr := strings.TrimSpace(part); addr != "" {
				out = append(out, addr)
			}
		}
		return out
	}
	out := make([]string, 0, len(parsed))
	for _, addr := range parsed {
		out = append(out, addr.Address)
	}
	return out
}
