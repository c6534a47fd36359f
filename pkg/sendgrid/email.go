package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendPath = "/v3/mail/send"

// MetadataKind is the metadata key whose value becomes the SendGrid category,
// e.g. "verification" or "order_confirmation".
const MetadataKind = "kind"

var ErrNoRecipient = errors.New("email has no recipient")

// SendError is returned when SendGrid answers with a non 2xx status.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("failed to send email, status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("failed to send email, status code: %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether SendGrid may accept the same message later.
func (e *SendError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

type EmailService interface {
	Send(ctx context.Context, req *models.EmailNotificationRequest) error
}

type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
	ReplyTo   string
	// Sandbox validates messages without delivering them.
	Sandbox bool
	// Host overrides https://api.sendgrid.com.
	Host string
}

type emailService struct {
	client *sendgrid.Client
	cfg    Config
}

func NewEmailService(cfg Config) EmailService {
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.Host != "" {
		client.Request.BaseURL = strings.TrimRight(cfg.Host, "/") + sendPath
	}

	return &emailService{client: client, cfg: cfg}
}

func (e *emailService) build(req *models.EmailNotificationRequest) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(e.cfg.FromName, e.cfg.FromEmail))

	if e.cfg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", e.cfg.ReplyTo))
	}

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", req.Recipient))
	for _, cc := range req.CC {
		p.AddCCs(mail.NewEmail("", cc))
	}
	for _, bcc := range req.BCC {
		p.AddBCCs(mail.NewEmail("", bcc))
	}
	p.Subject = req.Subject

	// custom args come back on SendGrid event webhooks
	keys := make([]string, 0, len(req.Metadata))
	for k := range req.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.SetCustomArg(k, req.Metadata[k])
	}

	message.AddPersonalizations(p)

	if kind := req.Metadata[MetadataKind]; kind != "" {
		message.AddCategories(kind)
	}

	// text/plain has to precede text/html
	message.AddContent(mail.NewContent("text/plain", req.Content))
	if req.HTMLContent != "" {
		message.AddContent(mail.NewContent("text/html", req.HTMLContent))
	}

	if e.cfg.Sandbox {
		settings := mail.NewMailSettings()
		settings.SetSandboxMode(mail.NewSetting(true))
		message.SetMailSettings(settings)
	}

	return message
}

func (e *emailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {
	if strings.TrimSpace(req.Recipient) == "" {
		return ErrNoRecipient
	}

	response, err := e.client.SendWithContext(ctx, e.build(req))
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}

	if response.StatusCode >= 300 {
		return &SendError{StatusCode: response.StatusCode, Body: strings.TrimSpace(response.Body)}
	}

	return nil
}
